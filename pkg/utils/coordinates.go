package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CoordinatePlaces is the fixed fractional precision for stored coordinates.
const CoordinatePlaces = 6

// NormalizeCoordinate canonicalizes a latitude/longitude value submitted as a
// form string. Empty input passes through unchanged. Parseable numeric input
// is rounded half-up to exactly six fractional digits and returned in fixed
// notation so equal coordinates compare equal as strings. Input that does not
// parse is returned unchanged; field validation rejects it later.
func NormalizeCoordinate(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}

	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return value
	}

	return d.Round(CoordinatePlaces).StringFixed(CoordinatePlaces)
}
