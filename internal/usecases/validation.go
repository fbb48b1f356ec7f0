package usecases

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"rapex.backend/internal/domain/entities"
	domainerrors "rapex.backend/internal/domain/errors"
)

func validateStep1(input *entities.Step1Input) error {
	fields := map[string]string{}

	if strings.TrimSpace(input.BusinessName) == "" {
		fields["business_name"] = "business name is required"
	}
	if strings.TrimSpace(input.OwnerName) == "" {
		fields["owner_name"] = "owner name is required"
	}
	if strings.TrimSpace(input.Username) == "" {
		fields["username"] = "username is required"
	}
	if strings.TrimSpace(input.Email) == "" {
		fields["email"] = "email is required"
	}

	phone := strings.TrimSpace(input.PhoneNumber)
	if phone == "" {
		fields["phone_number"] = "phone number is required"
	} else if !phonePattern.MatchString(phone) {
		fields["phone_number"] = "phone number must match the format +63 912 123 1234"
	}

	if !input.BusinessRegistration.Valid() {
		fields["business_registration"] = "must be one of UNREGISTERED, REGISTERED_NON_VAT, REGISTERED_VAT"
	}

	if len(fields) > 0 {
		return domainerrors.Validation(fields)
	}
	return nil
}

func validateStep2(input *entities.Step2Input) error {
	fields := map[string]string{}

	required := []struct {
		name  string
		value string
	}{
		{"zip_code", input.ZipCode},
		{"province", input.Province},
		{"city", input.City},
		{"barangay", input.Barangay},
		{"street_name", input.StreetName},
		{"house_number", input.HouseNumber},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			fields[f.name] = f.name + " is required"
		}
	}

	// Coordinates are optional, but a present value must parse as a decimal.
	coords := []struct {
		name  string
		value string
	}{
		{"latitude", input.Latitude},
		{"longitude", input.Longitude},
	}
	for _, c := range coords {
		v := strings.TrimSpace(c.value)
		if v == "" {
			continue
		}
		if _, err := decimal.NewFromString(v); err != nil {
			fields[c.name] = c.name + " must be a decimal number"
		}
	}

	if len(fields) > 0 {
		return domainerrors.Validation(fields)
	}
	return nil
}

// validatePassword enforces the self-service password rules: at least 8
// characters with an upper-case letter, a lower-case letter and a digit,
// and a matching confirmation.
func validatePassword(password, confirm string) error {
	fields := map[string]string{}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case len(password) < 8:
		fields["password"] = "password must be at least 8 characters"
	case !hasUpper || !hasLower || !hasDigit:
		fields["password"] = "password must contain upper-case, lower-case and numeric characters"
	}

	if password != confirm {
		fields["confirm_password"] = "passwords do not match"
	}

	if len(fields) > 0 {
		return domainerrors.Validation(fields)
	}
	return nil
}
