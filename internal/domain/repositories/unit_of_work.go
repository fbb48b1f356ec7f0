package repositories

import (
	"context"
)

// UnitOfWork runs a function within a single storage transaction: every
// repository write made through the function's context becomes visible
// together at commit, or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
