package repositories

import (
	"context"
	"time"

	"rapex.backend/internal/domain/entities"
)

// Uniqueness check field names accepted by MerchantRepository.Exists.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPhoneNumber = "phone_number"
)

// MerchantRepository defines merchant data operations
type MerchantRepository interface {
	Create(ctx context.Context, merchant *entities.Merchant) error
	GetByID(ctx context.Context, id uint) (*entities.Merchant, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*entities.Merchant, error)
	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (*entities.Merchant, error)
	// Exists reports whether a merchant already holds the value for the
	// field. Username and email compare case-insensitively, phone number
	// compares exactly. Unsupported fields return ErrInvalidInput.
	Exists(ctx context.Context, field, value string) (bool, error)
	Update(ctx context.Context, merchant *entities.Merchant) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	UpdateStatus(ctx context.Context, id uint, status entities.MerchantStatus) error
	// ListStaleIncomplete returns inactive merchants stuck below the final
	// registration step whose last update predates the cutoff.
	ListStaleIncomplete(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Merchant, error)
	Delete(ctx context.Context, id uint) error
}
