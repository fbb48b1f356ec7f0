package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"rapex.backend/internal/domain/entities"
	domainerrors "rapex.backend/internal/domain/errors"
	"rapex.backend/internal/domain/repositories"
	"rapex.backend/pkg/crypto"
	"rapex.backend/pkg/jwt"
	"rapex.backend/pkg/logger"
)

// AuthUsecase handles merchant authentication
type AuthUsecase struct {
	merchantRepo repositories.MerchantRepository
	jwtService   *jwt.JWTService
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(merchantRepo repositories.MerchantRepository, jwtService *jwt.JWTService) *AuthUsecase {
	return &AuthUsecase{
		merchantRepo: merchantRepo,
		jwtService:   jwtService,
	}
}

// Login authenticates a merchant by email or username and returns a token
// pair. The identifier is treated as an email when it contains an "@".
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	identifier := strings.TrimSpace(input.Identifier)

	var (
		merchant *entities.Merchant
		err      error
	)
	if strings.Contains(identifier, "@") {
		merchant, err = u.merchantRepo.GetByEmail(ctx, identifier)
	} else {
		merchant, err = u.merchantRepo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(input.Password, merchant.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}
	if !merchant.Active {
		return nil, domainerrors.ErrAccountInactive
	}

	tokenPair, err := u.jwtService.GenerateTokenPair(merchant.ID, merchant.Username, merchant.Email)
	if err != nil {
		return nil, err
	}

	merchant.LastLogin.SetValid(time.Now())
	if err := u.merchantRepo.Update(ctx, merchant); err != nil {
		logger.Warn(ctx, "failed to record last login",
			zap.Uint("merchant_id", merchant.ID), zap.Error(err))
	}

	return &entities.AuthResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		Merchant:     merchant,
	}, nil
}

// RefreshToken generates a new token pair from a valid refresh token
func (u *AuthUsecase) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := u.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}

	merchant, err := u.merchantRepo.GetByID(ctx, claims.MerchantID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !merchant.Active {
		return nil, domainerrors.ErrAccountInactive
	}

	return u.jwtService.GenerateTokenPair(merchant.ID, merchant.Username, merchant.Email)
}

// ChangePassword replaces a logged-in merchant's password. A successful
// change clears the is-new flag set by the generated registration credential.
func (u *AuthUsecase) ChangePassword(ctx context.Context, merchantID uint, oldPassword, newPassword, confirm string) error {
	merchant, err := u.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return err
	}

	if !crypto.CheckPassword(oldPassword, merchant.PasswordHash) {
		return domainerrors.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword, confirm); err != nil {
		return err
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := u.merchantRepo.UpdatePassword(ctx, merchantID, hash); err != nil {
		return err
	}

	if merchant.New {
		merchant.New = false
		merchant.PasswordHash = hash
		if err := u.merchantRepo.Update(ctx, merchant); err != nil {
			logger.Warn(ctx, "failed to clear is_new flag",
				zap.Uint("merchant_id", merchant.ID), zap.Error(err))
		}
	}
	return nil
}

// GetMerchant returns the merchant for an authenticated request
func (u *AuthUsecase) GetMerchant(ctx context.Context, merchantID uint) (*entities.Merchant, error) {
	return u.merchantRepo.GetByID(ctx, merchantID)
}
