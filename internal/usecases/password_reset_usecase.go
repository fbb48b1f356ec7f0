package usecases

import (
	"context"
	"strings"

	"go.uber.org/zap"
	domainerrors "rapex.backend/internal/domain/errors"
	"rapex.backend/internal/domain/repositories"
	"rapex.backend/pkg/crypto"
	"rapex.backend/pkg/logger"
	redispkg "rapex.backend/pkg/redis"
)

// PasswordResetUsecase implements the three-phase OTP password reset:
// request a code, verify it, then set a new password. All reset state lives
// in redis and expires on its own.
type PasswordResetUsecase struct {
	merchantRepo repositories.MerchantRepository
	otpStore     *redispkg.OTPStore
	email        EmailSender
}

// NewPasswordResetUsecase creates a new password reset usecase
func NewPasswordResetUsecase(
	merchantRepo repositories.MerchantRepository,
	otpStore *redispkg.OTPStore,
	email EmailSender,
) *PasswordResetUsecase {
	return &PasswordResetUsecase{
		merchantRepo: merchantRepo,
		otpStore:     otpStore,
		email:        email,
	}
}

// RequestReset issues a fresh one-time code for the account behind the
// email. A new request replaces any previous code and invalidates a stale
// verified marker. Email delivery failure is logged, not fatal: the code is
// stored either way and the caller learns whether it went out.
func (u *PasswordResetUsecase) RequestReset(ctx context.Context, email string) (bool, error) {
	merchant, err := u.merchantRepo.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if !merchant.Active {
		return false, domainerrors.ErrAccountInactive
	}

	code, err := crypto.GenerateOTP()
	if err != nil {
		return false, err
	}
	if err := u.otpStore.StoreCode(ctx, merchant.Email, code); err != nil {
		return false, err
	}

	if err := u.email.SendOTP(ctx, merchant.Email, code); err != nil {
		logger.Warn(ctx, "failed to send password reset code",
			zap.Uint("merchant_id", merchant.ID), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// VerifyCode checks a submitted code against the stored one. A match is
// one-time: the code is consumed and a verified marker with its own TTL
// takes its place. An absent code means it expired or was never issued;
// both surface as the same invalid-code error.
func (u *PasswordResetUsecase) VerifyCode(ctx context.Context, email, code string) error {
	stored, err := u.otpStore.Code(ctx, email)
	if err != nil {
		return err
	}
	if stored == "" || stored != strings.TrimSpace(code) {
		return domainerrors.ErrOTPInvalid
	}

	if err := u.otpStore.DeleteCode(ctx, email); err != nil {
		return err
	}
	return u.otpStore.MarkVerified(ctx, email)
}

// ResetPassword sets a new password for an account whose code was verified
// in this session. The verified marker is consumed on success.
func (u *PasswordResetUsecase) ResetPassword(ctx context.Context, email, newPassword, confirm string) error {
	verified, err := u.otpStore.IsVerified(ctx, email)
	if err != nil {
		return err
	}
	if !verified {
		return domainerrors.ErrOTPNotVerified
	}

	if err := validatePassword(newPassword, confirm); err != nil {
		return err
	}

	merchant, err := u.merchantRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := u.merchantRepo.UpdatePassword(ctx, merchant.ID, hash); err != nil {
		return err
	}
	return u.otpStore.ClearVerified(ctx, email)
}
