package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	otpKeyPrefix      = "merchant_otp:"
	verifiedKeyPrefix = "merchant_otp_verified:"
)

// OTPStore holds password-reset one-time codes and their verified markers
// in Redis. Expiry is enforced entirely by key TTLs; an absent key is an
// expired session.
type OTPStore struct {
	codeTTL     time.Duration
	verifiedTTL time.Duration
}

var (
	setOTPValue = Set
	getOTPValue = Get
	delOTPValue = Del
)

// NewOTPStore creates a new OTP store with the given TTLs
func NewOTPStore(codeTTL, verifiedTTL time.Duration) *OTPStore {
	return &OTPStore{
		codeTTL:     codeTTL,
		verifiedTTL: verifiedTTL,
	}
}

// StoreCode saves a freshly issued code under the email key, replacing any
// previous code, and clears a stale verified marker from an earlier session.
func (s *OTPStore) StoreCode(ctx context.Context, email, code string) error {
	email = normalizeEmailKey(email)
	if err := setOTPValue(ctx, otpKeyPrefix+email, code, s.codeTTL); err != nil {
		return err
	}
	return delOTPValue(ctx, verifiedKeyPrefix+email)
}

// Code returns the stored code for the email, or "" when none is active.
func (s *OTPStore) Code(ctx context.Context, email string) (string, error) {
	code, err := getOTPValue(ctx, otpKeyPrefix+normalizeEmailKey(email))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return code, nil
}

// DeleteCode removes the stored code so it cannot be replayed.
func (s *OTPStore) DeleteCode(ctx context.Context, email string) error {
	return delOTPValue(ctx, otpKeyPrefix+normalizeEmailKey(email))
}

// MarkVerified records a successful code match for the email.
func (s *OTPStore) MarkVerified(ctx context.Context, email string) error {
	return setOTPValue(ctx, verifiedKeyPrefix+normalizeEmailKey(email), "1", s.verifiedTTL)
}

// IsVerified reports whether the email has an unexpired verified marker.
func (s *OTPStore) IsVerified(ctx context.Context, email string) (bool, error) {
	_, err := getOTPValue(ctx, verifiedKeyPrefix+normalizeEmailKey(email))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ClearVerified consumes the verified marker after a completed reset.
func (s *OTPStore) ClearVerified(ctx context.Context, email string) error {
	return delOTPValue(ctx, verifiedKeyPrefix+normalizeEmailKey(email))
}

func normalizeEmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
