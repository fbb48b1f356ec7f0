package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"rapex.backend/internal/domain/entities"
	domainerrors "rapex.backend/internal/domain/errors"
	"rapex.backend/internal/usecases"
	"rapex.backend/pkg/crypto"
	redispkg "rapex.backend/pkg/redis"
)

func newOTPStore(t *testing.T) (*redispkg.OTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	redispkg.SetClient(client)
	t.Cleanup(func() { client.Close() })
	return redispkg.NewOTPStore(10*time.Minute, 10*time.Minute), mr
}

func TestRequestReset_IssuesAndEmailsCode(t *testing.T) {
	store, _ := newOTPStore(t)
	repo := new(MockMerchantRepository)
	email := new(MockEmailSender)
	uc := usecases.NewPasswordResetUsecase(repo, store, email)

	repo.On("GetByEmail", mock.Anything, "acme@example.com").
		Return(&entities.Merchant{ID: 1, Email: "acme@example.com", Active: true}, nil)

	var sentCode string
	email.On("SendOTP", mock.Anything, "acme@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sentCode = args.String(2) }).
		Return(nil)

	sent, err := uc.RequestReset(context.Background(), "acme@example.com")
	require.NoError(t, err)
	require.True(t, sent)
	require.Len(t, sentCode, 6)

	stored, err := store.Code(context.Background(), "acme@example.com")
	require.NoError(t, err)
	require.Equal(t, sentCode, stored)
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	store, _ := newOTPStore(t)
	repo := new(MockMerchantRepository)
	uc := usecases.NewPasswordResetUsecase(repo, store, new(MockEmailSender))

	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domainerrors.ErrNotFound)

	_, err := uc.RequestReset(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRequestReset_InactiveAccount(t *testing.T) {
	store, _ := newOTPStore(t)
	repo := new(MockMerchantRepository)
	uc := usecases.NewPasswordResetUsecase(repo, store, new(MockEmailSender))

	repo.On("GetByEmail", mock.Anything, "acme@example.com").
		Return(&entities.Merchant{ID: 1, Email: "acme@example.com", Active: false}, nil)

	_, err := uc.RequestReset(context.Background(), "acme@example.com")
	require.ErrorIs(t, err, domainerrors.ErrAccountInactive)
}

func TestRequestReset_EmailFailureStillStoresCode(t *testing.T) {
	store, _ := newOTPStore(t)
	repo := new(MockMerchantRepository)
	email := new(MockEmailSender)
	uc := usecases.NewPasswordResetUsecase(repo, store, email)

	repo.On("GetByEmail", mock.Anything, "acme@example.com").
		Return(&entities.Merchant{ID: 1, Email: "acme@example.com", Active: true}, nil)
	email.On("SendOTP", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	sent, err := uc.RequestReset(context.Background(), "acme@example.com")
	require.NoError(t, err)
	require.False(t, sent)

	code, err := store.Code(context.Background(), "acme@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, code)
}

func TestVerifyCode_ConsumesCodeOnMatch(t *testing.T) {
	store, _ := newOTPStore(t)
	uc := usecases.NewPasswordResetUsecase(new(MockMerchantRepository), store, new(MockEmailSender))
	ctx := context.Background()

	require.NoError(t, store.StoreCode(ctx, "acme@example.com", "123456"))

	require.ErrorIs(t, uc.VerifyCode(ctx, "acme@example.com", "000000"), domainerrors.ErrOTPInvalid)

	require.NoError(t, uc.VerifyCode(ctx, "acme@example.com", " 123456 "))

	verified, err := store.IsVerified(ctx, "acme@example.com")
	require.NoError(t, err)
	require.True(t, verified)

	// one-time: the same code cannot be verified twice
	require.ErrorIs(t, uc.VerifyCode(ctx, "acme@example.com", "123456"), domainerrors.ErrOTPInvalid)
}

func TestVerifyCode_ExpiredCode(t *testing.T) {
	store, mr := newOTPStore(t)
	uc := usecases.NewPasswordResetUsecase(new(MockMerchantRepository), store, new(MockEmailSender))
	ctx := context.Background()

	require.NoError(t, store.StoreCode(ctx, "acme@example.com", "123456"))
	mr.FastForward(601 * time.Second)

	require.ErrorIs(t, uc.VerifyCode(ctx, "acme@example.com", "123456"), domainerrors.ErrOTPInvalid)
}

func TestResetPassword_FullFlow(t *testing.T) {
	store, _ := newOTPStore(t)
	repo := new(MockMerchantRepository)
	uc := usecases.NewPasswordResetUsecase(repo, store, new(MockEmailSender))
	ctx := context.Background()

	// not verified yet
	require.ErrorIs(t, uc.ResetPassword(ctx, "acme@example.com", "Newpass1", "Newpass1"),
		domainerrors.ErrOTPNotVerified)

	require.NoError(t, store.StoreCode(ctx, "acme@example.com", "123456"))
	require.NoError(t, uc.VerifyCode(ctx, "acme@example.com", "123456"))

	// weak password is rejected after verification, marker stays
	var appErr *domainerrors.AppError
	err := uc.ResetPassword(ctx, "acme@example.com", "weak", "weak")
	require.ErrorAs(t, err, &appErr)
	require.Contains(t, appErr.Fields, "password")

	repo.On("GetByEmail", mock.Anything, "acme@example.com").
		Return(&entities.Merchant{ID: 1, Email: "acme@example.com", Active: true}, nil)

	var newHash string
	repo.On("UpdatePassword", mock.Anything, uint(1), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { newHash = args.String(2) }).
		Return(nil)

	require.NoError(t, uc.ResetPassword(ctx, "acme@example.com", "Newpass1", "Newpass1"))
	require.True(t, crypto.CheckPassword("Newpass1", newHash))

	// marker consumed: a second reset needs a fresh verification
	require.ErrorIs(t, uc.ResetPassword(ctx, "acme@example.com", "Other1pass", "Other1pass"),
		domainerrors.ErrOTPNotVerified)
}
