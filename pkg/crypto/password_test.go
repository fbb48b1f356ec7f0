package crypto

import (
	"errors"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password123!")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.True(t, CheckPassword("Password123!", hash))
	assert.False(t, CheckPassword("WrongPass", hash))
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		password, err := GeneratePassword()
		assert.NoError(t, err)
		assert.Len(t, password, GeneratedPasswordLength)
		for _, c := range password {
			assert.Contains(t, passwordCharset, string(c))
		}
		seen[password] = true
	}
	// 20 draws from a 94^12 space must not collide
	assert.Len(t, seen, 20)
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP()
	assert.NoError(t, err)
	assert.Len(t, otp, OTPLength)
	assert.Equal(t, "", strings.Trim(otp, "0123456789"))
}

func TestHashPasswordAndGeneratePassword_ErrorBranches(t *testing.T) {
	origBcrypt := bcryptGenerateFromPassword
	origRandInt := randomInt
	t.Cleanup(func() {
		bcryptGenerateFromPassword = origBcrypt
		randomInt = origRandInt
	})

	bcryptGenerateFromPassword = func([]byte, int) ([]byte, error) {
		return nil, errors.New("bcrypt failed")
	}
	_, err := HashPassword("Password123!")
	assert.Error(t, err)

	bcryptGenerateFromPassword = origBcrypt
	randomInt = func(io.Reader, *big.Int) (*big.Int, error) {
		return nil, errors.New("rand failed")
	}
	_, err = GeneratePassword()
	assert.Error(t, err)
	_, err = GenerateOTP()
	assert.Error(t, err)
}
