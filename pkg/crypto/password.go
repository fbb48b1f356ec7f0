package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12

	// GeneratedPasswordLength is the length of auto-generated merchant passwords
	GeneratedPasswordLength = 12

	// OTPLength is the number of digits in a one-time code
	OTPLength = 6
)

// passwordCharset covers upper, lower, digits and punctuation.
const passwordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789" +
	"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

const digits = "0123456789"

var (
	bcryptGenerateFromPassword = bcrypt.GenerateFromPassword
	randomInt                  = rand.Int
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcryptGenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GeneratePassword generates the initial merchant credential: a random
// string drawn uniformly from upper, lower, digit and punctuation characters
// using a cryptographically secure source.
func GeneratePassword() (string, error) {
	return randomString(passwordCharset, GeneratedPasswordLength)
}

// GenerateOTP generates a random numeric one-time code of OTPLength digits.
func GenerateOTP() (string, error) {
	return randomString(digits, OTPLength)
}

func randomString(charset string, length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range out {
		n, err := randomInt(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
