package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

var ErrInvalidOTPLength = errors.New("otp length must be greater than zero")

// GenerateOTP returns a numeric one-time code of the given length. Each
// digit comes from crypto/rand, never from a seeded PRNG.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidOTPLength
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate otp digit: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}
