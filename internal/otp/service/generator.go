// Package service issues and verifies one-time passwords stored in the shared cache.
package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	otpDomain "github.com/KiritoEM/safeo-api/internal/otp/domain"
)

// CodeGenerator produces numeric codes.
type CodeGenerator interface {
	Generate(length int) (string, error)
}

// DigitsGenerator draws each digit independently from crypto/rand.
type DigitsGenerator struct{}

// NewDigitsGenerator creates a DigitsGenerator.
func NewDigitsGenerator() *DigitsGenerator {
	return &DigitsGenerator{}
}

// Generate returns length uniformly distributed decimal digits.
func (g *DigitsGenerator) Generate(length int) (string, error) {
	if length < 1 || length > otpDomain.MaxLength {
		return "", fmt.Errorf("%w: must be between 1 and %d, got %d", otpDomain.ErrInvalidLength, otpDomain.MaxLength, length)
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		//nolint:gosec // n is bounded [0,9] by big.NewInt(10), safe conversion
		digits[i] = byte('0' + n.Int64())
	}

	return string(digits), nil
}
