package service

import (
	"crypto/rand"
	"encoding/hex"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// VerificationTokenBytes is the entropy of a verification token. Hex encoding
// doubles it to 128 characters.
const VerificationTokenBytes = 64

// hexTokenGenerator implements TokenGenerator with crypto/rand.
type hexTokenGenerator struct {
	size int
}

// Generate returns size random bytes, hex encoded.
func (g *hexTokenGenerator) Generate() (string, error) {
	randomBytes := make([]byte, g.size)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", apperrors.Wrap(err, "failed to generate random token")
	}
	return hex.EncodeToString(randomBytes), nil
}

// NewTokenGenerator creates a TokenGenerator producing 64-byte hex tokens.
func NewTokenGenerator() TokenGenerator {
	return &hexTokenGenerator{size: VerificationTokenBytes}
}
