package service

import (
	"strings"

	"github.com/allisson/go-pwdhash"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// passwordHasher hashes with Argon2id and still accepts bcrypt hashes carried
// over from accounts created before the switch.
type passwordHasher struct {
	hasher *pwdhash.PasswordHasher
}

// Hash hashes a plain text password using Argon2id.
func (p *passwordHasher) Hash(password string) (string, error) {
	hashed, err := p.hasher.Hash([]byte(password))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hashed, nil
}

// Compare performs a constant-time comparison between password and hash.
func (p *passwordHasher) Compare(password string, hash string) bool {
	if hash == "" {
		return false
	}

	if isBcryptHash(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}

	ok, err := p.hasher.Verify([]byte(password), hash)
	if err != nil {
		return false
	}
	return ok
}

func isBcryptHash(hash string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(hash, prefix) {
			return true
		}
	}
	return false
}

// NewPasswordHasher creates a PasswordHasher using the Moderate Argon2id policy.
func NewPasswordHasher() PasswordHasher {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &passwordHasher{
		hasher: hasher,
	}
}
