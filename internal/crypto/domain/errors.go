package domain

import (
	"github.com/KiritoEM/safeo-api/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures. All errors are mapped to
// appropriate HTTP status codes by the error handling layer.
var (
	// ErrInvalidKeySize indicates a key is not exactly 32 bytes after decoding.
	// Keys are never truncated or padded.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates the authentication tag did not verify.
	//
	// This error can occur due to:
	//   - Wrong key (another user's KEK, or a rotated master key)
	//   - Tampered nonce, ciphertext or tag
	//   - Corrupted stored value
	//
	// The specific cause is not disclosed. HTTP Status: 422 Unprocessable Entity
	ErrDecryptionFailed = errors.Wrap(errors.ErrIntegrity, "decryption failed")

	// ErrInvalidEnvelope indicates a serialized envelope could not be parsed.
	ErrInvalidEnvelope = errors.Wrap(errors.ErrIntegrity, "invalid envelope format")

	// ErrMasterKeyNotConfigured indicates no master key was supplied at startup.
	// KEK creation and unwrapping refuse to run without it.
	ErrMasterKeyNotConfigured = errors.Wrap(errors.ErrConfiguration, "master key not configured")

	// ErrInvalidMasterKey indicates the configured master key could not be decoded
	// into exactly 32 bytes.
	ErrInvalidMasterKey = errors.Wrap(errors.ErrConfiguration, "invalid master key")
)
