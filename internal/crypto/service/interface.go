// Package service provides cryptographic services for envelope encryption.
// Implements the AES-256-GCM envelope cipher and the KEK/DEK key hierarchy.
package service

import (
	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data
// bound to a single key.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD under a fresh random nonce.
	Encrypt(plaintext, aad []byte) (*cryptoDomain.Envelope, error)

	// Decrypt verifies and decrypts an envelope using the same AAD.
	Decrypt(envelope *cryptoDomain.Envelope, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher keyed with a 32-byte key.
	CreateCipher(key []byte) (AEAD, error)
}

// KeyManager defines the interface for managing KEKs and DEKs in envelope encryption.
type KeyManager interface {
	// GenerateUserKek draws a new KEK and returns it wrapped by the master key.
	GenerateUserKek() (*cryptoDomain.Envelope, error)

	// WrapKek wraps an existing plaintext KEK with the master key.
	WrapKek(kek []byte) (*cryptoDomain.Envelope, error)

	// UnwrapKek recovers the plaintext KEK using the master key.
	UnwrapKek(envelope *cryptoDomain.Envelope) ([]byte, error)

	// GenerateResourceDek draws a new DEK and wraps it with the given KEK.
	GenerateResourceDek(kek []byte) (*cryptoDomain.GeneratedDek, error)

	// UnwrapDek recovers the plaintext DEK using the owner's KEK.
	UnwrapDek(envelope *cryptoDomain.Envelope, kek []byte) ([]byte, error)
}
