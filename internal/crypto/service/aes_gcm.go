package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
)

// AESGCMCipher implements the AEAD interface using AES-256-GCM
// (Advanced Encryption Standard with Galois/Counter Mode).
//
// Security properties:
//   - 256-bit key size
//   - 16-byte nonce (128 bits, randomly generated per encryption)
//   - 16-byte authentication tag, carried as its own envelope field
//
// Thread safety:
//
//	The cipher instance is stateless and safe for concurrent use from multiple
//	goroutines. Each encryption operation generates a unique nonce independently.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
//
// The key must be exactly 32 bytes. Shorter or longer keys are rejected with
// ErrInvalidKeySize rather than truncated or padded.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", cryptoDomain.ErrInvalidKeySize, cryptoDomain.KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, cryptoDomain.NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM with optional additional authenticated data.
//
// A unique 16-byte nonce is drawn from crypto/rand for each call. Seal appends the
// tag to the ciphertext; it is split off into Envelope.Tag so the serialized form
// keeps three distinct fields.
func (a *AESGCMCipher) Encrypt(plaintext, aad []byte) (*cryptoDomain.Envelope, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := a.aead.Seal(nil, nonce, plaintext, aad)
	split := len(sealed) - a.aead.Overhead()

	return &cryptoDomain.Envelope{
		Nonce:      nonce,
		Ciphertext: sealed[:split:split],
		Tag:        sealed[split:],
	}, nil
}

// Decrypt verifies the tag and decrypts the envelope.
//
// Any verification failure (wrong key, wrong AAD, tampered field) returns
// ErrDecryptionFailed and no plaintext.
func (a *AESGCMCipher) Decrypt(envelope *cryptoDomain.Envelope, aad []byte) ([]byte, error) {
	if envelope == nil ||
		len(envelope.Nonce) != a.aead.NonceSize() ||
		len(envelope.Tag) != a.aead.Overhead() {
		return nil, cryptoDomain.ErrInvalidEnvelope
	}

	sealed := make([]byte, 0, len(envelope.Ciphertext)+len(envelope.Tag))
	sealed = append(sealed, envelope.Ciphertext...)
	sealed = append(sealed, envelope.Tag...)

	plaintext, err := a.aead.Open(nil, envelope.Nonce, sealed, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
