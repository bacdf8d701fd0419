// Package domain defines the core cryptographic domain models for envelope encryption.
//
// It implements a three-tier key hierarchy: Master Key → KEK → DEK → Data.
// A per-user KEK is wrapped by the process-wide master key and persisted on the
// user record. A per-resource DEK is wrapped by the owner's KEK and persisted on
// the resource record. Every wrapped value is an Envelope serialized as
// "<nonce-hex>:<ciphertext-hex>:<tag-hex>".
package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// KeySize is the size in bytes of every key in the hierarchy (AES-256).
	KeySize = 32

	// NonceSize is the size in bytes of the random nonce drawn for each encryption.
	NonceSize = 16

	// TagSize is the size in bytes of the GCM authentication tag.
	TagSize = 16

	envelopeSeparator  = ":"
	envelopeFieldCount = 3
)

// Envelope is the (nonce, ciphertext, tag) triple produced by authenticated encryption.
// It always travels as one opaque string; hex encoding keeps the separator out of
// every field.
type Envelope struct {
	Nonce      []byte
	Ciphertext []byte
	Tag        []byte
}

// String serializes the envelope as "<nonce-hex>:<ciphertext-hex>:<tag-hex>".
func (e *Envelope) String() string {
	return strings.Join([]string{
		hex.EncodeToString(e.Nonce),
		hex.EncodeToString(e.Ciphertext),
		hex.EncodeToString(e.Tag),
	}, envelopeSeparator)
}

// ParseEnvelope parses a serialized envelope. It fails closed: a wrong field count,
// invalid hex, or a nonce/tag of the wrong length yields ErrInvalidEnvelope.
// The ciphertext field may be empty (empty plaintext).
func ParseEnvelope(s string) (*Envelope, error) {
	parts := strings.Split(s, envelopeSeparator)
	if len(parts) != envelopeFieldCount {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrInvalidEnvelope, envelopeFieldCount, len(parts))
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: nonce is not hex", ErrInvalidEnvelope)
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext is not hex", ErrInvalidEnvelope)
	}
	tag, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: tag is not hex", ErrInvalidEnvelope)
	}

	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrInvalidEnvelope, NonceSize, len(nonce))
	}
	if len(tag) != TagSize {
		return nil, fmt.Errorf("%w: tag must be %d bytes, got %d", ErrInvalidEnvelope, TagSize, len(tag))
	}

	return &Envelope{Nonce: nonce, Ciphertext: ciphertext, Tag: tag}, nil
}

// GeneratedDek carries a freshly generated DEK in both forms: the wrapped envelope
// to persist on the resource record, and the plaintext to encrypt the payload with.
// Call Close once the payload is encrypted.
type GeneratedDek struct {
	Envelope  *Envelope
	Plaintext []byte
}

// Close zeroes the plaintext DEK.
func (g *GeneratedDek) Close() {
	if g == nil {
		return
	}
	Zero(g.Plaintext)
}
