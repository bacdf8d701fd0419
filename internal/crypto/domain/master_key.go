package domain

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// MasterKey is the process-wide secret that wraps every user's KEK.
//
// It is supplied by configuration at startup, never persisted, and never rotated
// at runtime. Rotation is an offline operation (see the rewrap-keks command).
type MasterKey struct {
	ID  string
	Key []byte
}

// KMSKeeper decrypts a KMS-protected master key. *secrets.Keeper satisfies it.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// NewMasterKey validates the key length and copies the key material.
func NewMasterKey(id string, key []byte) (*MasterKey, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidMasterKey, KeySize, len(key))
	}
	buf := make([]byte, KeySize)
	copy(buf, key)
	return &MasterKey{ID: id, Key: buf}, nil
}

// ParseHexMasterKey decodes a 64-character hex master key.
// An empty value yields ErrMasterKeyNotConfigured.
func ParseHexMasterKey(id, encoded string) (*MasterKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrMasterKeyNotConfigured
	}

	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid hex", ErrInvalidMasterKey)
	}
	defer Zero(key)

	return NewMasterKey(id, key)
}

// LoadMasterKey resolves the master key from its configured form.
//
// Without a keeper, encoded is the hex master key. With a keeper, encoded is the
// base64 KMS ciphertext of the raw 32-byte key, as printed by create-master-key.
// Temporary plaintext buffers are zeroed before returning.
func LoadMasterKey(ctx context.Context, id, encoded string, keeper KMSKeeper) (*MasterKey, error) {
	if keeper == nil {
		return ParseHexMasterKey(id, encoded)
	}

	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrMasterKeyNotConfigured
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: KMS ciphertext is not base64", ErrInvalidMasterKey)
	}

	key, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: KMS decrypt: %v", ErrInvalidMasterKey, err)
	}
	defer Zero(key)

	return NewMasterKey(id, key)
}

// Close zeroes the key material.
func (m *MasterKey) Close() {
	if m == nil {
		return
	}
	Zero(m.Key)
}
