package service

import (
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
)

// KeyManagerService implements the KeyManager interface for envelope encryption.
//
// This service manages the lifecycle of Key Encryption Keys (KEKs) and Data Encryption Keys (DEKs):
//   - KEKs are generated once per user and wrapped with the master key
//   - DEKs are generated once per resource and wrapped with the owner's KEK
//   - Actual data is encrypted with DEKs
//
// Compromising one DEK never exposes the owner's other resources, and rotating the
// master key only requires re-wrapping KEKs. The service never persists plaintext
// keys; callers zero what they receive once the operation completes.
type KeyManagerService struct {
	aeadManager AEADManager
	masterKey   *cryptoDomain.MasterKey
}

// NewKeyManager creates a new KeyManagerService.
//
// masterKey may be nil, in which case every KEK operation fails with
// ErrMasterKeyNotConfigured instead of silently storing an unwrapped key.
func NewKeyManager(aeadManager AEADManager, masterKey *cryptoDomain.MasterKey) *KeyManagerService {
	return &KeyManagerService{
		aeadManager: aeadManager,
		masterKey:   masterKey,
	}
}

// GenerateUserKek creates a new Key Encryption Key wrapped with the master key.
//
// The KEK is a random 32-byte key. Only the wrapped envelope leaves this method;
// the plaintext is zeroed before returning.
func (km *KeyManagerService) GenerateUserKek() (*cryptoDomain.Envelope, error) {
	if km.masterKey == nil {
		return nil, cryptoDomain.ErrMasterKeyNotConfigured
	}

	kek, err := randomKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate KEK: %w", err)
	}
	defer cryptoDomain.Zero(kek)

	return km.WrapKek(kek)
}

// WrapKek wraps a plaintext KEK with the master key. Used by GenerateUserKek and
// by master key rotation, where a KEK unwrapped with the old master key is
// re-wrapped with the new one.
func (km *KeyManagerService) WrapKek(kek []byte) (*cryptoDomain.Envelope, error) {
	if km.masterKey == nil {
		return nil, cryptoDomain.ErrMasterKeyNotConfigured
	}
	if len(kek) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	aead, err := km.aeadManager.CreateCipher(km.masterKey.Key)
	if err != nil {
		return nil, err
	}

	envelope, err := aead.Encrypt(kek, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt KEK: %w", err)
	}
	return envelope, nil
}

// UnwrapKek decrypts a Key Encryption Key using the master key.
//
// Returns ErrDecryptionFailed on tag mismatch: tampered storage, a master key
// that does not match the one used at wrap time, or a corrupted row.
func (km *KeyManagerService) UnwrapKek(envelope *cryptoDomain.Envelope) ([]byte, error) {
	if km.masterKey == nil {
		return nil, cryptoDomain.ErrMasterKeyNotConfigured
	}

	aead, err := km.aeadManager.CreateCipher(km.masterKey.Key)
	if err != nil {
		return nil, err
	}

	return unwrapKey(aead, envelope)
}

// GenerateResourceDek creates a new Data Encryption Key wrapped with the provided KEK.
//
// The returned GeneratedDek holds both the envelope to persist on the resource
// record and the plaintext DEK to encrypt the payload with. The caller must call
// Close on it once the payload is encrypted.
func (km *KeyManagerService) GenerateResourceDek(kek []byte) (*cryptoDomain.GeneratedDek, error) {
	aead, err := km.aeadManager.CreateCipher(kek)
	if err != nil {
		return nil, err
	}

	dek, err := randomKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate DEK: %w", err)
	}

	envelope, err := aead.Encrypt(dek, nil)
	if err != nil {
		cryptoDomain.Zero(dek)
		return nil, fmt.Errorf("failed to encrypt DEK: %w", err)
	}

	return &cryptoDomain.GeneratedDek{Envelope: envelope, Plaintext: dek}, nil
}

// UnwrapDek decrypts a Data Encryption Key using the owner's KEK.
// A KEK belonging to another user always yields ErrDecryptionFailed.
func (km *KeyManagerService) UnwrapDek(envelope *cryptoDomain.Envelope, kek []byte) ([]byte, error) {
	aead, err := km.aeadManager.CreateCipher(kek)
	if err != nil {
		return nil, err
	}

	return unwrapKey(aead, envelope)
}

// unwrapKey decrypts a wrapped key and checks it is a full-size key.
func unwrapKey(aead AEAD, envelope *cryptoDomain.Envelope) ([]byte, error) {
	key, err := aead.Decrypt(envelope, nil)
	if err != nil {
		return nil, err
	}
	if len(key) != cryptoDomain.KeySize {
		cryptoDomain.Zero(key)
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return key, nil
}

func randomKey() ([]byte, error) {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
