package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	cryptoService "github.com/KiritoEM/safeo-api/internal/crypto/service"
	cryptoUseCase "github.com/KiritoEM/safeo-api/internal/crypto/usecase"
)

// MasterKey returns the master key resolved from configuration, decrypting
// it through the KMS when KMS_KEY_URI is set.
func (c *Container) MasterKey() (*cryptoDomain.MasterKey, error) {
	var err error
	c.masterKeyInit.Do(func() {
		c.masterKey, err = c.initMasterKey()
		if err != nil {
			c.initErrors["masterKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKey"]; exists {
		return nil, storedErr
	}
	return c.masterKey, nil
}

// AEADManager returns the AEAD manager instance.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KMSService returns the KMS service used to open master key keepers.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KeyManager returns the key manager bound to the configured master key.
func (c *Container) KeyManager() (cryptoService.KeyManager, error) {
	var err error
	c.keyManagerInit.Do(func() {
		var masterKey *cryptoDomain.MasterKey
		masterKey, err = c.MasterKey()
		if err != nil {
			err = fmt.Errorf("failed to get master key for key manager: %w", err)
			c.initErrors["keyManager"] = err
			return
		}
		c.keyManager = cryptoService.NewKeyManager(c.AEADManager(), masterKey)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyManager"]; exists {
		return nil, storedErr
	}
	return c.keyManager, nil
}

// RewrapUseCase builds the KEK re-wrap use case moving every user KEK from
// oldKey to the configured master key. It is not cached: each rotation run
// supplies its own old key.
func (c *Container) RewrapUseCase(
	oldKey *cryptoDomain.MasterKey,
	concurrency int,
) (cryptoUseCase.RewrapUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for rewrap use case: %w", err)
	}
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for rewrap use case: %w", err)
	}
	newKeys, err := c.KeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for rewrap use case: %w", err)
	}
	oldKeys := cryptoService.NewKeyManager(c.AEADManager(), oldKey)

	return cryptoUseCase.NewRewrapUseCase(txManager, userRepo, oldKeys, newKeys, concurrency, c.Logger()), nil
}

func (c *Container) initMasterKey() (*cryptoDomain.MasterKey, error) {
	if c.config.KMSKeyURI != "" {
		if err := cryptoService.ValidateKMSKeyURI(c.config.KMSProvider, c.config.KMSKeyURI); err != nil {
			return nil, fmt.Errorf("failed to load master key: %w", err)
		}
	}
	masterKey, err := cryptoService.LoadMasterKey(
		context.Background(),
		c.KMSService(),
		c.config.MasterKeyID,
		c.config.MasterKey,
		c.config.KMSKeyURI,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}
	return masterKey, nil
}
