package service

// AEADManagerService implements the AEADManager interface for creating AEAD cipher instances.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates an AES-256-GCM cipher. Returns ErrInvalidKeySize if key is not 32 bytes.
func (am *AEADManagerService) CreateCipher(key []byte) (AEAD, error) {
	aead, err := NewAESGCM(key)
	if err != nil {
		return nil, err
	}
	return aead, nil
}
