package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"

	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// kmsSchemes maps each KMS provider name to the URI scheme of its keeper.
var kmsSchemes = map[string]string{
	"localsecrets":  "base64key",
	"gcpkms":        "gcpkms",
	"awskms":        "awskms",
	"azurekeyvault": "azurekeyvault",
	"hashivault":    "hashivault",
}

// KMSProviders lists the supported provider names, sorted.
func KMSProviders() []string {
	providers := make([]string, 0, len(kmsSchemes))
	for p := range kmsSchemes {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	return providers
}

// ValidateKMSKeyURI checks that keyURI uses a supported scheme and, when
// provider is set, the scheme belonging to that provider. Errors wrap
// apperrors.ErrConfiguration.
func ValidateKMSKeyURI(provider, keyURI string) error {
	u, err := url.Parse(keyURI)
	if err != nil || u.Scheme == "" {
		return apperrors.Wrapf(apperrors.ErrConfiguration, "invalid KMS key URI %q", keyURI)
	}

	if provider == "" {
		for _, scheme := range kmsSchemes {
			if scheme == u.Scheme {
				return nil
			}
		}
		return apperrors.Wrapf(apperrors.ErrConfiguration, "unsupported KMS key URI scheme %q", u.Scheme)
	}

	want, ok := kmsSchemes[provider]
	if !ok {
		return apperrors.Wrapf(apperrors.ErrConfiguration,
			"unsupported KMS provider %q (supported: %v)", provider, KMSProviders())
	}
	if u.Scheme != want {
		return apperrors.Wrapf(apperrors.ErrConfiguration,
			"KMS provider %q expects a %s:// key URI, got %s://", provider, want, u.Scheme)
	}
	return nil
}

// KMSService opens keepers for decrypting a KMS-protected master key.
type KMSService interface {
	// OpenKeeper opens a keeper for keyURI. Supported schemes are gcpkms://,
	// awskms://, azurekeyvault://, hashivault:// and base64key://.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService creates a KMSService backed by gocloud.dev/secrets.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	if err := ValidateKMSKeyURI("", keyURI); err != nil {
		return nil, err
	}
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// LoadMasterKey resolves the configured master key. When keyURI is empty the
// encoded value is read as hex; otherwise it is decrypted through the KMS keeper,
// which is closed before returning.
func LoadMasterKey(
	ctx context.Context,
	kms KMSService,
	keyID, encoded, keyURI string,
) (*cryptoDomain.MasterKey, error) {
	if keyURI == "" {
		return cryptoDomain.LoadMasterKey(ctx, keyID, encoded, nil)
	}

	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	return cryptoDomain.LoadMasterKey(ctx, keyID, encoded, keeper)
}
