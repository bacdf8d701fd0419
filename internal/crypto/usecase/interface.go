// Package usecase implements offline master key rotation.
//
// Rotating the master key means re-wrapping every user's KEK: unwrap with the
// retiring key, wrap with the new one. DEKs and document payloads are wrapped
// by the KEK itself and are never touched.
package usecase

import (
	"context"

	"github.com/google/uuid"

	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// EncryptedKeyRepository pages through and updates wrapped KEKs.
type EncryptedKeyRepository interface {
	// ListEncryptedKeys returns up to limit rows ordered by user ID, starting
	// after the given ID. uuid.Nil starts from the beginning.
	ListEncryptedKeys(ctx context.Context, after uuid.UUID, limit int) ([]userDomain.EncryptedKeyRow, error)
	UpdateEncryptedKey(ctx context.Context, id uuid.UUID, encryptedKey string) error
}

// RewrapResult summarizes one batch.
type RewrapResult struct {
	// Rewrapped counts KEKs moved to the new master key.
	Rewrapped int
	// Skipped counts KEKs already wrapped by the new master key.
	Skipped int
	// Next is the cursor for the following batch.
	Next uuid.UUID
	// Done reports that no rows remain.
	Done bool
}

// RewrapUseCase re-wraps user KEKs from one master key to another.
type RewrapUseCase interface {
	// RewrapBatch processes up to batchSize users after the cursor. The batch
	// is written in a single transaction.
	RewrapBatch(ctx context.Context, after uuid.UUID, batchSize int) (*RewrapResult, error)

	// RewrapAll runs batches until every KEK is wrapped by the new master key.
	// It is safe to rerun after a partial failure.
	RewrapAll(ctx context.Context, batchSize int) (*RewrapResult, error)
}
