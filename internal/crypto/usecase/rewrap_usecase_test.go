package usecase

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	cryptoService "github.com/KiritoEM/safeo-api/internal/crypto/service"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

type memoryKeyRepository struct {
	mu        sync.Mutex
	keys      map[uuid.UUID]string
	updateErr error
	updates   int
}

func (r *memoryKeyRepository) ListEncryptedKeys(
	_ context.Context,
	after uuid.UUID,
	limit int,
) ([]userDomain.EncryptedKeyRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.keys))
	for id := range r.keys {
		if bytes.Compare(id[:], after[:]) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	rows := make([]userDomain.EncryptedKeyRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, userDomain.EncryptedKeyRow{UserID: id, EncryptedKey: r.keys[id]})
	}
	return rows, nil
}

func (r *memoryKeyRepository) UpdateEncryptedKey(_ context.Context, id uuid.UUID, encryptedKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.keys[id] = encryptedKey
	r.updates++
	return nil
}

// passthroughTxManager runs fn without a transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newKeyManager(t *testing.T, id string) *cryptoService.KeyManagerService {
	t.Helper()
	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	masterKey, err := cryptoDomain.NewMasterKey(id, key)
	require.NoError(t, err)
	return cryptoService.NewKeyManager(cryptoService.NewAEADManager(), masterKey)
}

type rewrapFixture struct {
	repo    *memoryKeyRepository
	oldKeys *cryptoService.KeyManagerService
	newKeys *cryptoService.KeyManagerService
	keks    map[uuid.UUID][]byte
	uc      RewrapUseCase
}

func newRewrapFixture(t *testing.T, users int) *rewrapFixture {
	t.Helper()
	f := &rewrapFixture{
		repo:    &memoryKeyRepository{keys: make(map[uuid.UUID]string)},
		oldKeys: newKeyManager(t, "old"),
		newKeys: newKeyManager(t, "new"),
		keks:    make(map[uuid.UUID][]byte),
	}
	for range users {
		envelope, err := f.oldKeys.GenerateUserKek()
		require.NoError(t, err)
		kek, err := f.oldKeys.UnwrapKek(envelope)
		require.NoError(t, err)

		id := uuid.Must(uuid.NewV7())
		f.repo.keys[id] = envelope.String()
		f.keks[id] = kek
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.uc = NewRewrapUseCase(passthroughTxManager{}, f.repo, f.oldKeys, f.newKeys, 3, logger)
	return f
}

func (f *rewrapFixture) assertAllUnderNewKey(t *testing.T) {
	t.Helper()
	for id, want := range f.keks {
		envelope, err := cryptoDomain.ParseEnvelope(f.repo.keys[id])
		require.NoError(t, err)

		got, err := f.newKeys.UnwrapKek(envelope)
		require.NoError(t, err)
		assert.Equal(t, want, got, "KEK must survive the rewrap unchanged")

		_, err = f.oldKeys.UnwrapKek(envelope)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	}
}

func TestRewrapUseCase_RewrapAll(t *testing.T) {
	f := newRewrapFixture(t, 7)

	result, err := f.uc.RewrapAll(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, 7, result.Rewrapped)
	assert.Equal(t, 0, result.Skipped)
	f.assertAllUnderNewKey(t)
}

func TestRewrapUseCase_RewrapAll_Rerun(t *testing.T) {
	f := newRewrapFixture(t, 4)

	_, err := f.uc.RewrapAll(context.Background(), 10)
	require.NoError(t, err)

	result, err := f.uc.RewrapAll(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rewrapped)
	assert.Equal(t, 4, result.Skipped)
	assert.Equal(t, 4, f.repo.updates)
	f.assertAllUnderNewKey(t)
}

func TestRewrapUseCase_RewrapBatch(t *testing.T) {
	f := newRewrapFixture(t, 5)
	ctx := context.Background()

	first, err := f.uc.RewrapBatch(ctx, uuid.Nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Rewrapped)
	assert.False(t, first.Done)

	second, err := f.uc.RewrapBatch(ctx, first.Next, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Rewrapped)

	third, err := f.uc.RewrapBatch(ctx, second.Next, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Rewrapped)
	assert.True(t, third.Done)

	f.assertAllUnderNewKey(t)
}

func TestRewrapUseCase_Empty(t *testing.T) {
	f := newRewrapFixture(t, 0)

	result, err := f.uc.RewrapAll(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Zero(t, result.Rewrapped)
}

func TestRewrapUseCase_ForeignKey(t *testing.T) {
	f := newRewrapFixture(t, 2)
	stranger := newKeyManager(t, "stranger")
	envelope, err := stranger.GenerateUserKek()
	require.NoError(t, err)
	f.repo.keys[uuid.Must(uuid.NewV7())] = envelope.String()

	_, err = f.uc.RewrapAll(context.Background(), 10)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	assert.Zero(t, f.repo.updates, "a failed batch writes nothing")
}

func TestRewrapUseCase_UpdateFailure(t *testing.T) {
	f := newRewrapFixture(t, 2)
	f.repo.updateErr = errors.New("connection reset")

	_, err := f.uc.RewrapAll(context.Background(), 10)
	assert.Error(t, err)
}
