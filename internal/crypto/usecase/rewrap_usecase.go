package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	cryptoService "github.com/KiritoEM/safeo-api/internal/crypto/service"
	"github.com/KiritoEM/safeo-api/internal/database"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// DefaultBatchSize is used when a non-positive batch size is given.
const DefaultBatchSize = 100

type rewrapUseCase struct {
	txManager   database.TxManager
	keyRepo     EncryptedKeyRepository
	oldKeys     cryptoService.KeyManager
	newKeys     cryptoService.KeyManager
	concurrency int
	logger      *slog.Logger
}

type rewrapped struct {
	userID   uuid.UUID
	envelope string
	skipped  bool
}

func (r *rewrapUseCase) RewrapBatch(
	ctx context.Context,
	after uuid.UUID,
	batchSize int,
) (*RewrapResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	rows, err := r.keyRepo.ListEncryptedKeys(ctx, after, batchSize)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &RewrapResult{Next: after, Done: true}, nil
	}

	results := make([]rewrapped, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			envelope, skipped, err := r.rewrapOne(row.EncryptedKey)
			if err != nil {
				return apperrors.Wrap(err, "user "+row.UserID.String())
			}
			results[i] = rewrapped{userID: row.UserID, envelope: envelope, skipped: skipped}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &RewrapResult{
		Next: rows[len(rows)-1].UserID,
		Done: len(rows) < batchSize,
	}

	err = r.txManager.WithTx(ctx, func(ctx context.Context) error {
		for _, res := range results {
			if res.skipped {
				continue
			}
			if err := r.keyRepo.UpdateEncryptedKey(ctx, res.userID, res.envelope); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		if res.skipped {
			result.Skipped++
		} else {
			result.Rewrapped++
		}
	}
	return result, nil
}

func (r *rewrapUseCase) RewrapAll(ctx context.Context, batchSize int) (*RewrapResult, error) {
	total := &RewrapResult{}
	cursor := uuid.Nil

	for {
		batch, err := r.RewrapBatch(ctx, cursor, batchSize)
		if err != nil {
			return total, err
		}

		total.Rewrapped += batch.Rewrapped
		total.Skipped += batch.Skipped
		total.Next = batch.Next
		cursor = batch.Next

		r.logger.Info("rewrapped batch",
			slog.Int("rewrapped", batch.Rewrapped),
			slog.Int("skipped", batch.Skipped),
			slog.String("cursor", cursor.String()))

		if batch.Done {
			total.Done = true
			return total, nil
		}
	}
}

// rewrapOne moves one wrapped KEK to the new master key. A KEK that already
// opens under the new key is reported as skipped so reruns are idempotent.
func (r *rewrapUseCase) rewrapOne(encoded string) (string, bool, error) {
	envelope, err := cryptoDomain.ParseEnvelope(encoded)
	if err != nil {
		return "", false, err
	}

	kek, err := r.oldKeys.UnwrapKek(envelope)
	if err != nil {
		if !apperrors.Is(err, cryptoDomain.ErrDecryptionFailed) {
			return "", false, err
		}
		current, newErr := r.newKeys.UnwrapKek(envelope)
		if newErr != nil {
			return "", false, err
		}
		cryptoDomain.Zero(current)
		return "", true, nil
	}
	defer cryptoDomain.Zero(kek)

	wrapped, err := r.newKeys.WrapKek(kek)
	if err != nil {
		return "", false, err
	}
	return wrapped.String(), false, nil
}

// NewRewrapUseCase creates a RewrapUseCase moving KEKs from oldKeys to newKeys.
func NewRewrapUseCase(
	txManager database.TxManager,
	keyRepo EncryptedKeyRepository,
	oldKeys cryptoService.KeyManager,
	newKeys cryptoService.KeyManager,
	concurrency int,
	logger *slog.Logger,
) RewrapUseCase {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &rewrapUseCase{
		txManager:   txManager,
		keyRepo:     keyRepo,
		oldKeys:     oldKeys,
		newKeys:     newKeys,
		concurrency: concurrency,
		logger:      logger,
	}
}
