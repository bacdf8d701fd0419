// Package usecase runs the outbox worker that finishes deferred side effects,
// currently the removal of encrypted payloads whose document rows are gone.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/KiritoEM/safeo-api/internal/database"
	"github.com/KiritoEM/safeo-api/internal/outbox/domain"
)

// Config holds outbox use case configuration
type Config struct {
	Interval      time.Duration
	BatchSize     int
	MaxRetries    int
	RetryInterval time.Duration
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// EventProcessor handles one event. A returned error schedules a retry.
type EventProcessor interface {
	Process(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the interface for outbox use cases
type UseCase interface {
	// Start polls for due events until ctx is done.
	Start(ctx context.Context) error

	// ProcessEvents handles one batch of due events in a transaction.
	ProcessEvents(ctx context.Context) error

	// SchedulePayloadDeletion records that storageKey must be removed. Called
	// inside a transaction, the event commits with the caller's changes.
	SchedulePayloadDeletion(ctx context.Context, storageKey string) error
}

// OutboxUseCase implements UseCase.
type OutboxUseCase struct {
	config         Config
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	eventProcessor EventProcessor
	logger         *slog.Logger
	now            func() time.Time
}

// NewOutboxUseCase creates a new OutboxUseCase
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	logger *slog.Logger,
) *OutboxUseCase {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxUseCase{
		config:         config,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		eventProcessor: eventProcessor,
		logger:         logger,
		now:            time.Now,
	}
}

// Start starts the outbox event processing loop
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox event processor",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox event processor")
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				uc.logger.Error("failed to process events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents retrieves and processes due events in a transaction. A failing
// event is rescheduled and does not abort the batch.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.now().UTC(), uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		uc.logger.Debug("processing events", slog.Int("count", len(events)))

		for _, event := range events {
			if err := uc.eventProcessor.Process(ctx, event); err != nil {
				event.MarkFailed(err, uc.now().UTC(), uc.config.MaxRetries, uc.config.RetryInterval)

				level := slog.LevelWarn
				if event.Status == domain.OutboxEventStatusFailed {
					level = slog.LevelError
				}
				uc.logger.Log(ctx, level, "failed to process event",
					slog.String("event_id", event.ID.String()),
					slog.String("event_type", event.EventType),
					slog.Int("retries", event.Retries),
					slog.String("status", string(event.Status)),
					slog.Any("error", err),
				)
			} else {
				event.MarkProcessed(uc.now().UTC())
			}

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

// SchedulePayloadDeletion enqueues the removal of storageKey.
func (uc *OutboxUseCase) SchedulePayloadDeletion(ctx context.Context, storageKey string) error {
	event, err := domain.NewPayloadDeletionEvent(storageKey, uc.now().UTC())
	if err != nil {
		return err
	}
	return uc.outboxRepo.Create(ctx, event)
}
