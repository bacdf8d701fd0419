package usecase

import (
	"context"
	"log/slog"

	"github.com/KiritoEM/safeo-api/internal/outbox/domain"
)

// ObjectDeleter removes stored objects. Deleting a missing object succeeds.
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// PayloadDeletionProcessor removes the objects named by payload deletion events.
type PayloadDeletionProcessor struct {
	store  ObjectDeleter
	logger *slog.Logger
}

// NewPayloadDeletionProcessor creates a PayloadDeletionProcessor.
func NewPayloadDeletionProcessor(store ObjectDeleter, logger *slog.Logger) *PayloadDeletionProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayloadDeletionProcessor{store: store, logger: logger}
}

// Process handles an event. Unknown event types are an error so they stay
// visible as failed rows instead of being silently marked processed.
func (p *PayloadDeletionProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	switch event.EventType {
	case domain.EventTypePayloadDeletion:
		payload, err := domain.DecodePayloadDeletion(event)
		if err != nil {
			return err
		}
		if err := p.store.Delete(ctx, payload.StorageKey); err != nil {
			return err
		}
		p.logger.Info("document payload removed", slog.String("storage_key", payload.StorageKey))
		return nil
	default:
		return domain.ErrUnknownEventType
	}
}
