// Package domain defines the outbox events used to finish side effects that
// must survive a crash, such as removing the encrypted payload of a deleted
// document.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/KiritoEM/safeo-api/internal/errors"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// EventTypePayloadDeletion asks the worker to remove an object from storage.
const EventTypePayloadDeletion = "document.payload_deletion"

var (
	// ErrInvalidPayload indicates an event payload that cannot be decoded.
	ErrInvalidPayload = errors.Wrap(errors.ErrInvalidInput, "invalid outbox event payload")

	// ErrUnknownEventType indicates an event no processor handles.
	ErrUnknownEventType = errors.Wrap(errors.ErrInvalidInput, "unknown outbox event type")
)

// OutboxEvent is a unit of deferred work written in the same transaction as
// the change that requires it.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	AvailableAt time.Time
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PayloadDeletion is the payload of an EventTypePayloadDeletion event.
type PayloadDeletion struct {
	StorageKey string `json:"storage_key"`
}

// NewPayloadDeletionEvent builds a pending event that removes storageKey.
func NewPayloadDeletionEvent(storageKey string, now time.Time) (*OutboxEvent, error) {
	if storageKey == "" {
		return nil, errors.Wrap(ErrInvalidPayload, "storage key is required")
	}
	payload, err := json.Marshal(PayloadDeletion{StorageKey: storageKey})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payload deletion")
	}
	return &OutboxEvent{
		ID:          uuid.Must(uuid.NewV7()),
		EventType:   EventTypePayloadDeletion,
		Payload:     string(payload),
		Status:      OutboxEventStatusPending,
		AvailableAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// DecodePayloadDeletion reads the payload of a deletion event.
func DecodePayloadDeletion(event *OutboxEvent) (PayloadDeletion, error) {
	var payload PayloadDeletion
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return payload, errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if payload.StorageKey == "" {
		return payload, errors.Wrap(ErrInvalidPayload, "storage key is required")
	}
	return payload, nil
}

// MarkFailed records a failed attempt. The event is parked as failed once
// maxRetries is reached or when cause can never succeed on retry. Otherwise it
// becomes available again after a linear backoff.
func (e *OutboxEvent) MarkFailed(cause error, now time.Time, maxRetries int, retryInterval time.Duration) {
	e.Retries++
	msg := cause.Error()
	e.LastError = &msg
	e.UpdatedAt = now

	if e.Retries >= maxRetries || errors.IsPermanent(cause) {
		e.Status = OutboxEventStatusFailed
		return
	}
	e.AvailableAt = now.Add(time.Duration(e.Retries) * retryInterval)
}

// MarkProcessed records a successful attempt.
func (e *OutboxEvent) MarkProcessed(now time.Time) {
	e.Status = OutboxEventStatusProcessed
	e.ProcessedAt = &now
	e.UpdatedAt = now
}
