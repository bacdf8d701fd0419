package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	"github.com/KiritoEM/safeo-api/internal/cache"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// DefaultVerificationTTL bounds how long a pending flow waits for its OTP.
const DefaultVerificationTTL = 30 * time.Minute

// VerificationBroker binds an opaque token to the pending state of one flow.
//
// Entries live under auth:<flow>:<token>. A token that is unknown, expired,
// revoked or rotated away is indistinguishable to callers: all of them yield
// errors.ErrSessionExpired. Cache outages surface as cache.ErrUnavailable.
type VerificationBroker[T any] struct {
	cache  cache.Cache
	tokens TokenGenerator
	flow   authDomain.Flow
	ttl    time.Duration
}

// NewVerificationBroker creates a broker for flow. A non-positive ttl uses
// DefaultVerificationTTL.
func NewVerificationBroker[T any](
	c cache.Cache,
	tokens TokenGenerator,
	flow authDomain.Flow,
	ttl time.Duration,
) *VerificationBroker[T] {
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}
	return &VerificationBroker[T]{
		cache:  c,
		tokens: tokens,
		flow:   flow,
		ttl:    ttl,
	}
}

// Flow returns the flow this broker serves.
func (b *VerificationBroker[T]) Flow() authDomain.Flow {
	return b.flow
}

// Issue stores payload under a fresh token.
func (b *VerificationBroker[T]) Issue(ctx context.Context, payload T) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to marshal verification payload")
	}
	return b.store(ctx, data)
}

// Resend rotates token: the old entry is taken atomically, then its payload is
// stored under a new token with a full TTL. Of two concurrent resends of the
// same token only one succeeds.
func (b *VerificationBroker[T]) Resend(ctx context.Context, token string) (string, T, error) {
	var zero T

	if token == "" {
		return "", zero, apperrors.ErrSessionExpired
	}

	data, err := b.cache.Take(ctx, b.key(token))
	if err != nil {
		return "", zero, b.translate(err)
	}

	payload, err := b.decode(data)
	if err != nil {
		return "", zero, err
	}

	newToken, err := b.store(ctx, data)
	if err != nil {
		return "", zero, err
	}

	return newToken, payload, nil
}

// Consume returns the payload bound to token without deleting it.
func (b *VerificationBroker[T]) Consume(ctx context.Context, token string) (T, error) {
	var zero T

	if token == "" {
		return zero, apperrors.ErrSessionExpired
	}

	data, err := b.cache.Get(ctx, b.key(token))
	if err != nil {
		return zero, b.translate(err)
	}
	return b.decode(data)
}

// Rebind replaces the payload bound to token and keeps its remaining TTL.
func (b *VerificationBroker[T]) Rebind(ctx context.Context, token string, payload T) error {
	if token == "" {
		return apperrors.ErrSessionExpired
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal verification payload")
	}

	if err := b.cache.Replace(ctx, b.key(token), data); err != nil {
		return b.translate(err)
	}
	return nil
}

// Revoke deletes token. Revoking an unknown token succeeds.
func (b *VerificationBroker[T]) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := b.cache.Delete(ctx, b.key(token))
	return err
}

func (b *VerificationBroker[T]) store(ctx context.Context, data []byte) (string, error) {
	token, err := b.tokens.Generate()
	if err != nil {
		return "", err
	}
	if err := b.cache.Set(ctx, b.key(token), data, b.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func (b *VerificationBroker[T]) decode(data []byte) (T, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		// Unreadable state cannot be resumed.
		return payload, apperrors.Wrap(apperrors.ErrSessionExpired, "corrupt verification payload")
	}
	return payload, nil
}

func (b *VerificationBroker[T]) translate(err error) error {
	if errors.Is(err, cache.ErrCacheMiss) {
		return apperrors.ErrSessionExpired
	}
	return err
}

func (b *VerificationBroker[T]) key(token string) string {
	return "auth:" + string(b.flow) + ":" + token
}
