package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KiritoEM/safeo-api/internal/cache"
	otpDomain "github.com/KiritoEM/safeo-api/internal/otp/domain"
)

// GenerateInput describes a code to issue. A zero Length uses DefaultLength.
// TTL is used as given: zero or negative produces a code that is already expired.
type GenerateInput struct {
	Length   int
	TTL      time.Duration
	Metadata otpDomain.Metadata
}

// OTPService issues codes into the cache and verifies them exactly once.
//
// Expiry is delegated to the cache TTL: an absent record is reported as
// CODE_EXPIRED whether it expired, was consumed, or never existed.
type OTPService struct {
	cache     cache.Cache
	generator CodeGenerator
}

// NewOTPService creates an OTPService backed by c.
func NewOTPService(c cache.Cache, generator CodeGenerator) *OTPService {
	return &OTPService{cache: c, generator: generator}
}

// Generate draws a code and stores its record under otp:<code> for in.TTL.
func (s *OTPService) Generate(ctx context.Context, in GenerateInput) (string, error) {
	if in.Metadata == nil {
		return "", otpDomain.ErrMetadataRequired
	}

	length := in.Length
	if length == 0 {
		length = otpDomain.DefaultLength
	}

	code, err := s.generator.Generate(length)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(otpDomain.NewRecord(code, in.TTL, in.Metadata))
	if err != nil {
		return "", fmt.Errorf("failed to marshal otp record: %w", err)
	}

	if err := s.cache.Set(ctx, otpDomain.Key(code), data, in.TTL); err != nil {
		return "", err
	}

	return code, nil
}

// Verify checks code against its cached record.
//
// When expected is non-nil the record must have been issued for the same flow
// identity; a mismatch yields WRONG_CODE and leaves the record live. On success
// the record is deleted. If another verifier deletes it first, the loser sees
// CODE_EXPIRED. Cache failures are returned as errors, never as a Reason.
func (s *OTPService) Verify(ctx context.Context, code string, expected otpDomain.Metadata) (*otpDomain.Result, error) {
	key := otpDomain.Key(code)

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return otpDomain.Failed(otpDomain.ReasonCodeExpired), nil
		}
		return nil, err
	}

	var record otpDomain.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", otpDomain.ErrCorruptRecord, err)
	}

	if !record.Matches(code) {
		return otpDomain.Failed(otpDomain.ReasonWrongCode), nil
	}
	if expected != nil && !record.BoundTo(expected) {
		return otpDomain.Failed(otpDomain.ReasonWrongCode), nil
	}

	removed, err := s.cache.Delete(ctx, key)
	if err != nil {
		return nil, err
	}
	if !removed {
		return otpDomain.Failed(otpDomain.ReasonCodeExpired), nil
	}

	return &otpDomain.Result{
		Valid:    true,
		Reason:   otpDomain.ReasonSuccess,
		Metadata: record.Metadata(),
	}, nil
}

// Revoke deletes code. Revoking an absent code is not an error.
func (s *OTPService) Revoke(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	_, err := s.cache.Delete(ctx, otpDomain.Key(code))
	return err
}
