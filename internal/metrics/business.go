package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// Operation statuses. Failures are split by error kind so dashboards can tell
// wrong OTPs from expired sessions and tampered payloads from outages.
const (
	StatusSuccess          = "success"
	StatusSessionExpired   = "session_expired"
	StatusWrongCredential  = "wrong_credential"
	StatusUnauthorized     = "unauthorized"
	StatusIntegrityFailure = "integrity_failure"
	StatusInvalidInput     = "invalid_input"
	StatusNotFound         = "not_found"
	StatusConflict         = "conflict"
	StatusUnavailable      = "unavailable"
	StatusError            = "error"
)

// Status classifies the result of an operation for the status label.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case apperrors.Is(err, apperrors.ErrSessionExpired):
		return StatusSessionExpired
	case apperrors.Is(err, apperrors.ErrWrongCredential):
		return StatusWrongCredential
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return StatusUnauthorized
	case apperrors.Is(err, apperrors.ErrIntegrity):
		return StatusIntegrityFailure
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return StatusInvalidInput
	case apperrors.Is(err, apperrors.ErrNotFound):
		return StatusNotFound
	case apperrors.Is(err, apperrors.ErrConflict):
		return StatusConflict
	case apperrors.Is(err, apperrors.ErrUnavailable):
		return StatusUnavailable
	default:
		return StatusError
	}
}

// BusinessMetrics records use case level metrics.
type BusinessMetrics interface {
	// RecordOperation counts one call of operation within domain ("auth",
	// "document").
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records how long the call took, in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordBytes records the plaintext size handled by a successful call.
	RecordBytes(ctx context.Context, domain, operation string, size int64)
}

type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	bytesHisto       metric.Int64Histogram
}

// NewBusinessMetrics creates BusinessMetrics on meterProvider. Metric names
// are prefixed with namespace.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of business operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of business operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	// 1 KiB to 16 MiB in powers of four.
	bytesHisto, err := meter.Int64Histogram(
		fmt.Sprintf("%s_payload_bytes", namespace),
		metric.WithDescription("Plaintext size of processed payloads"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(1<<10, 1<<12, 1<<14, 1<<16, 1<<18, 1<<20, 1<<22, 1<<24),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload size histogram: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		bytesHisto:       bytesHisto,
	}, nil
}

func operationAttributes(domain, operation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("domain", domain),
		attribute.String("operation", operation),
	}
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	attrs := append(operationAttributes(domain, operation), attribute.String("status", status))
	b.operationCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	attrs := append(operationAttributes(domain, operation), attribute.String("status", status))
	b.durationHisto.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

func (b *businessMetrics) RecordBytes(ctx context.Context, domain, operation string, size int64) {
	b.bytesHisto.Record(ctx, size, metric.WithAttributes(operationAttributes(domain, operation)...))
}

// NoOpBusinessMetrics is used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, string) {}

func (n *NoOpBusinessMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {}

func (n *NoOpBusinessMetrics) RecordBytes(context.Context, string, string, int64) {}
