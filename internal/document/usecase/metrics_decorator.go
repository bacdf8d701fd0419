package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/KiritoEM/safeo-api/internal/document/domain"
	"github.com/KiritoEM/safeo-api/internal/metrics"
)

// documentUseCaseWithMetrics decorates DocumentUseCase with metrics instrumentation.
type documentUseCaseWithMetrics struct {
	next    DocumentUseCase
	metrics metrics.BusinessMetrics
}

// NewDocumentUseCaseWithMetrics wraps a DocumentUseCase with metrics recording.
func NewDocumentUseCaseWithMetrics(useCase DocumentUseCase, m metrics.BusinessMetrics) DocumentUseCase {
	return &documentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *documentUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.Status(err)
	d.metrics.RecordOperation(ctx, "document", operation, status)
	d.metrics.RecordDuration(ctx, "document", operation, time.Since(start), status)
}

func (d *documentUseCaseWithMetrics) Upload(
	ctx context.Context,
	input *documentDomain.UploadInput,
) (*documentDomain.DocumentInfo, error) {
	start := time.Now()
	info, err := d.next.Upload(ctx, input)
	d.record(ctx, "upload", start, err)
	if err == nil {
		d.metrics.RecordBytes(ctx, "document", "upload", int64(len(input.Content)))
	}
	return info, err
}

func (d *documentUseCaseWithMetrics) Download(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*documentDomain.DownloadOutput, error) {
	start := time.Now()
	output, err := d.next.Download(ctx, userID, documentID)
	d.record(ctx, "download", start, err)
	if err == nil {
		d.metrics.RecordBytes(ctx, "document", "download", int64(len(output.Content)))
	}
	return output, err
}

func (d *documentUseCaseWithMetrics) Get(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*documentDomain.DocumentInfo, error) {
	start := time.Now()
	info, err := d.next.Get(ctx, userID, documentID)
	d.record(ctx, "get", start, err)
	return info, err
}

func (d *documentUseCaseWithMetrics) Rename(
	ctx context.Context,
	userID, documentID uuid.UUID,
	name string,
) (*documentDomain.DocumentInfo, error) {
	start := time.Now()
	info, err := d.next.Rename(ctx, userID, documentID, name)
	d.record(ctx, "rename", start, err)
	return info, err
}

func (d *documentUseCaseWithMetrics) List(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*documentDomain.DocumentInfo, error) {
	start := time.Now()
	infos, err := d.next.List(ctx, userID, offset, limit)
	d.record(ctx, "list", start, err)
	return infos, err
}

func (d *documentUseCaseWithMetrics) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	start := time.Now()
	err := d.next.Delete(ctx, userID, documentID)
	d.record(ctx, "delete", start, err)
	return err
}
