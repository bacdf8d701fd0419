package commands

import (
	"context"
	"fmt"
	"log/slog"
)

// BatchProcessor runs one pass over the payload cleanup queue.
type BatchProcessor interface {
	ProcessEvents(ctx context.Context) error
}

// RunProcessCleanup drains due payload deletions once, outside the server's
// background worker. Useful after an object store outage.
func RunProcessCleanup(ctx context.Context, processor BatchProcessor, logger *slog.Logger) error {
	logger.Info("processing pending payload deletions")

	if err := processor.ProcessEvents(ctx); err != nil {
		return fmt.Errorf("failed to process payload deletions: %w", err)
	}

	logger.Info("payload deletions processed")
	return nil
}
