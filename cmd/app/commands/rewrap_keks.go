package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	cryptoUseCase "github.com/KiritoEM/safeo-api/internal/crypto/usecase"
)

type rewrapOutput struct {
	Rewrapped  int    `json:"rewrapped"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
	MasterKey  string `json:"master_key_id"`
}

// RunRewrapKeks moves every user KEK from the old master key to the configured
// one in batches. It can be rerun after a partial failure: KEKs already wrapped
// by the new key are skipped.
func RunRewrapKeks(
	ctx context.Context,
	rewrapUseCase cryptoUseCase.RewrapUseCase,
	logger *slog.Logger,
	writer io.Writer,
	newKeyID string,
	batchSize int,
	format string,
) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("starting KEK rewrap process",
		slog.String("master_key_id", newKeyID),
		slog.Int("batch_size", batchSize),
	)

	start := time.Now()
	result, err := rewrapUseCase.RewrapAll(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("failed to rewrap KEKs: %w", err)
	}

	output := rewrapOutput{
		Rewrapped:  result.Rewrapped,
		Skipped:    result.Skipped,
		DurationMs: time.Since(start).Milliseconds(),
		MasterKey:  newKeyID,
	}

	logger.Info("KEK rewrap process completed",
		slog.Int("rewrapped", output.Rewrapped),
		slog.Int("skipped", output.Skipped),
	)

	if format == "json" {
		return writeJSON(writer, output)
	}

	_, _ = fmt.Fprintf(writer, "Rewrapped %d KEK(s) to master key %q\n", output.Rewrapped, newKeyID)
	if output.Skipped > 0 {
		_, _ = fmt.Fprintf(writer, "Skipped %d KEK(s) already wrapped by the new key\n", output.Skipped)
	}
	_, _ = fmt.Fprintln(writer, "The old master key can now be retired.")
	return nil
}
