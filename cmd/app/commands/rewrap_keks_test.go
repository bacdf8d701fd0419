package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	cryptoUseCase "github.com/KiritoEM/safeo-api/internal/crypto/usecase"
	cryptoMocks "github.com/KiritoEM/safeo-api/internal/crypto/usecase/mocks"
)

func TestRunRewrapKeks(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("text", func(t *testing.T) {
		mockUseCase := &cryptoMocks.MockRewrapUseCase{}
		mockUseCase.On("RewrapAll", ctx, 50).
			Return(&cryptoUseCase.RewrapResult{Rewrapped: 10, Skipped: 2, Done: true}, nil)

		var out bytes.Buffer
		err := RunRewrapKeks(ctx, mockUseCase, logger, &out, "master-2026", 50, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), `Rewrapped 10 KEK(s) to master key "master-2026"`)
		require.Contains(t, out.String(), "Skipped 2 KEK(s)")

		mockUseCase.AssertExpectations(t)
	})

	t.Run("json", func(t *testing.T) {
		mockUseCase := &cryptoMocks.MockRewrapUseCase{}
		mockUseCase.On("RewrapAll", ctx, 100).
			Return(&cryptoUseCase.RewrapResult{Rewrapped: 3, Done: true}, nil)

		var out bytes.Buffer
		require.NoError(t, RunRewrapKeks(ctx, mockUseCase, logger, &out, "k2", 100, "json"))

		var decoded rewrapOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		require.Equal(t, 3, decoded.Rewrapped)
		require.Equal(t, 0, decoded.Skipped)
		require.Equal(t, "k2", decoded.MasterKey)
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &cryptoMocks.MockRewrapUseCase{}
		mockUseCase.On("RewrapAll", ctx, 100).Return(nil, errors.New("decryption failed"))

		err := RunRewrapKeks(ctx, mockUseCase, logger, &bytes.Buffer{}, "k2", 100, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to rewrap KEKs")
	})

	t.Run("invalid-batch-size", func(t *testing.T) {
		err := RunRewrapKeks(ctx, nil, logger, &bytes.Buffer{}, "k2", 0, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "batch-size")
	})

	t.Run("invalid-format", func(t *testing.T) {
		err := RunRewrapKeks(ctx, nil, logger, &bytes.Buffer{}, "k2", 10, "yaml")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid format")
	})
}
