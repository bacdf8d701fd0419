package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/KiritoEM/safeo-api/cmd/app/commands"
	"github.com/KiritoEM/safeo-api/internal/app"
	"github.com/KiritoEM/safeo-api/internal/config"
	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	cryptoService "github.com/KiritoEM/safeo-api/internal/crypto/service"
	cryptoUseCase "github.com/KiritoEM/safeo-api/internal/crypto/usecase"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a new Master Key for envelope encryption",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Value:   "",
					Usage:   "Master key ID (e.g., prod-master-key-2026)",
				},
				&cli.StringFlag{
					Name:  "kms-provider",
					Value: "",
					Usage: "KMS provider (localsecrets, gcpkms, awskms, azurekeyvault, hashivault); omit for a plaintext dev key",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Value: "",
					Usage: "KMS key URI (e.g., base64key://, hashivault://mykey)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateMasterKey(
					ctx,
					container.KMSService(),
					container.Logger(),
					cmd.Root().Writer,
					cmd.String("id"),
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
				)
			},
		},
		{
			Name:  "rewrap-keks",
			Usage: "Re-wrap every user KEK from an old master key to the configured one",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "old-key",
					Required: true,
					Usage:    "Previous KEY_MASTER value (hex, or base64 KMS ciphertext when --old-kms-key-uri is set)",
				},
				&cli.StringFlag{
					Name:  "old-key-id",
					Value: "previous",
					Usage: "Previous master key ID",
				},
				&cli.StringFlag{
					Name:  "old-kms-key-uri",
					Value: "",
					Usage: "KMS key URI that protects the previous master key",
				},
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Value:   cryptoUseCase.DefaultBatchSize,
					Usage:   "Number of users processed per transaction",
				},
				&cli.IntFlag{
					Name:    "concurrency",
					Aliases: []string{"c"},
					Value:   4,
					Usage:   "Number of KEKs re-wrapped in parallel",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				oldKey, err := cryptoService.LoadMasterKey(
					ctx,
					container.KMSService(),
					cmd.String("old-key-id"),
					cmd.String("old-key"),
					cmd.String("old-kms-key-uri"),
				)
				if err != nil {
					return fmt.Errorf("failed to load old master key: %w", err)
				}
				defer cryptoDomain.Zero(oldKey.Key)

				rewrapUseCase, err := container.RewrapUseCase(oldKey, int(cmd.Int("concurrency")))
				if err != nil {
					return err
				}

				return commands.RunRewrapKeks(
					ctx,
					rewrapUseCase,
					container.Logger(),
					cmd.Root().Writer,
					cfg.MasterKeyID,
					int(cmd.Int("batch-size")),
					cmd.String("format"),
				)
			},
		},
	}
}
