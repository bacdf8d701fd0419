package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	cryptoService "github.com/KiritoEM/safeo-api/internal/crypto/service"
)

// RunCreateMasterKey generates a 32-byte master key and prints the environment
// variables that configure it. Key material is zeroed after encoding.
// If keyID is empty, a default ID in the format "master-key-YYYY-MM-DD" is used.
//
// With a kmsKeyURI the key is encrypted by the KMS keeper and KEY_MASTER holds the
// base64 ciphertext. Without one, KEY_MASTER holds the raw key as hex, which is
// only suitable for local development.
//
// Output format:
//   - KEY_MASTER_ID="<keyID>"
//   - KEY_MASTER="<hex key or base64 KMS ciphertext>"
//   - KMS_PROVIDER="<provider>" and KMS_KEY_URI="<uri>" in KMS mode
func RunCreateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	keyID, kmsProvider, kmsKeyURI string,
) error {
	if (kmsProvider == "") != (kmsKeyURI == "") {
		return fmt.Errorf(
			"--kms-provider and --kms-key-uri are required together\n\nFor local development with KMS, use:\n  --kms-provider=localsecrets --kms-key-uri=\"base64key://<32-byte-base64-key>\"\n\nFor production, use cloud KMS providers:\n  --kms-provider=gcpkms --kms-key-uri=\"gcpkms://projects/.../cryptoKeys/...\"\n  --kms-provider=awskms --kms-key-uri=\"awskms:///alias/...\"\n  --kms-provider=hashivault --kms-key-uri=\"hashivault://<key>\"",
		)
	}

	if kmsKeyURI != "" {
		if err := cryptoService.ValidateKMSKeyURI(kmsProvider, kmsKeyURI); err != nil {
			return err
		}
	}

	// Generate default key ID if not provided
	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	masterKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	if kmsKeyURI == "" {
		logger.Warn("master key printed in plaintext; use a KMS provider outside local development")

		_, _ = fmt.Fprintln(writer, "# Master Key Configuration (plaintext, development only)")
		_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file")
		_, _ = fmt.Fprintln(writer)
		_, _ = fmt.Fprintf(writer, "KEY_MASTER_ID=\"%s\"\n", keyID)
		_, _ = fmt.Fprintf(writer, "KEY_MASTER=\"%s\"\n", hex.EncodeToString(masterKey))
		return nil
	}

	encodedKey, err := encryptMasterKey(ctx, kmsService, logger, masterKey, kmsKeyURI)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, "# Master Key Configuration (KMS Mode)")
	_, _ = fmt.Fprintf(writer, "# KMS Provider: %s\n", kmsProvider)
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "KEY_MASTER_ID=\"%s\"\n", keyID)
	_, _ = fmt.Fprintf(writer, "KEY_MASTER=\"%s\"\n", encodedKey)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# To replace an existing master key, keep the old values and run:")
	_, _ = fmt.Fprintln(writer, "#   app rewrap-keks --old-key-id <old id> --old-key <old KEY_MASTER>")

	return nil
}

// encryptMasterKey seals masterKey with the keeper at kmsKeyURI and returns the
// base64 ciphertext.
func encryptMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	masterKey []byte,
	kmsKeyURI string,
) (string, error) {
	keeperInterface, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return "", fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeperInterface.Close(); closeErr != nil {
			logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	// Type assert to get Encrypt method (needed for encryption)
	keeper, ok := keeperInterface.(interface {
		Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	})
	if !ok {
		return "", fmt.Errorf("KMS keeper does not support encryption")
	}

	ciphertext, err := keeper.Encrypt(ctx, masterKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt master key with KMS: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
