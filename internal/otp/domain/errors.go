package domain

import (
	"github.com/KiritoEM/safeo-api/internal/errors"
)

var (
	// ErrInvalidLength indicates a code length outside 1..MaxLength.
	ErrInvalidLength = errors.Wrap(errors.ErrInvalidInput, "invalid otp length")

	// ErrMetadataRequired indicates a code was requested without a flow binding.
	ErrMetadataRequired = errors.Wrap(errors.ErrInvalidInput, "otp metadata is required")

	// ErrCorruptRecord indicates a cached record could not be decoded.
	ErrCorruptRecord = errors.Wrap(errors.ErrIntegrity, "corrupt otp record")
)
