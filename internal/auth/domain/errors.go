package domain

import (
	"github.com/KiritoEM/safeo-api/internal/errors"
)

// Authentication errors.
var (
	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.Wrap(errors.ErrWrongCredential, "invalid credentials")

	// ErrInvalidOTP indicates the submitted one-time password is not the one
	// issued for this verification token.
	ErrInvalidOTP = errors.Wrap(errors.ErrWrongCredential, "invalid one-time password")

	// ErrOTPExpired indicates the issued one-time password was submitted after
	// its TTL or after it was already used.
	ErrOTPExpired = errors.Wrap(errors.ErrCodeExpired, "one-time password expired")

	// ErrOAuthAccount indicates the account signs in through an external provider
	// and has no password to check.
	ErrOAuthAccount = errors.Wrap(errors.ErrConflict, "account is linked to an external provider")

	// ErrInvalidRefreshToken indicates the refresh token is malformed, expired or already used.
	ErrInvalidRefreshToken = errors.Wrap(errors.ErrUnauthorized, "invalid refresh token")

	// ErrInvalidAccessToken indicates a missing, malformed or expired access token.
	ErrInvalidAccessToken = errors.Wrap(errors.ErrUnauthorized, "invalid access token")

	// ErrOTPDeliveryFailed indicates the OTP email could not be handed to the mail provider.
	ErrOTPDeliveryFailed = errors.Wrap(errors.ErrUnavailable, "failed to deliver one-time password")
)
