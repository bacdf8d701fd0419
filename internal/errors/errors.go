// Package errors defines the sentinel errors shared by every safeo module.
// Use cases wrap them with context; the HTTP layer and the metrics decorators
// classify a failure by matching against these sentinels only.
package errors

import (
	"errors"
	"fmt"
)

// Resource and request errors.
var (
	// ErrNotFound indicates the requested resource does not exist or is not
	// owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation, such as a registered email.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates a request that can never succeed as sent.
	ErrInvalidInput = errors.New("invalid input")

	ErrUnauthorized = errors.New("unauthorized")

	ErrForbidden = errors.New("forbidden")
)

// Infrastructure and cryptographic errors.
var (
	// ErrConfiguration indicates missing or malformed process configuration,
	// for example an absent master key. Dependent operations refuse to run.
	ErrConfiguration = errors.New("configuration error")

	// ErrIntegrity indicates authenticated data failed verification. The same
	// ciphertext and key will fail again on every retry.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrUnavailable indicates the cache or object store timed out or could not
	// be reached. Callers may retry.
	ErrUnavailable = errors.New("service unavailable")
)

// Flow-level authentication errors. Both are unauthorized at the transport
// level but tell the end user different things.
var (
	// ErrSessionExpired indicates a verification token that is missing, used
	// or expired. The user must restart the flow.
	ErrSessionExpired = Wrap(ErrUnauthorized, "session expired")

	// ErrWrongCredential indicates a wrong password or OTP. The user may retry.
	ErrWrongCredential = Wrap(ErrUnauthorized, "wrong credential")

	// ErrCodeExpired indicates the one-time password that was sent is no
	// longer live. The pending session survives, so the user can ask for a new code.
	ErrCodeExpired = Wrap(ErrSessionExpired, "code expired")
)

// New returns an error with the given text.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message and keeps it matchable with Is.
// A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsPermanent reports whether retrying the operation that produced err is
// pointless: the input is rejected or the stored data is corrupt.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrIntegrity)
}
