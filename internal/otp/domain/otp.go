// Package domain defines one-time password records and the typed metadata that
// binds a code to the flow that issued it.
package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLength is the number of digits in an issued code.
	DefaultLength = 6

	// MaxLength keeps codes within uint64 range for numeric comparison.
	MaxLength = 10

	// DefaultTTL is how long a code stays live when no TTL is configured.
	DefaultTTL = 5 * time.Minute

	// KeyPrefix namespaces codes in the shared cache.
	KeyPrefix = "otp:"
)

// Key returns the cache key for code.
func Key(code string) string {
	return KeyPrefix + code
}

// Purpose identifies the flow a code was issued for.
type Purpose string

const (
	PurposeLogin  Purpose = "login"
	PurposeSignup Purpose = "signup"
)

// Metadata is the identity a code is bound to. It is implemented only by
// LoginMetadata and SignupMetadata.
type Metadata interface {
	Purpose() Purpose
	record() Record
}

// LoginMetadata binds a code to an authenticated user.
type LoginMetadata struct {
	UserID uuid.UUID
	Email  string
}

func (LoginMetadata) Purpose() Purpose { return PurposeLogin }

func (m LoginMetadata) record() Record {
	return Record{Purpose: PurposeLogin, UserID: m.UserID, Email: m.Email}
}

// SignupMetadata binds a code to a pending registration.
type SignupMetadata struct {
	Email string
}

func (SignupMetadata) Purpose() Purpose { return PurposeSignup }

func (m SignupMetadata) record() Record {
	return Record{Purpose: PurposeSignup, Email: m.Email}
}

// LoginMetadataOf returns m as LoginMetadata if it is one.
func LoginMetadataOf(m Metadata) (LoginMetadata, bool) {
	lm, ok := m.(LoginMetadata)
	return lm, ok
}

// SignupMetadataOf returns m as SignupMetadata if it is one.
func SignupMetadataOf(m Metadata) (SignupMetadata, bool) {
	sm, ok := m.(SignupMetadata)
	return sm, ok
}

// Record is the cached form of an issued code.
type Record struct {
	Code        string    `json:"code"`
	ExpiresInMs int64     `json:"expiresInMs"`
	Purpose     Purpose   `json:"purpose"`
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
}

// NewRecord builds the record for code issued with ttl and metadata.
func NewRecord(code string, ttl time.Duration, metadata Metadata) Record {
	r := metadata.record()
	r.Code = code
	r.ExpiresInMs = ttl.Milliseconds()
	return r
}

// Metadata reconstructs the typed metadata. Unknown purposes yield nil.
func (r Record) Metadata() Metadata {
	switch r.Purpose {
	case PurposeLogin:
		return LoginMetadata{UserID: r.UserID, Email: r.Email}
	case PurposeSignup:
		return SignupMetadata{Email: r.Email}
	default:
		return nil
	}
}

// BoundTo reports whether the record was issued for expected.
func (r Record) BoundTo(expected Metadata) bool {
	return r.Metadata() == expected
}

// Matches compares codes as numbers so that representation differences in
// leading zeros do not matter.
func (r Record) Matches(code string) bool {
	stored, err := strconv.ParseUint(r.Code, 10, 64)
	if err != nil {
		return false
	}
	presented, err := strconv.ParseUint(code, 10, 64)
	if err != nil {
		return false
	}
	return stored == presented
}

// Reason is the outcome of a verification.
type Reason string

const (
	ReasonSuccess     Reason = "SUCCESS"
	ReasonWrongCode   Reason = "WRONG_CODE"
	ReasonCodeExpired Reason = "CODE_EXPIRED"
)

// Result is returned by verification. Metadata is set only on success.
type Result struct {
	Valid    bool
	Reason   Reason
	Metadata Metadata
}

// Failed builds an unsuccessful result.
func Failed(reason Reason) *Result {
	return &Result{Reason: reason}
}
