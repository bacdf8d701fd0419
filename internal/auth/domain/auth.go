// Package domain defines the types shared by the login and signup flows.
package domain

import (
	"github.com/google/uuid"
)

// PendingLogin is the payload bound to a login verification token between the
// password step and the OTP step.
type PendingLogin struct {
	UserID  uuid.UUID `json:"userId"`
	Email   string    `json:"email"`
	OTPCode string    `json:"otpCode,omitempty"`
}

// PendingSignup carries the signup form until the email address is confirmed.
// The password is already hashed.
type PendingSignup struct {
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	PasswordHash string `json:"passwordHash"`
	OTPCode      string `json:"otpCode,omitempty"`
}

// LoginInput is the first step of a login.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
}

// SignupInput is the first step of a signup.
type SignupInput struct {
	Email    string
	FullName string
	Password string
}

// VerifyOTPInput submits the emailed code for a pending flow.
type VerifyOTPInput struct {
	Code              string
	VerificationToken string
	IPAddress         string
}

// ChallengeOutput is returned while a flow waits for its OTP.
type ChallengeOutput struct {
	VerificationToken string
}

// SessionOutput is returned once a user is authenticated.
type SessionOutput struct {
	UserID       uuid.UUID
	Email        string
	AccessToken  string
	RefreshToken string
}

// RefreshOutput carries a freshly minted access token.
type RefreshOutput struct {
	AccessToken string
}
