// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/KiritoEM/safeo-api/internal/validation"
)

// SignupPasswordPolicy is enforced on new passwords only. Login accepts any
// non-empty password so accounts created under older rules can still sign in.
var SignupPasswordPolicy = customValidation.PasswordStrength{
	MinLength:     8,
	RequireUpper:  true,
	RequireLower:  true,
	RequireNumber: true,
}

// LoginRequest starts a login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request payload
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.Email,
			validation.Length(1, 255),
		),
		validation.Field(&r.Password,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// SignupRequest starts a signup.
type SignupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"` //nolint:gosec // request payload
}

// Validate checks if the signup request is valid.
func (r *SignupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.Email,
			validation.Length(1, 255),
		),
		validation.Field(&r.FullName,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Password,
			validation.Required,
			SignupPasswordPolicy,
			validation.Length(0, 128),
		),
	)
}

// ResendOTPRequest asks for a new code on a pending login or signup.
type ResendOTPRequest struct {
	VerificationToken string `json:"verification_token"`
}

// Validate checks if the resend request is valid.
func (r *ResendOTPRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.VerificationToken,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// VerifyOTPRequest submits the emailed code.
type VerifyOTPRequest struct {
	Code              string `json:"code"`
	VerificationToken string `json:"verification_token"`
}

// Validate checks if the verify request is valid.
func (r *VerifyOTPRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code,
			validation.Required,
			customValidation.Digits,
			validation.Length(1, 16),
		),
		validation.Field(&r.VerificationToken,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// RefreshAccessTokenRequest trades a refresh token for a new access token.
type RefreshAccessTokenRequest struct {
	RefreshToken string `json:"refresh_token"` //nolint:gosec // request payload
}

// Validate checks if the refresh request is valid.
func (r *RefreshAccessTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
