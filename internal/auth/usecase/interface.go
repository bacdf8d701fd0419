// Package usecase orchestrates the two-phase login and signup flows.
//
// Both flows pause between the credential step and the OTP step. The pending
// state lives behind an opaque verification token handed to the client; the
// OTP travels by email. A session is issued only when both halves match.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	otpDomain "github.com/KiritoEM/safeo-api/internal/otp/domain"
	otpService "github.com/KiritoEM/safeo-api/internal/otp/service"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// UserRepository defines the user persistence the auth flows need.
type UserRepository interface {
	Create(ctx context.Context, user *userDomain.User) error
	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*userDomain.User, error)
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, refreshToken *string) error
}

// ActivityLogRepository persists activity log entries.
type ActivityLogRepository interface {
	Create(ctx context.Context, activityLog *authDomain.ActivityLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*authDomain.ActivityLog, error)
}

// OTPService issues and verifies one-time passwords.
type OTPService interface {
	Generate(ctx context.Context, in otpService.GenerateInput) (string, error)
	Verify(ctx context.Context, code string, expected otpDomain.Metadata) (*otpDomain.Result, error)
	Revoke(ctx context.Context, code string) error
}

// OTPNotifier delivers one-time passwords to users.
type OTPNotifier interface {
	SendLoginOTP(ctx context.Context, to, code string) error
	SendSignupOTP(ctx context.Context, to, name, code string) error
}

// VerificationBroker binds pending flow state to verification tokens.
type VerificationBroker[T any] interface {
	Issue(ctx context.Context, payload T) (string, error)
	Resend(ctx context.Context, token string) (string, T, error)
	Consume(ctx context.Context, token string) (T, error)
	Rebind(ctx context.Context, token string, payload T) error
	Revoke(ctx context.Context, token string) error
}

// AuthUseCase defines the login, signup and session refresh operations.
type AuthUseCase interface {
	// Login checks the password and emails a login OTP. The returned token
	// identifies the pending login in VerifyLoginOTP and ResendLoginOTP.
	Login(ctx context.Context, input *authDomain.LoginInput) (*authDomain.ChallengeOutput, error)

	// ResendLoginOTP rotates the verification token and emails a new code. The
	// previous token and code stop working.
	ResendLoginOTP(ctx context.Context, token, ipAddress string) (*authDomain.ChallengeOutput, error)

	// VerifyLoginOTP completes a login. A wrong code returns ErrInvalidOTP, the
	// issued code after its TTL returns ErrOTPExpired. Either way the token stays
	// usable until it expires.
	VerifyLoginOTP(ctx context.Context, input *authDomain.VerifyOTPInput) (*authDomain.SessionOutput, error)

	// SendSignupOTP stores the signup form and emails a confirmation code.
	SendSignupOTP(ctx context.Context, input *authDomain.SignupInput) (*authDomain.ChallengeOutput, error)

	// ResendSignupOTP rotates the verification token and emails a new code.
	ResendSignupOTP(ctx context.Context, token string) (*authDomain.ChallengeOutput, error)

	// VerifySignupOTP checks the code and returns the pending form. The token
	// is left in place for CreateUser.
	VerifySignupOTP(ctx context.Context, input *authDomain.VerifyOTPInput) (*authDomain.PendingSignup, error)

	// CreateUser persists a verified signup with a fresh KEK and opens a session.
	CreateUser(
		ctx context.Context,
		form *authDomain.PendingSignup,
		token, ipAddress string,
	) (*authDomain.SessionOutput, error)

	// CompleteSignup is VerifySignupOTP followed by CreateUser.
	CompleteSignup(ctx context.Context, input *authDomain.VerifyOTPInput) (*authDomain.SessionOutput, error)

	// RefreshAccessToken trades a refresh token for a new access token. Refresh
	// tokens are single use.
	RefreshAccessToken(ctx context.Context, refreshToken, ipAddress string) (*authDomain.RefreshOutput, error)

	// ListActivity returns a user's activity log, newest first.
	ListActivity(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*authDomain.ActivityLog, error)
}
