package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	"github.com/KiritoEM/safeo-api/internal/metrics"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *authUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.Status(err)
	a.metrics.RecordOperation(ctx, "auth", operation, status)
	a.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// Login records metrics for the password step of a login.
func (a *authUseCaseWithMetrics) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.ChallengeOutput, error) {
	start := time.Now()
	output, err := a.next.Login(ctx, input)
	a.record(ctx, "login", start, err)
	return output, err
}

// ResendLoginOTP records metrics for login OTP resends.
func (a *authUseCaseWithMetrics) ResendLoginOTP(
	ctx context.Context,
	token, ipAddress string,
) (*authDomain.ChallengeOutput, error) {
	start := time.Now()
	output, err := a.next.ResendLoginOTP(ctx, token, ipAddress)
	a.record(ctx, "login_resend_otp", start, err)
	return output, err
}

// VerifyLoginOTP records metrics for the OTP step of a login.
func (a *authUseCaseWithMetrics) VerifyLoginOTP(
	ctx context.Context,
	input *authDomain.VerifyOTPInput,
) (*authDomain.SessionOutput, error) {
	start := time.Now()
	output, err := a.next.VerifyLoginOTP(ctx, input)
	a.record(ctx, "login_verify_otp", start, err)
	return output, err
}

// SendSignupOTP records metrics for signup starts.
func (a *authUseCaseWithMetrics) SendSignupOTP(
	ctx context.Context,
	input *authDomain.SignupInput,
) (*authDomain.ChallengeOutput, error) {
	start := time.Now()
	output, err := a.next.SendSignupOTP(ctx, input)
	a.record(ctx, "signup_send_otp", start, err)
	return output, err
}

// ResendSignupOTP records metrics for signup OTP resends.
func (a *authUseCaseWithMetrics) ResendSignupOTP(ctx context.Context, token string) (*authDomain.ChallengeOutput, error) {
	start := time.Now()
	output, err := a.next.ResendSignupOTP(ctx, token)
	a.record(ctx, "signup_resend_otp", start, err)
	return output, err
}

// VerifySignupOTP records metrics for signup code checks.
func (a *authUseCaseWithMetrics) VerifySignupOTP(
	ctx context.Context,
	input *authDomain.VerifyOTPInput,
) (*authDomain.PendingSignup, error) {
	start := time.Now()
	output, err := a.next.VerifySignupOTP(ctx, input)
	a.record(ctx, "signup_verify_otp", start, err)
	return output, err
}

// CreateUser records metrics for account creation.
func (a *authUseCaseWithMetrics) CreateUser(
	ctx context.Context,
	form *authDomain.PendingSignup,
	token, ipAddress string,
) (*authDomain.SessionOutput, error) {
	start := time.Now()
	output, err := a.next.CreateUser(ctx, form, token, ipAddress)
	a.record(ctx, "signup_create_user", start, err)
	return output, err
}

// CompleteSignup runs the decorated VerifySignupOTP and CreateUser so each
// half is recorded separately.
func (a *authUseCaseWithMetrics) CompleteSignup(
	ctx context.Context,
	input *authDomain.VerifyOTPInput,
) (*authDomain.SessionOutput, error) {
	form, err := a.VerifySignupOTP(ctx, input)
	if err != nil {
		return nil, err
	}
	return a.CreateUser(ctx, form, input.VerificationToken, input.IPAddress)
}

// RefreshAccessToken records metrics for token refreshes.
func (a *authUseCaseWithMetrics) RefreshAccessToken(
	ctx context.Context,
	refreshToken, ipAddress string,
) (*authDomain.RefreshOutput, error) {
	start := time.Now()
	output, err := a.next.RefreshAccessToken(ctx, refreshToken, ipAddress)
	a.record(ctx, "refresh_access_token", start, err)
	return output, err
}

// ListActivity records metrics for activity log reads.
func (a *authUseCaseWithMetrics) ListActivity(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ActivityLog, error) {
	start := time.Now()
	output, err := a.next.ListActivity(ctx, userID, offset, limit)
	a.record(ctx, "activity_list", start, err)
	return output, err
}
