package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	authService "github.com/KiritoEM/safeo-api/internal/auth/service"
	"github.com/KiritoEM/safeo-api/internal/config"
	cryptoService "github.com/KiritoEM/safeo-api/internal/crypto/service"
	otpDomain "github.com/KiritoEM/safeo-api/internal/otp/domain"
	otpService "github.com/KiritoEM/safeo-api/internal/otp/service"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// Dependencies groups the collaborators of the auth use case.
type Dependencies struct {
	Config         *config.Config
	Logger         *slog.Logger
	UserRepo       UserRepository
	ActivityRepo   ActivityLogRepository
	OTPService     OTPService
	Notifier       OTPNotifier
	LoginBroker    VerificationBroker[authDomain.PendingLogin]
	SignupBroker   VerificationBroker[authDomain.PendingSignup]
	PasswordHasher authService.PasswordHasher
	TokenIssuer    authService.TokenIssuer
	KeyManager     cryptoService.KeyManager
}

// authUseCase implements AuthUseCase.
type authUseCase struct {
	config         *config.Config
	logger         *slog.Logger
	userRepo       UserRepository
	activityRepo   ActivityLogRepository
	otpService     OTPService
	notifier       OTPNotifier
	loginBroker    VerificationBroker[authDomain.PendingLogin]
	signupBroker   VerificationBroker[authDomain.PendingSignup]
	passwordHasher authService.PasswordHasher
	tokenIssuer    authService.TokenIssuer
	keyManager     cryptoService.KeyManager
}

// Login verifies the email/password pair and starts the OTP step.
//
// An unknown email returns ErrUserNotFound, an OAuth-only account returns
// ErrOAuthAccount and a wrong password returns ErrInvalidCredentials.
func (a *authUseCase) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.ChallengeOutput, error) {
	user, err := a.userRepo.GetByEmail(ctx, userDomain.NormalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}

	if user.HasOAuthAccount() {
		return nil, authDomain.ErrOAuthAccount
	}

	if !a.passwordHasher.Compare(input.Password, user.Password) {
		return nil, authDomain.ErrInvalidCredentials
	}

	pending := authDomain.PendingLogin{UserID: user.ID, Email: user.Email}

	code, err := a.generateOTP(ctx, otpDomain.LoginMetadata{UserID: pending.UserID, Email: pending.Email})
	if err != nil {
		return nil, err
	}
	pending.OTPCode = code

	token, err := a.loginBroker.Issue(ctx, pending)
	if err != nil {
		return nil, err
	}

	if err := a.deliver(ctx, func() error {
		return a.notifier.SendLoginOTP(ctx, pending.Email, code)
	}); err != nil {
		return nil, err
	}

	a.recordActivity(ctx, user.ID, authDomain.ActionLogin, input.IPAddress)

	return &authDomain.ChallengeOutput{VerificationToken: token}, nil
}

// ResendLoginOTP rotates the login token, revokes the code sent with it and
// emails a new one.
func (a *authUseCase) ResendLoginOTP(
	ctx context.Context,
	token, ipAddress string,
) (*authDomain.ChallengeOutput, error) {
	newToken, pending, err := a.loginBroker.Resend(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := a.otpService.Revoke(ctx, pending.OTPCode); err != nil {
		return nil, err
	}

	code, err := a.generateOTP(ctx, otpDomain.LoginMetadata{UserID: pending.UserID, Email: pending.Email})
	if err != nil {
		return nil, err
	}

	pending.OTPCode = code
	if err := a.loginBroker.Rebind(ctx, newToken, pending); err != nil {
		return nil, err
	}

	if err := a.deliver(ctx, func() error {
		return a.notifier.SendLoginOTP(ctx, pending.Email, code)
	}); err != nil {
		return nil, err
	}

	a.recordActivity(ctx, pending.UserID, authDomain.ActionLoginResendOTP, ipAddress)

	return &authDomain.ChallengeOutput{VerificationToken: newToken}, nil
}

// VerifyLoginOTP checks the code against the pending login and opens a session.
func (a *authUseCase) VerifyLoginOTP(
	ctx context.Context,
	input *authDomain.VerifyOTPInput,
) (*authDomain.SessionOutput, error) {
	pending, err := a.loginBroker.Consume(ctx, input.VerificationToken)
	if err != nil {
		return nil, err
	}

	expected := otpDomain.LoginMetadata{UserID: pending.UserID, Email: pending.Email}
	if err := a.verifyOTP(ctx, input.Code, pending.OTPCode, expected); err != nil {
		return nil, err
	}

	refreshToken, err := a.tokenIssuer.IssueRefreshToken(pending.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := a.tokenIssuer.IssueAccessToken(pending.UserID, pending.Email)
	if err != nil {
		return nil, err
	}

	if err := a.userRepo.UpdateRefreshToken(ctx, pending.UserID, &refreshToken); err != nil {
		return nil, err
	}

	a.revokeToken(ctx, a.loginBroker.Revoke, input.VerificationToken)
	a.recordActivity(ctx, pending.UserID, authDomain.ActionLoginValidOTP, input.IPAddress)

	return &authDomain.SessionOutput{
		UserID:       pending.UserID,
		Email:        pending.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// SendSignupOTP rejects taken emails, hashes the password and emails a code.
func (a *authUseCase) SendSignupOTP(
	ctx context.Context,
	input *authDomain.SignupInput,
) (*authDomain.ChallengeOutput, error) {
	email := userDomain.NormalizeEmail(input.Email)

	_, err := a.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, userDomain.ErrUserAlreadyExists
	}
	if !errors.Is(err, userDomain.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := a.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	code, err := a.generateOTP(ctx, otpDomain.SignupMetadata{Email: email})
	if err != nil {
		return nil, err
	}

	pending := authDomain.PendingSignup{
		Email:        email,
		FullName:     input.FullName,
		PasswordHash: passwordHash,
		OTPCode:      code,
	}

	token, err := a.signupBroker.Issue(ctx, pending)
	if err != nil {
		return nil, err
	}

	if err := a.deliver(ctx, func() error {
		return a.notifier.SendSignupOTP(ctx, pending.Email, userDomain.FirstName(pending.FullName), code)
	}); err != nil {
		return nil, err
	}

	return &authDomain.ChallengeOutput{VerificationToken: token}, nil
}

// ResendSignupOTP rotates the signup token and emails a new code.
func (a *authUseCase) ResendSignupOTP(ctx context.Context, token string) (*authDomain.ChallengeOutput, error) {
	newToken, pending, err := a.signupBroker.Resend(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := a.otpService.Revoke(ctx, pending.OTPCode); err != nil {
		return nil, err
	}

	code, err := a.generateOTP(ctx, otpDomain.SignupMetadata{Email: pending.Email})
	if err != nil {
		return nil, err
	}

	pending.OTPCode = code
	if err := a.signupBroker.Rebind(ctx, newToken, pending); err != nil {
		return nil, err
	}

	if err := a.deliver(ctx, func() error {
		return a.notifier.SendSignupOTP(ctx, pending.Email, userDomain.FirstName(pending.FullName), code)
	}); err != nil {
		return nil, err
	}

	return &authDomain.ChallengeOutput{VerificationToken: newToken}, nil
}

// VerifySignupOTP checks the code against the pending signup.
func (a *authUseCase) VerifySignupOTP(
	ctx context.Context,
	input *authDomain.VerifyOTPInput,
) (*authDomain.PendingSignup, error) {
	pending, err := a.signupBroker.Consume(ctx, input.VerificationToken)
	if err != nil {
		return nil, err
	}

	if err := a.verifyOTP(ctx, input.Code, pending.OTPCode, otpDomain.SignupMetadata{Email: pending.Email}); err != nil {
		return nil, err
	}

	return &pending, nil
}

// CreateUser persists a verified signup and opens a session.
//
// The user's KEK is generated here and stored wrapped by the master key; a
// missing master key fails with a configuration error before anything is written.
func (a *authUseCase) CreateUser(
	ctx context.Context,
	form *authDomain.PendingSignup,
	token, ipAddress string,
) (*authDomain.SessionOutput, error) {
	kek, err := a.keyManager.GenerateUserKek()
	if err != nil {
		return nil, err
	}

	userID := uuid.Must(uuid.NewV7())

	refreshToken, err := a.tokenIssuer.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	user := &userDomain.User{
		ID:           userID,
		FullName:     form.FullName,
		Email:        form.Email,
		Password:     form.PasswordHash,
		EncryptedKey: kek.String(),
		StorageLimit: userDomain.DefaultStorageLimit,
		IsActive:     true,
		RefreshToken: &refreshToken,
	}

	if err := a.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	a.revokeToken(ctx, a.signupBroker.Revoke, token)

	accessToken, err := a.tokenIssuer.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	a.recordActivity(ctx, user.ID, authDomain.ActionSignupValidOTP, ipAddress)

	return &authDomain.SessionOutput{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// CompleteSignup verifies the code and creates the user.
func (a *authUseCase) CompleteSignup(
	ctx context.Context,
	input *authDomain.VerifyOTPInput,
) (*authDomain.SessionOutput, error) {
	form, err := a.VerifySignupOTP(ctx, input)
	if err != nil {
		return nil, err
	}
	return a.CreateUser(ctx, form, input.VerificationToken, input.IPAddress)
}

// RefreshAccessToken validates refreshToken, clears it from the user row and
// returns a new access token.
func (a *authUseCase) RefreshAccessToken(
	ctx context.Context,
	refreshToken, ipAddress string,
) (*authDomain.RefreshOutput, error) {
	claims, err := a.tokenIssuer.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, authDomain.ErrInvalidRefreshToken
	}

	user, err := a.userRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidRefreshToken
		}
		return nil, err
	}

	if user.ID != claims.UserID {
		return nil, authDomain.ErrInvalidRefreshToken
	}

	if err := a.userRepo.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
		return nil, err
	}

	accessToken, err := a.tokenIssuer.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	a.recordActivity(ctx, user.ID, authDomain.ActionRefreshAccessToken, ipAddress)

	return &authDomain.RefreshOutput{AccessToken: accessToken}, nil
}

// ListActivity returns a page of the user's activity log.
func (a *authUseCase) ListActivity(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ActivityLog, error) {
	return a.activityRepo.ListByUser(ctx, userID, offset, limit)
}

func (a *authUseCase) generateOTP(ctx context.Context, metadata otpDomain.Metadata) (string, error) {
	return a.otpService.Generate(ctx, otpService.GenerateInput{
		Length:   a.config.OTPLength,
		TTL:      a.config.OTPTTL,
		Metadata: metadata,
	})
}

// verifyOTP checks code against the OTP store. issued is the code the pending
// session was last sent: a miss on exactly that code means it expired, while a
// miss on any other code is a wrong entry.
func (a *authUseCase) verifyOTP(ctx context.Context, code, issued string, expected otpDomain.Metadata) error {
	result, err := a.otpService.Verify(ctx, code, expected)
	if err != nil {
		return err
	}
	if result.Valid {
		return nil
	}

	a.logger.Debug("otp verification failed", slog.String("reason", string(result.Reason)))
	if result.Reason == otpDomain.ReasonCodeExpired && issued != "" &&
		subtle.ConstantTimeCompare([]byte(code), []byte(issued)) == 1 {
		return authDomain.ErrOTPExpired
	}
	return authDomain.ErrInvalidOTP
}

// deliver runs send and hides transport details behind ErrOTPDeliveryFailed.
func (a *authUseCase) deliver(ctx context.Context, send func() error) error {
	if err := send(); err != nil {
		a.logger.ErrorContext(ctx, "failed to send otp email", slog.Any("error", err))
		return authDomain.ErrOTPDeliveryFailed
	}
	return nil
}

// revokeToken deletes a verification token once its flow has completed. The
// session is already issued at that point, so failures are only logged and
// the token runs out on its TTL.
func (a *authUseCase) revokeToken(ctx context.Context, revoke func(context.Context, string) error, token string) {
	if err := revoke(ctx, token); err != nil {
		a.logger.WarnContext(ctx, "failed to revoke verification token", slog.Any("error", err))
	}
}

func (a *authUseCase) recordActivity(ctx context.Context, userID uuid.UUID, action authDomain.Action, ipAddress string) {
	entry := authDomain.NewActivityLog(userID, action, ipAddress)
	if err := a.activityRepo.Create(ctx, entry); err != nil {
		a.logger.ErrorContext(ctx, "failed to record activity",
			slog.String("action", string(action)),
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
		)
	}
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(deps Dependencies) AuthUseCase {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &authUseCase{
		config:         deps.Config,
		logger:         logger,
		userRepo:       deps.UserRepo,
		activityRepo:   deps.ActivityRepo,
		otpService:     deps.OTPService,
		notifier:       deps.Notifier,
		loginBroker:    deps.LoginBroker,
		signupBroker:   deps.SignupBroker,
		passwordHasher: deps.PasswordHasher,
		tokenIssuer:    deps.TokenIssuer,
		keyManager:     deps.KeyManager,
	}
}
