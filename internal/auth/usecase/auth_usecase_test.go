package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	"github.com/KiritoEM/safeo-api/internal/cache"
	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

const (
	testEmail    = "jane@example.com"
	testPassword = "Sup3r-secret!"
)

func login(t *testing.T, h *harness, email string) string {
	t.Helper()
	out, err := h.uc.Login(context.Background(), &authDomain.LoginInput{
		Email:     email,
		Password:  testPassword,
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.VerificationToken)
	return out.VerificationToken
}

func TestAuthUseCase_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SendsOTPAndRecordsActivity", func(t *testing.T) {
		h := newHarness(t)
		user := h.seedUser(t, testEmail, testPassword)

		out, err := h.uc.Login(ctx, &authDomain.LoginInput{
			Email:     "  JANE@example.com ",
			Password:  testPassword,
			IPAddress: "10.0.0.1",
		})
		require.NoError(t, err)
		assert.Len(t, out.VerificationToken, 128)

		code := h.notifier.last(t, testEmail)
		assert.Regexp(t, `^\d{6}$`, code)

		pending, err := h.loginBroker.Consume(ctx, out.VerificationToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, pending.UserID)
		assert.Equal(t, code, pending.OTPCode)

		assert.Equal(t, []authDomain.Action{authDomain.ActionLogin}, h.activity.actions())
	})

	t.Run("Error_UnknownEmail", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.uc.Login(ctx, &authDomain.LoginInput{Email: "nobody@example.com", Password: testPassword})
		assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("Error_OAuthAccount", func(t *testing.T) {
		h := newHarness(t)
		user := h.seedUser(t, testEmail, testPassword)
		provider := "google"
		h.users.users[user.ID].OAuthProvider = &provider

		_, err := h.uc.Login(ctx, &authDomain.LoginInput{Email: testEmail, Password: testPassword})
		assert.ErrorIs(t, err, authDomain.ErrOAuthAccount)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})

	t.Run("Error_WrongPassword", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)

		_, err := h.uc.Login(ctx, &authDomain.LoginInput{Email: testEmail, Password: "wrong"})
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)
		assert.True(t, apperrors.Is(err, apperrors.ErrWrongCredential))
		assert.Zero(t, h.notifier.sent(testEmail))
		assert.Empty(t, h.activity.actions())
	})

	t.Run("Error_DeliveryFailed", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		h.notifier.err = errBoom

		_, err := h.uc.Login(ctx, &authDomain.LoginInput{Email: testEmail, Password: testPassword})
		assert.ErrorIs(t, err, authDomain.ErrOTPDeliveryFailed)
		assert.NotErrorIs(t, err, errBoom)
	})

	t.Run("Error_CacheUnavailable", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := h.uc.Login(canceled, &authDomain.LoginInput{Email: testEmail, Password: testPassword})
		assert.ErrorIs(t, err, cache.ErrUnavailable)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnavailable))
		assert.NotErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("Success_ActivityFailureDoesNotFailFlow", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		h.activity.err = errBoom

		_, err := h.uc.Login(ctx, &authDomain.LoginInput{Email: testEmail, Password: testPassword})
		assert.NoError(t, err)
	})
}

func TestAuthUseCase_VerifyLoginOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_IssuesSession", func(t *testing.T) {
		h := newHarness(t)
		user := h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)

		session, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{
			Code:              h.notifier.last(t, testEmail),
			VerificationToken: token,
			IPAddress:         "10.0.0.1",
		})
		require.NoError(t, err)
		assert.Equal(t, user.ID, session.UserID)
		assert.Equal(t, testEmail, session.Email)

		claims, err := h.issuer.ValidateAccessToken(session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)

		stored := h.users.get(user.ID)
		require.NotNil(t, stored.RefreshToken)
		assert.Equal(t, session.RefreshToken, *stored.RefreshToken)

		_, err = h.loginBroker.Consume(ctx, token)
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)

		assert.Equal(t,
			[]authDomain.Action{authDomain.ActionLogin, authDomain.ActionLoginValidOTP},
			h.activity.actions(),
		)
	})

	t.Run("Error_WrongCodeKeepsToken", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)
		code := h.notifier.last(t, testEmail)

		_, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: wrongCode(code), VerificationToken: token})
		assert.ErrorIs(t, err, authDomain.ErrInvalidOTP)
		assert.True(t, apperrors.Is(err, apperrors.ErrWrongCredential))

		_, err = h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: code, VerificationToken: token})
		assert.NoError(t, err)
	})

	t.Run("Error_ExpiredCodeKeepsToken", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)
		code := h.notifier.last(t, testEmail)

		h.clock.Advance(5*time.Minute + time.Second)

		_, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: code, VerificationToken: token})
		assert.ErrorIs(t, err, authDomain.ErrOTPExpired)
		assert.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
		assert.False(t, apperrors.Is(err, apperrors.ErrWrongCredential))

		_, err = h.loginBroker.Consume(ctx, token)
		assert.NoError(t, err)
	})

	t.Run("Error_WrongCodeAfterExpiryIsWrongCredential", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)
		code := h.notifier.last(t, testEmail)

		h.clock.Advance(5*time.Minute + time.Second)

		_, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: wrongCode(code), VerificationToken: token})
		assert.ErrorIs(t, err, authDomain.ErrInvalidOTP)
		assert.NotErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("Error_ReusedCodeIsExpired", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)
		code := h.notifier.last(t, testEmail)

		_, err := h.otp.Verify(ctx, code, nil)
		require.NoError(t, err)

		_, err = h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: code, VerificationToken: token})
		assert.ErrorIs(t, err, authDomain.ErrOTPExpired)
	})

	t.Run("Error_SessionExpired", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)
		code := h.notifier.last(t, testEmail)

		h.clock.Advance(31 * time.Minute)

		_, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: code, VerificationToken: token})
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("Error_UnknownTokenIsSessionExpired", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: "123456", VerificationToken: "never-issued"})
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("Error_CacheUnavailableIsNotSessionExpired", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := h.uc.VerifyLoginOTP(canceled, &authDomain.VerifyOTPInput{
			Code:              h.notifier.last(t, testEmail),
			VerificationToken: token,
		})
		assert.ErrorIs(t, err, cache.ErrUnavailable)
		assert.NotErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("Error_CodeBoundToOtherUser", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "alice@example.com", testPassword)
		h.seedUser(t, "bob@example.com", testPassword)

		aliceToken := login(t, h, "alice@example.com")
		bobToken := login(t, h, "bob@example.com")
		aliceCode := h.notifier.last(t, "alice@example.com")

		_, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: aliceCode, VerificationToken: bobToken})
		assert.ErrorIs(t, err, authDomain.ErrInvalidOTP)

		session, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: aliceCode, VerificationToken: aliceToken})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", session.Email)
	})

	t.Run("Success_ConcurrentVerifySingleSession", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)
		code := h.notifier.last(t, testEmail)

		const workers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		sessions, rejected := 0, 0

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: code, VerificationToken: token})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					sessions++
					return
				}
				if apperrors.Is(err, authDomain.ErrInvalidOTP) || apperrors.Is(err, apperrors.ErrSessionExpired) {
					rejected++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, sessions)
		assert.Equal(t, workers-1, rejected)
	})
}

func TestAuthUseCase_ResendLoginOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RotatesTokenAndCode", func(t *testing.T) {
		h := newHarness(t)
		user := h.seedUser(t, testEmail, testPassword)
		oldToken := login(t, h, testEmail)
		oldCode := h.notifier.last(t, testEmail)

		out, err := h.uc.ResendLoginOTP(ctx, oldToken, "10.0.0.2")
		require.NoError(t, err)
		newToken := out.VerificationToken
		assert.NotEqual(t, oldToken, newToken)
		assert.Equal(t, 2, h.notifier.sent(testEmail))
		newCode := h.notifier.last(t, testEmail)

		_, err = h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: newCode, VerificationToken: oldToken})
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)

		if oldCode != newCode {
			_, err = h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: oldCode, VerificationToken: newToken})
			assert.ErrorIs(t, err, authDomain.ErrInvalidOTP)
		}

		session, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{Code: newCode, VerificationToken: newToken})
		require.NoError(t, err)
		assert.Equal(t, user.ID, session.UserID)

		assert.Contains(t, h.activity.actions(), authDomain.ActionLoginResendOTP)
	})

	t.Run("Error_ReplayedToken", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)

		_, err := h.uc.ResendLoginOTP(ctx, token, "")
		require.NoError(t, err)

		_, err = h.uc.ResendLoginOTP(ctx, token, "")
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("Error_DeliveryFailed", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)
		h.notifier.err = errBoom

		_, err := h.uc.ResendLoginOTP(ctx, token, "")
		assert.ErrorIs(t, err, authDomain.ErrOTPDeliveryFailed)
	})
}

func signup(t *testing.T, h *harness, email string) string {
	t.Helper()
	out, err := h.uc.SendSignupOTP(context.Background(), &authDomain.SignupInput{
		Email:    email,
		FullName: "Jane Doe",
		Password: testPassword,
	})
	require.NoError(t, err)
	return out.VerificationToken
}

func TestAuthUseCase_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CompleteSignup", func(t *testing.T) {
		h := newHarness(t)
		token := signup(t, h, testEmail)
		assert.Equal(t, "Jane", h.notifier.names[testEmail])

		session, err := h.uc.CompleteSignup(ctx, &authDomain.VerifyOTPInput{
			Code:              h.notifier.last(t, testEmail),
			VerificationToken: token,
			IPAddress:         "10.0.0.1",
		})
		require.NoError(t, err)

		user := h.users.get(session.UserID)
		require.NotNil(t, user)
		assert.Equal(t, testEmail, user.Email)
		assert.Equal(t, "Jane Doe", user.FullName)
		assert.Equal(t, userDomain.DefaultStorageLimit, user.StorageLimit)
		assert.True(t, h.hasher.Compare(testPassword, user.Password))
		require.NotNil(t, user.RefreshToken)
		assert.Equal(t, session.RefreshToken, *user.RefreshToken)

		envelope, err := cryptoDomain.ParseEnvelope(user.EncryptedKey)
		require.NoError(t, err)
		kek, err := h.keyManager.UnwrapKek(envelope)
		require.NoError(t, err)
		assert.Len(t, kek, cryptoDomain.KeySize)

		_, err = h.issuer.ValidateAccessToken(session.AccessToken)
		assert.NoError(t, err)

		_, err = h.signupBroker.Consume(ctx, token)
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)

		assert.Equal(t, []authDomain.Action{authDomain.ActionSignupValidOTP}, h.activity.actions())
	})

	t.Run("Success_VerifyLeavesToken", func(t *testing.T) {
		h := newHarness(t)
		token := signup(t, h, testEmail)

		form, err := h.uc.VerifySignupOTP(ctx, &authDomain.VerifyOTPInput{
			Code:              h.notifier.last(t, testEmail),
			VerificationToken: token,
		})
		require.NoError(t, err)
		assert.Equal(t, testEmail, form.Email)
		assert.NotEqual(t, testPassword, form.PasswordHash)

		_, err = h.signupBroker.Consume(ctx, token)
		assert.NoError(t, err)
	})

	t.Run("Error_EmailTaken", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, testEmail, testPassword)

		_, err := h.uc.SendSignupOTP(ctx, &authDomain.SignupInput{Email: testEmail, FullName: "J", Password: "x"})
		assert.ErrorIs(t, err, userDomain.ErrUserAlreadyExists)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
		assert.Zero(t, h.notifier.sent(testEmail))
	})

	t.Run("Error_WrongCode", func(t *testing.T) {
		h := newHarness(t)
		token := signup(t, h, testEmail)
		code := h.notifier.last(t, testEmail)

		_, err := h.uc.CompleteSignup(ctx, &authDomain.VerifyOTPInput{Code: wrongCode(code), VerificationToken: token})
		assert.ErrorIs(t, err, authDomain.ErrInvalidOTP)
		assert.Zero(t, h.users.count())
	})

	t.Run("Error_ExpiredCode", func(t *testing.T) {
		h := newHarness(t)
		token := signup(t, h, testEmail)
		code := h.notifier.last(t, testEmail)

		h.clock.Advance(5*time.Minute + time.Second)

		_, err := h.uc.CompleteSignup(ctx, &authDomain.VerifyOTPInput{Code: code, VerificationToken: token})
		assert.ErrorIs(t, err, authDomain.ErrOTPExpired)
		assert.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
		assert.Zero(t, h.users.count())

		_, err = h.signupBroker.Consume(ctx, token)
		assert.NoError(t, err, "the pending signup survives so a new code can be requested")
	})

	t.Run("Error_LoginCodeCannotConfirmSignup", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "alice@example.com", testPassword)
		login(t, h, "alice@example.com")
		loginCode := h.notifier.last(t, "alice@example.com")
		token := signup(t, h, testEmail)

		_, err := h.uc.VerifySignupOTP(ctx, &authDomain.VerifyOTPInput{Code: loginCode, VerificationToken: token})
		assert.ErrorIs(t, err, authDomain.ErrInvalidOTP)
	})

	t.Run("Error_MasterKeyNotConfigured", func(t *testing.T) {
		h := newHarness(t, withoutMasterKey())
		token := signup(t, h, testEmail)

		_, err := h.uc.CompleteSignup(ctx, &authDomain.VerifyOTPInput{
			Code:              h.notifier.last(t, testEmail),
			VerificationToken: token,
		})
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyNotConfigured)
		assert.True(t, apperrors.Is(err, apperrors.ErrConfiguration))
		assert.Zero(t, h.users.count())
	})

	t.Run("Error_DuplicateOnCreate", func(t *testing.T) {
		h := newHarness(t)
		token := signup(t, h, testEmail)
		code := h.notifier.last(t, testEmail)
		h.seedUser(t, testEmail, testPassword)

		_, err := h.uc.CompleteSignup(ctx, &authDomain.VerifyOTPInput{Code: code, VerificationToken: token})
		assert.ErrorIs(t, err, userDomain.ErrUserAlreadyExists)
	})

	t.Run("Success_Resend", func(t *testing.T) {
		h := newHarness(t)
		oldToken := signup(t, h, testEmail)

		out, err := h.uc.ResendSignupOTP(ctx, oldToken)
		require.NoError(t, err)
		assert.Equal(t, 2, h.notifier.sent(testEmail))

		_, err = h.uc.ResendSignupOTP(ctx, oldToken)
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)

		_, err = h.uc.CompleteSignup(ctx, &authDomain.VerifyOTPInput{
			Code:              h.notifier.last(t, testEmail),
			VerificationToken: out.VerificationToken,
		})
		assert.NoError(t, err)
	})
}

func TestAuthUseCase_RefreshAccessToken(t *testing.T) {
	ctx := context.Background()

	newSession := func(t *testing.T, h *harness) *authDomain.SessionOutput {
		t.Helper()
		h.seedUser(t, testEmail, testPassword)
		token := login(t, h, testEmail)
		session, err := h.uc.VerifyLoginOTP(ctx, &authDomain.VerifyOTPInput{
			Code:              h.notifier.last(t, testEmail),
			VerificationToken: token,
		})
		require.NoError(t, err)
		return session
	}

	t.Run("Success_SingleUse", func(t *testing.T) {
		h := newHarness(t)
		session := newSession(t, h)

		out, err := h.uc.RefreshAccessToken(ctx, session.RefreshToken, "10.0.0.1")
		require.NoError(t, err)

		claims, err := h.issuer.ValidateAccessToken(out.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, session.UserID, claims.UserID)
		assert.Nil(t, h.users.get(session.UserID).RefreshToken)
		assert.Contains(t, h.activity.actions(), authDomain.ActionRefreshAccessToken)

		_, err = h.uc.RefreshAccessToken(ctx, session.RefreshToken, "")
		assert.ErrorIs(t, err, authDomain.ErrInvalidRefreshToken)
	})

	t.Run("Error_AccessTokenRejected", func(t *testing.T) {
		h := newHarness(t)
		session := newSession(t, h)

		_, err := h.uc.RefreshAccessToken(ctx, session.AccessToken, "")
		assert.ErrorIs(t, err, authDomain.ErrInvalidRefreshToken)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})

	t.Run("Error_Garbage", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.uc.RefreshAccessToken(ctx, "garbage", "")
		assert.ErrorIs(t, err, authDomain.ErrInvalidRefreshToken)
	})

	t.Run("Error_NotStored", func(t *testing.T) {
		h := newHarness(t)
		token, err := h.issuer.IssueRefreshToken(uuid.Must(uuid.NewV7()))
		require.NoError(t, err)

		_, err = h.uc.RefreshAccessToken(ctx, token, "")
		assert.ErrorIs(t, err, authDomain.ErrInvalidRefreshToken)
	})
}

func TestAuthUseCase_ListActivity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.seedUser(t, testEmail, testPassword)
	token := login(t, h, testEmail)
	_, err := h.uc.ResendLoginOTP(ctx, token, "10.0.0.9")
	require.NoError(t, err)

	logs, err := h.uc.ListActivity(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, authDomain.ActionLoginResendOTP, logs[0].Action)
	assert.Equal(t, "10.0.0.9", logs[0].IPAddress)
	assert.Equal(t, authDomain.TargetUser, logs[1].Target)
}
