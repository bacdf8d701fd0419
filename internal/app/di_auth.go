package app

import (
	"fmt"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	authHTTP "github.com/KiritoEM/safeo-api/internal/auth/http"
	authRepository "github.com/KiritoEM/safeo-api/internal/auth/repository"
	authService "github.com/KiritoEM/safeo-api/internal/auth/service"
	authUseCase "github.com/KiritoEM/safeo-api/internal/auth/usecase"
	"github.com/KiritoEM/safeo-api/internal/config"
	"github.com/KiritoEM/safeo-api/internal/mail"
	otpService "github.com/KiritoEM/safeo-api/internal/otp/service"
)

// ActivityLogRepository returns the activity log repository instance.
func (c *Container) ActivityLogRepository() (authUseCase.ActivityLogRepository, error) {
	var err error
	c.activityRepoInit.Do(func() {
		c.activityRepo, err = c.initActivityLogRepository()
		if err != nil {
			c.initErrors["activityRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["activityRepo"]; exists {
		return nil, storedErr
	}
	return c.activityRepo, nil
}

// TokenIssuer returns the JWT issuer for access and refresh tokens.
func (c *Container) TokenIssuer() (authService.TokenIssuer, error) {
	var err error
	c.tokenIssuerInit.Do(func() {
		c.tokenIssuer, err = authService.NewJWTIssuer(authService.JWTConfig{
			Secret:          c.config.JWTSecret,
			Issuer:          c.config.JWTIssuer,
			AccessTokenTTL:  c.config.AccessTokenTTL,
			RefreshTokenTTL: c.config.RefreshTokenTTL,
		})
		if err != nil {
			c.initErrors["tokenIssuer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenIssuer"]; exists {
		return nil, storedErr
	}
	return c.tokenIssuer, nil
}

// OTPNotifier returns the notifier that emails one-time passwords.
func (c *Container) OTPNotifier() (authUseCase.OTPNotifier, error) {
	var err error
	c.otpNotifierInit.Do(func() {
		c.otpNotifier, err = c.initOTPNotifier()
		if err != nil {
			c.initErrors["otpNotifier"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["otpNotifier"]; exists {
		return nil, storedErr
	}
	return c.otpNotifier, nil
}

// AuthUseCase returns the two-phase authentication use case.
func (c *Container) AuthUseCase() (authUseCase.AuthUseCase, error) {
	var err error
	c.authUseCaseInit.Do(func() {
		c.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// AuthHandler returns the HTTP handler for the auth endpoints.
func (c *Container) AuthHandler() (*authHTTP.AuthHandler, error) {
	var err error
	c.authHandlerInit.Do(func() {
		var useCase authUseCase.AuthUseCase
		useCase, err = c.AuthUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get auth use case for auth handler: %w", err)
			c.initErrors["authHandler"] = err
			return
		}
		c.authHandler = authHTTP.NewAuthHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authHandler"]; exists {
		return nil, storedErr
	}
	return c.authHandler, nil
}

// ActivityHandler returns the HTTP handler for the activity log endpoint.
func (c *Container) ActivityHandler() (*authHTTP.ActivityHandler, error) {
	var err error
	c.activityHandlerInit.Do(func() {
		var useCase authUseCase.AuthUseCase
		useCase, err = c.AuthUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get auth use case for activity handler: %w", err)
			c.initErrors["activityHandler"] = err
			return
		}
		c.activityHandler = authHTTP.NewActivityHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["activityHandler"]; exists {
		return nil, storedErr
	}
	return c.activityHandler, nil
}

func (c *Container) initActivityLogRepository() (authUseCase.ActivityLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for activity log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLActivityLogRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLActivityLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initOTPNotifier() (authUseCase.OTPNotifier, error) {
	var sender mail.Sender
	switch c.config.MailDriver {
	case config.MailDriverPostmark:
		postmarkSender, err := mail.NewPostmarkSender(mail.PostmarkConfig{
			ServerToken:  c.config.PostmarkServerToken,
			AccountToken: c.config.PostmarkAccountToken,
			FromAddress:  c.config.MailFrom,
			ReplyTo:      c.config.MailReplyTo,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create postmark sender: %w", err)
		}
		sender = postmarkSender
	case config.MailDriverDev:
		c.Logger().Warn("using dev mail driver; OTP emails are written to disk",
			"dir", c.config.MailDevDir)
		sender = mail.NewDevSender(c.config.MailDevDir)
	default:
		return nil, fmt.Errorf("unsupported mail driver: %s", c.config.MailDriver)
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}
	return mail.NewOTPNotifier(sender, renderer, c.config.OTPTTL), nil
}

func (c *Container) initAuthUseCase() (authUseCase.AuthUseCase, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for auth use case: %w", err)
	}
	activityRepo, err := c.ActivityLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get activity log repository for auth use case: %w", err)
	}
	appCache, err := c.Cache()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache for auth use case: %w", err)
	}
	notifier, err := c.OTPNotifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get otp notifier for auth use case: %w", err)
	}
	tokenIssuer, err := c.TokenIssuer()
	if err != nil {
		return nil, fmt.Errorf("failed to get token issuer for auth use case: %w", err)
	}
	keyManager, err := c.KeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for auth use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
	}

	tokens := authService.NewTokenGenerator()
	useCase := authUseCase.NewAuthUseCase(authUseCase.Dependencies{
		Config:       c.config,
		Logger:       c.Logger(),
		UserRepo:     userRepo,
		ActivityRepo: activityRepo,
		OTPService:   otpService.NewOTPService(appCache, otpService.NewDigitsGenerator()),
		Notifier:     notifier,
		LoginBroker: authService.NewVerificationBroker[authDomain.PendingLogin](
			appCache, tokens, authDomain.FlowLogin, c.config.VerificationTokenTTL,
		),
		SignupBroker: authService.NewVerificationBroker[authDomain.PendingSignup](
			appCache, tokens, authDomain.FlowSignup, c.config.VerificationTokenTTL,
		),
		PasswordHasher: authService.NewPasswordHasher(),
		TokenIssuer:    tokenIssuer,
		KeyManager:     keyManager,
	})

	return authUseCase.NewAuthUseCaseWithMetrics(useCase, businessMetrics), nil
}
