// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	authUseCase "github.com/KiritoEM/safeo-api/internal/auth/usecase"
	"github.com/KiritoEM/safeo-api/internal/cache"
	"github.com/KiritoEM/safeo-api/internal/config"
	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	cryptoService "github.com/KiritoEM/safeo-api/internal/crypto/service"
	cryptoUseCase "github.com/KiritoEM/safeo-api/internal/crypto/usecase"
	"github.com/KiritoEM/safeo-api/internal/database"
	authHTTP "github.com/KiritoEM/safeo-api/internal/auth/http"
	authService "github.com/KiritoEM/safeo-api/internal/auth/service"
	documentHTTP "github.com/KiritoEM/safeo-api/internal/document/http"
	documentUseCase "github.com/KiritoEM/safeo-api/internal/document/usecase"
	"github.com/KiritoEM/safeo-api/internal/http"
	"github.com/KiritoEM/safeo-api/internal/metrics"
	outboxUseCase "github.com/KiritoEM/safeo-api/internal/outbox/usecase"
	"github.com/KiritoEM/safeo-api/internal/storage"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
	userHTTP "github.com/KiritoEM/safeo-api/internal/user/http"
	userRepository "github.com/KiritoEM/safeo-api/internal/user/repository"
	userUseCase "github.com/KiritoEM/safeo-api/internal/user/usecase"
)

// UserRepository is the union of what the auth, document and key rotation
// use cases need from the user store.
type UserRepository interface {
	authUseCase.UserRepository
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)
	cryptoUseCase.EncryptedKeyRepository
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	cache           cache.Cache
	redisCloser     func() error
	objectStore     *storage.BucketStore
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Crypto
	masterKey   *cryptoDomain.MasterKey
	aeadManager cryptoService.AEADManager
	keyManager  cryptoService.KeyManager
	kmsService  cryptoService.KMSService

	// Repositories
	userRepo     UserRepository
	activityRepo authUseCase.ActivityLogRepository
	documentRepo documentUseCase.DocumentRepository
	outboxRepo   outboxUseCase.OutboxEventRepository

	// Services
	tokenIssuer authService.TokenIssuer
	otpNotifier authUseCase.OTPNotifier

	// Use Cases
	authUseCase     authUseCase.AuthUseCase
	documentUseCase documentUseCase.DocumentUseCase
	outboxUseCase   *outboxUseCase.OutboxUseCase
	userUseCase     userUseCase.UserUseCase

	// Handlers
	authHandler     *authHTTP.AuthHandler
	activityHandler *authHTTP.ActivityHandler
	documentHandler *documentHTTP.DocumentHandler
	userHandler     *userHTTP.UserHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	cacheInit           sync.Once
	objectStoreInit     sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	txManagerInit       sync.Once
	masterKeyInit       sync.Once
	aeadManagerInit     sync.Once
	keyManagerInit      sync.Once
	kmsServiceInit      sync.Once
	userRepoInit        sync.Once
	activityRepoInit    sync.Once
	documentRepoInit    sync.Once
	outboxRepoInit      sync.Once
	tokenIssuerInit     sync.Once
	otpNotifierInit     sync.Once
	authUseCaseInit     sync.Once
	documentUseCaseInit sync.Once
	outboxUseCaseInit   sync.Once
	userUseCaseInit     sync.Once
	authHandlerInit     sync.Once
	activityHandlerInit sync.Once
	documentHandlerInit sync.Once
	userHandlerInit     sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// Cache returns the OTP and verification token store.
func (c *Container) Cache() (cache.Cache, error) {
	var err error
	c.cacheInit.Do(func() {
		c.cache, err = c.initCache()
		if err != nil {
			c.initErrors["cache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cache"]; exists {
		return nil, storedErr
	}
	return c.cache, nil
}

// ObjectStore returns the bucket holding encrypted document payloads.
func (c *Container) ObjectStore() (*storage.BucketStore, error) {
	var err error
	c.objectStoreInit.Do(func() {
		c.objectStore, err = storage.Open(context.Background(), c.config.StorageURL)
		if err != nil {
			c.initErrors["objectStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["objectStore"]; exists {
		return nil, storedErr
	}
	return c.objectStore, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when
// metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (UserRepository, error) {
	var err error
	c.userRepoInit.Do(func() {
		c.userRepo, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// HTTPServer returns the HTTP server with its router configured. ctx bounds
// background work started by middleware.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.redisCloser != nil {
		if err := c.redisCloser(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.objectStore != nil {
		if err := c.objectStore.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("object store close: %w", err))
		}
	}

	if c.masterKey != nil {
		cryptoDomain.Zero(c.masterKey.Key)
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initCache selects the cache driver. The memory driver is single-process only.
func (c *Container) initCache() (cache.Cache, error) {
	switch c.config.CacheDriver {
	case config.CacheDriverMemory:
		c.Logger().Warn("using in-memory cache; OTPs and verification tokens are lost on restart")
		return cache.NewMemoryCache(), nil
	case config.CacheDriverRedis:
		client, err := cache.Connect(context.Background(), cache.RedisConfig{
			ConnectionURL:  c.config.RedisURL,
			RetryAttempts:  c.config.RedisRetryAttempts,
			RetryInterval:  c.config.RedisRetryInterval,
			ConnectTimeout: c.config.RedisConnectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.redisCloser = client.Close
		return cache.NewRedisCache(client), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", c.config.CacheDriver)
	}
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initUserRepository creates the user repository instance.
func (c *Container) initUserRepository() (UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return userRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return userRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}
	appCache, err := c.Cache()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache for http server: %w", err)
	}
	objectStore, err := c.ObjectStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get object store for http server: %w", err)
	}

	authHandler, err := c.AuthHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth handler for http server: %w", err)
	}
	activityHandler, err := c.ActivityHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get activity handler for http server: %w", err)
	}
	documentHandler, err := c.DocumentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get document handler for http server: %w", err)
	}
	userHandler, err := c.UserHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get user handler for http server: %w", err)
	}
	tokenIssuer, err := c.TokenIssuer()
	if err != nil {
		return nil, fmt.Errorf("failed to get token issuer for http server: %w", err)
	}

	var metricsProvider *metrics.Provider
	if c.config.MetricsEnabled {
		metricsProvider, err = c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger,
		http.ReadinessCheck{Name: "cache", Ping: appCache.Ping},
		http.ReadinessCheck{Name: "storage", Ping: objectStore.Ping},
	)
	server.SetupRouter(ctx, c.config, http.Routes{
		AuthHandler:     authHandler,
		ActivityHandler: activityHandler,
		DocumentHandler: documentHandler,
		UserHandler:     userHandler,
		TokenIssuer:     tokenIssuer,
	}, metricsProvider)

	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
