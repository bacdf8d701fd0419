// Package http provides the HTTP server, its router and shared middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/KiritoEM/safeo-api/internal/auth/http"
	authService "github.com/KiritoEM/safeo-api/internal/auth/service"
	"github.com/KiritoEM/safeo-api/internal/config"
	documentHTTP "github.com/KiritoEM/safeo-api/internal/document/http"
	"github.com/KiritoEM/safeo-api/internal/metrics"
	userHTTP "github.com/KiritoEM/safeo-api/internal/user/http"
)

// readinessTimeout bounds each dependency check on /ready.
const readinessTimeout = 2 * time.Second

// ReadinessCheck pings one dependency for /ready.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Routes groups the handlers mounted by SetupRouter.
type Routes struct {
	AuthHandler     *authHTTP.AuthHandler
	ActivityHandler *authHTTP.ActivityHandler
	DocumentHandler *documentHTTP.DocumentHandler
	UserHandler     *userHTTP.UserHandler
	TokenIssuer     authService.TokenIssuer
}

// Server represents the HTTP server
type Server struct {
	db     *sql.DB
	checks []ReadinessCheck
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The database is always checked by
// /ready; extra checks cover the cache and object storage.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
	checks ...ReadinessCheck,
) *Server {
	return &Server{
		db:     db,
		checks: checks,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with every route. ctx bounds background
// work started by middleware, such as rate limiter cleanup.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	routes Routes,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace, "/health", "/ready"))
	}
	router.Use(CustomLoggerMiddleware(s.logger))

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	if cfg.RateLimitAuthEnabled {
		auth.Use(authHTTP.IPRateLimitMiddleware(ctx, cfg.RateLimitAuthRequestsPerSec, cfg.RateLimitAuthBurst, s.logger))
	}
	auth.POST("/login", routes.AuthHandler.LoginHandler)
	auth.POST("/login/resend-otp", routes.AuthHandler.ResendLoginOTPHandler)
	auth.POST("/login/verify-otp", routes.AuthHandler.VerifyLoginOTPHandler)
	auth.POST("/signup/send-otp", routes.AuthHandler.SignupSendOTPHandler)
	auth.POST("/signup/resend-otp", routes.AuthHandler.ResendSignupOTPHandler)
	auth.POST("/signup/verify-otp", routes.AuthHandler.VerifySignupOTPHandler)
	auth.POST("/refresh-access-token", routes.AuthHandler.RefreshAccessTokenHandler)

	authenticated := v1.Group("")
	authenticated.Use(authHTTP.AccessTokenMiddleware(routes.TokenIssuer, s.logger))
	if cfg.RateLimitEnabled {
		authenticated.Use(authHTTP.IPRateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}
	authenticated.GET("/auth/activity", routes.ActivityHandler.ListHandler)
	authenticated.GET("/user/me", routes.UserHandler.MeHandler)

	documents := authenticated.Group("/documents")
	documents.POST("", routes.DocumentHandler.UploadHandler)
	documents.GET("", routes.DocumentHandler.ListHandler)
	documents.GET("/:id", routes.DocumentHandler.GetHandler)
	documents.GET("/:id/download", routes.DocumentHandler.DownloadHandler)
	documents.PATCH("/:id", routes.DocumentHandler.RenameHandler)
	documents.DELETE("/:id", routes.DocumentHandler.DeleteHandler)

	s.router = router
}

// Start starts the HTTP server. SetupRouter must have been called.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only when every dependency answers.
func (s *Server) readinessHandler(c *gin.Context) {
	components := make(map[string]string, len(s.checks)+1)
	ready := true

	record := func(name string, err error) {
		if err != nil {
			s.logger.Warn("readiness check failed", slog.String("component", name), slog.Any("error", err))
			components[name] = "error"
			ready = false
			return
		}
		components[name] = "ok"
	}

	if s.db == nil {
		record("database", fmt.Errorf("database not configured"))
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		record("database", s.db.PingContext(ctx))
		cancel()
	}

	for _, check := range s.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		record(check.Name, check.Ping(ctx))
		cancel()
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "components": components})
}
