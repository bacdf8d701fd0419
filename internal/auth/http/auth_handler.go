package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	"github.com/KiritoEM/safeo-api/internal/auth/http/dto"
	authUseCase "github.com/KiritoEM/safeo-api/internal/auth/usecase"
	"github.com/KiritoEM/safeo-api/internal/httputil"
	customValidation "github.com/KiritoEM/safeo-api/internal/validation"
)

// AuthHandler handles the login, signup and refresh endpoints. None of them
// require authentication.
type AuthHandler struct {
	authUseCase authUseCase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler with required dependencies.
func NewAuthHandler(authUseCase authUseCase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

// bind decodes and validates a JSON request body. It writes the error
// response itself and reports whether the handler should continue.
func (h *AuthHandler) bind(c *gin.Context, req interface{ Validate() error }) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return false
	}
	return true
}

// LoginHandler checks the password and emails a login code.
// POST /v1/auth/login - Returns 200 OK with the verification token.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	output, err := h.authUseCase.Login(c.Request.Context(), &authDomain.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ChallengeResponse{
		VerificationToken: output.VerificationToken,
		Message:           "verification code sent by email",
	})
}

// ResendLoginOTPHandler emails a new login code and rotates the token.
// POST /v1/auth/login/resend-otp - Returns 200 OK with the new verification token.
func (h *AuthHandler) ResendLoginOTPHandler(c *gin.Context) {
	var req dto.ResendOTPRequest
	if !h.bind(c, &req) {
		return
	}

	output, err := h.authUseCase.ResendLoginOTP(c.Request.Context(), req.VerificationToken, c.ClientIP())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ChallengeResponse{
		VerificationToken: output.VerificationToken,
		Message:           "verification code sent again",
	})
}

// VerifyLoginOTPHandler completes a login.
// POST /v1/auth/login/verify-otp - Returns 200 OK with access and refresh tokens.
func (h *AuthHandler) VerifyLoginOTPHandler(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.authUseCase.VerifyLoginOTP(c.Request.Context(), &authDomain.VerifyOTPInput{
		Code:              req.Code,
		VerificationToken: req.VerificationToken,
		IPAddress:         c.ClientIP(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionToResponse(session, "login successful"))
}

// SignupSendOTPHandler stores a signup form and emails a confirmation code.
// POST /v1/auth/signup/send-otp - Returns 200 OK with the verification token,
// or 409 Conflict if the email is taken.
func (h *AuthHandler) SignupSendOTPHandler(c *gin.Context) {
	var req dto.SignupRequest
	if !h.bind(c, &req) {
		return
	}

	output, err := h.authUseCase.SendSignupOTP(c.Request.Context(), &authDomain.SignupInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ChallengeResponse{
		VerificationToken: output.VerificationToken,
		Message:           "signup verification code sent by email",
	})
}

// ResendSignupOTPHandler emails a new signup code and rotates the token.
// POST /v1/auth/signup/resend-otp - Returns 200 OK with the new verification token.
func (h *AuthHandler) ResendSignupOTPHandler(c *gin.Context) {
	var req dto.ResendOTPRequest
	if !h.bind(c, &req) {
		return
	}

	output, err := h.authUseCase.ResendSignupOTP(c.Request.Context(), req.VerificationToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ChallengeResponse{
		VerificationToken: output.VerificationToken,
		Message:           "verification code sent again",
	})
}

// VerifySignupOTPHandler confirms the email address and creates the account.
// POST /v1/auth/signup/verify-otp - Returns 201 Created with access and refresh tokens.
func (h *AuthHandler) VerifySignupOTPHandler(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.authUseCase.CompleteSignup(c.Request.Context(), &authDomain.VerifyOTPInput{
		Code:              req.Code,
		VerificationToken: req.VerificationToken,
		IPAddress:         c.ClientIP(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSessionToResponse(session, "signup successful, welcome to Safeo"))
}

// RefreshAccessTokenHandler trades a refresh token for a new access token.
// POST /v1/auth/refresh-access-token - Returns 201 Created with the access token.
func (h *AuthHandler) RefreshAccessTokenHandler(c *gin.Context) {
	var req dto.RefreshAccessTokenRequest
	if !h.bind(c, &req) {
		return
	}

	output, err := h.authUseCase.RefreshAccessToken(c.Request.Context(), req.RefreshToken, c.ClientIP())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.RefreshAccessTokenResponse{
		AccessToken: output.AccessToken,
		Message:     "access token refreshed",
	})
}
