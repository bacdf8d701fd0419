package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// Token types carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken indicates a JWT failed signature, expiry or type checks.
var ErrInvalidToken = apperrors.Wrap(apperrors.ErrUnauthorized, "invalid token")

// Claims represents the JWT claims of session tokens.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Type   string    `json:"typ"`
	jwt.RegisteredClaims
}

// JWTConfig configures a JWTIssuer.
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// JWTIssuer implements TokenIssuer with HS256 signed tokens.
type JWTIssuer struct {
	secret          []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

// NewJWTIssuer creates a JWTIssuer. An empty secret is a configuration error.
func NewJWTIssuer(cfg JWTConfig) (*JWTIssuer, error) {
	if cfg.Secret == "" {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "jwt secret is not configured")
	}
	return &JWTIssuer{
		secret:          []byte(cfg.Secret),
		issuer:          cfg.Issuer,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		now:             time.Now,
	}, nil
}

// IssueAccessToken creates a new access token.
func (j *JWTIssuer) IssueAccessToken(userID uuid.UUID, email string) (string, error) {
	return j.sign(userID, email, TokenTypeAccess, j.accessTokenTTL)
}

// IssueRefreshToken creates a new refresh token. Every call yields a distinct
// token so a stored refresh token can be matched and revoked exactly.
func (j *JWTIssuer) IssueRefreshToken(userID uuid.UUID) (string, error) {
	return j.sign(userID, "", TokenTypeRefresh, j.refreshTokenTTL)
}

// ValidateAccessToken parses an access token.
func (j *JWTIssuer) ValidateAccessToken(token string) (*Claims, error) {
	return j.validate(token, TokenTypeAccess)
}

// ValidateRefreshToken parses a refresh token.
func (j *JWTIssuer) ValidateRefreshToken(token string) (*Claims, error) {
	return j.validate(token, TokenTypeRefresh)
}

func (j *JWTIssuer) sign(userID uuid.UUID, email, tokenType string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.issuer,
			Subject:   userID.String(),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

func (j *JWTIssuer) validate(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return j.secret, nil
		},
		jwt.WithTimeFunc(j.now),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperrors.Wrap(ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != tokenType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
