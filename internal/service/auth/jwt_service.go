package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService issues and validates the signed tokens that authenticate API
// requests. Access and refresh tokens share one signing key but carry
// distinct lifetimes and a type marker, so one can never stand in for the
// other.
type JWTService interface {
	// GenerateToken creates a signed access token for the given user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks an access token's signature, expiry, and type,
	// returning its claims when valid.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed refresh token for the given
	// user. Refresh tokens live longer and are exchanged for fresh token
	// pairs at /auth/refresh.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateRefreshToken checks a refresh token's signature, expiry, and
	// type, returning its claims when valid. An access token presented here
	// fails with ErrWrongTokenType.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the decoded payload of a token: the user it identifies, which
// kind of token it is, and the registered timing claims.
type Claims struct {
	// UserID identifies the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// TokenType is "access" or "refresh". Checked during validation so a
	// long-lived refresh token cannot be replayed as an access token.
	TokenType string `json:"type,omitempty"`

	// Registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
