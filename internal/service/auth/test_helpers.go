package auth

import "time"

// NewTestJWTService creates a JWT service with an injectable clock for tests.
// The refresh token lifetime is fixed at double the access token lifetime.
func NewTestJWTService(
	secret string,
	tokenLifetime time.Duration,
	timeFunc func() time.Time,
) JWTService {
	return &hmacJWTService{
		signingKey:           []byte(secret),
		tokenLifetime:        tokenLifetime,
		refreshTokenLifetime: 2 * tokenLifetime,
		timeFunc:             timeFunc,
		clockSkew:            0, // No leeway so expiry tests are exact
	}
}
