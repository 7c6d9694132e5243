// Package auth provides token issuance, password hashing and the session
// guard for the profile API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client registers or logs in with email + password
//  2. Server verifies the bcrypt hash and issues a signed JWT
//  3. Client sends it back on every protected call as
//     "Authorization: Bearer <token>"
//  4. RequireAuth validates the token, loads the user and puts them in the
//     request context
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"userId":"...","sub":"...","iat":...,"exp":...,"iss":"..."}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Tokens are never stored server-side. There is no refresh and no
// revocation: a token is good until it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/dating-profiles/internal/apperror"
)

const (
	// DefaultTokenTTL is how long an issued token stays valid.
	DefaultTokenTTL = 7 * 24 * time.Hour

	// DefaultIssuer is written to and required in the "iss" claim.
	DefaultIssuer = "dating-profiles"

	minSecretLen = 16
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used for both signing and verifying, so the same
// secret must be configured on every instance serving the API.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenService creates a TokenService. A zero ttl or empty issuer falls
// back to the defaults above.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration, issuer string) (*TokenService, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}

	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// claims is the JWT payload.
//
// UserID is carried as "userId" for clients that read the payload; "sub"
// holds the same value and is what Validate trusts.
type claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Generate creates and signs a token for userID with the configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom lifetime.
// A negative duration yields an already-expired token, which tests use.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: empty user id")
	}

	now := s.now()
	c := claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token and returns the user id it was
// issued for.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid
//   - Algorithm is HS256 (blocks "none" and algorithm confusion)
//   - exp is present and in the future
//   - iss matches this service
//
// Failures are apperror.ErrTokenExpired or apperror.ErrInvalidToken, both
// wrapped in an AppError carrying the client-facing message.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperror.Unauthorized(apperror.ErrTokenExpired, "Token expired")
		}
		return "", apperror.Unauthorized(apperror.ErrInvalidToken, "Invalid token")
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", apperror.Unauthorized(apperror.ErrInvalidToken, "Invalid token")
	}

	return c.Subject, nil
}
