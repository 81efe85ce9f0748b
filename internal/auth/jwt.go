// Package auth provides JWT token issuance/validation and password hashing
// for the contacts API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User signs up with email + password → we store a bcrypt digest
// 2. User logs in → server issues an access/refresh token pair
// 3. Protected requests carry "Authorization: Bearer <access token>"
// 4. When the access token expires, the client presents the refresh token
//    at /refresh_token and receives a fresh pair (the old refresh token is
//    rotated out — see service.AuthService.Refresh)
//
// Both token kinds are HS256-signed JWTs with the user's email in the "sub"
// claim. A "scope" claim distinguishes the two kinds so a long-lived refresh
// token can never be replayed as an access token (or vice versa).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope claim values. The scope marks what a token may be used for;
// validation rejects any token presented outside its scope.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
)

// Default token lifetimes. Access tokens are short-lived on purpose — a
// stolen one is only useful for minutes. Refresh tokens live for days and
// are guarded by rotation-on-use instead.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

const issuer = "contacts-api"

// ErrInvalidToken is returned for every token validation failure: bad
// signature, expired, malformed, wrong scope, missing subject. Callers must
// not be able to tell these apart.
var ErrInvalidToken = errors.New("auth: invalid token")

// claims is the JWT payload: the standard registered claims (sub, exp, iat,
// iss) plus our scope marker.
type claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenService issues and validates signed access/refresh tokens.
//
// It holds the process-wide HMAC secret and the configured lifetimes.
// The same secret signs and verifies — keep it out of source control.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given secret and TTLs.
// Zero TTLs fall back to the defaults. The secret should be at least
// 32 bytes of random data in production, e.g. $(openssl rand -hex 32).
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssueAccessToken signs a short-lived token for the given subject (the
// user's email) with scope "access_token".
func (s *TokenService) IssueAccessToken(subject string) (string, error) {
	return s.issue(subject, ScopeAccess, s.accessTTL)
}

// IssueRefreshToken signs a long-lived token with scope "refresh_token".
// The caller is responsible for persisting it into the user's refresh-token
// slot so rotation can be enforced later.
func (s *TokenService) IssueRefreshToken(subject string) (string, error) {
	return s.issue(subject, ScopeRefresh, s.refreshTTL)
}

func (s *TokenService) issue(subject, scope string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// SubjectFromAccessToken verifies an access token and returns its subject.
// Fails with ErrInvalidToken on bad signature, expiry, or refresh scope.
func (s *TokenService) SubjectFromAccessToken(tokenStr string) (string, error) {
	return s.parse(tokenStr, ScopeAccess)
}

// SubjectFromRefreshToken verifies a refresh token and returns its subject.
// Fails with ErrInvalidToken on bad signature, expiry, or access scope.
func (s *TokenService) SubjectFromRefreshToken(tokenStr string) (string, error) {
	return s.parse(tokenStr, ScopeRefresh)
}

// parse verifies signature, expiry, issuer, algorithm and scope.
//
// Passing jwt.WithValidMethods pins the algorithm to HS256 — without it an
// attacker could attempt an algorithm confusion attack (e.g. alg "none").
//
// Every failure path collapses into ErrInvalidToken so response timing and
// content never reveal WHY a token was rejected.
func (s *TokenService) parse(tokenStr, wantScope string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if c.Scope != wantScope {
		return "", ErrInvalidToken
	}
	if c.Subject == "" {
		return "", ErrInvalidToken
	}

	return c.Subject, nil
}
