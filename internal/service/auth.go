// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services enforce the rules;
// repositories talk to the database. Services receive repository INTERFACES,
// not concrete types, so tests can substitute mocks and the storage backend
// can change without touching this package.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/auth"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/repository"
)

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthService handles signup, login, token refresh and identity resolution.
//
// The union of all authentication failures — wrong password, unknown email,
// bad signature, expired token, wrong scope, stale refresh token — is
// reported as one apperror.ErrUnauthorized with a generic message. Anything
// more specific would tell an attacker which part of their guess was right.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Signup registers a new account. The stored record carries only the bcrypt
// digest of the password. A taken email surfaces as apperror.ErrConflict —
// duplicate detection is left to the storage layer's unique constraint, so
// concurrent signups race safely.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("username", "email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("username", "email must be a valid address")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return user, nil
}

// Login verifies the credentials and issues a fresh token pair. The new
// refresh token overwrites the user's slot, invalidating any earlier
// session.
//
// "no such user" and "wrong password" intentionally produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair (rotation-on-use).
//
// The presented token must exactly match the user's stored slot. A mismatch
// means the token was already rotated out — likely replayed or stolen — so
// the slot is cleared (forced logout) before failing. The clear happens
// even though the request fails: that is the point.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.tokens.SubjectFromRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user.RefreshToken != refreshToken {
		if err := s.users.ClearRefreshToken(ctx, user.ID); err != nil {
			s.logger.Error("failed to clear refresh token slot",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.Warn("stale refresh token presented, session revoked",
			slog.String("userID", user.ID),
		)
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("token pair refreshed", slog.String("userID", user.ID))
	return pair, nil
}

// CurrentUser resolves the authenticated user from a bearer access token.
// Implements auth.UserResolver for the RequireAuth middleware.
//
// Bad signature, expiry, wrong scope and unknown user all collapse into the
// same error — symmetric on purpose.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*model.User, error) {
	email, err := s.tokens.SubjectFromAccessToken(accessToken)
	if err != nil {
		return nil, apperror.Unauthorized("could not validate credentials")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("could not validate credentials")
	}

	return user, nil
}

// issuePair mints an access/refresh pair and persists the refresh token
// into the user's slot.
func (s *AuthService) issuePair(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.Email)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user.Email)
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}
