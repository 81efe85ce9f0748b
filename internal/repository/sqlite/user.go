package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/repository"
)

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo persists user accounts.
type UserRepo struct {
	conn *sql.DB
}

// Create inserts a new user, generating the ID and created_at here.
//
// There is no "does this email exist" pre-check: the UNIQUE constraint on
// email is the only guard, which also makes two simultaneous signups with
// the same email safe — exactly one of them wins, the other gets a
// conflict error.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, refresh_token, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		nullable(user.RefreshToken),
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email "+user.Email)
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by login email.
// Returns apperror.ErrNotFound if no user exists with that email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var (
		u            model.User
		refreshToken sql.NullString
	)

	err := r.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, refresh_token, created_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&refreshToken,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	u.RefreshToken = refreshToken.String // NULL scans to ""
	return &u, nil
}

// SetRefreshToken overwrites the user's refresh-token slot. Called on every
// successful login and refresh — whatever token was in the slot before is
// invalidated by the overwrite.
func (r *UserRepo) SetRefreshToken(ctx context.Context, userID, token string) error {
	return r.storeRefreshToken(ctx, userID, nullable(token))
}

// ClearRefreshToken empties the slot (NULL), forcing a fresh login. Used
// when a stale refresh token is presented after rotation.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	return r.storeRefreshToken(ctx, userID, nil)
}

func (r *UserRepo) storeRefreshToken(ctx context.Context, userID string, token any) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE users SET refresh_token = ? WHERE id = ?`,
		token, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: storing refresh token for user %s: %w", userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", userID)
	}

	return nil
}

// nullable maps "" to NULL for nullable TEXT columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
