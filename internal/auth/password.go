// Package auth — password hashing utilities.
//
// bcrypt is deliberately slow, generates a random salt per hash, and embeds
// the salt and cost in its output — so one opaque string column is all the
// storage a password digest needs. The digest is one-way: there is no path
// from the stored value back to the plaintext.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly ~250ms on a
// modern server — negligible for a login, brutal for a brute-forcer.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected in tests —
// cost 4 makes test hashing take milliseconds instead of ~250ms per call.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// newPasswordServiceWithCost creates a PasswordService with a custom cost.
// Unexported helper used by the tests in this package.
func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with a low bcrypt cost
// for use in tests in other packages. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// Store the output directly — it includes the salt and cost, and
// bcrypt.CompareHashAndPassword knows how to decode it.
//
// Returns an error if the plaintext exceeds 72 bytes: bcrypt silently
// truncates longer inputs, and we'd rather reject than surprise.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match. The comparison is constant-time internally, so it
// is safe against timing attacks.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
