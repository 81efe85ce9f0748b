// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation;
// tests substitute mocks.
package repository

import (
	"context"

	"github.com/sakif/contacts-api/internal/model"
)

// ListOptions carries offset/limit pagination for contact listings.
// Limit is passed through as the caller provided it — large values are
// allowed, only negatives are normalized by the service layer.
type ListOptions struct {
	Skip  int
	Limit int
}

// SearchFilter holds the optional contact search criteria. A nil field
// means "no filter on this field"; non-nil filters are ANDed. Both nil
// matches every contact.
type SearchFilter struct {
	Name  *string // case-sensitive substring of first OR last name
	Email *string // case-sensitive substring of email
}

// UserRepository persists user accounts and their refresh-token slot.
type UserRepository interface {
	// Create inserts a new user. Fails with apperror.ErrConflict if the
	// email is already taken.
	Create(ctx context.Context, user *model.User) error

	// GetByEmail looks a user up by login email. Fails with
	// apperror.ErrNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// SetRefreshToken overwrites the user's single refresh-token slot.
	SetRefreshToken(ctx context.Context, userID, token string) error

	// ClearRefreshToken empties the slot, forcing a fresh login.
	ClearRefreshToken(ctx context.Context, userID string) error
}

// ContactRepository persists contacts. Create/List/GetByID/Update/Delete are
// scoped to an owning user; Search and UpcomingBirthdays operate across all
// users (see DESIGN.md on this inherited inconsistency).
type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	List(ctx context.Context, ownerID string, opts ListOptions) ([]model.Contact, error)

	// GetByID returns the contact only if it is owned by ownerID.
	// "Exists but owned by someone else" and "does not exist" are both
	// apperror.ErrNotFound — existence must not leak.
	GetByID(ctx context.Context, id, ownerID string) (*model.Contact, error)

	// Update overwrites the stored row with the given contact's fields,
	// gated on ownership like GetByID.
	Update(ctx context.Context, contact *model.Contact) error

	// Delete removes the contact permanently and returns its prior state,
	// gated on ownership like GetByID.
	Delete(ctx context.Context, id, ownerID string) (*model.Contact, error)

	Search(ctx context.Context, filter SearchFilter) ([]model.Contact, error)

	// UpcomingBirthdays returns contacts whose birthday (by month/day,
	// any birth year) falls within [today, today+windowDays], handling
	// year-end wraparound.
	UpcomingBirthdays(ctx context.Context, windowDays int) ([]model.Contact, error)
}
