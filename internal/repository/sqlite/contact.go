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

// compile-time check that *ContactRepo implements repository.ContactRepository
var _ repository.ContactRepository = (*ContactRepo)(nil)

// ContactRepo persists contacts.
//
// now is a hook for the birthday-window query; production code leaves it nil
// (time.Now), tests pin it to a fixed date.
type ContactRepo struct {
	conn *sql.DB
	now  func() time.Time
}

const contactColumns = `id, user_id, first_name, last_name, email, phone_number,
	 birthday, additional_info, created_at, updated_at`

// Create inserts a new contact, generating the ID and timestamps here.
// The caller must have set UserID to the owning user.
//
// Contact email is UNIQUE across all contacts (a schema-level invariant,
// not a per-user one); a duplicate surfaces as a conflict error.
func (r *ContactRepo) Create(ctx context.Context, contact *model.Contact) error {
	contact.ID = xid.New().String()

	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO contacts (id, user_id, first_name, last_name, email,
		 phone_number, birthday, additional_info, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.ID,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.PhoneNumber,
		nullableDate(contact.Birthday),
		contact.AdditionalInfo,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("contact", "email "+contact.Email)
		}
		return fmt.Errorf("sqlite: creating contact: %w", err)
	}

	return nil
}

// List returns the owner's contacts in insertion order, offset by Skip and
// capped at Limit. Limit is used as given — the contract allows arbitrarily
// large values, so there is no clamping here.
func (r *ContactRepo) List(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Contact, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+contactColumns+`
		 FROM contacts
		 WHERE user_id = ?
		 ORDER BY created_at, id
		 LIMIT ? OFFSET ?`,
		ownerID,
		opts.Limit,
		opts.Skip,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contacts: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// GetByID returns the contact only if it belongs to ownerID.
//
// The WHERE clause carries both conditions, so "exists but owned by someone
// else" is indistinguishable from "does not exist" — both are NotFound.
func (r *ContactRepo) GetByID(ctx context.Context, id, ownerID string) (*model.Contact, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+contactColumns+`
		 FROM contacts
		 WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)

	contact, err := scanContact(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("contact", id)
		}
		return nil, fmt.Errorf("sqlite: getting contact %s: %w", id, err)
	}

	return contact, nil
}

// Update overwrites all mutable fields of the stored row, gated on the same
// id+owner condition as GetByID. RowsAffected detects the not-found case.
func (r *ContactRepo) Update(ctx context.Context, contact *model.Contact) error {
	contact.UpdatedAt = time.Now()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE contacts
		 SET first_name = ?, last_name = ?, email = ?, phone_number = ?,
		     birthday = ?, additional_info = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.PhoneNumber,
		nullableDate(contact.Birthday),
		contact.AdditionalInfo,
		contact.UpdatedAt,
		contact.ID,
		contact.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("contact", "email "+contact.Email)
		}
		return fmt.Errorf("sqlite: updating contact %s: %w", contact.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("contact", contact.ID)
	}

	return nil
}

// Delete removes the contact permanently and returns its prior state.
// Same ownership gate as GetByID; deleting someone else's contact is a
// NotFound, never a hint that the row exists.
func (r *ContactRepo) Delete(ctx context.Context, id, ownerID string) (*model.Contact, error) {
	prior, err := r.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	_, err = r.conn.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: deleting contact %s: %w", id, err)
	}

	return prior, nil
}

// Search filters contacts across ALL users. Non-nil filters are ANDed; with
// no filters every contact comes back. An empty result is an empty slice,
// not an error — the API layer decides what empty means.
//
// SQLite's LIKE is case-insensitive for ASCII, so substring matching uses
// instr() instead to keep the match case-sensitive: "an" matches "Susan"
// but not "ANNA".
func (r *ContactRepo) Search(ctx context.Context, filter repository.SearchFilter) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts`
	var (
		conds []string
		args  []any
	)

	if filter.Name != nil {
		conds = append(conds, `(instr(first_name, ?) > 0 OR instr(last_name, ?) > 0)`)
		args = append(args, *filter.Name, *filter.Name)
	}
	if filter.Email != nil {
		conds = append(conds, `instr(email, ?) > 0`)
		args = append(args, *filter.Email)
	}

	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching contacts: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// UpcomingBirthdays returns contacts (across ALL users) whose birthday
// falls within [today, today+windowDays] by month and day, regardless of
// birth year.
//
// The matching runs in Go rather than SQL: SQL date arithmetic over a
// month/day window that wraps Dec→Jan gets unreadable fast, and the
// birthday rows are a small subset to begin with.
func (r *ContactRepo) UpcomingBirthdays(ctx context.Context, windowDays int) ([]model.Contact, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+contactColumns+`
		 FROM contacts
		 WHERE birthday IS NOT NULL
		 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying birthdays: %w", err)
	}
	defer rows.Close()

	contacts, err := collectContacts(rows)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	if r.now != nil {
		today = r.now()
	}

	matched := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.Birthday != nil && birthdayInWindow(c.Birthday.Time, today, windowDays) {
			matched = append(matched, c)
		}
	}

	return matched, nil
}

// birthdayInWindow reports whether the birthday's month/day falls within
// [today, today+windowDays].
//
// Walking the window day by day and comparing month/day pairs handles the
// awkward cases for free: Dec 28 + 7 days steps through Dec 29..31 then
// Jan 1..4, so year-end wraparound needs no special casing, and Feb 29
// birthdays match exactly when the window actually contains a Feb 29.
// The walk is capped at a full year — a wider window matches everyone.
func birthdayInWindow(birthday, today time.Time, windowDays int) bool {
	if windowDays < 0 {
		return false
	}
	if windowDays > 366 {
		windowDays = 366
	}

	for i := 0; i <= windowDays; i++ {
		day := today.AddDate(0, 0, i)
		if day.Month() == birthday.Month() && day.Day() == birthday.Day() {
			return true
		}
	}
	return false
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanContact reads one contacts row in contactColumns order.
func scanContact(s scanner) (*model.Contact, error) {
	var (
		c        model.Contact
		birthday sql.NullString
	)

	err := s.Scan(
		&c.ID,
		&c.UserID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.PhoneNumber,
		&birthday,
		&c.AdditionalInfo,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if birthday.Valid {
		d, err := model.ParseDate(birthday.String)
		if err != nil {
			return nil, fmt.Errorf("sqlite: contact %s has malformed birthday: %w", c.ID, err)
		}
		c.Birthday = &d
	}

	return &c, nil
}

func collectContacts(rows *sql.Rows) ([]model.Contact, error) {
	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning contact row: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contacts: %w", err)
	}
	return contacts, nil
}

// nullableDate maps a nil birthday to NULL and a set one to "YYYY-MM-DD".
func nullableDate(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
