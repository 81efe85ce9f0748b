package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// dateLayout is the wire and storage format for calendar dates.
const dateLayout = "2006-01-02"

// Date is a calendar date without a time-of-day component.
//
// Birthdays are dates, not instants: serializing them as full RFC 3339
// timestamps invites timezone bugs (a birthday shifting a day depending on
// the server's zone). Date marshals to/from plain "YYYY-MM-DD" strings in
// JSON and stores the same string in the database.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("model: parsing date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON renders the date as a quoted "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts a quoted "YYYY-MM-DD" string or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("model: invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so a Date can be passed to ExecContext.
func (d Date) Value() (driver.Value, error) {
	return d.Format(dateLayout), nil
}

// Scan implements sql.Scanner. SQLite hands dates back as TEXT; time.Time
// is accepted too in case the driver parses the column itself.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = Date{v}
		return nil
	default:
		return fmt.Errorf("model: cannot scan %T into Date", src)
	}
}

// Contact is an entry in a user's address book.
//
// Every contact belongs to exactly one user (UserID). The contact email is
// unique across ALL contacts, not just within one user's list — that
// constraint lives in the storage schema and surfaces as a conflict error
// on insert/update.
//
// Birthday and AdditionalInfo are optional; a nil Birthday means "unknown".
type Contact struct {
	ID             string    `json:"id"              db:"id"`
	UserID         string    `json:"-"               db:"user_id"`
	FirstName      string    `json:"first_name"      db:"first_name"`
	LastName       string    `json:"last_name"       db:"last_name"`
	Email          string    `json:"email"           db:"email"`
	PhoneNumber    string    `json:"phone_number"    db:"phone_number"`
	Birthday       *Date     `json:"birthday,omitempty"        db:"birthday"`
	AdditionalInfo string    `json:"additional_info,omitempty" db:"additional_info"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
