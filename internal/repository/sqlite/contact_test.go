package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/repository"
)

// createTestContact creates a contact for the given owner and fails the
// test on error.
func createTestContact(t *testing.T, c *ContactRepo, ownerID, firstName, lastName, email string) *model.Contact {
	t.Helper()
	contact := &model.Contact{
		UserID:      ownerID,
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		PhoneNumber: "+1-555-0100",
	}
	if err := c.Create(context.Background(), contact); err != nil {
		t.Fatalf("failed to create test contact: %v", err)
	}
	return contact
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestContactCreate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "owner@example.com")
	c := db.Contacts()

	birthday := model.NewDate(1990, time.June, 15)
	contact := &model.Contact{
		UserID:         owner.ID,
		FirstName:      "Anna",
		LastName:       "Brand",
		Email:          "anna@example.com",
		PhoneNumber:    "+1-555-0101",
		Birthday:       &birthday,
		AdditionalInfo: "met at conference",
	}

	if err := c.Create(context.Background(), contact); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if contact.ID == "" {
		t.Error("Create() did not set contact.ID")
	}

	found, err := c.GetByID(context.Background(), contact.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetByID() after create: %v", err)
	}
	if found.Birthday == nil || found.Birthday.String() != "1990-06-15" {
		t.Errorf("Birthday = %v, want 1990-06-15", found.Birthday)
	}
	if found.AdditionalInfo != "met at conference" {
		t.Errorf("AdditionalInfo = %q", found.AdditionalInfo)
	}
}

func TestContactCreate_DuplicateEmailAcrossOwners(t *testing.T) {
	// Contact email is unique across the whole table, not per user.
	db := newTestDB(t)
	owner1 := createTestUser(t, db.Users(), "one@example.com")
	owner2 := createTestUser(t, db.Users(), "two@example.com")
	c := db.Contacts()

	createTestContact(t, c, owner1.ID, "Shared", "Email", "dup@example.com")

	duplicate := &model.Contact{
		UserID:      owner2.ID,
		FirstName:   "Other",
		LastName:    "Owner",
		Email:       "dup@example.com",
		PhoneNumber: "+1-555-0102",
	}
	err := c.Create(context.Background(), duplicate)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestContactList_SkipLimitInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "lister@example.com")
	c := db.Contacts()

	var ids []string
	for i := 0; i < 5; i++ {
		contact := createTestContact(t, c, owner.ID,
			fmt.Sprintf("First%d", i), "Last",
			fmt.Sprintf("contact%d@example.com", i))
		ids = append(ids, contact.ID)
	}

	got, err := c.List(context.Background(), owner.ID, repository.ListOptions{Skip: 0, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List(limit=2) returned %d contacts, want 2", len(got))
	}
	if got[0].ID != ids[0] || got[1].ID != ids[1] {
		t.Errorf("List() order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, ids[0], ids[1])
	}

	// Skip past the first three.
	got, err = c.List(context.Background(), owner.ID, repository.ListOptions{Skip: 3, Limit: 10})
	if err != nil {
		t.Fatalf("List(skip=3) error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List(skip=3) returned %d contacts, want 2", len(got))
	}
	if got[0].ID != ids[3] {
		t.Errorf("List(skip=3) first ID = %s, want %s", got[0].ID, ids[3])
	}
}

func TestContactList_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "mine@example.com")
	other := createTestUser(t, db.Users(), "theirs@example.com")
	c := db.Contacts()

	createTestContact(t, c, owner.ID, "Mine", "Only", "mine-contact@example.com")
	createTestContact(t, c, other.ID, "Theirs", "Only", "theirs-contact@example.com")

	got, err := c.List(context.Background(), owner.ID, repository.ListOptions{Limit: 100})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() returned %d contacts, want 1", len(got))
	}
	if got[0].FirstName != "Mine" {
		t.Errorf("List() leaked another owner's contact: %q", got[0].FirstName)
	}
}

// =========================================================================
// OWNERSHIP GATE TESTS
// =========================================================================

func TestContactGetByID_OtherOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "owner-a@example.com")
	intruder := createTestUser(t, db.Users(), "owner-b@example.com")
	c := db.Contacts()

	contact := createTestContact(t, c, owner.ID, "Private", "Person", "private@example.com")

	// The real owner can read it.
	if _, err := c.GetByID(context.Background(), contact.ID, owner.ID); err != nil {
		t.Fatalf("GetByID() by owner: %v", err)
	}

	// Anyone else gets NotFound — identical to a nonexistent ID.
	_, err := c.GetByID(context.Background(), contact.ID, intruder.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() by non-owner error = %v, want ErrNotFound", err)
	}
	_, err = c.GetByID(context.Background(), "no-such-id", intruder.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() for missing ID error = %v, want ErrNotFound", err)
	}
}

func TestContactUpdate_FullReplace(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "updater@example.com")
	c := db.Contacts()

	contact := createTestContact(t, c, owner.ID, "Old", "Name", "old@example.com")

	contact.FirstName = "New"
	contact.LastName = "Name"
	contact.Email = "new@example.com"
	contact.PhoneNumber = "+1-555-0199"
	contact.Birthday = nil
	contact.AdditionalInfo = ""

	if err := c.Update(context.Background(), contact); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := c.GetByID(context.Background(), contact.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetByID() after update: %v", err)
	}
	if found.FirstName != "New" || found.Email != "new@example.com" {
		t.Errorf("Update() did not persist: %+v", found)
	}
	if found.Birthday != nil {
		t.Errorf("Update() should have cleared the birthday, got %v", found.Birthday)
	}
}

func TestContactUpdate_OtherOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "victim@example.com")
	intruder := createTestUser(t, db.Users(), "intruder@example.com")
	c := db.Contacts()

	contact := createTestContact(t, c, owner.ID, "Keep", "Safe", "safe@example.com")

	hijacked := *contact
	hijacked.UserID = intruder.ID
	hijacked.FirstName = "Hacked"

	err := c.Update(context.Background(), &hijacked)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() by non-owner error = %v, want ErrNotFound", err)
	}

	// Original row untouched.
	found, _ := c.GetByID(context.Background(), contact.ID, owner.ID)
	if found.FirstName != "Keep" {
		t.Errorf("Update() by non-owner modified the row: %q", found.FirstName)
	}
}

func TestContactDelete_ReturnsPriorState(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "deleter@example.com")
	c := db.Contacts()

	contact := createTestContact(t, c, owner.ID, "Goner", "Soon", "goner@example.com")

	prior, err := c.Delete(context.Background(), contact.ID, owner.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if prior.FirstName != "Goner" {
		t.Errorf("Delete() prior state FirstName = %q, want %q", prior.FirstName, "Goner")
	}

	// Permanently gone.
	_, err = c.GetByID(context.Background(), contact.ID, owner.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestContactDelete_OtherOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "holder@example.com")
	intruder := createTestUser(t, db.Users(), "grabber@example.com")
	c := db.Contacts()

	contact := createTestContact(t, c, owner.ID, "Still", "Here", "still@example.com")

	_, err := c.Delete(context.Background(), contact.ID, intruder.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() by non-owner error = %v, want ErrNotFound", err)
	}

	if _, err := c.GetByID(context.Background(), contact.ID, owner.ID); err != nil {
		t.Errorf("contact should have survived a non-owner delete: %v", err)
	}
}

// =========================================================================
// SEARCH TESTS
// =========================================================================

func TestContactSearch_CaseSensitiveSubstring(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "searcher@example.com")
	c := db.Contacts()

	// "an" appears in Anna's last name and in "Susan"; "ANNA" is upper
	// case throughout and must not match.
	createTestContact(t, c, owner.ID, "Anna", "Brand", "anna.brand@example.com")
	createTestContact(t, c, owner.ID, "Susan", "Miller", "susan@example.com")
	createTestContact(t, c, owner.ID, "ANNA", "SMITH", "shouty@example.com")
	createTestContact(t, c, owner.ID, "Bob", "Jones", "bob@example.com")

	name := "an"
	got, err := c.Search(context.Background(), repository.SearchFilter{Name: &name})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Search(name=%q) returned %d contacts, want 2", name, len(got))
	}
	for _, contact := range got {
		if contact.FirstName == "ANNA" || contact.FirstName == "Bob" {
			t.Errorf("Search(name=%q) wrongly matched %q", name, contact.FirstName)
		}
	}
}

func TestContactSearch_FiltersAreANDed(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "ander@example.com")
	c := db.Contacts()

	createTestContact(t, c, owner.ID, "Susan", "Miller", "susan@work.example.com")
	createTestContact(t, c, owner.ID, "Susan", "Baker", "susan@home.example.net")

	name, email := "Susan", "work"
	got, err := c.Search(context.Background(), repository.SearchFilter{Name: &name, Email: &email})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].LastName != "Miller" {
		t.Errorf("Search(name AND email) = %+v, want only Susan Miller", got)
	}
}

func TestContactSearch_NoFiltersReturnsAll(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "all@example.com")
	other := createTestUser(t, db.Users(), "all2@example.com")
	c := db.Contacts()

	// Search is global: it crosses user boundaries.
	createTestContact(t, c, owner.ID, "One", "Person", "one@example.com")
	createTestContact(t, c, other.ID, "Two", "Person", "two@example.com")

	got, err := c.Search(context.Background(), repository.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Search() with no filters returned %d contacts, want 2", len(got))
	}
}

func TestContactSearch_EmptyResultIsEmptySlice(t *testing.T) {
	db := newTestDB(t)
	c := db.Contacts()

	name := "nobody"
	got, err := c.Search(context.Background(), repository.SearchFilter{Name: &name})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Search() with no matches = %v, want empty slice", got)
	}
}

// =========================================================================
// BIRTHDAY WINDOW TESTS
// =========================================================================

func TestBirthdayInWindow_YearEndWraparound(t *testing.T) {
	// Window Dec 30 + 7 days spans Dec 30..Jan 6: a Jan 2 birthday (any
	// birth year) is in, a Jan 10 birthday is out.
	today := time.Date(2025, time.December, 30, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		birthday time.Time
		days     int
		want     bool
	}{
		{"Jan 2 inside wrapped window", time.Date(1990, time.January, 2, 0, 0, 0, 0, time.UTC), 7, true},
		{"Jan 10 outside wrapped window", time.Date(1985, time.January, 10, 0, 0, 0, 0, time.UTC), 7, false},
		{"Dec 30 is today", time.Date(2000, time.December, 30, 0, 0, 0, 0, time.UTC), 7, true},
		{"Jan 6 is the last day", time.Date(1970, time.January, 6, 0, 0, 0, 0, time.UTC), 7, true},
		{"Jan 7 just past the window", time.Date(1970, time.January, 7, 0, 0, 0, 0, time.UTC), 7, false},
		{"zero-day window matches only today", time.Date(1990, time.December, 30, 0, 0, 0, 0, time.UTC), 0, true},
		{"zero-day window excludes tomorrow", time.Date(1990, time.December, 31, 0, 0, 0, 0, time.UTC), 0, false},
		{"negative window matches nothing", time.Date(1990, time.December, 30, 0, 0, 0, 0, time.UTC), -1, false},
		{"year-wide window matches everyone", time.Date(1990, time.July, 20, 0, 0, 0, 0, time.UTC), 400, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := birthdayInWindow(tt.birthday, today, tt.days)
			if got != tt.want {
				t.Errorf("birthdayInWindow(%s, days=%d) = %v, want %v",
					tt.birthday.Format("2006-01-02"), tt.days, got, tt.want)
			}
		})
	}
}

func TestUpcomingBirthdays(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "bdays@example.com")
	c := db.Contacts()
	c.now = func() time.Time {
		return time.Date(2025, time.December, 30, 9, 0, 0, 0, time.UTC)
	}

	soon := model.NewDate(1992, time.January, 2)
	later := model.NewDate(1988, time.January, 10)
	none := &model.Contact{
		UserID: owner.ID, FirstName: "No", LastName: "Birthday",
		Email: "nobday@example.com", PhoneNumber: "+1-555-0103",
	}

	for _, contact := range []*model.Contact{
		{UserID: owner.ID, FirstName: "Janet", LastName: "Second",
			Email: "jan2@example.com", PhoneNumber: "+1-555-0104", Birthday: &soon},
		{UserID: owner.ID, FirstName: "Jay", LastName: "Tenth",
			Email: "jan10@example.com", PhoneNumber: "+1-555-0105", Birthday: &later},
		none,
	} {
		if err := c.Create(context.Background(), contact); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := c.UpcomingBirthdays(context.Background(), 7)
	if err != nil {
		t.Fatalf("UpcomingBirthdays() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("UpcomingBirthdays(7) returned %d contacts, want 1", len(got))
	}
	if got[0].FirstName != "Janet" {
		t.Errorf("UpcomingBirthdays(7) matched %q, want Janet", got[0].FirstName)
	}
}
