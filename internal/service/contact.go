package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/repository"
)

// Validation constants.
const (
	MaxNameLength           = 100
	MaxEmailLength          = 250
	MaxAdditionalInfoLength = 2000
	DefaultListLimit        = 100
	DefaultBirthdayWindow   = 7
)

// ContactInput carries the full field set for creating or replacing a
// contact. Update is full-replace: the schema requires every field on PUT,
// so there is no "only change these" mode — absent optional fields clear
// their stored values.
type ContactInput struct {
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Email          string      `json:"email"`
	PhoneNumber    string      `json:"phone_number"`
	Birthday       *model.Date `json:"birthday,omitempty"`
	AdditionalInfo string      `json:"additional_info,omitempty"`
}

// ContactService handles business logic for contacts. All CRUD paths take
// the owning user's ID and never cross owner boundaries; Search and
// UpcomingBirthdays are global (see DESIGN.md).
type ContactService struct {
	repo   repository.ContactRepository
	logger *slog.Logger
}

// NewContactService creates a ContactService.
func NewContactService(repo repository.ContactRepository, logger *slog.Logger) *ContactService {
	return &ContactService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and persists a new contact owned by ownerID.
func (s *ContactService) Create(ctx context.Context, ownerID string, in ContactInput) (*model.Contact, error) {
	if err := validateContactInput(&in); err != nil {
		return nil, err
	}

	contact := &model.Contact{
		UserID:         ownerID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		PhoneNumber:    in.PhoneNumber,
		Birthday:       in.Birthday,
		AdditionalInfo: in.AdditionalInfo,
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}

	s.logger.Info("contact created",
		slog.String("id", contact.ID),
		slog.String("ownerID", ownerID),
	)
	return contact, nil
}

// List returns the owner's contacts with skip/limit pagination. Negative
// values are normalized; large limits pass through unclamped — the contract
// leaves the ceiling to the caller.
func (s *ContactService) List(ctx context.Context, ownerID string, skip, limit int) ([]model.Contact, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	contacts, err := s.repo.List(ctx, ownerID, repository.ListOptions{
		Skip:  skip,
		Limit: limit,
	})
	if err != nil {
		s.logger.Error("failed to list contacts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	return contacts, nil
}

// Get returns a single contact, gated on ownership.
func (s *ContactService) Get(ctx context.Context, id, ownerID string) (*model.Contact, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "contact ID is required")
	}

	return s.repo.GetByID(ctx, id, ownerID)
}

// Update replaces all fields of the owner's contact with the input.
// Fetch-then-update keeps the NotFound behavior identical to Get and lets
// us return the full updated record.
func (s *ContactService) Update(ctx context.Context, id, ownerID string, in ContactInput) (*model.Contact, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "contact ID is required")
	}
	if err := validateContactInput(&in); err != nil {
		return nil, err
	}

	contact, err := s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	contact.FirstName = in.FirstName
	contact.LastName = in.LastName
	contact.Email = in.Email
	contact.PhoneNumber = in.PhoneNumber
	contact.Birthday = in.Birthday
	contact.AdditionalInfo = in.AdditionalInfo

	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, err
	}

	s.logger.Info("contact updated",
		slog.String("id", contact.ID),
		slog.String("ownerID", ownerID),
	)
	return contact, nil
}

// Delete permanently removes the owner's contact and returns its prior
// state.
func (s *ContactService) Delete(ctx context.Context, id, ownerID string) (*model.Contact, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "contact ID is required")
	}

	prior, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("contact deleted",
		slog.String("id", id),
		slog.String("ownerID", ownerID),
	)
	return prior, nil
}

// Search filters contacts by optional name/email substrings (ANDed,
// case-sensitive). Both nil returns everything. Empty results are an empty
// slice here; the API layer decides whether that is a 404.
func (s *ContactService) Search(ctx context.Context, name, email *string) ([]model.Contact, error) {
	contacts, err := s.repo.Search(ctx, repository.SearchFilter{
		Name:  name,
		Email: email,
	})
	if err != nil {
		s.logger.Error("failed to search contacts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching contacts: %w", err)
	}

	return contacts, nil
}

// UpcomingBirthdays returns contacts with a birthday in the next windowDays
// days (month/day match, wraps across New Year). Non-positive windows fall
// back to the default of 7 days.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, windowDays int) ([]model.Contact, error) {
	if windowDays <= 0 {
		windowDays = DefaultBirthdayWindow
	}

	contacts, err := s.repo.UpcomingBirthdays(ctx, windowDays)
	if err != nil {
		s.logger.Error("failed to query birthdays", slog.String("error", err.Error()))
		return nil, fmt.Errorf("querying birthdays: %w", err)
	}

	return contacts, nil
}

// validateContactInput enforces the ContactCreate/ContactUpdate schema:
// first/last name, email and phone number required, birthday and
// additional_info optional. Names and email are trimmed in place.
func validateContactInput(in *ContactInput) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if in.FirstName == "" {
		return apperror.ValidationFailed("first_name", "first name is required")
	}
	if len(in.FirstName) > MaxNameLength {
		return apperror.ValidationFailed("first_name",
			fmt.Sprintf("first name must be %d characters or less", MaxNameLength))
	}
	if in.LastName == "" {
		return apperror.ValidationFailed("last_name", "last name is required")
	}
	if len(in.LastName) > MaxNameLength {
		return apperror.ValidationFailed("last_name",
			fmt.Sprintf("last name must be %d characters or less", MaxNameLength))
	}
	if in.Email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if !strings.Contains(in.Email, "@") || len(in.Email) > MaxEmailLength {
		return apperror.ValidationFailed("email", "email must be a valid address")
	}
	if in.PhoneNumber == "" {
		return apperror.ValidationFailed("phone_number", "phone number is required")
	}
	if len(in.AdditionalInfo) > MaxAdditionalInfoLength {
		return apperror.ValidationFailed("additional_info",
			fmt.Sprintf("additional info must be %d characters or less", MaxAdditionalInfoLength))
	}

	return nil
}
