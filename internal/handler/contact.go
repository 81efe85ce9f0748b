package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/auth"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/service"
)

// ContactHandler exposes the contact CRUD, search and birthday endpoints.
//
// The CRUD routes sit behind RequireAuth and act on the caller's own
// contacts. Search and birthday are public and cross all users — an
// inherited quirk of the API surface, preserved deliberately.
type ContactHandler struct {
	contacts *service.ContactService
	logger   *slog.Logger
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(contacts *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		contacts: contacts,
		logger:   logger,
	}
}

// contactResponse is the wire shape for a contact. Note what is NOT here:
// no internal ID and no owner ID.
type contactResponse struct {
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Email          string      `json:"email"`
	PhoneNumber    string      `json:"phone_number,omitempty"`
	Birthday       *model.Date `json:"birthday,omitempty"`
	AdditionalInfo string      `json:"additional_info,omitempty"`
}

func toContactResponse(c *model.Contact) contactResponse {
	return contactResponse{
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		PhoneNumber:    c.PhoneNumber,
		Birthday:       c.Birthday,
		AdditionalInfo: c.AdditionalInfo,
	}
}

func toContactResponses(contacts []model.Contact) []contactResponse {
	out := make([]contactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, toContactResponse(&contacts[i]))
	}
	return out
}

// HandleCreate persists a new contact owned by the caller.
//
// HTTP: POST /contacts/
// Body: ContactInput JSON (birthday as "YYYY-MM-DD").
// Success: 201 with the created contact.
func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("could not validate credentials"))
		return
	}

	var in service.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	contact, err := h.contacts.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContactResponse(contact))
}

// HandleList returns the caller's contacts.
//
// HTTP: GET /contacts/?skip=0&limit=100
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("could not validate credentials"))
		return
	}

	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 0) // 0 → service default

	contacts, err := h.contacts.List(r.Context(), user.ID, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContactResponses(contacts))
}

// HandleSearch filters contacts by name and/or email substring.
//
// HTTP: GET /contacts/search/?name=...&email=...  (public, all users)
// An empty result is a 404 here — that is API-layer policy, the service
// itself treats "nothing matched" as a normal empty answer.
func (h *ContactHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var name, email *string
	if v := r.URL.Query().Get("name"); v != "" {
		name = &v
	}
	if v := r.URL.Query().Get("email"); v != "" {
		email = &v
	}

	contacts, err := h.contacts.Search(r.Context(), name, email)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(contacts) == 0 {
		writeError(w, apperror.NotFound("contacts", "matching the given filters"))
		return
	}

	writeJSON(w, http.StatusOK, toContactResponses(contacts))
}

// HandleBirthdays lists contacts with a birthday in the next N days.
//
// HTTP: GET /contacts/birthday/?days=7  (public, all users)
func (h *ContactHandler) HandleBirthdays(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", service.DefaultBirthdayWindow)

	contacts, err := h.contacts.UpcomingBirthdays(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContactResponses(contacts))
}

// HandleGetByID returns one of the caller's contacts.
//
// HTTP: GET /contacts/{id}
// A contact owned by someone else is a plain 404.
func (h *ContactHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("could not validate credentials"))
		return
	}

	contact, err := h.contacts.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContactResponse(contact))
}

// HandleUpdate replaces one of the caller's contacts.
//
// HTTP: PUT /contacts/{id}
// Body: the FULL ContactInput — this is replace, not patch.
func (h *ContactHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("could not validate credentials"))
		return
	}

	var in service.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	contact, err := h.contacts.Update(r.Context(), chi.URLParam(r, "id"), user.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContactResponse(contact))
}

// HandleDelete removes one of the caller's contacts permanently and echoes
// the deleted record.
//
// HTTP: DELETE /contacts/{id}
func (h *ContactHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("could not validate credentials"))
		return
	}

	prior, err := h.contacts.Delete(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContactResponse(prior))
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
