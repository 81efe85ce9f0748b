package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/auth"
	"github.com/sakif/contacts-api/internal/service"
)

// AuthHandler exposes the account and session endpoints:
//
//	POST /signup        → create an account
//	POST /login         → exchange credentials for a token pair (form body)
//	GET  /refresh_token → exchange a bearer refresh token for a new pair
//	GET  /              → public greeting
//	GET  /secret        → protected probe returning the caller's email
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// signupRequest is the JSON body for POST /signup. The field is named
// "username" on the wire for OAuth2 password-flow compatibility, but its
// value is the account email.
type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// signupResponse echoes the created account's email.
type signupResponse struct {
	Email string `json:"email"`
}

// HandleSignup creates a new account.
//
// HTTP: POST /signup
// Success: 201 {"email": "..."} — Failure: 409 if the email is taken.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{Email: user.Email})
}

// HandleLogin exchanges credentials for an access/refresh token pair.
//
// HTTP: POST /login
// The body is form-encoded (username + password), matching the OAuth2
// password grant shape, NOT JSON.
// Success: 200 {"access_token", "refresh_token", "token_type":"bearer"}
// Failure: 401 on bad credentials, with no hint of which part was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid form body"))
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, apperror.ValidationFailed("body", "username and password are required"))
		return
	}

	pair, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// HandleRefresh exchanges a refresh token for a new pair.
//
// HTTP: GET /refresh_token
// Auth: "Authorization: Bearer <refresh token>" — the refresh token rides
// in the same header slot an access token normally would.
// A stale token (already rotated out) gets 401 and revokes the session.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.BearerToken(r)
	if !ok {
		writeError(w, apperror.Unauthorized("invalid refresh token"))
		return
	}

	pair, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// HandleRoot is the public landing route.
//
// HTTP: GET /
func (h *AuthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

// HandleSecret is a protected probe for checking authentication state.
//
// HTTP: GET /secret
// Auth: Bearer access token (RequireAuth middleware).
func (h *AuthHandler) HandleSecret(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but be safe.
		writeError(w, apperror.Unauthorized("could not validate credentials"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Secret route",
		"owner":   user.Email,
	})
}
