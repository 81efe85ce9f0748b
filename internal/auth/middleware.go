package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/contacts-api/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write the
// current-user value — no collisions with other packages' context values.
type contextKey string

const currentUserKey contextKey = "currentUser"

// UserResolver turns a bearer access token into the authenticated user.
// Implemented by service.AuthService; defined here so the middleware does
// not depend on the service package.
type UserResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the access token from the "Authorization: Bearer <token>" header,
// resolves the user through the resolver, and stores the user in the request
// context. Missing header, invalid/expired token, wrong scope and unknown
// user all produce the same 401 body — the caller learns nothing about
// which check failed.
func RequireAuth(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			user, err := resolver.CurrentUser(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// UserFromContext retrieves the authenticated user from the request context.
// Returns (nil, false) if the request did not pass through RequireAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(currentUserKey).(*model.User)
	return user, ok && user != nil
}

// ContextWithUser returns a context carrying the given user, as RequireAuth
// would have produced. Handler tests use this to exercise protected
// handlers without going through the middleware.
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
// The scheme comparison is case-insensitive per RFC 7235.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
}
