package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or shadow the
// identity stored by RequireAuth.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces the bearer credential on protected routes.
//
//	Authorization: Bearer <jwt>
//
// A missing credential is 401 "Please login"; a present but invalid or
// expired one is 403 "Invalid token". On success the caller's Identity is
// stored in the request context for handlers to read.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "Please login")
				return
			}

			id, err := tokens.Validate(raw)
			if err != nil {
				writeAuthError(w, http.StatusForbidden, "invalid_token", "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a context carrying id. Handler tests use it to skip
// the middleware.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// UserIDFromContext is a shorthand for IdentityFromContext(ctx).UserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}

func bearerToken(r *http.Request) (string, bool) {
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

// writeAuthError keeps the same {"error","message"} body the handler package uses.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
