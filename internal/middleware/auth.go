package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bookbuddy/bookbuddy-go/internal/crypto"
	"github.com/bookbuddy/bookbuddy-go/internal/repository"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	userEmailKey contextKey = "userEmail"
)

// RequireAuth returns middleware that resolves the caller's identity from a
// Bearer token. The token must decode and the referenced user must still
// exist; a deleted account's outstanding tokens stop working immediately.
func RequireAuth(secret string, users *repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := resolveIdentity(r, secret, users)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the caller's identity like RequireAuth but downgrades
// every failure to anonymous: the request proceeds with no identity in its
// context.
func OptionalAuth(secret string, users *repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ctx, ok := resolveIdentity(r, secret, users); ok {
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveIdentity(r *http.Request, secret string, users *repository.UserRepository) (context.Context, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}

	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" {
		return nil, false
	}

	claims, err := crypto.DecodeToken(token, secret)
	if err != nil {
		return nil, false
	}

	if _, err := users.GetByID(r.Context(), claims.UserID); err != nil {
		return nil, false
	}

	ctx := WithUserID(r.Context(), claims.UserID)
	ctx = context.WithValue(ctx, userEmailKey, claims.Subject)
	return ctx, true
}

// WithUserID stores the authenticated user ID on the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// UserEmailFromContext extracts the authenticated user's email from the request context.
func UserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmailKey).(string)
	return email, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
