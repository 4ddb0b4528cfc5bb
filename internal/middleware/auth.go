package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/AnshRaj112/leadcrm-backend/internal/services"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// TokenResolver maps a raw bearer token to the user that owns it.
type TokenResolver interface {
	ResolveToken(ctx context.Context, raw string) (*models.User, error)
}

// Auth requires a valid "Authorization: Bearer <token>" header and stores the
// resolved user and token in the request context.
func Auth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.ResolveToken(r.Context(), BearerToken(r))
			if err != nil {
				if errors.Is(err, services.ErrUnauthenticated) {
					unauthorized(w)
					return
				}
				slog.ErrorContext(r.Context(), "failed to resolve session", "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), user, BearerToken(r))))
		})
	}
}

// BearerToken extracts the token from the Authorization header. It returns ""
// when the header is missing or uses another scheme.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithSession returns a copy of ctx carrying the authenticated user and token.
func WithSession(ctx context.Context, user *models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, tokenContextKey, token)
}

// UserFromContext returns the user set by Auth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok && user != nil
}

// TokenFromContext returns the bearer token the request authenticated with.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Please authenticate."}`))
}
