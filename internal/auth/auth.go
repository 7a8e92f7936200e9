// Package auth resolves the bearer token of a request to a user id.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/team-tasks/internal/repo"
	"github.com/BuzzLyutic/team-tasks/pkg/respond"
)

type Verifier interface {
	UserID(ctx context.Context, token string) (string, error)
}

type ctxKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user or "" if the request has none.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects requests without a valid session with 401.
func Middleware(v Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respond.Error(w, r, http.StatusUnauthorized, "unauthenticated")
				return
			}

			userID, err := v.UserID(r.Context(), token)
			switch {
			case errors.Is(err, repo.ErrorNotFound):
				respond.Error(w, r, http.StatusUnauthorized, "unauthenticated")
				return
			case err != nil:
				logger.Error("session lookup failed", zap.Error(err))
				respond.Error(w, r, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
