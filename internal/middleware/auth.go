package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nutricare/server/internal/apperr"
	"github.com/nutricare/server/internal/model"
)

type contextKey string

const (
	accountKey   contextKey = "account"
	accountIDKey contextKey = "account_id"
)

// Authenticator resolves a bearer token to its account
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Account, error)
}

// AuthMiddleware validates the bearer token, loads the account and attaches
// it to the request context. Rejections carry a reason code.
func AuthMiddleware(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondUnauthorized(w, "missing_token", "Not authorized, no token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondUnauthorized(w, "malformed_header", "Not authorized, invalid authorization header")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				respondUnauthorized(w, "missing_token", "Not authorized, no token")
				return
			}

			account, err := authenticator.Authenticate(r.Context(), tokenString)
			if err != nil {
				if e, ok := apperr.As(err); ok && e.Kind == apperr.KindUnauthenticated {
					respondUnauthorized(w, e.Reason, "Not authorized, token failed")
					return
				}
				respondWithError(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, account)
			ctx = context.WithValue(ctx, accountIDKey, account.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccount returns the account attached to the request context (set by AuthMiddleware)
func GetAccount(ctx context.Context) (*model.Account, bool) {
	a, ok := ctx.Value(accountKey).(*model.Account)
	return a, ok && a != nil
}

// GetAccountID extracts account ID from context
func GetAccountID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountIDKey).(uuid.UUID)
	return id, ok
}

// WithAccount attaches an account to ctx the way AuthMiddleware does
func WithAccount(ctx context.Context, account *model.Account) context.Context {
	ctx = context.WithValue(ctx, accountKey, account)
	return context.WithValue(ctx, accountIDKey, account.ID)
}

func respondUnauthorized(w http.ResponseWriter, reason, message string) {
	respondWithError(w, http.StatusUnauthorized, map[string]string{"message": message, "reason": reason})
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
