package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/riyahid/travel-go/pkg/ctxutil"
)

// TokenValidator resolves a bearer token to an owner id.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// NewAuthHandler returns a middleware that requires a valid bearer token and
// stores its owner id in the request context. Missing or invalid tokens get
// 401 without reaching the next handler.
func NewAuthHandler(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			ownerID, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
				return
			}
			ctx := ctxutil.WithOwnerID(r.Context(), ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// writeError writes the same {"error":{"code","message"}} envelope the
// handlers use.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}
