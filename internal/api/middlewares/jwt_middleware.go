package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/chatterbox/internal/services"
)

type claimsKey struct{}

// SessionParser verifies a raw session token.
type SessionParser interface {
	Parse(raw string) (*services.SessionClaims, error)
}

// JWTMiddleware validates the Authorization bearer token and attaches the session claims
// to the request context. When required is false a request without a token passes through
// unauthenticated; a token that is present but invalid is always rejected.
func JWTMiddleware(sessions SessionParser, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if auth == "" && !required {
				next.ServeHTTP(w, r)
				return
			}
			if len(auth) < len("Bearer ") || !strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
				unauthorized(w, "missing or invalid token")
				return
			}
			if sessions == nil {
				unauthorized(w, "invalid token")
				return
			}

			claims, err := sessions.Parse(strings.TrimSpace(auth[len("Bearer "):]))
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("session token rejected")
				unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the session claims attached by JWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*services.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*services.SessionClaims)
	return claims, ok && claims != nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
