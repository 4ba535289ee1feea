// Package middleware holds HTTP middleware for the admin API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/marmos91/sessiond/pkg/api/auth"
	"github.com/marmos91/sessiond/pkg/api/handlers"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// JWTAuth rejects requests without a valid bearer token and stores the
// token claims in the request context.
func JWTAuth(svc *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				handlers.Unauthorized(w, "missing authorization token")
				return
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					handlers.Unauthorized(w, "token has expired")
					return
				}
				handlers.Unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaimsFromContext returns the claims stored by JWTAuth, or nil.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
