package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sessiond/pkg/api/auth"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, extractBearerToken(r), "header %q", tt.header)
	}
}

func TestJWTAuth(t *testing.T) {
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	var seen *auth.Claims
	h := JWTAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})

	t.Run("Invalid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer nope")
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Valid", func(t *testing.T) {
		token, _, err := svc.GenerateToken("ops")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "ops", seen.Operator())
	})
}
