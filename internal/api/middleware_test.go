package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticTokens map[string]string

func (s staticTokens) Lookup(token string) (string, bool) {
	u, ok := s[token]
	return u, ok
}

func TestParseBearerAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"bearer", "Bearer abc", "abc", true},
		{"case insensitive", "bearer abc", "abc", true},
		{"basic", "Basic abc", "", false},
		{"empty token", "Bearer   ", "", false},
		{"too short", "Bear", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := parseBearerAuth(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestAuthorizationMiddleware(t *testing.T) {
	var seen string
	handler := AuthorizationMiddleware(staticTokens{"tok": "alice"}, func(w http.ResponseWriter, r *http.Request) {
		seen = UsernameFromContext(r.Context())
	})

	tests := []struct {
		name   string
		header string
		status int
		user   string
	}{
		{"valid", "Bearer tok", http.StatusOK, "alice"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"unknown", "Bearer other", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/balance", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.user, seen)
		})
	}
}
