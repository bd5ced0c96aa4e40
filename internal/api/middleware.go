package api

import (
	"context"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const userContextKey contextKey = "user"

// TokenStore resolves a bearer token to the username it was issued to.
type TokenStore interface {
	Lookup(token string) (username string, ok bool)
}

func LoggingMiddleware(prefix string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Tracef("[%s] %s %s", prefix, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	}
}

func AuthorizationMiddleware(tokens TokenStore, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("[api] no auth")
			WriteRaw(w, http.StatusUnauthorized, []byte(`{"error":"bad auth"}`))
			return
		}
		token, ok := parseBearerAuth(auth)
		if !ok {
			WriteRaw(w, http.StatusUnauthorized, []byte(`{"error":"bad auth"}`))
			return
		}
		username, ok := tokens.Lookup(token)
		if !ok {
			log.Debugf("[api] unknown or expired token on %s", r.URL.Path)
			WriteRaw(w, http.StatusUnauthorized, []byte(`{"error":"bad auth"}`))
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), userContextKey, username))
		next.ServeHTTP(w, r)
	}
}

// UsernameFromContext returns the user resolved by AuthorizationMiddleware.
func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(userContextKey).(string)
	return username
}

// parseBearerAuth returns the token of an HTTP Bearer Authorization header.
// "Bearer abc" returns ("abc", true).
func parseBearerAuth(auth string) (token string, ok bool) {
	const prefix = "Bearer "
	// Case insensitive prefix match. See Issue 22736.
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return
	}
	token = strings.TrimSpace(auth[len(prefix):])
	return token, len(token) > 0
}
