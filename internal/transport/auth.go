package transport

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// CheckBearer compares the bearer token of an Authorization header with want.
func CheckBearer(header, want string) error {
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || want == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// AuthMiddleware enforces a static bearer token.
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if strings.TrimSpace(auth) == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if err := CheckBearer(auth, token); err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
