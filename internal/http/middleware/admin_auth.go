package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const adminSubjectKey contextKey = "adminSubject"

// AdminJWT gates the dispatcher admin surface behind an HMAC-signed bearer
// token. An empty secret disables the surface entirely rather than leaving
// it open.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin api disabled", http.StatusUnauthorized)
				return
			}
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "bearer token required", http.StatusUnauthorized)
				return
			}
			var claims jwt.RegisteredClaims
			token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), adminSubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminSubjectFromContext returns the token subject set by AdminJWT.
func AdminSubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(adminSubjectKey).(string)
	return sub, ok
}
