package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// AdminRole is the role claim required on schedule-management tokens.
const AdminRole = "admin"

// AdminClaims are the claims carried by an admin bearer token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminJWT enforces an HMAC-signed, unexpired JWT with role=admin. An empty
// secret rejects every request.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeDetail(w, http.StatusUnauthorized, "admin auth disabled")
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeDetail(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			claims := AdminClaims{}
			token, err := parser.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeDetail(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.Role != AdminRole {
				writeDetail(w, http.StatusForbidden, "admin role required")
				return
			}

			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(AdminClaims)
	return claims, ok
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
