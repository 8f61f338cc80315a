package httputil

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// CORSMiddleware handles preflight requests and adds CORS headers for the
// allowed origins.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if originsSet[origin] || originsSet["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Scheduler-Token")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

// AdminIDKey stores the authenticated admin subject in the context.
const AdminIDKey contextKey = "admin_id"

// AdminAuth validates an HS256 bearer token with an admin role claim.
func AdminAuth(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := validateBearer(r, secretKey)
			if !ok {
				Error(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SchedulerOrAdminAuth accepts either the shared scheduler token in the
// X-Scheduler-Token header or an admin bearer token, so both the external
// cron trigger and operators can invoke the lifecycle sweep.
func SchedulerOrAdminAuth(schedulerToken, secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := r.Header.Get("X-Scheduler-Token"); token != "" && schedulerToken != "" {
				if subtle.ConstantTimeCompare([]byte(token), []byte(schedulerToken)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
				Error(w, http.StatusUnauthorized, "invalid scheduler token")
				return
			}

			subject, ok := validateBearer(r, secretKey)
			if !ok {
				Error(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateBearer(r *http.Request, secretKey string) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secretKey), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	if role, _ := claims["role"].(string); role != "admin" {
		return "", false
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return "", false
	}
	return subject, true
}

// GetAdminID extracts the authenticated admin subject from the context.
func GetAdminID(ctx context.Context) string {
	if id, ok := ctx.Value(AdminIDKey).(string); ok {
		return id
	}
	return ""
}
