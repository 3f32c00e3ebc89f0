package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bihar-gov/sevalink/internal/shared/config"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// Roles recognized by the portal.
const (
	RoleAdmin           = "admin"
	RoleDepartmentAdmin = "department_admin"
	RoleCitizen         = "citizen"
)

// User represents the authenticated user from JWT claims
type User struct {
	ID           types.ID `json:"sub"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	DepartmentID types.ID `json:"department_id"`
	Permissions  []string `json:"permissions"`
}

// Claims extends JWT claims with portal-specific data
type Claims struct {
	jwt.RegisteredClaims
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	DepartmentID string   `json:"department_id,omitempty"`
	Permissions  []string `json:"permissions"`
}

// Middleware creates JWT authentication middleware
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := parts[1]

			token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
				return []byte(cfg.JWTSecret), nil
			})

			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(*Claims)
			if !ok || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			user := &User{
				ID:           types.ID(claims.Subject),
				Email:        strings.ToLower(claims.Email),
				Name:         claims.Name,
				Role:         claims.Role,
				DepartmentID: types.ID(claims.DepartmentID),
				Permissions:  claims.Permissions,
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser extracts the user from request context
func GetUser(ctx context.Context) *User {
	user, ok := ctx.Value(UserContextKey).(*User)
	if !ok {
		return nil
	}
	return user
}

// Passthrough returns middleware that applies no access checks. It
// stands in for role guards when authentication is disabled.
func Passthrough() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// RequireRoles creates middleware that requires one of the given roles
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !hasAnyRole(user.Role, roles) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermissions creates middleware that requires specific permissions
func RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			for _, required := range permissions {
				if !hasPermission(user.Permissions, required) {
					writeError(w, http.StatusForbidden, "insufficient permissions")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HasPermission checks if user has a specific permission
func (u *User) HasPermission(permission string) bool {
	return hasPermission(u.Permissions, permission)
}

// IsAdmin checks if user is a portal admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func hasAnyRole(userRole string, requiredRoles []string) bool {
	for _, required := range requiredRoles {
		if userRole == required {
			return true
		}
	}
	return false
}

func hasPermission(userPermissions []string, required string) bool {
	for _, perm := range userPermissions {
		if perm == required {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
