package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"p9e.in/fieldreport/pkg/session"
)

// unexported type prevents collisions in context
type ctxKey int

const (
	userClaimsKey ctxKey = iota
	requestIDKey
)

// TokenParser validates an access token
type TokenParser interface {
	ParseAccess(token string) (*session.Claims, error)
}

// JWTMiddleware validates the bearer token and stashes the Claims in ctx
func JWTMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "invalid auth header")
				return
			}

			claims, err := tokens.ParseAccess(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims returns ctx carrying claims. Used by tests and by handlers
// that authenticate without the middleware.
func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// GetClaims pulls the *Claims out of the request context (or nil)
func GetClaims(r *http.Request) *session.Claims {
	if c, ok := r.Context().Value(userClaimsKey).(*session.Claims); ok {
		return c
	}
	return nil
}

func GetUserID(r *http.Request) string {
	if c := GetClaims(r); c != nil {
		return c.UserID
	}
	return ""
}

func GetRole(r *http.Request) string {
	if c := GetClaims(r); c != nil {
		return c.Role
	}
	return ""
}

// Scope is the org and employee every form request runs as
type Scope struct {
	UserID     uuid.UUID
	OrgID      uuid.UUID
	EmployeeID uuid.UUID
	Role       string
	Name       string
}

// GetScope returns the caller's scope; ok is false when the token carries
// no employee (a login with no Employee row).
func GetScope(r *http.Request) (Scope, bool) {
	c := GetClaims(r)
	if c == nil {
		return Scope{}, false
	}
	id, err := c.Identity()
	if err != nil || id.OrgID == uuid.Nil || id.EmployeeID == uuid.Nil {
		return Scope{}, false
	}
	return Scope{UserID: id.UserID, OrgID: id.OrgID, EmployeeID: id.EmployeeID, Role: id.Role, Name: id.Name}, true
}
