package middleware

import (
	"net/http"

	"p9e.in/fieldreport/config"
	"p9e.in/fieldreport/utils"
)

// RequirePermission checks the caller's role grants for permission
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r)
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !utils.HasPermission(config.PermissionsFor(claims.Role), permission) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireEmployee rejects tokens that are not linked to an employee. Every
// form endpoint needs the org and submitter the employee row provides.
func RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetScope(r); !ok {
			writeError(w, http.StatusForbidden, "no employee record for this login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Protect wraps a handler func with a permission check
func Protect(permission string, h http.HandlerFunc) http.Handler {
	return RequirePermission(permission)(h)
}
