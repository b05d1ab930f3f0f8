package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"p9e.in/fieldreport/config"
)

type APIClientConfig struct {
	AppName        string
	AllowedPaths   []string        // exact or prefix match, "*" suffix for any depth
	AllowedMethods map[string]bool // e.g., "GET": true, "POST": true
}

// APIClients builds the x-api-key table from configuration. Empty keys are
// skipped so an unset variable never matches a missing header.
func APIClients(cfg config.SecurityConfig) map[string]APIClientConfig {
	clients := map[string]APIClientConfig{}
	if cfg.MobileAppKey != "" {
		clients[cfg.MobileAppKey] = APIClientConfig{
			AppName:      "MobileApp",
			AllowedPaths: []string{"/api/v1", "/auth/v1", "/functions/v1"},
			AllowedMethods: map[string]bool{
				http.MethodGet:  true,
				http.MethodPost: true,
				http.MethodPut:  true,
			},
		}
	}
	if cfg.InternalOpsKey != "" {
		clients[cfg.InternalOpsKey] = APIClientConfig{
			AppName:      "InternalOps",
			AllowedPaths: []string{"/*"},
			AllowedMethods: map[string]bool{
				http.MethodGet:    true,
				http.MethodPost:   true,
				http.MethodPut:    true,
				http.MethodDelete: true,
			},
		}
	}
	return clients
}

// SecurityMiddleware enforces the API key and its path and method limits.
// With no keys configured every request passes.
func SecurityMiddleware(clients map[string]APIClientConfig, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(clients) == 0 || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			clientConfig, ok := clients[r.Header.Get("x-api-key")]
			if !ok {
				log.Warn("blocked: invalid API key", zap.String("ip", getClientIP(r)), zap.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
			if !pathAllowed(clientConfig.AllowedPaths, r.URL.Path) {
				log.Warn("blocked: path not allowed", zap.String("app", clientConfig.AppName), zap.String("path", r.URL.Path))
				writeError(w, http.StatusForbidden, "access to this endpoint is not allowed for this app")
				return
			}
			if !clientConfig.AllowedMethods[r.Method] {
				log.Warn("blocked: method not allowed", zap.String("app", clientConfig.AppName), zap.String("method", r.Method))
				writeError(w, http.StatusMethodNotAllowed, "this HTTP method is not allowed for this app")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func pathAllowed(allowed []string, path string) bool {
	for _, p := range allowed {
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
				return true
			}
		} else if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
