package middleware

import (
	"fmt"
	"net/http"

	"github.com/tendant/gym-access/internal/config"
)

// SecurityHeaders creates middleware that applies OWASP-recommended security headers.
// The API never serves documents, so responses are also marked non-cacheable.
func SecurityHeaders(cfg config.SecurityHeadersConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	headers := map[string]string{
		"Cache-Control": "no-store",
	}
	set := func(name, value string) {
		if value != "" {
			headers[name] = value
		}
	}
	set("Content-Security-Policy", cfg.CSP)
	if cfg.HSTSMaxAge > 0 {
		set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge))
	}
	set("X-Frame-Options", cfg.FrameOptions)
	set("X-Content-Type-Options", cfg.ContentTypeOptions)
	set("X-XSS-Protection", cfg.XSSProtection)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range headers {
				h.Set(name, value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
