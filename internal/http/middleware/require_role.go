package middleware

import (
	"net/http"

	"github.com/tendant/gym-access/internal/httputil"
	"github.com/tendant/gym-access/pkg/auth"
)

// RequireRole creates middleware that admits only the given roles.
// Must be used after Auth middleware.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !claims.HasRole(roles...) {
				httputil.Error(w, http.StatusForbidden, "insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
