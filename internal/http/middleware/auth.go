package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/tendant/gym-access/internal/httputil"
	"github.com/tendant/gym-access/pkg/auth"
)

type contextKey string

const (
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// ClaimsKey is the context key for the token claims.
	ClaimsKey contextKey = "claims"
)

// Auth creates middleware that validates JWT access tokens.
// Checks Authorization header first, then falls back to cookie for web clients.
func Auth(verifier *auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Kiosks and staff consoles send a bearer token; the member app
			// may rely on the cookie.
			tokenString, ok := httputil.GetBearerToken(r)
			if !ok {
				tokenString, ok = httputil.GetAccessTokenFromCookie(r)
			}
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			claims, err := verifier.ValidateAccessToken(tokenString)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the user ID from the request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetClaims extracts the token claims from the request context.
func GetClaims(ctx context.Context) (*auth.AccessTokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.AccessTokenClaims)
	return claims, ok
}

// WithClaims returns a copy of ctx carrying claims and their user ID.
// Used by handler tests that bypass token validation.
func WithClaims(ctx context.Context, claims *auth.AccessTokenClaims) context.Context {
	if userID, err := claims.UserID(); err == nil {
		ctx = context.WithValue(ctx, UserIDKey, userID)
	}
	return context.WithValue(ctx, ClaimsKey, claims)
}
