package httputil

import (
	"net/http"
	"strings"
)

// AccessTokenCookie is the cookie web clients carry their access token in.
const AccessTokenCookie = "access_token"

// GetAccessTokenFromCookie extracts access token from cookie.
func GetAccessTokenFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// GetBearerToken extracts the token from an "Authorization: Bearer" header.
func GetBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// IsKioskClient checks if request is from a branch kiosk.
// Kiosks set header: X-Client-Type: kiosk
func IsKioskClient(r *http.Request) bool {
	return r.Header.Get("X-Client-Type") == "kiosk"
}
