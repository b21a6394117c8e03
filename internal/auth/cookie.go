package auth

import (
	"errors"
	"net/http"
	"time"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// ErrNoCookie is returned when a request carries no session cookie.
var ErrNoCookie = errors.New("no session cookie")

// SetCookie stores a signed session token in the browser until expires.
func SetCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie removes the session cookie with the attributes it was set with.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// CookieClaims validates the session cookie of r.
func CookieClaims(r *http.Request, secret string) (*Claims, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoCookie
	}
	return ValidateToken(secret, c.Value)
}
