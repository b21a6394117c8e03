package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCookieRoundTrip(t *testing.T) {
	secret := "cookie-secret"
	token, err := GenerateToken(secret, "sess-9", "manager", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	rec := httptest.NewRecorder()
	SetCookie(rec, token, time.Now().Add(time.Hour), true)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || !c.HttpOnly || !c.Secure {
		t.Errorf("unexpected cookie attributes: %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	claims, err := CookieClaims(req, secret)
	if err != nil {
		t.Fatalf("CookieClaims: %v", err)
	}
	if claims.SessionID != "sess-9" {
		t.Errorf("expected session 'sess-9', got %q", claims.SessionID)
	}
}

func TestCookieClaims_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := CookieClaims(req, "s"); !errors.Is(err, ErrNoCookie) {
		t.Errorf("expected ErrNoCookie, got %v", err)
	}
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookie(rec, false)
	c := rec.Result().Cookies()[0]
	if c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("expected expired empty cookie, got %+v", c)
	}
}
