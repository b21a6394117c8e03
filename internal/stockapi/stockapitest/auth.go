package stockapitest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/erazemk/stockmgtr/internal/model"
)

func (b *Backend) issue(username string) model.TokenPair {
	n := b.next()
	pair := model.TokenPair{
		Access:  fmt.Sprintf("access-%s-%d", username, n),
		Refresh: fmt.Sprintf("refresh-%s-%d", username, n),
	}
	b.access[pair.Access] = username
	b.refresh[pair.Refresh] = username
	return pair
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loginStatus != 0 {
		writeJSON(w, b.loginStatus, map[string]string{"detail": http.StatusText(b.loginStatus)})
		return
	}

	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	a := b.accounts[in.Username]
	if a == nil || a.Password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "No active account found with the given credentials",
		})
		return
	}
	if !a.Active {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "User account is disabled."})
		return
	}
	writeJSON(w, http.StatusOK, b.issue(a.Username))
}

// handleRefresh rotates the refresh token, as the backend does with
// ROTATE_REFRESH_TOKENS enabled.
func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++

	var in struct {
		Refresh string `json:"refresh"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	username := b.refresh[in.Refresh]
	if b.failRefresh || username == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	delete(b.refresh, in.Refresh)
	writeJSON(w, http.StatusOK, b.issue(username))
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var in struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if b.access[in.Token] == "" && b.refresh[in.Token] == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (b *Backend) handleProfile(w http.ResponseWriter, r *http.Request, a *Account) {
	p := model.Profile{
		User:       model.User{ID: a.ID, Username: a.Username, Email: a.Username + "@example.com"},
		IsActive:   a.Active,
		DateJoined: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
	if a.Role != "" {
		p.Role = &model.UserRole{ID: a.ID, User: a.ID, Role: a.Role}
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) handlePermissions(w http.ResponseWriter, r *http.Request, a *Account) {
	if a.Role == "" {
		writeError(w, http.StatusNotFound, "User role not found")
		return
	}
	writeJSON(w, http.StatusOK, a.Permissions)
}

func (a *Account) user() *model.User {
	return &model.User{ID: a.ID, Username: a.Username, FullName: a.Username}
}
