package model

import "time"

// User is the compact user reference embedded in other records.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// UserRole is the role assignment attached to a profile.
type UserRole struct {
	ID        int64     `json:"id"`
	User      int64     `json:"user"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the authenticated user's own record.
type Profile struct {
	User
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
	Role       *UserRole `json:"role"`
}

// RoleName returns the assigned role, or "pending" when none is assigned.
func (p *Profile) RoleName() string {
	if p.Role == nil || p.Role.Role == "" {
		return "pending"
	}
	return p.Role.Role
}

// TokenPair is an upstream access/refresh token pair.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
