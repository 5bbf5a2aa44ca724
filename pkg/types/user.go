package types

import (
	"strings"

	"github.com/bookbuddy/storefront/pkg/enums"
)

// UserProfile is the signed-in user as returned by the auth endpoints.
type UserProfile struct {
	ID      string         `json:"_id"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone"`
	Address string         `json:"address"`
	Role    enums.UserRole `json:"role"`
}

// HasAddress reports whether a delivery address is on file.
func (u *UserProfile) HasAddress() bool {
	return u != nil && strings.TrimSpace(u.Address) != ""
}

// Session is the persisted auth state. A nil User means guest.
type Session struct {
	User  *UserProfile `json:"user"`
	Token string       `json:"token"`
}

// IsGuest reports whether nobody is signed in.
func (s Session) IsGuest() bool {
	return s.User == nil
}

// IsZero reports whether the session carries neither user nor token.
func (s Session) IsZero() bool {
	return s.User == nil && s.Token == ""
}

// Role returns the user's role, or customer for guests.
func (s Session) Role() enums.UserRole {
	if s.User == nil {
		return enums.UserRoleCustomer
	}
	return s.User.Role
}

// Clone returns a deep copy so callers cannot mutate store state.
func (s Session) Clone() Session {
	out := Session{Token: s.Token}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// LoginRequest is the body of POST auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate is the body of PUT auth/profile. An empty password keeps the
// current one.
type ProfileUpdate struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}
