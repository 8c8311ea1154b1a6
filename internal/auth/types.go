package auth

import (
	"strings"
	"time"
)

// Role is the stored authorization level of a user.
type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleAdmin:
		return true
	}
	return false
}

// Identity is the claim carried by a credential. It lives for one request only.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (id Identity) validate() error {
	email := id.Email
	if email == "" || strings.TrimSpace(email) != email || strings.ContainsAny(email, " \t\r\n") {
		return ErrInvalidClaim
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return ErrInvalidClaim
	}
	return nil
}

// Credential is a signed token together with the validity window encoded in it.
type Credential struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
