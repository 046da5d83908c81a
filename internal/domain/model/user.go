package model

import (
	"time"
)

// Role is the persisted authorization level of a user.
type Role string

const (
	RoleGuest Role = "GUEST"
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ValidRole reports whether r is one of the persisted role values.
func ValidRole(r Role) bool {
	switch r {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        Role   `json:"role"`

	HashedPassword string `json:"-"` // never serialized outward

	// PasswordChangedAt is zero until the first post-signup password
	// mutation. Tokens issued before it are rejected as stale.
	PasswordChangedAt time.Time `json:"-"`

	// Reset token bookkeeping: only the SHA-256 digest of the token is
	// stored, with an absolute expiry. Cleared on consumption or rollback.
	ResetTokenHash    string    `json:"-"`
	ResetTokenExpires time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issue time. Timestamps are compared at second granularity,
// matching token claims.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}
