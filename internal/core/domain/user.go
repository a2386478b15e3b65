package domain

import "time"

// Role enumerates the authorization roles a user can hold.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Address is the optional postal address attached to a user profile.
type Address struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	District string `json:"district"`
	Country  string `json:"country"`
}

// User mirrors the persisted representation in the users table.
//
// EmailVerificationCode holds a SHA-256 digest of the one-time code,
// never the plaintext; the same applies to RefreshTokenHash. The code
// and its expiry are either both set or both nil.
type User struct {
	ID                       string
	Email                    string
	PasswordHash             string
	Fullname                 string
	Phone                    string
	Address                  *Address
	AvatarURL                string
	Role                     Role
	IsActive                 bool
	IsEmailVerified          bool
	EmailVerificationCode    *string
	EmailVerificationExpires *time.Time
	RefreshTokenHash         *string
	LastLogin                *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Sanitized returns a copy of the user with credential material removed,
// suitable for handing to transport layers.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.EmailVerificationCode = nil
	u.RefreshTokenHash = nil
	return u
}
