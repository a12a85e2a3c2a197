package domain

import "time"

// Role represents the role of a user. Exactly one role is assigned at
// registration and it never changes afterwards.
type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

// User represents an account in the system. WalletBalance is the
// authoritative balance; ledger entries are the append-only audit trail.
type User struct {
	ID            string
	Email         string
	Name          string
	Phone         string
	PasswordHash  string
	Role          Role
	WalletBalance float64
	IsActive      bool
	IsVerified    bool
	CreatedAt     time.Time
}

// IsDriver reports whether the user registered as a driver.
func (u *User) IsDriver() bool {
	return u.Role == RoleDriver
}
