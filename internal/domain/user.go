package domain

import (
	"strings"
	"time"
)

// User is an account of any role. Email is always stored lower-cased.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	Role         Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail trims and lower-cases an address before persistence or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserView is a user row joined with the department assignment, if any.
type UserView struct {
	User
	DepartmentID   *int64
	DepartmentName *string
}
