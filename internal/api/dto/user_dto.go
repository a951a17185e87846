package dto

import "github.com/spec-kit/helpdesk/internal/domain"

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// RoleFields is the role and department pair shared by the user forms.
type RoleFields struct {
	Role       string `json:"role" form:"role" validate:"omitempty,role"`
	Department *int64 `json:"department" form:"department" validate:"omitempty,gt=0"`
}

// CreateUserRequest is the director's new user form. Role is mandatory here.
type CreateUserRequest struct {
	Email     string `json:"email" form:"email" validate:"required,email"`
	FirstName string `json:"first_name" form:"first_name" validate:"required,alphaspace"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,alphaspace"`
	Password  string `json:"password" form:"password" validate:"required,min=8"`
	RoleFields
}

// EditUserRequest changes any subset of a user's fields.
type EditUserRequest struct {
	Email     string `json:"email" form:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name" form:"first_name" validate:"omitempty,alphaspace"`
	LastName  string `json:"last_name" form:"last_name" validate:"omitempty,alphaspace"`
	IsActive  *bool  `json:"is_active" form:"is_active"`
	RoleFields
}

// UserBulkRequest applies set_role or delete to the selected users.
type UserBulkRequest struct {
	Action string  `json:"action" form:"action" validate:"required,oneof=set_role delete"`
	Users  []int64 `json:"users" form:"users" validate:"required,min=1"`
	RoleFields
}

// UserResponse is a user row on the director panel.
type UserResponse struct {
	ID             int64       `json:"id"`
	Email          string      `json:"email"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Role           domain.Role `json:"role"`
	IsActive       bool        `json:"is_active"`
	DepartmentID   *int64      `json:"department_id,omitempty"`
	DepartmentName *string     `json:"department_name,omitempty"`
}

// LoginResponse carries the token and the landing route of the role.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   string       `json:"expires_at"`
	Redirect    string       `json:"redirect"`
	User        UserResponse `json:"user"`
}
