package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/validation"
)

// AuthHandler issues access tokens.
type AuthHandler struct {
	auth      *service.AuthService
	validator *validation.Validator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(auth *service.AuthService, v *validation.Validator) *AuthHandler {
	return &AuthHandler{auth: auth, validator: v}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   formatTime(res.ExpiresAt),
		Redirect:    res.Redirect,
		User:        userResponse(*res.User),
	}})
}
