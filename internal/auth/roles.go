package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Authorize fails closed: no principal or an inactive user is unauthorized, and a role outside
// allowed is forbidden. An empty allowed list admits any authenticated user.
func Authorize(principal *Principal, allowed ...domain.Role) error {
	if principal == nil || principal.User == nil || !principal.User.IsActive {
		return apperrors.NewUnauthorized("authentication required")
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if principal.User.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden("insufficient role")
}

// RequireRoles gates a route group on Authorize.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := Authorize(principal, allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}
