package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/validation"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// DirectorHandler serves the user panel, the department manager and director statistics.
type DirectorHandler struct {
	director  *service.DirectorService
	stats     *service.StatisticsService
	validator *validation.Validator
}

// NewDirectorHandler constructs handler.
func NewDirectorHandler(director *service.DirectorService, stats *service.StatisticsService, v *validation.Validator) *DirectorHandler {
	return &DirectorHandler{director: director, stats: stats, validator: v}
}

// roleAssignment converts the shared form fields; an empty role stays empty.
func roleAssignment(f dto.RoleFields) service.RoleAssignment {
	out := service.RoleAssignment{DepartmentID: f.Department}
	if role, ok := domain.ParseRole(f.Role); ok {
		out.Role = role
	}
	return out
}

// Users GET /director_panel/.
func (h *DirectorHandler) Users(c *fiber.Ctx) error {
	params := query.NormalizeFilterParams(c.Queries(), repository.UserTextFields...)
	panel, err := h.director.ListUsers(c.UserContext(), actor(c), params, page(c, service.DirectorPageSize))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"users":       query.Map(panel.Users, userViewResponse),
		"departments": departmentResponses(panel.Departments),
		"params":      panel.Params,
	})
}

// UsersAction POST /director_panel/. A body with an action runs a bulk operation; otherwise it
// is the create-user form.
func (h *DirectorHandler) UsersAction(c *fiber.Ctx) error {
	var peek struct {
		Action string `json:"action" form:"action"`
	}
	_ = c.BodyParser(&peek)
	if peek.Action == "" {
		return h.createUser(c)
	}

	var req dto.UserBulkRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	switch req.Action {
	case "set_role":
		assignment := roleAssignment(req.RoleFields)
		if assignment.Role == "" {
			return apperrors.NewValidationError("validation failed", map[string]any{"role": "This field is required."})
		}
		updated, err := h.director.BulkSetRole(c.UserContext(), actor(c), req.Users, assignment)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"updated": updated})
	default:
		deleted, err := h.director.DeleteUsers(c.UserContext(), actor(c), req.Users)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"deleted": deleted})
	}
}

func (h *DirectorHandler) createUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	assignment := roleAssignment(req.RoleFields)
	if assignment.Role == "" {
		return apperrors.NewValidationError("validation failed", map[string]any{"role": "This field is required."})
	}
	user, err := h.director.CreateUser(c.UserContext(), actor(c), service.CreateUserInput{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Password:       req.Password,
		RoleAssignment: assignment,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(*user)})
}

// EditUser PUT /director_panel/users/:id.
func (h *DirectorHandler) EditUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.EditUserRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	user, err := h.director.EditUser(c.UserContext(), actor(c), id, service.EditUserInput{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		IsActive:       req.IsActive,
		RoleAssignment: roleAssignment(req.RoleFields),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(*user)})
}

// Departments GET /department_manager/.
func (h *DirectorHandler) Departments(c *fiber.Ctx) error {
	params := query.NormalizeFilterParams(c.Queries(), service.DepartmentTextFields...)
	res, err := h.director.ListDepartments(c.UserContext(), actor(c), params, page(c, service.DirectorPageSize))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"departments": query.Map(res.Departments, departmentResponse)})
}

// CreateDepartment POST /department_manager/.
func (h *DirectorHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	dept, err := h.director.CreateDepartment(c.UserContext(), actor(c), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": departmentResponse(*dept)})
}

// RenameDepartment PUT /department_manager/:id.
func (h *DirectorHandler) RenameDepartment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	dept, err := h.director.RenameDepartment(c.UserContext(), actor(c), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(*dept)})
}

// DeleteDepartment DELETE /department_manager/:id.
func (h *DirectorHandler) DeleteDepartment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.director.DeleteDepartment(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Statistics GET /director_statistics.
func (h *DirectorHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.stats.ForDirector(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
