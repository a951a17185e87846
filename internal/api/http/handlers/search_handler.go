package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/service"
)

// SearchHandler serves the public search bar.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler constructs handler.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search GET /?query=&department=&subsection=.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	res, err := h.search.Search(c.UserContext(), service.SearchRequest{
		Query:        c.Query("query"),
		DepartmentID: optionalID(c, "department"),
		SubsectionID: optionalID(c, "subsection"),
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}
