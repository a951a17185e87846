package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness check can reach.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency names one readiness check.
type Dependency struct {
	Name   string
	Pinger Pinger
}

// HealthHandler responds to liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	deps        []Dependency
}

// NewHealthHandler returns a handler probing deps in order.
func NewHealthHandler(serviceName, version string, deps ...Dependency) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, deps: deps}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings every dependency; any failure answers 503 with the per-dependency report.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	report := make(fiber.Map, len(h.deps))
	ready := true
	for _, dep := range h.deps {
		if dep.Pinger == nil {
			report[dep.Name] = "not configured"
			ready = false
			continue
		}
		if err := dep.Pinger.Ping(ctx); err != nil {
			report[dep.Name] = err.Error()
			ready = false
			continue
		}
		report[dep.Name] = "ok"
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": report,
			},
		})
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": report})
}
