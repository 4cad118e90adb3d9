package health

import (
	healthsvc "techtrust-backend/internal/application/health"
	"techtrust-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const serviceName = "techtrust-api"

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Checker        *healthsvc.Checker
	HealthAdminKey string
}

// Reset clears health stats in Redis. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	if h.Checker.Rdb == nil {
		return response.Error(c, "Redis is not configured", fiber.StatusServiceUnavailable, nil)
	}
	if err := h.Checker.Reset(c.UserContext()); err != nil {
		log.Error().Err(err).Msg("health: reset failed")
		return response.Error(c, "Failed to reset stats", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns the health report.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := h.Checker.Collect(c.UserContext())
	return c.JSON(fiber.Map{
		"service":      serviceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"listings":     result.Listings,
		"dependencies": result.Dependencies,
	})
}

// Errors returns the last 50 logged 5xx errors.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.Checker.Rdb == nil {
		return c.JSON([]interface{}{})
	}
	entries, err := h.Checker.RecentErrors(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	return c.JSON(entries)
}

// Root answers GET / with a short status line for uptime monitors.
func (h *Handlers) Root(c *fiber.Ctx) error {
	result := h.Checker.Collect(c.UserContext())
	return response.Success(c, serviceName+" is running", fiber.Map{"status": result.Status}, nil)
}
