package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sentinelai/counsel-api/database"
	"github.com/sentinelai/counsel-api/utils/response"
)

// HandleCheckHealth handles GET /api/v1/ping
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database unreachable")
	}
	return response.Success(c, fiber.Map{"status": "ok"})
}
