package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/storage"
)

const healthTimeout = 2 * time.Second

// HealthCheck pings the database and, when configured, the policy bucket.
// Each dependency gets two seconds; the first failure answers 503.
func HealthCheck(db *sql.DB, store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		checks := fiber.Map{}
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "database unavailable")
		}
		checks["database"] = "up"

		if store != nil {
			if err := store.Ping(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "storage unavailable")
			}
			checks["storage"] = "up"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy", "checks": checks})
	}
}

// Liveness always answers 200.
func Liveness() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
