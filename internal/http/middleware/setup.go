package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"portfolio/internal/users"
)

// SetupCheck answers 428 while no admin account exists. The admin is created
// out of band with portfolioctl, so there is nothing to log in to before that.
func SetupCheck(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := users.FindAdmin(db)
		if errors.Is(err, users.ErrUserNotFound) {
			logger.Info("Admin account missing, rejecting request",
				slog.String("path", c.Path()),
				slog.String("method", c.Method()))
			return c.Status(fiber.StatusPreconditionRequired).JSON(fiber.Map{
				"success": false,
				"error":   "System setup required",
				"code":    "SETUP_REQUIRED",
			})
		}
		if err != nil {
			logger.Error("Failed to check admin account in middleware", slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "System error",
				"code":    "INTERNAL_ERROR",
			})
		}

		return c.Next()
	}
}
