// Package v1 holds the public JSON API consumed by the portfolio site.
package v1

import (
	"github.com/gofiber/fiber/v2"
)

const (
	errInvalidRequest = "Invalid request"
	errInternal       = "Internal server error"
)

// errorResponse writes the shared error body used by every public endpoint.
func errorResponse(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
