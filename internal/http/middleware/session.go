package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// Authenticator reports whether the request carries a valid session.
type Authenticator interface {
	IsAuthenticated(c *fiber.Ctx) bool
}

// RequireSession answers 401 JSON for requests without a valid session.
func RequireSession(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !auth.IsAuthenticated(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Authentication required",
				"code":    "UNAUTHORIZED",
			})
		}
		return c.Next()
	}
}
