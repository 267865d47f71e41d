package middleware

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// APISecretHeader carries the shared secret on every /api request.
const APISecretHeader = "X-API-Secret"

// APISecret rejects requests whose X-API-Secret header does not match secret.
// Rejections answer 404 with a generic body so the route looks absent.
// An empty secret disables the check.
func APISecret(secret string, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		if !secureCompare(c.Get(APISecretHeader), secret) {
			logger.Debug("Rejected request with invalid API secret",
				slog.String("path", c.Path()),
				slog.String("method", c.Method()))
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Not found",
			})
		}

		return c.Next()
	}
}

// secureCompare performs constant-time string comparison
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
