// Package http holds the admin panel JSON handlers.
package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
)

func jsonError(ctx *cartridge.Context, status int, message, code string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// paramID parses a positive numeric route parameter.
func paramID(ctx *cartridge.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an integer query parameter, returning def when absent or invalid.
func queryInt(ctx *cartridge.Context, name string, def int) int {
	value, err := strconv.Atoi(ctx.Query(name))
	if err != nil {
		return def
	}
	return value
}
