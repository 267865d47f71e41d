package http

import (
	"errors"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"portfolio/internal/users"
	"portfolio/internal/validation"
)

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginAction checks the admin password and starts a session.
func LoginAction(ctx *cartridge.Context) error {
	var req loginRequest
	if err := json.Unmarshal(ctx.Body(), &req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid request", "INVALID_REQUEST")
	}
	if err := validation.Struct(req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Password is required", "VALIDATION_ERROR")
	}

	user, err := users.Authenticate(ctx.DB(), ctx.Logger, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			ctx.Logger.Debug("Invalid login attempt", slog.String("ip", ctx.IP()))
			return jsonError(ctx, fiber.StatusUnauthorized, "Invalid password", "INVALID_CREDENTIALS")
		}
		ctx.Logger.Error("Failed to authenticate", slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Login failed", "LOGIN_ERROR")
	}

	if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
		ctx.Logger.Error("Failed to set session", slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Login failed", "LOGIN_ERROR")
	}

	ctx.Logger.Info("Admin logged in", slog.Uint64("userID", uint64(user.ID)))
	return ctx.JSON(fiber.Map{
		"success": true,
		"user":    userPayload(user),
	})
}

// LogoutAction ends the admin session.
func LogoutAction(ctx *cartridge.Context) error {
	userID, isAuthenticated := ctx.Session.GetUserID(ctx.Ctx)
	ctx.Session.ClearSession(ctx.Ctx)

	if isAuthenticated {
		ctx.Logger.Debug("Admin logged out", slog.Uint64("userID", uint64(userID)))
	}
	return ctx.JSON(fiber.Map{"success": true})
}

// SessionAction reports whether the caller holds a valid admin session.
func SessionAction(ctx *cartridge.Context) error {
	userID, ok := ctx.Session.GetUserID(ctx.Ctx)
	if !ok {
		return ctx.JSON(fiber.Map{"success": true, "authenticated": false})
	}

	user, err := users.FindByID(ctx.DB(), userID)
	if err != nil {
		ctx.Session.ClearSession(ctx.Ctx)
		return ctx.JSON(fiber.Map{"success": true, "authenticated": false})
	}

	return ctx.JSON(fiber.Map{
		"success":       true,
		"authenticated": true,
		"user":          userPayload(user),
	})
}

func userPayload(user *users.User) fiber.Map {
	return fiber.Map{
		"id":          user.ID,
		"email":       user.Email,
		"lastLoginAt": user.LastLoginAt,
	}
}
