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

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// AccountChangePasswordAction changes the admin password.
func AccountChangePasswordAction(ctx *cartridge.Context) error {
	userID, authenticated := ctx.Session.GetUserID(ctx.Ctx)
	if !authenticated {
		return jsonError(ctx, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
	}

	var req changePasswordRequest
	if err := json.Unmarshal(ctx.Body(), &req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid request", "INVALID_REQUEST")
	}
	if err := validation.Struct(req); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	}

	err := users.UpdatePassword(ctx.DB(), userID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
	case errors.Is(err, users.ErrInvalidCredentials):
		ctx.Logger.Warn("Invalid current password provided during password change", slog.Uint64("userID", uint64(userID)))
		return jsonError(ctx, fiber.StatusBadRequest, "Current password is incorrect", "INVALID_CREDENTIALS")
	case errors.Is(err, users.ErrPasswordTooShort):
		return jsonError(ctx, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, users.ErrUserNotFound):
		return jsonError(ctx, fiber.StatusNotFound, "User not found", "NOT_FOUND")
	default:
		ctx.Logger.Error("Failed to change password", slog.Uint64("userID", uint64(userID)), slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to change password", "PASSWORD_ERROR")
	}

	ctx.Logger.Info("Password changed successfully", slog.Uint64("userID", uint64(userID)))
	return ctx.JSON(fiber.Map{"success": true})
}
