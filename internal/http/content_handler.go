package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"portfolio/internal/content"
)

// ContentUpdateAction replaces one section with the request body.
func ContentUpdateAction(ctx *cartridge.Context) error {
	name := ctx.Params("section")
	if name == content.SectionFiles {
		return jsonError(ctx, fiber.StatusBadRequest, "Files are managed through uploads", "READ_ONLY_SECTION")
	}

	err := content.SaveSection(ctx.DB(), ctx.Logger, name, ctx.Body())
	switch {
	case err == nil:
	case errors.Is(err, content.ErrUnknownSection):
		return jsonError(ctx, fiber.StatusNotFound, "Unknown section", "UNKNOWN_SECTION")
	case errors.Is(err, content.ErrInvalidContent):
		return jsonError(ctx, fiber.StatusBadRequest, err.Error(), "INVALID_CONTENT")
	default:
		ctx.Logger.Error("Failed to save section", slog.String("section", name), slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to save section", "CONTENT_ERROR")
	}

	data, err := content.GetSection(ctx.DB(), name)
	if err != nil {
		ctx.Logger.Error("Failed to reload section", slog.String("section", name), slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to load section", "CONTENT_ERROR")
	}

	ctx.Logger.Info("Content section updated", slog.String("section", name))
	return ctx.JSON(fiber.Map{
		"success": true,
		"section": name,
		"data":    data,
	})
}
