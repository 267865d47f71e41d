package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"portfolio/internal/content"
)

// GetContentHandler returns every content section keyed by name.
func GetContentHandler(ctx *cartridge.Context) error {
	sections, err := content.GetAllSections(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to load content", slog.Any("error", err))
		return errorResponse(ctx.Ctx, http.StatusInternalServerError, errInternal, "CONTENT_ERROR")
	}

	return sendCacheable(ctx, fiber.Map{
		"success": true,
		"content": sections,
	})
}

// GetSectionHandler returns a single content section.
func GetSectionHandler(ctx *cartridge.Context) error {
	name := ctx.Params("section")
	data, err := content.GetSection(ctx.DB(), name)
	if err != nil {
		if errors.Is(err, content.ErrUnknownSection) {
			return errorResponse(ctx.Ctx, http.StatusNotFound, "Unknown section", "UNKNOWN_SECTION")
		}
		ctx.Logger.Error("Failed to load section", slog.String("section", name), slog.Any("error", err))
		return errorResponse(ctx.Ctx, http.StatusInternalServerError, errInternal, "CONTENT_ERROR")
	}

	return sendCacheable(ctx, fiber.Map{
		"success": true,
		"section": name,
		"data":    data,
	})
}

// sendCacheable encodes body once, tags it with an ETag and answers 304 when
// the client already holds the same representation.
func sendCacheable(ctx *cartridge.Context, body fiber.Map) error {
	payload, err := json.Marshal(body)
	if err != nil {
		ctx.Logger.Error("Failed to encode content response", slog.Any("error", err))
		return errorResponse(ctx.Ctx, http.StatusInternalServerError, errInternal, "CONTENT_ERROR")
	}

	etag := generateETag(payload)
	if ctx.Get(fiber.HeaderIfNoneMatch) == etag {
		return ctx.Status(fiber.StatusNotModified).Send(nil)
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderETag, etag)
	return ctx.Status(fiber.StatusOK).Send(payload)
}
