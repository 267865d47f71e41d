package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"portfolio/internal/validation"
	"portfolio/internal/visitors"
)

const errFingerprintRequired = "Fingerprint is required"

// RecordVisitHandler records one page load and answers with the total number
// of known visitors. An empty body counts as a visit without a fingerprint.
func RecordVisitHandler(ctx *cartridge.Context) error {
	var event visitors.VisitEvent
	if body := ctx.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &event); err != nil {
			ctx.Logger.Debug("Failed to parse visit event", slog.Any("error", err))
			return errorResponse(ctx.Ctx, http.StatusBadRequest, errInvalidRequest, "INVALID_REQUEST")
		}
	}

	if err := validation.Struct(event); err != nil {
		return errorResponse(ctx.Ctx, http.StatusBadRequest, errFingerprintRequired, "MISSING_FINGERPRINT")
	}

	result, err := visitors.RecordVisit(ctx.DBManager, ctx.Logger, event)
	if err != nil {
		switch {
		case errors.Is(err, visitors.ErrMissingFingerprint):
			return errorResponse(ctx.Ctx, http.StatusBadRequest, errFingerprintRequired, "MISSING_FINGERPRINT")
		case errors.Is(err, visitors.ErrHistoryConflict):
			return errorResponse(ctx.Ctx, http.StatusConflict, "Visit history changed, retry the request", "HISTORY_CONFLICT")
		default:
			ctx.Logger.Error("Failed to record visit", slog.Any("error", err))
			return errorResponse(ctx.Ctx, http.StatusInternalServerError, errInternal, "VISIT_ERROR")
		}
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":       true,
		"totalVisitors": result.TotalVisitors,
	})
}
