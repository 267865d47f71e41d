package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"portfolio/internal/messages"
	"portfolio/internal/validation"
)

// CreateMessageHandler stores a contact-form submission.
func CreateMessageHandler(ctx *cartridge.Context) error {
	var input messages.CreateMessageInput
	if err := json.Unmarshal(ctx.Body(), &input); err != nil {
		ctx.Logger.Debug("Failed to parse message", slog.Any("error", err))
		return errorResponse(ctx.Ctx, http.StatusBadRequest, errInvalidRequest, "INVALID_REQUEST")
	}
	input.IP = getClientIP(ctx.Ctx)

	msg, err := messages.CreateMessage(ctx.DB(), ctx.Logger, input)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   verr.Error(),
				"code":    "VALIDATION_ERROR",
				"fields":  verr.Fields,
			})
		}
		ctx.Logger.Error("Failed to store message", slog.Any("error", err))
		return errorResponse(ctx.Ctx, http.StatusInternalServerError, errInternal, "MESSAGE_ERROR")
	}

	ctx.Logger.Info("Received contact message", slog.Uint64("message_id", uint64(msg.ID)))
	return ctx.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      msg.ID,
	})
}
