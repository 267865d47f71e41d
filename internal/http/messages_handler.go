package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"portfolio/internal/content"
	"portfolio/internal/messages"
)

const messagePreviewLength = 120

type messageListItem struct {
	messages.Message
	Preview string `json:"preview"`
}

// MessagesIndexAction lists contact messages, newest first.
func MessagesIndexAction(ctx *cartridge.Context) error {
	filter := messages.ListFilter{
		UnreadOnly: ctx.QueryBool("unread", false),
		Limit:      queryInt(ctx, "limit", 50),
		Offset:     queryInt(ctx, "offset", 0),
	}

	db := ctx.DB()
	msgs, total, err := messages.ListMessages(db, filter)
	if err != nil {
		ctx.Logger.Error("Failed to list messages", slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to load messages", "MESSAGES_ERROR")
	}

	unread, err := messages.CountUnread(db)
	if err != nil {
		ctx.Logger.Error("Failed to count unread messages", slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to load messages", "MESSAGES_ERROR")
	}

	items := make([]messageListItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, messageListItem{
			Message: m,
			Preview: content.Truncate(m.Body, messagePreviewLength),
		})
	}

	return ctx.JSON(fiber.Map{
		"success":  true,
		"total":    total,
		"unread":   unread,
		"messages": items,
	})
}

// MessageMarkReadAction flags a message as read.
func MessageMarkReadAction(ctx *cartridge.Context) error {
	id, ok := paramID(ctx, "id")
	if !ok {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid message id", "INVALID_ID")
	}

	if err := messages.MarkRead(ctx.DB(), ctx.Logger, id); err != nil {
		if errors.Is(err, messages.ErrMessageNotFound) {
			return jsonError(ctx, fiber.StatusNotFound, "Message not found", "NOT_FOUND")
		}
		ctx.Logger.Error("Failed to mark message read", slog.Uint64("id", uint64(id)), slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to update message", "MESSAGES_ERROR")
	}
	return ctx.JSON(fiber.Map{"success": true})
}

// MessageDeleteAction removes a message.
func MessageDeleteAction(ctx *cartridge.Context) error {
	id, ok := paramID(ctx, "id")
	if !ok {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid message id", "INVALID_ID")
	}

	if err := messages.DeleteMessage(ctx.DB(), ctx.Logger, id); err != nil {
		if errors.Is(err, messages.ErrMessageNotFound) {
			return jsonError(ctx, fiber.StatusNotFound, "Message not found", "NOT_FOUND")
		}
		ctx.Logger.Error("Failed to delete message", slog.Uint64("id", uint64(id)), slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to delete message", "MESSAGES_ERROR")
	}

	ctx.Logger.Info("Message deleted", slog.Uint64("id", uint64(id)))
	return ctx.JSON(fiber.Map{"success": true})
}
