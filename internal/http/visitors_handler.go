package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"portfolio/internal/config"
	"portfolio/internal/pkg/geoip"
	"portfolio/internal/visitors"
)

type historyItem struct {
	visitors.HistoryEntry
	ResolvedCountry string `json:"resolvedCountry,omitempty"`
}

type visitorItem struct {
	ID                  uint          `json:"id"`
	Alias               string        `json:"alias"`
	Fingerprint         string        `json:"fingerprint"`
	InferredOS          string        `json:"inferredOS"`
	InferredDeviceClass string        `json:"inferredDeviceClass"`
	History             []historyItem `json:"history"`
	LastSeenAt          time.Time     `json:"lastSeenAt"`
	CreatedAt           time.Time     `json:"createdAt"`
}

func buildVisitorItem(v visitors.Visitor, lookup func(string) string) visitorItem {
	history := make([]historyItem, 0, len(v.History))
	for _, entry := range v.History {
		item := historyItem{HistoryEntry: entry}
		if entry.Country == "" {
			item.ResolvedCountry = lookup(entry.IP)
		}
		history = append(history, item)
	}

	return visitorItem{
		ID:                  v.ID,
		Alias:               visitors.VisitorAlias(v.Fingerprint),
		Fingerprint:         v.Fingerprint,
		InferredOS:          v.InferredOS,
		InferredDeviceClass: v.InferredDeviceClass,
		History:             history,
		LastSeenAt:          v.LastSeenAt,
		CreatedAt:           v.CreatedAt,
	}
}

// VisitorsIndexAction lists visitors, most recently seen first.
func VisitorsIndexAction(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)
	limit := cfg.VisitorPageLimit(queryInt(ctx, "limit", 0))
	offset := queryInt(ctx, "offset", 0)

	list, total, err := visitors.ListVisitors(ctx.DB(), limit, offset)
	if err != nil {
		ctx.Logger.Error("Failed to list visitors", slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to load visitors", "VISITORS_ERROR")
	}

	items := make([]visitorItem, 0, len(list))
	for _, v := range list {
		items = append(items, buildVisitorItem(v, geoip.CountryForIP))
	}

	return ctx.JSON(fiber.Map{
		"success":       true,
		"totalVisitors": total,
		"limit":         limit,
		"offset":        offset,
		"visitors":      items,
	})
}

// VisitorShowAction returns one visitor with its full history.
func VisitorShowAction(ctx *cartridge.Context) error {
	id, ok := paramID(ctx, "id")
	if !ok {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid visitor id", "INVALID_ID")
	}

	v, err := visitors.GetVisitor(ctx.DB(), id)
	if err != nil {
		if errors.Is(err, visitors.ErrVisitorNotFound) {
			return jsonError(ctx, fiber.StatusNotFound, "Visitor not found", "NOT_FOUND")
		}
		ctx.Logger.Error("Failed to load visitor", slog.Uint64("id", uint64(id)), slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to load visitor", "VISITORS_ERROR")
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"visitor": buildVisitorItem(*v, geoip.CountryForIP),
	})
}

// VisitorDeleteAction removes a visitor and its history.
func VisitorDeleteAction(ctx *cartridge.Context) error {
	id, ok := paramID(ctx, "id")
	if !ok {
		return jsonError(ctx, fiber.StatusBadRequest, "Invalid visitor id", "INVALID_ID")
	}

	if err := visitors.DeleteVisitor(ctx.DB(), ctx.Logger, id); err != nil {
		if errors.Is(err, visitors.ErrVisitorNotFound) {
			return jsonError(ctx, fiber.StatusNotFound, "Visitor not found", "NOT_FOUND")
		}
		ctx.Logger.Error("Failed to delete visitor", slog.Uint64("id", uint64(id)), slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to delete visitor", "VISITORS_ERROR")
	}

	ctx.Logger.Info("Visitor deleted", slog.Uint64("id", uint64(id)))
	return ctx.JSON(fiber.Map{"success": true})
}
