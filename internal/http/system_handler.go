package http

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"

	"portfolio/internal/config"
	"portfolio/internal/content"
	"portfolio/internal/pkg/geoip"
	"portfolio/internal/uploads"
)

// SystemExportDatabaseAction streams the SQLite database file as a backup.
func SystemExportDatabaseAction(ctx *cartridge.Context) error {
	cfg := ctx.Config.(*config.Config)
	dbPath := cfg.GetDatabasePath()

	info, err := os.Stat(dbPath)
	if err != nil {
		ctx.Logger.Error("Database file not found", slog.String("path", dbPath), slog.Any("error", err))
		return jsonError(ctx, fiber.StatusNotFound, "Database file not found", "NOT_FOUND")
	}

	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s-backup.db", cfg.AppName))
	ctx.Logger.Info("Database exported", slog.String("path", dbPath), slog.Int64("size", info.Size()))
	return ctx.SendFile(dbPath)
}

// SystemPurgeCacheAction clears the persisted cache table and the in-memory
// content cache.
func SystemPurgeCacheAction(ctx *cartridge.Context) error {
	rowsAffected, err := cache.PurgeAllCaches(ctx.DB())
	if err != nil {
		ctx.Logger.Error("Failed to clear generic_cache", slog.Any("error", err))
		return jsonError(ctx, fiber.StatusInternalServerError, "Failed to clear caches", "CACHE_ERROR")
	}
	content.ClearCache()

	ctx.Logger.Info("Caches purged successfully", slog.Int64("rows_deleted", rowsAffected))
	return ctx.JSON(fiber.Map{
		"success":     true,
		"rowsDeleted": rowsAffected,
	})
}

// SystemStatusAction reports optional subsystems for the admin panel.
func SystemStatusAction(store uploads.Store) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		cfg := ctx.Config.(*config.Config)

		objects, err := store.List(context.Background())
		if err != nil {
			ctx.Logger.Error("Failed to list uploads", slog.Any("error", err))
			return jsonError(ctx, fiber.StatusInternalServerError, "Failed to read uploads", "SYSTEM_ERROR")
		}
		var totalBytes int64
		for _, obj := range objects {
			totalBytes += obj.Size
		}

		return ctx.JSON(fiber.Map{
			"success":         true,
			"environment":     cfg.Environment,
			"geoipEnabled":    geoip.GetGeoDB() != nil,
			"apiSecretSet":    cfg.APISecret != "",
			"uploadCount":     len(objects),
			"uploadBytes":     totalBytes,
			"maxUploadSizeMB": cfg.MaxUploadSizeMB,
		})
	}
}
