package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"portfolio/internal/config"
	"portfolio/internal/content"
	"portfolio/internal/uploads"
)

const sniffLength = 512

// UploadFileAction stores the multipart "file" field for a kind, records its
// URL in the files section and removes the object it replaced.
func UploadFileAction(store uploads.Store) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		kind := ctx.Params("kind")
		if !uploads.IsValidKind(kind) {
			return jsonError(ctx, fiber.StatusNotFound, "Unknown upload kind", "INVALID_KIND")
		}

		header, err := ctx.FormFile("file")
		if err != nil {
			return jsonError(ctx, fiber.StatusBadRequest, "File is required", "MISSING_FILE")
		}

		cfg := ctx.Config.(*config.Config)
		if header.Size > cfg.GetMaxUploadSizeBytes() {
			return jsonError(ctx, fiber.StatusRequestEntityTooLarge, uploads.ErrTooLarge.Error(), "FILE_TOO_LARGE")
		}

		file, err := header.Open()
		if err != nil {
			ctx.Logger.Error("Failed to open uploaded file", slog.Any("error", err))
			return jsonError(ctx, fiber.StatusBadRequest, "Unreadable file", "INVALID_FILE")
		}
		defer file.Close()

		head := make([]byte, sniffLength)
		n, err := io.ReadFull(file, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			ctx.Logger.Error("Failed to read uploaded file", slog.Any("error", err))
			return jsonError(ctx, fiber.StatusBadRequest, "Unreadable file", "INVALID_FILE")
		}
		head = head[:n]

		contentType, ext, err := uploads.DetectType(kind, head)
		if err != nil {
			ctx.Logger.Debug("Rejected upload", slog.String("kind", kind), slog.String("content_type", contentType))
			return jsonError(ctx, fiber.StatusUnsupportedMediaType, err.Error(), "UNSUPPORTED_TYPE")
		}

		key := uploads.NewKey(kind, ext)
		reqCtx := context.Background()
		url, err := store.Put(reqCtx, key, io.MultiReader(bytes.NewReader(head), file), contentType)
		if err != nil {
			ctx.Logger.Error("Failed to store upload", slog.String("key", key), slog.Any("error", err))
			return jsonError(ctx, fiber.StatusInternalServerError, "Failed to store file", "UPLOAD_ERROR")
		}

		previous, err := content.SetFile(ctx.DB(), ctx.Logger, kind, content.FileRef{Key: key, URL: url})
		if err != nil {
			ctx.Logger.Error("Failed to record upload", slog.String("key", key), slog.Any("error", err))
			if delErr := store.Delete(reqCtx, key); delErr != nil {
				ctx.Logger.Warn("Failed to remove unrecorded upload", slog.String("key", key), slog.Any("error", delErr))
			}
			return jsonError(ctx, fiber.StatusInternalServerError, "Failed to store file", "UPLOAD_ERROR")
		}

		if previous != nil && previous.Key != key {
			removeObject(ctx, store, previous.Key)
		}

		ctx.Logger.Info("Stored upload",
			slog.String("kind", kind),
			slog.String("key", key),
			slog.Int64("size", header.Size))
		return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"kind":    kind,
			"key":     key,
			"url":     url,
		})
	}
}

// DeleteFileAction removes the object recorded for a kind.
func DeleteFileAction(store uploads.Store) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		kind := ctx.Params("kind")
		if !uploads.IsValidKind(kind) {
			return jsonError(ctx, fiber.StatusNotFound, "Unknown upload kind", "INVALID_KIND")
		}

		previous, err := content.RemoveFile(ctx.DB(), ctx.Logger, kind)
		if err != nil {
			ctx.Logger.Error("Failed to remove file reference", slog.String("kind", kind), slog.Any("error", err))
			return jsonError(ctx, fiber.StatusInternalServerError, "Failed to delete file", "UPLOAD_ERROR")
		}
		if previous == nil {
			return jsonError(ctx, fiber.StatusNotFound, "No file uploaded", "NOT_FOUND")
		}

		removeObject(ctx, store, previous.Key)
		return ctx.JSON(fiber.Map{"success": true})
	}
}

// ServeUploadAction streams a stored object. Keys are unique per upload so
// responses are cacheable.
func ServeUploadAction(store uploads.Store) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		path, err := store.Open(ctx.Params("key"))
		if err != nil {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
		}

		ctx.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		ctx.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		ctx.Set("Cross-Origin-Resource-Policy", "cross-origin")
		return ctx.SendFile(path)
	}
}

func removeObject(ctx *cartridge.Context, store uploads.Store, key string) {
	if key == "" {
		return
	}
	err := store.Delete(context.Background(), key)
	if err != nil && !errors.Is(err, uploads.ErrObjectNotFound) {
		ctx.Logger.Warn("Failed to delete stored object", slog.String("key", key), slog.Any("error", err))
	}
}
