package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"portfolio/internal/content"
	"portfolio/internal/uploads"
)

// UploadSweepJob deletes stored objects that the files section no longer
// references. Objects younger than the grace period are kept so an upload in
// progress is never swept before it is recorded.
type UploadSweepJob struct {
	dbManager cartridge.DBManager
	store     uploads.Store
	logger    *slog.Logger
	grace     time.Duration
	now       func() time.Time
}

func NewUploadSweepJob(dbManager cartridge.DBManager, store uploads.Store, logger *slog.Logger, grace time.Duration) *UploadSweepJob {
	return &UploadSweepJob{
		dbManager: dbManager,
		store:     store,
		logger:    logger,
		grace:     grace,
		now:       time.Now,
	}
}

func (j *UploadSweepJob) Name() string { return "upload_sweep" }

// Run performs one sweep and reports how many objects it removed.
func (j *UploadSweepJob) Run(ctx context.Context) error {
	_, err := j.Sweep(ctx)
	return err
}

// Sweep returns the keys it deleted.
func (j *UploadSweepJob) Sweep(ctx context.Context) ([]string, error) {
	files, err := content.GetFiles(j.dbManager.GetConnection())
	if err != nil {
		return nil, fmt.Errorf("failed to load file references: %w", err)
	}
	referenced := make(map[string]bool, len(files))
	for _, ref := range files {
		referenced[ref.Key] = true
	}

	objects, err := j.store.List(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := j.now().Add(-j.grace)
	var deleted []string
	for _, obj := range objects {
		if referenced[obj.Key] || obj.ModTime.After(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, obj.Key); err != nil && !errors.Is(err, uploads.ErrObjectNotFound) {
			j.logger.Warn("Failed to delete orphaned upload", slog.String("key", obj.Key), slog.Any("error", err))
			continue
		}
		deleted = append(deleted, obj.Key)
	}

	if len(deleted) > 0 {
		j.logger.Info("Removed orphaned uploads", slog.Int("count", len(deleted)))
	} else {
		j.logger.Debug("No orphaned uploads to remove")
	}
	return deleted, nil
}
