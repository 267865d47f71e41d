package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"portfolio/internal/config"
	"portfolio/internal/uploads"
)

// Job is a unit of background work run on an interval.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// NewJobs builds the scheduler with every background job the service runs.
func NewJobs(dbManager cartridge.DBManager, store uploads.Store, logger *slog.Logger) (*Scheduler, error) {
	cfg := config.GetConfig()
	s := NewScheduler(logger)

	sweep := NewUploadSweepJob(dbManager, store, logger, time.Duration(cfg.UploadSweepGraceMinutes)*time.Minute)
	s.Register(sweep, time.Duration(cfg.UploadSweepIntervalMinutes)*time.Minute)

	s.Register(NewGeoDBReloadJob(cfg.GeoDBPath, logger), time.Hour)

	return s, nil
}
