package jobs

import (
	"context"
	"log/slog"
	"os"
	"time"

	"portfolio/internal/pkg/geoip"
)

// GeoDBReloadJob reopens the GeoLite2 database when the file on disk changes,
// so operators can drop in a new release without restarting.
type GeoDBReloadJob struct {
	path    string
	logger  *slog.Logger
	modTime time.Time
	reload  func()
}

func NewGeoDBReloadJob(path string, logger *slog.Logger) *GeoDBReloadJob {
	j := &GeoDBReloadJob{
		path:   path,
		logger: logger,
		reload: geoip.ReloadGeoDB,
	}
	if info, err := os.Stat(path); err == nil {
		j.modTime = info.ModTime()
	}
	return j
}

func (j *GeoDBReloadJob) Name() string { return "geodb_reload" }

// Run reloads the database if its modification time moved forward.
func (j *GeoDBReloadJob) Run(ctx context.Context) error {
	if j.path == "" {
		return nil
	}
	info, err := os.Stat(j.path)
	if err != nil {
		return nil
	}
	if !info.ModTime().After(j.modTime) {
		return nil
	}

	j.logger.Info("GeoLite2 database changed on disk, reloading", slog.String("path", j.path))
	j.modTime = info.ModTime()
	j.reload()
	return nil
}
