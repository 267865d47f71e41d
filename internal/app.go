// Package internal contains core application functionality
package internal

import (
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge"

	"portfolio/internal/config"
	"portfolio/internal/content"
	"portfolio/internal/database"
	"portfolio/internal/jobs"
	"portfolio/internal/pkg/geoip"
	"portfolio/internal/uploads"
)

// Application wraps cartridge.Application with the portfolio components
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager // concrete manager with migration methods
	Store     uploads.Store
	Logger    *slog.Logger
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)
	geoip.InitLogger(logger)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store, err := uploads.NewDiskStore(cfg.UploadsDirectory, cfg.UploadsURLPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload store: %w", err)
	}

	content.LoadCache(dbManager.GetConnection(), logger)

	jobsManager, err := jobs.NewJobs(dbManager, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:            cfg,
		Logger:            logger,
		DBManager:         dbManager,
		RouteMountFunc:    RouteMounter(store),
		BackgroundWorkers: []cartridge.BackgroundWorker{jobsManager},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
		Store:       store,
		Logger:      logger,
	}, nil
}
