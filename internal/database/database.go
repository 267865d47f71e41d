package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/karloscodes/cartridge/cache"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"portfolio/internal/config"
	"portfolio/internal/content"
	"portfolio/internal/messages"
	"portfolio/internal/users"
	"portfolio/internal/visitors"
)

// DBManager wraps cartridge's sqlite.Manager with the portfolio schema.
type DBManager struct {
	*sqlite.Manager
	path   string
	logger *slog.Logger
}

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&cache.CacheRecord{},
		&users.User{},
		&content.Section{},
		&messages.Message{},
		&visitors.Visitor{},
		&visitors.HistoryEntry{},
	}
}

// NewDBManager creates a new database manager using cartridge's sqlite.Manager.
func NewDBManager(cfg *config.Config, logger *slog.Logger) *DBManager {
	path := cfg.GetDatabasePath()
	sqliteCfg := sqlite.Config{
		Path:         path,
		MaxOpenConns: cfg.GetMaxOpenConns(),
		MaxIdleConns: cfg.GetMaxIdleConns(),
		Logger:       logger,
		EnableWAL:    true,
		TxImmediate:  true,
		BusyTimeout:  5000,
	}

	return &DBManager{
		Manager: sqlite.NewManager(sqliteCfg),
		path:    path,
		logger:  logger,
	}
}

// Init creates the storage directory and opens the connection.
func (dm *DBManager) Init() error {
	if err := os.MkdirAll(filepath.Dir(dm.path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	_, err := dm.Manager.Connect()
	return err
}

// MigrateDatabase creates or updates every table.
func (dm *DBManager) MigrateDatabase() error {
	db := dm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(Models()...)
	})
	if err != nil {
		dm.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	if err := dm.CheckpointWAL("FULL"); err != nil {
		dm.logger.Warn("Failed to checkpoint WAL after migration", slog.Any("error", err))
	}

	dm.logger.Info("Database migration completed successfully")
	return nil
}
