package visitors

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

const defaultPageSize = 100

// CountVisitors returns the number of persisted visitors.
func CountVisitors(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Model(&Visitor{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListVisitors returns a most-recent-first page of visitors with their history
// in chronological order, plus the total visitor count.
func ListVisitors(db *gorm.DB, limit, offset int) ([]Visitor, int64, error) {
	total, err := CountVisitors(db)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count visitors: %w", err)
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	visitors := make([]Visitor, 0, limit)
	err = db.Preload("History", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	}).
		Order("last_seen_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&visitors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list visitors: %w", err)
	}

	return visitors, total, nil
}

// GetVisitor loads one visitor with its history.
func GetVisitor(db *gorm.DB, id uint) (*Visitor, error) {
	var visitor Visitor
	err := db.Preload("History", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	}).Where("id = ?", id).First(&visitor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVisitorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &visitor, nil
}

// DeleteVisitor removes a visitor and its whole history.
func DeleteVisitor(db *gorm.DB, logger *slog.Logger, id uint) error {
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := tx.Where("visitor_id = ?", id).Delete(&HistoryEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete visit history: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&Visitor{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete visitor: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrVisitorNotFound
		}
		return nil
	})
}

// CountResult is one bucket of a breakdown.
type CountResult struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Summary aggregates visitors for the admin dashboard.
type Summary struct {
	ByOS          []CountResult `json:"byOS"`
	ByDeviceClass []CountResult `json:"byDeviceClass"`
	ByCountry     []CountResult `json:"byCountry"`
}

// Summarize counts visitors per inferred OS, per inferred device class and per
// country of each visitor's latest history entry.
func Summarize(db *gorm.DB) (*Summary, error) {
	summary := &Summary{}

	if err := db.Model(&Visitor{}).
		Select("inferred_os AS name, COUNT(*) AS count").
		Group("inferred_os").
		Order("count DESC, name ASC").
		Scan(&summary.ByOS).Error; err != nil {
		return nil, fmt.Errorf("failed to summarize by os: %w", err)
	}

	if err := db.Model(&Visitor{}).
		Select("inferred_device_class AS name, COUNT(*) AS count").
		Group("inferred_device_class").
		Order("count DESC, name ASC").
		Scan(&summary.ByDeviceClass).Error; err != nil {
		return nil, fmt.Errorf("failed to summarize by device class: %w", err)
	}

	if err := db.Raw(`
		SELECT h.country AS name, COUNT(*) AS count
		FROM visit_history h
		WHERE h.id IN (SELECT MAX(id) FROM visit_history GROUP BY visitor_id)
		GROUP BY h.country
		ORDER BY count DESC, name ASC
	`).Scan(&summary.ByCountry).Error; err != nil {
		return nil, fmt.Errorf("failed to summarize by country: %w", err)
	}

	return summary, nil
}
