package visitors

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// now is the server-side clock for history timestamps.
var now = func() time.Time {
	return time.Now().UTC()
}

// RecordVisit resolves a visit event to a visitor and applies exactly one write:
// a new visitor, a new history entry, or a patch of the latest entry's
// ip/country/time. Lookup order is exact fingerprint first, then the oldest
// visitor sharing the event's inferred OS and device class.
//
// The lookup and the write run in one write transaction, and the patch only
// applies if the latest entry still carries the timestamp that was read.
func RecordVisit(dbManager cartridge.DBManager, logger *slog.Logger, event VisitEvent) (*Result, error) {
	if strings.TrimSpace(event.Fingerprint) == "" {
		return nil, ErrMissingFingerprint
	}

	os, deviceClass := Classify(event.UserAgent)
	visitedAt := now()
	result := &Result{}

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		visitor, similar, err := findTarget(tx, event.Fingerprint, os, deviceClass)
		if err != nil {
			return err
		}

		if visitor == nil {
			created, err := createVisitor(tx, event, os, deviceClass, visitedAt)
			if err != nil {
				return err
			}
			result.VisitorID = created.ID
			result.Outcome = OutcomeCreated
			return nil
		}

		outcome, err := applyVisit(tx, visitor, event, visitedAt)
		if err != nil {
			return err
		}
		result.VisitorID = visitor.ID
		result.Outcome = outcome
		result.Similar = similar
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrHistoryConflict) {
			logger.Warn("Visit history changed during update",
				slog.String("fingerprint", event.Fingerprint))
			return nil, err
		}
		logger.Error("Failed to record visit", slog.Any("error", err))
		return nil, fmt.Errorf("failed to record visit: %w", err)
	}

	total, err := CountVisitors(db)
	if err != nil {
		return nil, fmt.Errorf("failed to count visitors: %w", err)
	}
	result.TotalVisitors = total

	logger.Debug("Recorded visit",
		slog.Uint64("visitor_id", uint64(result.VisitorID)),
		slog.String("outcome", string(result.Outcome)),
		slog.Bool("similar", result.Similar),
		slog.String("os", os),
		slog.String("device_class", deviceClass))

	return result, nil
}

// findTarget returns the visitor an event belongs to, or nil when the event
// describes a new visitor. similar reports a match via the OS/device fallback.
func findTarget(tx *gorm.DB, fingerprint, os, deviceClass string) (visitor *Visitor, similar bool, err error) {
	var v Visitor
	err = tx.Where("fingerprint = ?", fingerprint).Order("id ASC").First(&v).Error
	if err == nil {
		return &v, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to find visitor by fingerprint: %w", err)
	}

	err = tx.Where("inferred_os = ? AND inferred_device_class = ?", os, deviceClass).
		Order("id ASC").
		First(&v).Error
	if err == nil {
		return &v, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to find similar visitor: %w", err)
	}

	return nil, false, nil
}

func createVisitor(tx *gorm.DB, event VisitEvent, os, deviceClass string, visitedAt time.Time) (*Visitor, error) {
	visitor := &Visitor{
		Fingerprint:         event.Fingerprint,
		InferredOS:          os,
		InferredDeviceClass: deviceClass,
		LastSeenAt:          visitedAt,
		History:             []HistoryEntry{newEntry(event, visitedAt)},
	}
	if err := tx.Create(visitor).Error; err != nil {
		return nil, fmt.Errorf("failed to create visitor: %w", err)
	}
	return visitor, nil
}

// applyVisit appends a history entry when the environment changed (or the
// history is empty) and otherwise patches the latest entry in place.
func applyVisit(tx *gorm.DB, visitor *Visitor, event VisitEvent, visitedAt time.Time) (Outcome, error) {
	var last HistoryEntry
	err := tx.Where("visitor_id = ?", visitor.ID).Order("id DESC").First(&last).Error
	hasLast := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load latest visit: %w", err)
	}

	var outcome Outcome
	if !hasLast || environmentChanged(last, event) {
		entry := newEntry(event, visitedAt)
		entry.VisitorID = visitor.ID
		if err := tx.Create(&entry).Error; err != nil {
			return "", fmt.Errorf("failed to append visit: %w", err)
		}
		outcome = OutcomeAppended
	} else {
		res := tx.Model(&HistoryEntry{}).
			Where("id = ? AND time = ?", last.ID, last.Time).
			Updates(map[string]interface{}{
				"ip":      event.IP,
				"country": event.Country,
				"time":    visitedAt,
			})
		if res.Error != nil {
			return "", fmt.Errorf("failed to update latest visit: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return "", ErrHistoryConflict
		}
		outcome = OutcomePatched
	}

	if err := tx.Model(&Visitor{}).Where("id = ?", visitor.ID).
		Update("last_seen_at", visitedAt).Error; err != nil {
		return "", fmt.Errorf("failed to touch visitor: %w", err)
	}

	return outcome, nil
}

// environmentChanged compares the fields that identify a browsing environment.
func environmentChanged(last HistoryEntry, event VisitEvent) bool {
	return last.UserAgent != event.UserAgent ||
		last.Device != event.Device ||
		last.Language != event.Language
}

func newEntry(event VisitEvent, visitedAt time.Time) HistoryEntry {
	return HistoryEntry{
		IP:        event.IP,
		Country:   event.Country,
		UserAgent: event.UserAgent,
		Device:    event.Device,
		Language:  event.Language,
		Time:      visitedAt,
	}
}
