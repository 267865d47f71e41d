// Package content stores the portfolio's content sections. Each section is a
// single JSON object whose shape is owned by the admin UI and the public site.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/karloscodes/cartridge/cache"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Section names
const (
	SectionHero      = "hero"
	SectionAbout     = "about"
	SectionSkills    = "skills"
	SectionEducation = "education"
	SectionServices  = "services"
	SectionProjects  = "projects"
	SectionContact   = "contact"
	SectionFiles     = "files"
)

// Sections lists every known section in display order.
var Sections = []string{
	SectionHero,
	SectionAbout,
	SectionSkills,
	SectionEducation,
	SectionServices,
	SectionProjects,
	SectionContact,
	SectionFiles,
}

const emptyObject = "{}"

var (
	// ErrUnknownSection is returned for section names outside Sections.
	ErrUnknownSection = errors.New("unknown content section")

	// ErrInvalidContent is returned when a section payload is not a JSON object.
	ErrInvalidContent = errors.New("content must be a JSON object")
)

// Section is one stored content section.
type Section struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Data      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:milli"`
}

var sectionCache *cache.Cache[string, string]

// IsKnownSection reports whether name is a valid section.
func IsKnownSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

// LoadCache initializes the read-through section cache.
func LoadCache(dbConn *gorm.DB, logger *slog.Logger) {
	fetchFunc := func(name string) (string, error) {
		return readSection(dbConn, name)
	}
	sectionCache = cache.NewCache[string, string](logger, 5*time.Minute, fetchFunc)
}

// DisableCache makes reads go straight to the database.
func DisableCache() {
	sectionCache = nil
}

// ClearCache drops every cached section.
func ClearCache() {
	if sectionCache != nil {
		sectionCache.Clear()
	}
}

func readSection(dbConn *gorm.DB, name string) (string, error) {
	var data string
	err := dbConn.WithContext(context.Background()).
		Raw("SELECT data FROM sections WHERE name = ? LIMIT 1", name).
		Scan(&data).Error
	if err != nil {
		return "", err
	}
	if data == "" {
		return emptyObject, nil
	}
	return data, nil
}

// GetSection returns a section's JSON. Sections never saved read as "{}".
func GetSection(dbConn *gorm.DB, name string) (json.RawMessage, error) {
	if !IsKnownSection(name) {
		return nil, ErrUnknownSection
	}

	var (
		data string
		err  error
	)
	if sectionCache != nil {
		data, err = sectionCache.Get(name)
	} else {
		data, err = readSection(dbConn, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read section %s: %w", name, err)
	}
	return json.RawMessage(data), nil
}

// GetAllSections returns every section keyed by name.
func GetAllSections(dbConn *gorm.DB) (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage, len(Sections))
	for _, name := range Sections {
		data, err := GetSection(dbConn, name)
		if err != nil {
			return nil, err
		}
		result[name] = data
	}
	return result, nil
}

// SaveSection replaces a section's JSON object.
func SaveSection(dbConn *gorm.DB, logger *slog.Logger, name string, data []byte) error {
	if !IsKnownSection(name) {
		return ErrUnknownSection
	}

	compact, err := normalizeObject(data)
	if err != nil {
		return err
	}

	err = sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		now := time.Now().UTC()
		return tx.Exec(`
			INSERT INTO sections (name, data, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
		`, name, compact, now, now).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save section %s: %w", name, err)
	}

	ClearCache()
	return nil
}

// normalizeObject checks that data is a JSON object and returns it compacted.
func normalizeObject(data []byte) (string, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return "", ErrInvalidContent
	}
	compact, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("failed to encode section: %w", err)
	}
	return string(compact), nil
}
