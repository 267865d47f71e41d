// Package seeder fills an empty database with default content and, for local
// development, synthetic visitors.
package seeder

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/goccy/go-json"
	"github.com/karloscodes/cartridge"
	"gopkg.in/yaml.v3"

	"portfolio/internal/content"
	"portfolio/internal/visitors"
)

//go:embed defaults.yml
var defaultsYAML []byte

// Seeder handles the data seeding process.
type Seeder struct {
	DBManager    cartridge.DBManager
	Logger       *slog.Logger
	VisitorCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, visitorCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:    dbManager,
		Logger:       logger,
		VisitorCount: visitorCount,
	}
}

// LoadDefaults parses the embedded default content, keyed by section.
func LoadDefaults() (map[string]map[string]interface{}, error) {
	var defaults map[string]map[string]interface{}
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		return nil, fmt.Errorf("failed to parse default content: %w", err)
	}
	for name := range defaults {
		if !content.IsKnownSection(name) {
			return nil, fmt.Errorf("default content has unknown section %q", name)
		}
	}
	return defaults, nil
}

// SeedContent stores the default of every section that was never saved.
// Existing sections are left untouched. Returns the names it created.
func (s *Seeder) SeedContent(ctx context.Context) ([]string, error) {
	defaults, err := LoadDefaults()
	if err != nil {
		return nil, err
	}

	db := s.DBManager.GetConnection()
	var created []string
	for _, name := range content.Sections {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		var existing int64
		if err := db.Model(&content.Section{}).Where("name = ?", name).Count(&existing).Error; err != nil {
			return created, fmt.Errorf("failed to check section %s: %w", name, err)
		}
		if existing > 0 {
			continue
		}

		data := defaults[name]
		if data == nil {
			data = map[string]interface{}{}
		}
		payload, err := json.Marshal(data)
		if err != nil {
			return created, fmt.Errorf("failed to encode section %s: %w", name, err)
		}
		if err := content.SaveSection(db, s.Logger, name, payload); err != nil {
			return created, err
		}
		created = append(created, name)
	}

	s.Logger.Info("Seeded default content", slog.Int("sections", len(created)))
	return created, nil
}

var seedUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148",
	"Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Tablet/15E148",
}

var (
	seedCountries = []string{"FR", "MA", "DZ", "TN", "US", "CA", "BE", ""}
	seedLanguages = []string{"fr-FR", "en-US", "ar-MA"}
	seedDevices   = []string{"desktop", "mobile", "tablet"}
)

// SeedVisitors records VisitorCount synthetic visits through the resolver.
func (s *Seeder) SeedVisitors(ctx context.Context) error {
	start := time.Now()
	for i := 0; i < s.VisitorCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		event := visitors.VisitEvent{
			Fingerprint: fmt.Sprintf("seed-%08x", rand.Uint32()),
			IP:          fmt.Sprintf("%d.%d.%d.%d", rand.IntN(223)+1, rand.IntN(256), rand.IntN(256), rand.IntN(254)+1),
			UserAgent:   seedUserAgents[rand.IntN(len(seedUserAgents))],
			Country:     seedCountries[rand.IntN(len(seedCountries))],
			Device:      seedDevices[rand.IntN(len(seedDevices))],
			Language:    seedLanguages[rand.IntN(len(seedLanguages))],
		}
		if _, err := visitors.RecordVisit(s.DBManager, s.Logger, event); err != nil {
			return fmt.Errorf("failed to seed visit %d: %w", i, err)
		}
	}

	s.Logger.Info("Seeded visitors",
		slog.Int("events", s.VisitorCount),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
