// Package geoip resolves visitor IP addresses to ISO country codes using an
// optional GeoLite2 database.
package geoip

import (
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"portfolio/internal/config"
)

var (
	geoDB  *geoip2.Reader
	once   sync.Once
	mu     sync.RWMutex
	logger *slog.Logger
)

// InitLogger sets the logger for the geoip package.
func InitLogger(l *slog.Logger) {
	logger = l
}

// Open opens the GeoLite2 database at path.
// Returns nil if the path is empty or the file is missing (GeoIP is optional).
func Open(path string) *geoip2.Reader {
	if path == "" {
		if logger != nil {
			logger.Debug("GeoIP database path not configured - country lookup disabled")
		}
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if logger != nil {
			if os.IsNotExist(err) {
				logger.Info("GeoLite2 database not found - country lookup disabled",
					slog.String("path", path))
			} else {
				logger.Warn("Error checking GeoLite2 database file",
					slog.String("path", path),
					slog.Any("error", err))
			}
		}
		return nil
	}

	db, err := geoip2.Open(path)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to open GeoLite2 database",
				slog.String("path", path),
				slog.Any("error", err))
		}
		return nil
	}

	if logger != nil {
		logger.Info("GeoLite2 database initialized", slog.String("path", path))
	}
	return db
}

// GetGeoDB returns the configured reader, opening it on first use.
func GetGeoDB() *geoip2.Reader {
	once.Do(func() {
		mu.Lock()
		geoDB = Open(config.GetConfig().GeoDBPath)
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return geoDB
}

// ReloadGeoDB reopens the database from disk after it was replaced.
func ReloadGeoDB() {
	mu.Lock()
	defer mu.Unlock()

	if geoDB != nil {
		geoDB.Close()
	}
	geoDB = Open(config.GetConfig().GeoDBPath)
}

// CountryForIP returns the ISO country code for ip, or "" when unknown.
func CountryForIP(ip string) string {
	return lookupCountry(GetGeoDB(), ip)
}

func lookupCountry(db *geoip2.Reader, ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if db == nil || parsed == nil {
		return ""
	}

	record, err := db.Country(parsed)
	if err != nil {
		if logger != nil {
			logger.Debug("GeoIP lookup failed", slog.String("ip", ip), slog.Any("error", err))
		}
		return ""
	}
	return record.Country.IsoCode
}
