// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

const defaultPrivateKey = "88888888888888888888888888888888"

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName                    string   `mapstructure:"appname"`
	AppPort                    string   `mapstructure:"appport"`
	Environment                string   `mapstructure:"environment"`
	LogLevel                   LogLevel `mapstructure:"loglevel"`
	PrivateKey                 string   `mapstructure:"privatekey"`
	APISecret                  string   `mapstructure:"apisecret"`
	LoginSessionTimeoutSeconds int      `mapstructure:"loginsessiontimeoutseconds"`
	AdminEmail                 string   `mapstructure:"adminemail"`
	AllowedOrigins             string   `mapstructure:"allowedorigins"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	GeoDBPath             string `mapstructure:"geodbpath"`
	UploadsDirectory      string `mapstructure:"uploadsdir"`
	UploadsURLPrefix      string `mapstructure:"uploadsurlprefix"`
	MaxUploadSizeMB       int    `mapstructure:"maxuploadsizemb"`
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`
	AccessLog        bool   `mapstructure:"accesslog"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Visitor listing
	VisitorPageSize    int `mapstructure:"visitorpagesize"`
	VisitorMaxPageSize int `mapstructure:"visitormaxpagesize"`

	// Job scheduling settings
	UploadSweepIntervalMinutes int `mapstructure:"uploadsweepintervalminutes"`
	UploadSweepGraceMinutes    int `mapstructure:"uploadsweepgraceminutes"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		// A missing .env is normal outside local development.
		_ = godotenv.Load()

		v := viper.New()

		v.SetDefault("appname", "portfolio")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", defaultPrivateKey)
		v.SetDefault("apisecret", "")
		v.SetDefault("loginsessiontimeoutseconds", 604800) // 1 week
		v.SetDefault("adminemail", "admin@localhost")
		v.SetDefault("allowedorigins", "*")
		v.SetDefault("storagepath", "storage")
		v.SetDefault("geodbpath", "storage/GeoLite2-City.mmdb")
		v.SetDefault("uploadsdir", "storage/uploads")
		v.SetDefault("uploadsurlprefix", "/uploads")
		v.SetDefault("maxuploadsizemb", 4) // fiber default body limit
		v.SetDefault("publicdir", "storage/public")
		v.SetDefault("publicassetsurlprefix", "/assets")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("accesslog", false)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("visitorpagesize", 100)
		v.SetDefault("visitormaxpagesize", 500)
		v.SetDefault("uploadsweepintervalminutes", 360)
		v.SetDefault("uploadsweepgraceminutes", 60)

		v.BindEnv("appname", "PORTFOLIO_APP_NAME")
		v.BindEnv("appport", "PORTFOLIO_APP_PORT")
		v.BindEnv("environment", "PORTFOLIO_ENV")
		v.BindEnv("loglevel", "PORTFOLIO_LOG_LEVEL")
		v.BindEnv("privatekey", "PORTFOLIO_PRIVATE_KEY")
		v.BindEnv("apisecret", "PORTFOLIO_API_SECRET")
		v.BindEnv("loginsessiontimeoutseconds", "PORTFOLIO_LOGIN_SESSION_TIMEOUT_SECONDS")
		v.BindEnv("adminemail", "PORTFOLIO_ADMIN_EMAIL")
		v.BindEnv("allowedorigins", "PORTFOLIO_ALLOWED_ORIGINS")
		v.BindEnv("storagepath", "PORTFOLIO_STORAGE_PATH")
		v.BindEnv("geodbpath", "PORTFOLIO_GEO_DB_PATH")
		v.BindEnv("uploadsdir", "PORTFOLIO_UPLOADS_DIR")
		v.BindEnv("uploadsurlprefix", "PORTFOLIO_UPLOADS_URL_PREFIX")
		v.BindEnv("maxuploadsizemb", "PORTFOLIO_MAX_UPLOAD_SIZE_MB")
		v.BindEnv("publicdir", "PORTFOLIO_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "PORTFOLIO_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "PORTFOLIO_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "PORTFOLIO_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "PORTFOLIO_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "PORTFOLIO_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("accesslog", "PORTFOLIO_ACCESS_LOG")
		v.BindEnv("dbtype", "PORTFOLIO_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "PORTFOLIO_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "PORTFOLIO_DB_MAX_IDLE_CONNS")
		v.BindEnv("visitorpagesize", "PORTFOLIO_VISITOR_PAGE_SIZE")
		v.BindEnv("visitormaxpagesize", "PORTFOLIO_VISITOR_MAX_PAGE_SIZE")
		v.BindEnv("uploadsweepintervalminutes", "PORTFOLIO_UPLOAD_SWEEP_INTERVAL_MINUTES")
		v.BindEnv("uploadsweepgraceminutes", "PORTFOLIO_UPLOAD_SWEEP_GRACE_MINUTES")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required")
	}

	if c.IsProduction() {
		if c.PrivateKey == defaultPrivateKey {
			return fmt.Errorf("production requires a unique PORTFOLIO_PRIVATE_KEY (cannot use default)")
		}
		if c.APISecret == "" {
			return fmt.Errorf("production requires PORTFOLIO_API_SECRET")
		}
	}

	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d", c.MaxUploadSizeMB)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetLoginSessionTimeout returns the admin login cookie lifetime in seconds.
func (c *Config) GetLoginSessionTimeout() int {
	return c.LoginSessionTimeoutSeconds
}

// GetMaxUploadSizeBytes returns the upload size cap in bytes.
func (c *Config) GetMaxUploadSizeBytes() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

// VisitorPageLimit clamps a requested visitor page size to the configured bounds.
// Zero or negative requests fall back to the default page size.
func (c *Config) VisitorPageLimit(requested int) int {
	if requested <= 0 {
		return c.VisitorPageSize
	}
	if c.VisitorMaxPageSize > 0 && requested > c.VisitorMaxPageSize {
		return c.VisitorMaxPageSize
	}
	return requested
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
