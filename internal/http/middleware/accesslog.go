package middleware

import (
	"io"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AccessLogConfig controls the rotating access log.
type AccessLogConfig struct {
	Directory  string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

const accessLogFormat = "${time} ${ip} ${method} ${path} ${status} ${latency} ${bytesSent}\n"

// NewAccessLogWriter returns a size-rotated writer for logs/access.log.
func NewAccessLogWriter(cfg AccessLogConfig) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, "access.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// AccessLog writes one line per request to out. The shared secret header is
// never part of the format.
func AccessLog(out io.Writer) fiber.Handler {
	return fiberlogger.New(fiberlogger.Config{
		Format:     accessLogFormat,
		TimeFormat: "2006-01-02T15:04:05Z07:00",
		TimeZone:   "UTC",
		Output:     out,
	})
}
