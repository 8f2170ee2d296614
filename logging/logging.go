package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"gridstack/config"
)

// InitLogger configures the global logrus logger.
func InitLogger(cfg config.LoggingConfig) {
	// Set log level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	// Set log format
	switch strings.ToLower(cfg.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	logrus.SetOutput(openOutput(cfg.Output))
	logrus.Debug("Logger initialized successfully")
}

// Silence discards all log output. The terminal UI uses it so log lines do
// not tear the screen.
func Silence() {
	logrus.SetOutput(io.Discard)
}

func openOutput(name string) io.Writer {
	switch strings.ToLower(name) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logrus.Warnf("Failed to open log file '%s', using 'stdout' instead. Error: %v", name, err)
			return os.Stdout
		}
		return file
	}
}
