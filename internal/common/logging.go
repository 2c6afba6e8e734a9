// Package common provides shared utilities for Alin
package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const (
	logMaxSize    = 100 * 1024 * 1024
	logMaxBackups = 3
)

// Logger wraps arbor.ILogger to provide a consistent interface
type Logger struct {
	arbor.ILogger
}

// NewLogger creates a console logger with the specified level
func NewLogger(level string) *Logger {
	logger := arbor.NewLogger().WithConsoleWriter(consoleWriter())
	return &Logger{ILogger: logger.WithLevelFromString(normalizeLevel(level))}
}

// NewLoggerFromConfig builds a logger with the writers named in cfg.Outputs.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	if cfg.Level == "disabled" {
		return NewSilentLogger()
	}

	logger := arbor.NewLogger()

	for _, output := range cfg.Outputs {
		switch output {
		case "console", "stdout":
			logger = logger.WithConsoleWriter(consoleWriter())
		case "file":
			path := cfg.FilePath
			if path == "" {
				path = "./logs/alin.log"
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to create log directory: %v\n", err)
				continue
			}
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   path,
				TimeFormat: "15:04:05",
				MaxSize:    logMaxSize,
				MaxBackups: logMaxBackups,
				TextOutput: true,
			})
		}
	}

	return &Logger{ILogger: logger.WithLevelFromString(normalizeLevel(cfg.Level))}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger without writers. Used by tests.
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewLogger().WithLevelFromString("error")}
}

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
		TextOutput: true,
	}
}

func normalizeLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	default:
		return "info"
	}
}
