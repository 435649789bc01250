// Package logging configures the process-wide slog loggers: a
// structured JSON logger on stdout for machine consumption, a
// human-readable text logger on stderr for the console, and rotating
// per-service file loggers.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Aanishnithin07/Project-Aura/internal/conf"
)

var (
	structuredLogger    *slog.Logger
	humanReadableLogger *slog.Logger
)

// Custom levels outside the slog built-ins.
const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// replaceLevelNames renames the custom levels in handler output so the
// level field reads TRACE/FATAL instead of DEBUG-4/ERROR+4.
func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		label, ok := levelNames[level]
		if !ok {
			label = level.String()
		}
		a.Value = slog.StringValue(label)
	}
	return a
}

// Init installs the structured and human-readable loggers and makes
// the structured one the slog default.
func Init() {
	configure(slog.LevelDebug, slog.LevelInfo)
}

// SetLevel rebuilds both loggers with the given minimum level.
func SetLevel(level slog.Level) {
	configure(level, level)
}

func configure(structuredLevel, humanLevel slog.Level) {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       structuredLevel,
		ReplaceAttr: replaceLevelNames,
	}))
	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       humanLevel,
		ReplaceAttr: replaceLevelNames,
	}))
	slog.SetDefault(structuredLogger)
}

// Structured returns the global JSON logger, nil before Init.
func Structured() *slog.Logger {
	return structuredLogger
}

// HumanReadable returns the global text logger, nil before Init.
func HumanReadable() *slog.Logger {
	return humanReadableLogger
}

// ForService returns a child of the structured logger carrying a
// service attribute, nil before Init.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return nil
	}
	return structuredLogger.With("service", serviceName)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Fatal logs at the custom fatal level and exits.
func Fatal(msg string, args ...any) {
	slog.Log(context.TODO(), LevelFatal, msg, args...)
	os.Exit(1)
}

// Trace logs at the custom trace level.
func Trace(msg string, args ...any) {
	slog.Log(context.TODO(), LevelTrace, msg, args...)
}

// NewFileLogger returns a JSON logger writing to filePath with
// lumberjack rotation driven by the main log settings, plus a closer
// for the underlying writer. All records carry the service attribute.
func NewFileLogger(filePath, serviceName string, level slog.Level) (*slog.Logger, func() error, error) {
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	mainLogConf := conf.Setting().Main.Log

	logWriter := &lumberjack.Logger{
		Filename: filePath,
		Compress: false,
	}

	maxSizeMB := 100
	maxBackups := 3
	maxAge := 28 // days

	if configMaxSizeMB := int(mainLogConf.MaxSize / (1024 * 1024)); configMaxSizeMB > 0 {
		maxSizeMB = configMaxSizeMB
	}

	switch mainLogConf.Rotation {
	case conf.RotationDaily:
		maxAge = 1
		maxBackups = 30
	case conf.RotationWeekly:
		maxAge = 7
		maxBackups = 4
	case conf.RotationSize:
		// size-based rotation keeps the defaults above
	default:
		slog.Warn("unknown log rotation type in config, using size-based defaults",
			"configured_type", mainLogConf.Rotation)
	}

	logWriter.MaxSize = maxSizeMB
	logWriter.MaxBackups = maxBackups
	logWriter.MaxAge = maxAge

	fileHandler := slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})

	logger := slog.New(fileHandler).With("service", serviceName)
	return logger, logWriter.Close, nil
}
