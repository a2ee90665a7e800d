// Package logging builds the application's zap loggers.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogFile is the file sink added in development mode.
const DefaultLogFile = "log.txt"

// Config describes a Logger.
type Config struct {
	AppName string
	Level   string
	DevMode bool
	// LogFile overrides DefaultLogFile in development mode.
	LogFile string
}

// Logger is a zap logger tagged with the application name. Components call
// Named with their own name on the instance they receive.
type Logger struct {
	*zap.Logger
}

// New builds a Logger. Development mode uses zap's console encoder and also
// writes to a log file.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if cfg.DevMode {
		zc = zap.NewDevelopmentConfig()
		file := cfg.LogFile
		if file == "" {
			file = DefaultLogFile
		}
		zc.OutputPaths = append(zc.OutputPaths, file)
	} else {
		zc = zap.NewProductionConfig()
	}

	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.AppName != "" {
		zc.InitialFields = map[string]any{"app": cfg.AppName}
	}

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}

	return &Logger{Logger: l}, nil
}

// Wrap adapts an existing zap logger.
func Wrap(l *zap.Logger) *Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &Logger{Logger: l}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return Wrap(nil)
}

// Named returns a child logger for a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// With returns a child logger with fields attached.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// ParseLevel maps a level name to a zap level. Empty means debug.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToUpper(name) {
	case "", "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO":
		return zapcore.InfoLevel, nil
	case "WARNING", "WARN":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	case "CRITICAL":
		return zapcore.DPanicLevel, nil
	default:
		return zapcore.DebugLevel, fmt.Errorf("logging: unknown level %q", name)
	}
}
