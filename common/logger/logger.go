package logger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// ErrUnknownLevel is returned for a level name other than debug, info, warn or error.
	ErrUnknownLevel = errors.New("unknown log level")

	// ErrUnknownEncoding is returned for an encoding other than json or console.
	ErrUnknownEncoding = errors.New("unknown log encoding")
)

// Config holds configuration for the logger.
type Config struct {
	Environment string
	LogLevel    string
	ServiceName string

	// Encoding is either "json" or "console". Empty defaults to "console".
	Encoding string
}

// New creates a new logger with the given configuration.
//
// Parameters:
//   - cfg: the logger configuration
//
// Returns:
//   - *zap.Logger: the configured logger with service and environment fields attached
//   - error: an error if the encoding is unknown or the logger fails to build
func New(cfg Config) (*zap.Logger, error) {
	cfg.Environment = common.Coalesce(cfg.Environment, "development")
	cfg.LogLevel = common.Coalesce(cfg.LogLevel, "info")
	cfg.Encoding = common.Coalesce(cfg.Encoding, "console")
	if err := ValidateEncoding(cfg.Encoding); err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.Encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:            Level(cfg.LogLevel),
		Development:      cfg.Environment == "development",
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.With(
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
	), nil
}

// ParseLevel converts a level name to a zapcore.Level. An empty name is info.
//
// Parameters:
//   - level: one of debug, info, warn, error (case-insensitive)
//
// Returns:
//   - zapcore.Level: the matching level
//   - error: an error wrapping ErrUnknownLevel for any other name
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w %q", ErrUnknownLevel, level)
	}
}

// ValidateEncoding reports an error wrapping ErrUnknownEncoding unless encoding is json,
// console or empty.
func ValidateEncoding(encoding string) error {
	switch encoding {
	case "", "json", "console":
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownEncoding, encoding)
	}
}

// Level converts a string log level to a zap.AtomicLevel. Unknown levels map to info.
//
// Parameters:
//   - level: one of debug, info, warn, error (case-insensitive)
//
// Returns:
//   - zap.AtomicLevel: the matching atomic level
func Level(level string) zap.AtomicLevel {
	l, _ := ParseLevel(level)
	return zap.NewAtomicLevelAt(l)
}
