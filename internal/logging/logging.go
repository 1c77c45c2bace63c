// Package logging builds the zap logger shared by the CLI and the server.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benedoc-inc/overlap/types"
)

// New builds a logger writing to stderr. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInvalidConfiguration, "invalid log level", err).
			WithContext("level", level)
	}

	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, types.NewErrorf(types.ErrCodeInvalidConfiguration, "unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInvalidConfiguration, "failed to build logger", err)
	}
	return logger, nil
}

// Warnings logs collected warnings at a level matching theirs
func Warnings(logger *zap.Logger, warnings []*types.Warning) {
	for _, w := range warnings {
		fields := []zap.Field{zap.String("code", w.Code)}
		for k, v := range w.Context {
			fields = append(fields, zap.Any(k, v))
		}
		switch w.Level {
		case types.WarningLevelInfo:
			logger.Info(w.Message, fields...)
		case types.WarningLevelError:
			logger.Error(w.Message, fields...)
		default:
			logger.Warn(w.Message, fields...)
		}
	}
}
