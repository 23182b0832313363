package cli

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"profman/internal/config"
)

// newLogger builds a zap logger from the log section of the config.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Log.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}
