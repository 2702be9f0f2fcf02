// Package logger builds the zap logger used across the repository layer.
package logger

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/huynhanx03/go-repository/pkg/settings"
)

// New builds a production logger from settings. With FileLogName set, output
// is rotated with lumberjack; otherwise it goes to stderr.
func New(cfg *settings.Logger) *zap.Logger {
	level := zapcore.InfoLevel
	if cfg != nil && cfg.LogLevel != "" {
		if parsed, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var sink zapcore.WriteSyncer
	if cfg != nil && cfg.FileLogName != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FileLogName,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	} else {
		sink = zapcore.AddSync(os.Stderr)
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddCaller())
}
