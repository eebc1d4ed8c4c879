package logger

import (
	"context"
	"log/slog"
	"strings"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a config level string to a zap level, defaulting to info.
func ParseLevel(levelStr string) (zapcore.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return zapcore.DebugLevel, true
	case "INFO", "":
		return zapcore.InfoLevel, true
	case "WARN", "WARNING":
		return zapcore.WarnLevel, true
	case "ERROR":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// New builds a production (JSON) zap logger at the given level. When file is set, output
// goes there in addition to stderr.
func New(levelStr, file string) (*zap.Logger, error) {
	level, ok := ParseLevel(levelStr)

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if !ok {
		z.Warn("Invalid log level string, defaulting to INFO", zap.String("input", levelStr))
	}
	return z, nil
}

// InstallSlog routes the standard slog default logger into z's core.
func InstallSlog(z *zap.Logger) *slog.Logger {
	l := slog.New(zapslog.NewHandler(z.Core(), zapslog.WithName("slog")))
	slog.SetDefault(l)
	return l
}

// NewConsole builds a human-readable logger on stderr for interactive tools.
func NewConsole(levelStr string) (*zap.Logger, error) {
	level, _ := ParseLevel(levelStr)
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// InstallSlogLevel routes the slog default into z, dropping records below level.
func InstallSlogLevel(z *zap.Logger, level slog.Level) *slog.Logger {
	l := slog.New(slogzap.Option{Level: level, Logger: z}.NewZapHandler())
	slog.SetDefault(l)
	return l
}

// SlogLevel converts a zap level to its slog counterpart.
func SlogLevel(l zapcore.Level) slog.Level {
	switch {
	case l <= zapcore.DebugLevel:
		return slog.LevelDebug
	case l == zapcore.InfoLevel:
		return slog.LevelInfo
	case l == zapcore.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Debug logs a message at DebugLevel on the slog default.
func Debug(msg string, args ...any) {
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(msg, args...)
	}
}

// Info logs a message at InfoLevel on the slog default.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a message at WarnLevel on the slog default.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs a message at ErrorLevel on the slog default.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}
