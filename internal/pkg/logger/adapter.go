package logger

import (
	"treasury_dashboard/internal/app/port"

	"go.uber.org/zap"
)

// zapAdapter implements port.Logger over a sugared zap logger, so components that take the
// narrow interface share the process logger.
type zapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter wraps z. A nil z yields a no-op logger.
func NewZapAdapter(z *zap.Logger) port.Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &zapAdapter{sugar: z.Sugar()}
}

// Info logs at info level.
func (a *zapAdapter) Info(msg string, args ...any) {
	a.sugar.Infow(msg, args...)
}

// Debug logs at debug level.
func (a *zapAdapter) Debug(msg string, args ...any) {
	a.sugar.Debugw(msg, args...)
}

// Warn logs at warn level.
func (a *zapAdapter) Warn(msg string, args ...any) {
	a.sugar.Warnw(msg, args...)
}

// Error logs at error level.
func (a *zapAdapter) Error(msg string, args ...any) {
	a.sugar.Errorw(msg, args...)
}
