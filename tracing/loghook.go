package tracing

import (
	"go.uber.org/zap"

	"github.com/sarchlab/middlesquare/generator"
	"github.com/sarchlab/middlesquare/hooking"
)

// LogHook is a hook that logs generator diagnostics. Steps and short
// extractions are logged at debug level; the seed collapsing to zero is
// logged once at warn level.
type LogHook struct {
	logger *zap.Logger
}

// NewLogHook creates a LogHook that writes to logger.
func NewLogHook(logger *zap.Logger) *LogHook {
	return &LogHook{logger: logger}
}

// Func logs the hook context.
func (h *LogHook) Func(ctx hooking.HookCtx) {
	step, ok := ctx.Item.(generator.Step)
	if !ok {
		return
	}

	fields := []zap.Field{
		zap.String("generator", ctx.Domain.Name()),
		zap.Int("index", step.Index),
		zap.String("seed", step.Seed.String()),
		zap.String("result", step.Result.String()),
	}

	switch ctx.Pos {
	case generator.HookPosStep:
		h.logger.Debug("step", fields...)
	case generator.HookPosShortExtraction:
		h.logger.Debug("short extraction",
			append(fields,
				zap.String("square", step.SquareDigits),
				zap.Int("offset", step.Offset),
				zap.String("extracted", step.Extracted),
			)...)
	case generator.HookPosZeroLock:
		h.logger.Warn("seed collapsed to zero; remaining steps emit 0",
			fields...)
	}
}
