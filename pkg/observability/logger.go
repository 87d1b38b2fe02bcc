// Package observability provides logging helpers, OpenTelemetry metrics
// and tracing for image expression evaluation.
//
// Metrics and tracing use the global OTel providers and have no-op
// implementations for when they are disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger returns logger with the evaluation ID attached.
func EnrichLogger(logger *slog.Logger, evalID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("eval_id", evalID))
}

// LogEvalStart logs the start of an evaluation.
func LogEvalStart(logger *slog.Logger, expression string, bindings int) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation starting",
		slog.String("expression", expression),
		slog.Int("bindings", bindings),
	)
}

// LogEvalComplete logs a successful evaluation.
func LogEvalComplete(logger *slog.Logger, durationMs float64, kernelCalls int64, result string) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation completed",
		slog.Float64("duration_ms", durationMs),
		slog.Int64("kernel_calls", kernelCalls),
		slog.String("result", result),
	)
}

// LogEvalError logs a failed evaluation.
func LogEvalError(logger *slog.Logger, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("evaluation failed",
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogKernel logs a single kernel invocation.
func LogKernel(logger *slog.Logger, kernel string, width, height int) {
	if logger == nil {
		return
	}
	logger.Debug("kernel invoked",
		slog.String("kernel", kernel),
		slog.Int("width", width),
		slog.Int("height", height),
	)
}

// TimedOperation returns a function reporting the milliseconds elapsed
// since TimedOperation was called.
//
//	done := TimedOperation()
//	// ... evaluate ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
