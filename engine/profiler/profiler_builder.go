package profiler

import (
	"time"

	"go.uber.org/zap"
)

// ProfilerOption is a functional option applied to a Profiler during construction via NewProfiler.
type ProfilerOption func(*Profiler)

// WithLogger sets the logger the periodic statistics are written to.
//
// Parameters:
//   - logger: the logger; nil is ignored
//
// Returns:
//   - ProfilerOption: a function that applies the logger option
func WithLogger(logger *zap.Logger) ProfilerOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithUpdateInterval sets how often statistics are reported. Non-positive values are ignored.
//
// Parameters:
//   - d: the reporting interval
//
// Returns:
//   - ProfilerOption: a function that applies the interval option
func WithUpdateInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

