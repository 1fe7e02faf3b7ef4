package simulation

import (
	"runtime"

	"go.uber.org/zap"
)

// stageOptions holds the settings shared by both Stepper implementations.
type stageOptions struct {
	logger  *zap.Logger
	workers int
	label   string
}

// StageOption is a functional option applied to a Stepper during construction.
type StageOption func(*stageOptions)

func defaultStageOptions() stageOptions {
	return stageOptions{
		logger:  zap.NewNop(),
		workers: max(runtime.NumCPU()-1, 1),
		label:   "simulation",
	}
}

// WithLogger sets the logger used for per-step debug output.
//
// Parameters:
//   - logger: the logger; nil is ignored
//
// Returns:
//   - StageOption: a function that applies the logger option
func WithLogger(logger *zap.Logger) StageOption {
	return func(o *stageOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkers sets the worker count of the host stepper pool. Values below 1 are ignored.
//
// Parameters:
//   - n: the number of workers
//
// Returns:
//   - StageOption: a function that applies the workers option
func WithWorkers(n int) StageOption {
	return func(o *stageOptions) {
		if n >= 1 {
			o.workers = n
		}
	}
}

// WithLabel sets the label used for GPU resources and log fields.
func WithLabel(label string) StageOption {
	return func(o *stageOptions) {
		if label != "" {
			o.label = label
		}
	}
}
