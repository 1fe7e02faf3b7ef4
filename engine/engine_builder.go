package engine

import (
	"github.com/Carmen-Shannon/oxy-lorenz/engine/camera"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/profiler"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/window"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets the window whose message loop drives the engine.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer that owns the frame lifecycle.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r FrameRenderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithCamera sets the camera steered by keyboard and mouse input.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithStepper sets the simulation stepper.
//
// Parameters:
//   - s: the stepper
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStepper(s Stepper) EngineBuilderOption {
	return func(e *engine) {
		e.stepper = s
	}
}

// WithDrawer sets the stage that encodes the frame's draw calls.
//
// Parameters:
//   - d: the drawer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDrawer(d Drawer) EngineBuilderOption {
	return func(e *engine) {
		e.drawer = d
	}
}

// WithProfiler enables per-frame profiling with the given profiler.
//
// Parameters:
//   - p: the profiler; nil disables profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithLogger sets the engine logger. Lifecycle events log at Info, per-frame events at Debug.
//
// Parameters:
//   - logger: the logger; nil is ignored
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPaused sets whether the engine starts paused (default true).
func WithPaused(paused bool) EngineBuilderOption {
	return func(e *engine) {
		e.paused = paused
	}
}

// WithFixedStep makes every running step use dt instead of the measured frame time.
// Pass 0 to use the frame time (default).
//
// Parameters:
//   - dt: the fixed step in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFixedStep(dt float32) EngineBuilderOption {
	return func(e *engine) {
		if dt >= 0 {
			e.fixedStep = dt
		}
	}
}

// WithMaxStep caps the measured frame time used as the step size. Non-positive values are ignored.
//
// Parameters:
//   - dt: the maximum step in seconds (default 0.05)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxStep(dt float32) EngineBuilderOption {
	return func(e *engine) {
		if dt > 0 {
			e.maxStep = dt
		}
	}
}

// WithSingleStep sets the step size of a manual step while paused. Non-positive values are ignored.
//
// Parameters:
//   - dt: the single step in seconds (default 0.01)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSingleStep(dt float32) EngineBuilderOption {
	return func(e *engine) {
		if dt > 0 {
			e.singleStep = dt
		}
	}
}
