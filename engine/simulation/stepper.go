// Package simulation advances every point of the shared point buffer by one explicit Euler
// step of the Lorenz system, either in a compute shader or on a host worker pool.
package simulation

import (
	"errors"
	"math"
)

// ErrReleased is returned by Step after Release.
var ErrReleased = errors.New("simulation stage released")

// Stepper advances the whole ensemble by one time step.
type Stepper interface {
	// Step integrates every point once with step size dt. A dt that is not a finite positive
	// number is a no-op.
	//
	// Parameters:
	//   - dt: the step size
	//
	// Returns:
	//   - error: an error if the step could not be submitted
	Step(dt float32) error

	// Count returns the number of points the stepper advances.
	//
	// Returns:
	//   - int: the point count
	Count() int

	// Release frees the stage's resources. The shared point buffer is left alive.
	// Step returns ErrReleased afterwards.
	Release()
}

// steppable reports whether dt describes a step that should run.
func steppable(dt float32) bool {
	f := float64(dt)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
