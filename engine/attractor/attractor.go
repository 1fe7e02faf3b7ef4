// Package attractor holds the Lorenz system parameters and the host-side reference
// integrator. The GPU compute shader in engine/simulation implements the same step;
// Integrate is used by the host stepper and by tests to cross-check it.
package attractor

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
)

// ErrInvalidParameters is returned by Validate when a parameter is NaN or infinite.
var ErrInvalidParameters = errors.New("invalid attractor parameters")

// Parameters are the three constants of the Lorenz system. They are fixed for a run.
type Parameters struct {
	Sigma float32 `yaml:"sigma"`
	Rho   float32 `yaml:"rho"`
	Beta  float32 `yaml:"beta"`
}

// Default returns the classic chaotic parameter set σ=10, ρ=28, β=8/3.
//
// Returns:
//   - Parameters: the default parameters
func Default() Parameters {
	return Parameters{Sigma: 10, Rho: 28, Beta: 8.0 / 3.0}
}

// Validate reports an error wrapping ErrInvalidParameters when any parameter is not finite.
//
// Returns:
//   - error: nil when all three parameters are finite
func (p Parameters) Validate() error {
	names := [3]string{"sigma", "rho", "beta"}
	for i, v := range [3]float32{p.Sigma, p.Rho, p.Beta} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidParameters, names[i], v)
		}
	}
	return nil
}

// Derivative evaluates the Lorenz vector field at s.
//
//	dx = σ(y − x)
//	dy = x(ρ − z) − y
//	dz = xy − βz
//
// Parameters:
//   - p: the system parameters
//   - s: the state to evaluate at
//
// Returns:
//   - common.Vec3: the time derivative at s
func Derivative(p Parameters, s common.Vec3) common.Vec3 {
	x, y, z := s[0], s[1], s[2]
	return common.Vec3{
		p.Sigma * (y - x),
		x*(p.Rho-z) - y,
		x*y - p.Beta*z,
	}
}

// Integrate advances s by one explicit Euler step of size dt. There is no stability guard;
// a diverging trajectory produces NaN or Inf and keeps it.
//
// Parameters:
//   - p: the system parameters
//   - s: the current state
//   - dt: the step size
//
// Returns:
//   - common.Vec3: s + dt·Derivative(p, s)
func Integrate(p Parameters, s common.Vec3, dt float32) common.Vec3 {
	return common.Add3(s, common.Scale3(Derivative(p, s), dt))
}
