package simulation

import (
	"errors"
	"fmt"
)

// MaxDispatchDimension is the WebGPU default limit on workgroups per dispatch dimension.
const MaxDispatchDimension = 65535

var (
	// ErrUnderCoverage is returned when a dispatch shape launches fewer invocations than there are points.
	ErrUnderCoverage = errors.New("dispatch does not cover every point")

	// ErrInvalidDispatch is returned for zero or oversized dispatch dimensions and workgroup sizes.
	ErrInvalidDispatch = errors.New("invalid dispatch")
)

// PlanDispatch picks a workgroup count covering n invocations. Counts that fit in one
// dimension use x only; larger counts spill into y, which the shader linearizes as
// (wg_id.x + wg_id.y·wg_count.x)·workgroupSize + local.
//
// Parameters:
//   - n: the number of points to cover
//   - workgroupSize: the number of invocations per workgroup
//
// Returns:
//   - [3]uint32: the workgroup counts in x, y and z
//   - error: an error wrapping ErrInvalidDispatch when n or workgroupSize is zero, or n is too large
func PlanDispatch(n int, workgroupSize uint32) ([3]uint32, error) {
	if n <= 0 || workgroupSize == 0 {
		return [3]uint32{}, fmt.Errorf("%w: n=%d workgroup size=%d", ErrInvalidDispatch, n, workgroupSize)
	}

	groups := (uint64(n) + uint64(workgroupSize) - 1) / uint64(workgroupSize)
	if groups <= MaxDispatchDimension {
		return [3]uint32{uint32(groups), 1, 1}, nil
	}

	y := (groups + MaxDispatchDimension - 1) / MaxDispatchDimension
	if y > MaxDispatchDimension {
		return [3]uint32{}, fmt.Errorf("%w: %d points exceed the dispatch limit", ErrInvalidDispatch, n)
	}
	return [3]uint32{MaxDispatchDimension, uint32(y), 1}, nil
}

// ValidateDispatch checks that shape launches at least n invocations and respects the per-dimension limit.
//
// Parameters:
//   - shape: the workgroup counts in x, y and z
//   - workgroupSize: the number of invocations per workgroup
//   - n: the number of points the dispatch must cover
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalidDispatch or ErrUnderCoverage
func ValidateDispatch(shape [3]uint32, workgroupSize uint32, n int) error {
	if workgroupSize == 0 {
		return fmt.Errorf("%w: zero workgroup size", ErrInvalidDispatch)
	}
	for i, d := range shape {
		if d == 0 || d > MaxDispatchDimension {
			return fmt.Errorf("%w: dimension %d is %d", ErrInvalidDispatch, i, d)
		}
	}

	invocations := uint64(shape[0]) * uint64(shape[1]) * uint64(shape[2]) * uint64(workgroupSize)
	if invocations < uint64(n) {
		return fmt.Errorf("%w: %d invocations for %d points", ErrUnderCoverage, invocations, n)
	}
	return nil
}
