package simulation

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/attractor"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/points"
	"go.uber.org/zap"
)

// hostStage integrates a host copy of the ensemble on a worker pool and uploads it after every step.
type hostStage struct {
	buf       points.Buffer
	logger    *zap.Logger
	params    attractor.Parameters
	positions []common.Vec3
	workers   int
	pool      worker.DynamicWorkerPool
	released  bool
}

var _ Stepper = &hostStage{}

// NewHostStage creates a Stepper that runs the Euler step on the CPU. seeds must be the
// positions the buffer was created from, since the GPU copy is never read back.
//
// Parameters:
//   - buf: the shared point buffer that receives each step's result
//   - seeds: the initial positions, one per buffer record
//   - params: the attractor parameters, fixed for the stage lifetime
//   - opts: optional StageOption functions
//
// Returns:
//   - Stepper: the host stepper
//   - error: an error if the parameters are invalid or seeds does not match the buffer
func NewHostStage(buf points.Buffer, seeds []common.Vec3, params attractor.Parameters, opts ...StageOption) (Stepper, error) {
	o := defaultStageOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(seeds) != buf.Count() {
		return nil, fmt.Errorf("%w: %d seeds for %d records", points.ErrCountMismatch, len(seeds), buf.Count())
	}

	positions := make([]common.Vec3, len(seeds))
	copy(positions, seeds)

	o.logger.Info("host simulation stage ready",
		zap.Int("points", len(positions)),
		zap.Int("workers", o.workers),
	)

	return &hostStage{
		buf:       buf,
		logger:    o.logger,
		params:    params,
		positions: positions,
		workers:   o.workers,
		// Queue size of 256 comfortably holds one chunk per worker.
		pool: worker.NewDynamicWorkerPool(o.workers, 256, 1*time.Second),
	}, nil
}

func (h *hostStage) Count() int {
	return len(h.positions)
}

func (h *hostStage) Release() {
	if h.released {
		return
	}
	h.released = true
	h.pool.Stop()
	h.logger.Debug("host simulation stage released")
}

func (h *hostStage) Step(dt float32) error {
	if h.released {
		return ErrReleased
	}
	if !steppable(dt) {
		return nil
	}

	// The pool has no per-batch join, so a WaitGroup is the per-step barrier.
	var wg sync.WaitGroup
	for id, r := range chunks(len(h.positions), h.workers) {
		wg.Add(1)
		start, end := r[0], r[1]
		h.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < end; i++ {
					h.positions[i] = attractor.Integrate(h.params, h.positions[i], dt)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if err := h.buf.Upload(h.positions); err != nil {
		return fmt.Errorf("upload host step: %w", err)
	}
	h.logger.Debug("host simulation step", zap.Float32("dt", dt))
	return nil
}

// chunks splits [0, n) into at most parts contiguous half-open ranges of near-equal size.
func chunks(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	parts = max(min(parts, n), 1)
	size := (n + parts - 1) / parts
	out := make([][2]int, 0, parts)
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}
