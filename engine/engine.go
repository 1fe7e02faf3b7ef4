package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/camera"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/profiler"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/window"
	"go.uber.org/zap"
)

// ErrMissingComponent is returned by NewEngine when a required component option was not supplied.
var ErrMissingComponent = errors.New("missing engine component")

// Stepper advances the simulation by one step. simulation.Stepper implements it.
type Stepper interface {
	Step(dt float32) error
}

// Drawer encodes the frame's draw calls. render.Stage implements it.
type Drawer interface {
	Draw() error
}

// FrameRenderer is the part of the renderer the engine drives once per frame.
type FrameRenderer interface {
	BeginFrame() error
	EndFrame() error
	Present()
	Resize(width, height int) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
}

// engine implements the Engine interface.
// All state is touched from the window's message loop goroutine only.
type engine struct {
	window   window.Window
	renderer FrameRenderer
	camera   camera.Camera
	stepper  Stepper
	drawer   Drawer
	profiler *profiler.Profiler
	logger   *zap.Logger
	now      func() time.Time

	paused        bool
	stepRequested bool
	captured      bool
	held          map[uint32]bool

	haveMouse bool
	lastX     float64
	lastY     float64

	fixedStep  float32
	maxStep    float32
	singleStep float32
	lastFrame  time.Time
}

// Engine is the frame orchestrator.
// Each window message loop iteration it steps the simulation, updates the camera and draws one frame.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Camera returns the camera the engine drives.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Paused reports whether continuous stepping is paused.
	//
	// Returns:
	//   - bool: true while paused
	Paused() bool

	// SetPaused pauses or resumes continuous stepping.
	//
	// Parameters:
	//   - paused: true to pause
	SetPaused(paused bool)

	// RequestStep asks for exactly one simulation step on the next frame. Ignored unless paused.
	RequestStep()

	// CursorCaptured reports whether mouse motion currently steers the camera.
	//
	// Returns:
	//   - bool: true while the cursor is captured
	CursorCaptured() bool

	// SetCursorCaptured grabs or releases the cursor.
	//
	// Parameters:
	//   - captured: true to capture
	SetCursorCaptured(captured bool)

	// Run starts the main loop and blocks until the window closes.
	Run()

	// Quit asks the main loop to stop after the current frame.
	Quit()
}

// NewEngine creates a new Engine from the provided components and wires the window callbacks.
// The window, renderer, camera, stepper and drawer options are required.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error wrapping ErrMissingComponent if a required component is absent
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		logger:     zap.NewNop(),
		now:        time.Now,
		paused:     true,
		held:       make(map[uint32]bool),
		maxStep:    0.05,
		singleStep: 0.01,
	}

	for _, opt := range options {
		opt(e)
	}

	switch {
	case e.window == nil:
		return nil, fmt.Errorf("%w: window", ErrMissingComponent)
	case e.renderer == nil:
		return nil, fmt.Errorf("%w: renderer", ErrMissingComponent)
	case e.camera == nil:
		return nil, fmt.Errorf("%w: camera", ErrMissingComponent)
	case e.stepper == nil:
		return nil, fmt.Errorf("%w: stepper", ErrMissingComponent)
	case e.drawer == nil:
		return nil, fmt.Errorf("%w: drawer", ErrMissingComponent)
	}

	e.window.SetKeyDownCallback(e.handleKeyDown)
	e.window.SetKeyUpCallback(e.handleKeyUp)
	e.window.SetMouseMoveCallback(e.handleMouseMove)
	e.window.SetResizeCallback(e.handleResize)
	e.window.SetUpdateCallback(e.handleUpdate)

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Paused() bool {
	return e.paused
}

func (e *engine) SetPaused(paused bool) {
	e.paused = paused
	if !paused {
		e.stepRequested = false
	}
	e.logger.Info("simulation paused", zap.Bool("paused", paused))
}

func (e *engine) RequestStep() {
	if e.paused {
		e.stepRequested = true
	}
}

func (e *engine) CursorCaptured() bool {
	return e.captured
}

func (e *engine) SetCursorCaptured(captured bool) {
	e.captured = captured
	e.window.SetCursorCaptured(captured)
	// The first position after a mode switch is a jump, not motion.
	e.haveMouse = false
	e.logger.Info("cursor capture", zap.Bool("captured", captured))
}

func (e *engine) Run() {
	e.logger.Info("engine running", zap.Bool("paused", e.paused))
	e.lastFrame = e.now()
	e.window.ProcessMessages()
	e.logger.Info("engine stopped")
}

func (e *engine) Quit() {
	e.window.RequestClose()
}

// handleUpdate measures the frame time and runs one frame.
func (e *engine) handleUpdate() {
	now := e.now()
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now
	e.frame(dt)
}

// frame runs one poll, mutate, render iteration. Input has already been routed by the
// window callbacks when it is called.
func (e *engine) frame(dt float32) {
	switch {
	case !e.paused:
		e.step(e.stepSize(dt))
	case e.stepRequested:
		e.stepRequested = false
		e.step(e.singleStep)
	}

	if e.captured {
		e.camera.Update(dt)
		e.camera.WriteUniform(e.renderer)
	}

	e.render()

	if e.profiler != nil {
		e.profiler.Tick()
	}
}

// stepSize picks the simulation dt for a frame that took dt seconds.
func (e *engine) stepSize(dt float32) float32 {
	if e.fixedStep > 0 {
		return e.fixedStep
	}
	return min(dt, e.maxStep)
}

func (e *engine) step(dt float32) {
	if err := e.stepper.Step(dt); err != nil {
		e.logger.Warn("simulation step failed", zap.Float32("dt", dt), zap.Error(err))
	}
}

func (e *engine) render() {
	if err := e.renderer.BeginFrame(); err != nil {
		e.logger.Debug("skipping frame", zap.Error(err))
		return
	}
	if err := e.drawer.Draw(); err != nil {
		e.logger.Warn("draw failed", zap.Error(err))
	}
	if err := e.renderer.EndFrame(); err != nil {
		e.logger.Warn("end frame failed", zap.Error(err))
		return
	}
	e.renderer.Present()
}

func (e *engine) handleKeyDown(code uint32) {
	repeat := e.held[code]
	e.held[code] = true
	e.camera.Controller().HandleKey(code, true)
	if repeat {
		return
	}

	switch code {
	case common.KeySpace:
		e.SetPaused(!e.paused)
	case common.KeyEnter:
		e.RequestStep()
	case common.KeySlash:
		e.SetCursorCaptured(!e.captured)
	case common.KeyEsc:
		e.Quit()
	}
}

func (e *engine) handleKeyUp(code uint32) {
	delete(e.held, code)
	e.camera.Controller().HandleKey(code, false)
}

func (e *engine) handleMouseMove(x, y float64) {
	if !e.haveMouse {
		e.lastX, e.lastY = x, y
		e.haveMouse = true
		return
	}
	dx, dy := x-e.lastX, y-e.lastY
	e.lastX, e.lastY = x, y
	if e.captured {
		e.camera.Controller().HandleMouseDelta(float32(dx), float32(dy))
	}
}

func (e *engine) handleResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.camera.SetAspect(float32(width) / float32(height))
	if err := e.renderer.Resize(width, height); err != nil {
		e.logger.Error("resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
	}
	e.camera.WriteUniform(e.renderer)
}
