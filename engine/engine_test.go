package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/camera"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	onUpdate    func()
	onResize    func(width, height int)
	onKeyDown   func(keyCode uint32)
	onKeyUp     func(keyCode uint32)
	onMouseMove func(x, y float64)

	captured       bool
	closeRequested bool
	iterations     int
}

func (w *fakeWindow) SetUpdateCallback(cb func())                 { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(keyCode uint32))   { w.onKeyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(cb func(keyCode uint32))     { w.onKeyUp = cb }
func (w *fakeWindow) SetMouseMoveCallback(cb func(x, y float64))   { w.onMouseMove = cb }
func (w *fakeWindow) SetCursorCaptured(captured bool)              { w.captured = captured }
func (w *fakeWindow) CursorCaptured() bool                         { return w.captured }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor   { return nil }
func (w *fakeWindow) IsRunning() bool                              { return !w.closeRequested }
func (w *fakeWindow) RequestClose()                                { w.closeRequested = true }
func (w *fakeWindow) Close() error                                 { return nil }
func (w *fakeWindow) Width() int                                   { return 1280 }
func (w *fakeWindow) Height() int                                  { return 720 }
func (w *fakeWindow) ProcessMessages() {
	for i := 0; i < w.iterations && w.IsRunning(); i++ {
		w.onUpdate()
	}
}

type fakeRenderer struct {
	calls    []string
	beginErr error
	resized  [][2]int
	writes   int
}

func (r *fakeRenderer) BeginFrame() error {
	r.calls = append(r.calls, "begin")
	return r.beginErr
}
func (r *fakeRenderer) EndFrame() error { r.calls = append(r.calls, "end"); return nil }
func (r *fakeRenderer) Present()        { r.calls = append(r.calls, "present") }
func (r *fakeRenderer) Resize(width, height int) error {
	r.resized = append(r.resized, [2]int{width, height})
	return nil
}
func (r *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) { r.writes += len(writes) }

type fakeStepper struct{ steps []float32 }

func (s *fakeStepper) Step(dt float32) error {
	s.steps = append(s.steps, dt)
	return nil
}

type fakeDrawer struct {
	r     *fakeRenderer
	draws int
}

func (d *fakeDrawer) Draw() error {
	d.draws++
	d.r.calls = append(d.r.calls, "draw")
	return nil
}

type harness struct {
	e       *engine
	window  *fakeWindow
	r       *fakeRenderer
	stepper *fakeStepper
	drawer  *fakeDrawer
	cam     camera.Camera
}

func newHarness(t *testing.T, options ...EngineBuilderOption) *harness {
	t.Helper()
	h := &harness{
		window:  &fakeWindow{},
		r:       &fakeRenderer{},
		stepper: &fakeStepper{},
		cam:     camera.NewCamera(),
	}
	h.drawer = &fakeDrawer{r: h.r}
	// Back the camera uniform so WriteUniform reaches the renderer.
	h.cam.BindGroupProvider().SetBuffer(camera.UniformBinding, &wgpu.Buffer{})

	opts := append([]EngineBuilderOption{
		WithWindow(h.window),
		WithRenderer(h.r),
		WithCamera(h.cam),
		WithStepper(h.stepper),
		WithDrawer(h.drawer),
	}, options...)
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	h.e = e.(*engine)
	return h
}

func (h *harness) press(code uint32) {
	h.window.onKeyDown(code)
	h.window.onKeyUp(code)
}

func TestNewEngineRequiresComponents(t *testing.T) {
	_, err := NewEngine()
	assert.ErrorIs(t, err, ErrMissingComponent)

	_, err = NewEngine(WithWindow(&fakeWindow{}), WithRenderer(&fakeRenderer{}))
	assert.ErrorIs(t, err, ErrMissingComponent)
}

func TestNewEngineWiresCallbacks(t *testing.T) {
	h := newHarness(t)
	assert.NotNil(t, h.window.onUpdate)
	assert.NotNil(t, h.window.onResize)
	assert.NotNil(t, h.window.onKeyDown)
	assert.NotNil(t, h.window.onKeyUp)
	assert.NotNil(t, h.window.onMouseMove)
	assert.Same(t, h.cam, h.e.Camera())
	assert.Same(t, h.window, h.e.Window())
}

func TestStartsPausedWithoutStepping(t *testing.T) {
	h := newHarness(t)
	assert.True(t, h.e.Paused())
	assert.False(t, h.e.CursorCaptured())

	h.e.frame(0.016)
	h.e.frame(0.016)
	assert.Empty(t, h.stepper.steps)
	assert.Equal(t, 2, h.drawer.draws)
}

func TestSpaceTogglesPause(t *testing.T) {
	h := newHarness(t)

	h.press(common.KeySpace)
	assert.False(t, h.e.Paused())
	h.e.frame(0.02)
	assert.Equal(t, []float32{0.02}, h.stepper.steps)

	h.press(common.KeySpace)
	assert.True(t, h.e.Paused())
	h.e.frame(0.02)
	assert.Len(t, h.stepper.steps, 1)
}

func TestKeyRepeatDoesNotRetoggle(t *testing.T) {
	h := newHarness(t)

	h.window.onKeyDown(common.KeySpace)
	h.window.onKeyDown(common.KeySpace)
	h.window.onKeyDown(common.KeySpace)
	assert.False(t, h.e.Paused())

	h.window.onKeyUp(common.KeySpace)
	h.window.onKeyDown(common.KeySpace)
	assert.True(t, h.e.Paused())
}

func TestSingleStepWhilePaused(t *testing.T) {
	h := newHarness(t)

	h.press(common.KeyEnter)
	h.e.frame(0.5)
	h.e.frame(0.5)
	assert.Equal(t, []float32{0.01}, h.stepper.steps)
}

func TestSingleStepIgnoredWhileRunning(t *testing.T) {
	h := newHarness(t, WithPaused(false))

	h.press(common.KeyEnter)
	h.e.frame(0.01)
	assert.Equal(t, []float32{0.01}, h.stepper.steps)

	h.press(common.KeySpace)
	h.e.frame(0.01)
	assert.Len(t, h.stepper.steps, 1)
}

func TestResumingDropsPendingStep(t *testing.T) {
	h := newHarness(t)

	h.e.RequestStep()
	h.e.SetPaused(false)
	h.e.SetPaused(true)
	h.e.frame(0.01)
	assert.Empty(t, h.stepper.steps)
}

func TestStepSize(t *testing.T) {
	tests := []struct {
		name    string
		options []EngineBuilderOption
		dt      float32
		want    float32
	}{
		{"frame time", nil, 0.016, 0.016},
		{"clamped to max", nil, 1.0, 0.05},
		{"custom max", []EngineBuilderOption{WithMaxStep(0.1)}, 1.0, 0.1},
		{"fixed step", []EngineBuilderOption{WithFixedStep(0.005)}, 0.3, 0.005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, append(tt.options, WithPaused(false))...)
			h.e.frame(tt.dt)
			require.Len(t, h.stepper.steps, 1)
			assert.InDelta(t, tt.want, h.stepper.steps[0], 1e-7)
		})
	}
}

func TestWithSingleStep(t *testing.T) {
	h := newHarness(t, WithSingleStep(0.002), WithSingleStep(-1))
	h.e.RequestStep()
	h.e.frame(0.1)
	assert.Equal(t, []float32{0.002}, h.stepper.steps)
}

func TestRenderOrder(t *testing.T) {
	h := newHarness(t)
	h.e.frame(0.01)
	assert.Equal(t, []string{"begin", "draw", "end", "present"}, h.r.calls)
}

func TestRenderSkipsFrameWhenSurfaceUnavailable(t *testing.T) {
	h := newHarness(t)
	h.r.beginErr = errors.New("surface lost")

	h.e.frame(0.01)
	assert.Equal(t, []string{"begin"}, h.r.calls)
	assert.Zero(t, h.drawer.draws)
}

func TestCaptureGatesCameraUpdate(t *testing.T) {
	h := newHarness(t)
	start := h.cam.Controller().Direction()

	h.window.onMouseMove(100, 100)
	h.window.onMouseMove(300, 100)
	h.e.frame(0.01)
	assert.Equal(t, start, h.cam.Controller().Direction())
	assert.Zero(t, h.r.writes)

	h.press(common.KeySlash)
	assert.True(t, h.e.CursorCaptured())
	assert.True(t, h.window.captured)

	// The first event after capturing only establishes the reference position.
	h.window.onMouseMove(300, 100)
	h.window.onMouseMove(400, 100)
	h.e.frame(0.01)
	assert.NotEqual(t, start, h.cam.Controller().Direction())
	assert.InDelta(t, 1.0, common.Length3(h.cam.Controller().Direction()), 1e-5)
	assert.Equal(t, 1, h.r.writes)

	h.press(common.KeySlash)
	assert.False(t, h.e.CursorCaptured())
	assert.False(t, h.window.captured)
}

func TestMovementWhileCaptured(t *testing.T) {
	h := newHarness(t)
	h.e.SetCursorCaptured(true)
	start := h.cam.Controller().Position()
	dir := h.cam.Controller().Direction()

	h.window.onKeyDown(common.KeyW)
	h.e.frame(0.1)
	h.window.onKeyUp(common.KeyW)

	want := common.Add3(start, common.Scale3(dir, 10))
	got := h.cam.Controller().Position()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], 1e-4)
	}

	h.e.frame(0.1)
	assert.Equal(t, got, h.cam.Controller().Position())
}

func TestEscapeQuits(t *testing.T) {
	h := newHarness(t)
	h.press(common.KeyEsc)
	assert.True(t, h.window.closeRequested)
}

func TestResize(t *testing.T) {
	h := newHarness(t)

	h.window.onResize(0, 600)
	assert.Empty(t, h.r.resized)

	h.window.onResize(800, 400)
	assert.Equal(t, [][2]int{{800, 400}}, h.r.resized)
	assert.Equal(t, float32(2), h.cam.Aspect())
	assert.Equal(t, 1, h.r.writes)
}

func TestRunMeasuresFrameTime(t *testing.T) {
	clock := time.Unix(0, 0)
	h := newHarness(t, WithPaused(false))
	h.e.now = func() time.Time {
		clock = clock.Add(20 * time.Millisecond)
		return clock
	}
	h.window.iterations = 3

	h.e.Run()
	require.Len(t, h.stepper.steps, 3)
	for _, dt := range h.stepper.steps {
		assert.InDelta(t, 0.02, dt, 1e-6)
	}
}

func TestQuitStopsRun(t *testing.T) {
	h := newHarness(t)
	h.window.iterations = 10
	h.e.Quit()
	h.e.Run()
	assert.Zero(t, h.drawer.draws)
}
