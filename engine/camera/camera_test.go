package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

type recordingWriter struct {
	writes []bind_group_provider.BufferWrite
}

func (w *recordingWriter) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	w.writes = append(w.writes, writes...)
}

func assertVec(t *testing.T, want, got common.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "component %d", i)
	}
}

func TestControllerDefaults(t *testing.T) {
	cc := NewFreeFlyController()
	assert.Equal(t, common.Vec3{50, 50, 50}, cc.Position())
	assert.Equal(t, common.Vec3{0, 1, 0}, cc.Up())
	assert.InDelta(t, 1.0, common.Length3(cc.Direction()), eps)
	assert.InDelta(t, -1.0, common.Dot3(common.Normalize3(cc.Position()), cc.Direction()), eps)
	assert.Equal(t, float32(100), cc.Speed())
	assert.Equal(t, float32(0.1), cc.Sensitivity())
}

func TestControllerUpdateWithoutInputIsIdempotent(t *testing.T) {
	cc := NewFreeFlyController(WithDirection(common.Vec3{0.3, -0.2, -0.9}))
	pos, dir := cc.Position(), cc.Direction()

	cc.Update(0)
	cc.Update(0.5)

	assert.Equal(t, pos, cc.Position())
	assert.Equal(t, dir, cc.Direction())
}

func TestControllerHandleKey(t *testing.T) {
	cc := NewFreeFlyController()
	assert.True(t, cc.HandleKey(common.KeyW, true))
	assert.True(t, cc.HandleKey(common.KeyLeft, true))
	assert.False(t, cc.HandleKey(common.KeySpace, true))
	assert.False(t, cc.HandleKey(common.KeyEnter, true))
}

func TestControllerTranslation(t *testing.T) {
	tests := []struct {
		name string
		key  uint32
		want common.Vec3
	}{
		{"forward", common.KeyW, common.Vec3{0, 0, -10}},
		{"forward arrow", common.KeyUp, common.Vec3{0, 0, -10}},
		{"backward", common.KeyS, common.Vec3{0, 0, 10}},
		{"right", common.KeyD, common.Vec3{10, 0, 0}},
		{"left", common.KeyA, common.Vec3{-10, 0, 0}},
		{"left arrow", common.KeyLeft, common.Vec3{-10, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewFreeFlyController(
				WithPosition(common.Vec3{0, 0, 0}),
				WithDirection(common.Vec3{0, 0, -1}),
				WithSpeed(100),
			)
			cc.HandleKey(tt.key, true)
			cc.Update(0.1)
			assertVec(t, tt.want, cc.Position())

			cc.HandleKey(tt.key, false)
			cc.Update(0.1)
			assertVec(t, tt.want, cc.Position())
		})
	}
}

func TestControllerYawKeepsElevation(t *testing.T) {
	cc := NewFreeFlyController(WithDirection(common.Vec3{0, 0, -1}))

	// 900 px at 0.1 deg/px is a 90 degree turn to the right.
	cc.HandleMouseDelta(900, 0)
	cc.Update(0)

	assertVec(t, common.Vec3{1, 0, 0}, cc.Direction())
}

func TestControllerPitchWithinLimits(t *testing.T) {
	cc := NewFreeFlyController(WithDirection(common.Vec3{1, 0, 0}))

	cc.HandleMouseDelta(0, -300)
	cc.Update(0)

	dir := cc.Direction()
	assert.InDelta(t, 0.8660254, dir[0], eps)
	assert.InDelta(t, 0.5, dir[1], eps)
	assert.InDelta(t, 1.0, common.Length3(dir), eps)
}

func TestControllerPitchClampsAtPole(t *testing.T) {
	tests := []struct {
		name  string
		start common.Vec3
		dy    float32
		wantY float32
	}{
		{"over the top", common.Vec3{1, 0.01, 0}, -1000, 0.70710677},
		{"under the bottom", common.Vec3{1, -0.01, 0}, 1000, -0.70710677},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewFreeFlyController(WithDirection(tt.start))

			cc.HandleMouseDelta(0, tt.dy)
			cc.Update(0)

			dir := cc.Direction()
			assert.InDelta(t, 0.70710677, dir[0], eps, "horizontal heading must not flip")
			assert.InDelta(t, tt.wantY, dir[1], eps)
			assert.InDelta(t, 1.0, common.Length3(dir), eps)
			assert.Greater(t, common.Length3(common.Cross3(dir, cc.Up())), float32(0.1))
		})
	}
}

func TestControllerMouseDeltaResetsAfterUpdate(t *testing.T) {
	cc := NewFreeFlyController(WithDirection(common.Vec3{0, 0, -1}))
	cc.HandleMouseDelta(450, 0)
	cc.HandleMouseDelta(450, 0)
	cc.Update(0)
	first := cc.Direction()

	cc.Update(0)
	assert.Equal(t, first, cc.Direction())
}

func TestControllerSetDirection(t *testing.T) {
	cc := NewFreeFlyController()

	require.NoError(t, cc.SetDirection(common.Vec3{0, 0, -5}))
	assertVec(t, common.Vec3{0, 0, -1}, cc.Direction())

	assert.ErrorIs(t, cc.SetDirection(common.Vec3{}), ErrDegenerateDirection)
	assert.ErrorIs(t, cc.SetDirection(common.Vec3{0, 3, 0}), ErrDegenerateDirection)
	assertVec(t, common.Vec3{0, 0, -1}, cc.Direction())
}

func TestWithDirectionIgnoresDegenerate(t *testing.T) {
	cc := NewFreeFlyController(WithDirection(common.Vec3{0, -1, 0}))
	assertVec(t, common.Normalize3(common.Vec3{-1, -1, -1}), cc.Direction())
}

func TestValidateDirection(t *testing.T) {
	d, err := ValidateDirection(common.Vec3{3, 0, 4})
	require.NoError(t, err)
	assertVec(t, common.Vec3{0.6, 0, 0.8}, d)

	for _, dir := range []common.Vec3{{}, {0, 5, 0}, {0, -1, 0}, {float32(math.NaN()), 0, 1}} {
		_, err := ValidateDirection(dir)
		assert.ErrorIs(t, err, ErrDegenerateDirection, "%v", dir)
	}
}

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, common.Radians(45), c.Fov(), eps)
	assert.Equal(t, float32(1), c.Near())
	assert.Equal(t, float32(1000), c.Far())
	assert.NotNil(t, c.Controller())
	assert.NotNil(t, c.BindGroupProvider())
}

func TestCameraBindGroupProvidersAreUnique(t *testing.T) {
	a := NewCamera()
	b := NewCamera()
	assert.NotEqual(t, a.BindGroupProvider().Label(), b.BindGroupProvider().Label())
}

func TestCameraProjectsTargetToCenter(t *testing.T) {
	c := NewCamera(
		WithController(NewFreeFlyController(
			WithPosition(common.Vec3{0, 0, 10}),
			WithDirection(common.Vec3{0, 0, -1}),
		)),
		WithAspect(16.0/9.0),
	)

	vp := c.ViewProjectionMatrix()
	// Origin: clip = column 3 of the matrix.
	x, y, z, w := vp[12], vp[13], vp[14], vp[15]
	require.Greater(t, w, float32(0))
	assert.InDelta(t, 0, x/w, eps)
	assert.InDelta(t, 0, y/w, eps)
	assert.True(t, z/w > 0 && z/w < 1)
}

func TestCameraUpdateFollowsController(t *testing.T) {
	cc := NewFreeFlyController(WithPosition(common.Vec3{0, 0, 10}), WithDirection(common.Vec3{0, 0, -1}))
	c := NewCamera(WithController(cc))
	before := c.ViewMatrix()

	cc.HandleKey(common.KeyW, true)
	c.Update(0.05)

	assert.NotEqual(t, before, c.ViewMatrix())
	assertVec(t, common.Vec3{0, 0, 5}, cc.Position())
}

func TestCameraSetAspectRecomputesProjection(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()
	c.SetAspect(2)
	after := c.ProjectionMatrix()
	assert.InDelta(t, before[0]/2, after[0], eps)
	assert.Equal(t, before[5], after[5])
}

func TestCameraUniform(t *testing.T) {
	c := NewCamera()
	u := c.Uniform()
	assert.Equal(t, c.ViewProjectionMatrix(), u.ViewProj)
	assert.Equal(t, c.ProjectionMatrix(), u.Proj)
	assert.Len(t, u.Marshal(), 128)
	assert.Equal(t, 128, u.Size())
}

func TestCameraWriteUniform(t *testing.T) {
	c := NewCamera()
	w := &recordingWriter{}

	c.WriteUniform(w)
	assert.Empty(t, w.writes, "no buffer bound yet")

	c.BindGroupProvider().ShareBuffer(UniformBinding, &wgpu.Buffer{})
	c.WriteUniform(w)
	require.Len(t, w.writes, 1)
	assert.Equal(t, UniformBinding, w.writes[0].Binding)
	assert.Len(t, w.writes[0].Data, 128)
}
