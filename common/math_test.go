package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMul4Identity(t *testing.T) {
	a := make([]float32, 16)
	for i := range a {
		a[i] = float32(i + 1)
	}
	id := make([]float32, 16)
	Identity(id)

	out := make([]float32, 16)
	Mul4(out, a, id)
	assert.Equal(t, a, out)

	Mul4(out, id, a)
	assert.Equal(t, a, out)
}

func TestPerspectiveDepthRange(t *testing.T) {
	m := make([]float32, 16)
	near, far := float32(1), float32(1000)
	Perspective(m, Radians(45), 1.5, near, far)

	depth := func(z float32) float32 {
		clipZ := m[10]*z + m[14]
		clipW := m[11] * z
		return clipZ / clipW
	}
	assert.InDelta(t, 0, depth(-near), 1e-5)
	assert.InDelta(t, 1, depth(-far), 1e-4)
}

func TestLookToMatchesLookAt(t *testing.T) {
	eye := Vec3{50, 50, 50}
	dir := Normalize3(Vec3{-1, -1, -1})
	up := Vec3{0, 1, 0}

	a := make([]float32, 16)
	b := make([]float32, 16)
	LookTo(a, eye, dir, up)
	LookAt(b, 50, 50, 50, 0, 0, 0, 0, 1, 0)
	assert.InDeltaSlice(t, b, a, 1e-5)

	// The eye maps to the view-space origin.
	x := a[0]*eye[0] + a[4]*eye[1] + a[8]*eye[2] + a[12]
	y := a[1]*eye[0] + a[5]*eye[1] + a[9]*eye[2] + a[13]
	z := a[2]*eye[0] + a[6]*eye[1] + a[10]*eye[2] + a[14]
	assert.InDelta(t, 0, x, 1e-4)
	assert.InDelta(t, 0, y, 1e-4)
	assert.InDelta(t, 0, z, 1e-4)
}

func TestVectorHelpers(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	assert.Equal(t, Vec3{5, 7, 9}, Add3(a, b))
	assert.Equal(t, Vec3{-3, -3, -3}, Sub3(a, b))
	assert.Equal(t, Vec3{2, 4, 6}, Scale3(a, 2))
	assert.Equal(t, float32(32), Dot3(a, b))
	assert.Equal(t, Vec3{0, 0, 1}, Cross3(Vec3{1, 0, 0}, Vec3{0, 1, 0}))
	assert.InDelta(t, 5, Length3(Vec3{3, 4, 0}), 1e-6)
	assert.InDelta(t, 1, Length3(Normalize3(b)), 1e-6)
	assert.Equal(t, Vec3{}, Normalize3(Vec3{}))
}

func TestRotateAxis(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec3
		axis  Vec3
		angle float32
		want  Vec3
	}{
		{"quarter turn about y", Vec3{1, 0, 0}, Vec3{0, 1, 0}, Radians(90), Vec3{0, 0, -1}},
		{"quarter turn about z", Vec3{1, 0, 0}, Vec3{0, 0, 1}, Radians(90), Vec3{0, 1, 0}},
		{"vector on axis", Vec3{0, 2, 0}, Vec3{0, 1, 0}, Radians(37), Vec3{0, 2, 0}},
		{"zero angle", Vec3{1, 2, 3}, Vec3{1, 0, 0}, 0, Vec3{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RotateAxis(tt.v, tt.axis, tt.angle)
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-5)
			}
		})
	}
}

func TestIsFinite3(t *testing.T) {
	assert.True(t, IsFinite3(Vec3{1, 2, 3}))
	assert.False(t, IsFinite3(Vec3{float32(math.NaN()), 0, 0}))
	assert.False(t, IsFinite3(Vec3{0, float32(math.Inf(1)), 0}))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "a", Coalesce("", "a", "b"))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, 3, Coalesce(0, 3))
}
