package attractor

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, float32(10), p.Sigma)
	assert.Equal(t, float32(28), p.Rho)
	assert.InDelta(t, 8.0/3.0, p.Beta, 1e-6)
	assert.NoError(t, p.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		p    Parameters
	}{
		{"nan sigma", Parameters{Sigma: float32(math.NaN()), Rho: 28, Beta: 1}},
		{"inf rho", Parameters{Sigma: 10, Rho: float32(math.Inf(1)), Beta: 1}},
		{"neg inf beta", Parameters{Sigma: 10, Rho: 28, Beta: float32(math.Inf(-1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.p.Validate(), ErrInvalidParameters)
		})
	}
}

func TestIntegrateOriginIsFixed(t *testing.T) {
	got := Integrate(Default(), common.Vec3{}, 0.01)
	assert.Equal(t, common.Vec3{}, got)
}

func TestIntegrateSingleStep(t *testing.T) {
	// (1,0,0) has derivative (-10, 28, 0); one step of 0.01 lands on (0.9, 0.28, 0).
	got := Integrate(Default(), common.Vec3{1, 0, 0}, 0.01)
	assert.InDelta(t, 0.9, got[0], 1e-6)
	assert.InDelta(t, 0.28, got[1], 1e-6)
	assert.InDelta(t, 0, got[2], 1e-6)
}

func TestIntegrateZeroDtIsIdentity(t *testing.T) {
	s := common.Vec3{1.5, -2, 7}
	assert.Equal(t, s, Integrate(Default(), s, 0))
}

func TestDerivative(t *testing.T) {
	p := Parameters{Sigma: 2, Rho: 3, Beta: 4}
	d := Derivative(p, common.Vec3{1, 2, 3})
	assert.Equal(t, common.Vec3{2, -2, -10}, d)
}

func TestGPUSimParamsMarshal(t *testing.T) {
	g := NewGPUSimParams(Default(), 0.01, 1_000_000)
	require.Equal(t, 32, g.Size())

	buf := g.Marshal()
	require.Len(t, buf, 32)
	assert.Equal(t, float32(10), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])))
	assert.Equal(t, float32(28), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])))
	assert.Equal(t, float32(0.01), math.Float32frombits(binary.LittleEndian.Uint32(buf[12:16])))
	assert.Equal(t, uint32(1_000_000), binary.LittleEndian.Uint32(buf[16:20]))
	assert.Equal(t, make([]byte, 12), buf[20:32])
}
