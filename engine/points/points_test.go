package points

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAllocator struct {
	label   string
	usage   wgpu.BufferUsage
	created []byte
	writes  [][]byte
}

func (f *fakeAllocator) CreateBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	f.label = label
	f.usage = usage
	f.created = data
	return nil, nil
}

func (f *fakeAllocator) WriteBuffer(_ *wgpu.Buffer, _ uint64, data []byte) {
	f.writes = append(f.writes, data)
}

func TestLine(t *testing.T) {
	seeds := Line(4, 0.5)
	assert.Equal(t, []common.Vec3{{0.5, 0, 0}, {1, 0, 0}, {1.5, 0, 0}, {2, 0, 0}}, seeds)
	assert.NoError(t, ValidateSeeds(seeds))
}

func TestCubeIsDeterministicAndBounded(t *testing.T) {
	a := Cube(256, 5, 42)
	b := Cube(256, 5, 42)
	assert.Equal(t, a, b)
	for _, s := range a {
		for _, c := range s {
			assert.LessOrEqual(t, float64(c), 5.0)
			assert.GreaterOrEqual(t, float64(c), -5.0)
		}
	}
	assert.NotEqual(t, a, Cube(256, 5, 43))
	assert.NoError(t, ValidateSeeds(a))
}

func TestExplicitCopies(t *testing.T) {
	in := []common.Vec3{{1, 2, 3}}
	out := Explicit(in)
	in[0][0] = 9
	assert.Equal(t, float32(1), out[0][0])
}

func TestGenerate(t *testing.T) {
	seeds, err := Generate(SeedKindLine, 3, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, seeds, 3)

	seeds, err = Generate(SeedKindCube, 3, 0, 1, 7)
	require.NoError(t, err)
	assert.Len(t, seeds, 3)

	_, err = Generate("sphere", 3, 1, 1, 0)
	assert.Error(t, err)
}

func TestValidateSeeds(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name  string
		seeds []common.Vec3
		want  error
	}{
		{"empty", nil, ErrNoSeeds},
		{"origin", []common.Vec3{{1, 0, 0}, {0, 0, 0}}, ErrDegenerateSeed},
		{"negative zero origin", []common.Vec3{{float32(math.Copysign(0, -1)), 0, 0}}, ErrDegenerateSeed},
		{"nan", []common.Vec3{{nan, 1, 1}}, ErrDegenerateSeed},
		{"inf", []common.Vec3{{1, float32(math.Inf(1)), 1}}, ErrDegenerateSeed},
		{"duplicate", []common.Vec3{{1, 2, 3}, {4, 5, 6}, {1, 2, 3}}, ErrDegenerateSeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateSeeds(tt.seeds), tt.want)
		})
	}
}

func TestCreateUploadsSeeds(t *testing.T) {
	alloc := &fakeAllocator{}
	seeds := []common.Vec3{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}}

	buf, err := Create(alloc, seeds, WithLabel("test points"))
	require.NoError(t, err)

	assert.Equal(t, "test points", alloc.label)
	assert.Equal(t, BufferUsage, alloc.usage)
	assert.Equal(t, 4, buf.Count())
	assert.Equal(t, uint64(16), buf.Stride())
	assert.Equal(t, uint64(64), buf.Size())
	assert.Len(t, alloc.created, 64)
	assert.Equal(t, seeds, UnmarshalPoints(alloc.created))
}

func TestCreateRejectsBadSeeds(t *testing.T) {
	_, err := Create(&fakeAllocator{}, []common.Vec3{{0, 0, 0}})
	assert.ErrorIs(t, err, ErrDegenerateSeed)
}

func TestUpload(t *testing.T) {
	alloc := &fakeAllocator{}
	buf, err := Create(alloc, Line(2, 1))
	require.NoError(t, err)

	next := []common.Vec3{{0.9, 0.28, 0}, {1.8, 0.56, 0}}
	require.NoError(t, buf.Upload(next))
	require.Len(t, alloc.writes, 1)
	assert.Equal(t, next, UnmarshalPoints(alloc.writes[0]))

	assert.ErrorIs(t, buf.Upload(next[:1]), ErrCountMismatch)
}

func TestInstanceView(t *testing.T) {
	v := InstanceView()
	assert.Equal(t, uint64(16), v.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, v.StepMode)
	require.Len(t, v.Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, v.Attributes[0].Format)
	assert.Equal(t, uint64(0), v.Attributes[0].Offset)
	assert.Equal(t, uint32(InstanceLocation), v.Attributes[0].ShaderLocation)
}

func TestGPUPointMarshal(t *testing.T) {
	p := GPUPoint{Position: [3]float32{1, 2, 3}}
	assert.Equal(t, 16, p.Size())
	buf := p.Marshal()
	assert.Equal(t, []common.Vec3{{1, 2, 3}}, UnmarshalPoints(buf))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[12:16])
}
