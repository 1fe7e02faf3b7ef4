package simulation

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/attractor"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/points"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAllocator struct {
	buf    *wgpu.Buffer
	writes [][]byte
}

func (f *fakeAllocator) CreateBuffer(string, wgpu.BufferUsage, []byte) (*wgpu.Buffer, error) {
	f.buf = &wgpu.Buffer{}
	return f.buf, nil
}

func (f *fakeAllocator) WriteBuffer(_ *wgpu.Buffer, _ uint64, data []byte) {
	f.writes = append(f.writes, data)
}

// fakeComputeRenderer records the order of compute calls.
type fakeComputeRenderer struct {
	calls      []string
	registered []pipeline.Pipeline
	provider   bind_group_provider.BindGroupProvider
	desc       wgpu.BindGroupLayoutDescriptor
	writes     []bind_group_provider.BufferWrite
	shapes     [][3]uint32
	beginErr   error
}

func (f *fakeComputeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	f.registered = append(f.registered, pipelines...)
	return nil
}

func (f *fakeComputeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, desc wgpu.BindGroupLayoutDescriptor, _ map[int]wgpu.BufferUsage, _ map[int]uint64) error {
	f.provider = provider
	f.desc = desc
	return nil
}

func (f *fakeComputeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.calls = append(f.calls, "write")
	f.writes = append(f.writes, writes...)
}

func (f *fakeComputeRenderer) BeginComputeFrame() error {
	f.calls = append(f.calls, "begin")
	return f.beginErr
}

func (f *fakeComputeRenderer) DispatchCompute(key string, _ bind_group_provider.BindGroupProvider, shape [3]uint32) error {
	f.calls = append(f.calls, "dispatch:"+key)
	f.shapes = append(f.shapes, shape)
	return nil
}

func (f *fakeComputeRenderer) EndComputeFrame() error {
	f.calls = append(f.calls, "end")
	return nil
}

func TestPlanDispatch(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want [3]uint32
	}{
		{"single point", 1, [3]uint32{1, 1, 1}},
		{"exact multiple", 128, [3]uint32{2, 1, 1}},
		{"partial group", 129, [3]uint32{3, 1, 1}},
		{"one million", 1_000_000, [3]uint32{15625, 1, 1}},
		{"spills into y", 65535*64 + 1, [3]uint32{65535, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanDispatch(tt.n, 64)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, ValidateDispatch(got, 64, tt.n))
		})
	}
}

func TestPlanDispatchRejectsInvalidInput(t *testing.T) {
	_, err := PlanDispatch(0, 64)
	assert.ErrorIs(t, err, ErrInvalidDispatch)
	_, err = PlanDispatch(10, 0)
	assert.ErrorIs(t, err, ErrInvalidDispatch)
}

func TestValidateDispatch(t *testing.T) {
	tests := []struct {
		name    string
		shape   [3]uint32
		n       int
		wantErr error
	}{
		{"covers", [3]uint32{2, 1, 1}, 128, nil},
		{"under coverage", [3]uint32{1, 1, 1}, 65, ErrUnderCoverage},
		{"zero dimension", [3]uint32{2, 0, 1}, 1, ErrInvalidDispatch},
		{"oversized dimension", [3]uint32{65536, 1, 1}, 1, ErrInvalidDispatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDispatch(tt.shape, 64, tt.n)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChunks(t *testing.T) {
	assert.Nil(t, chunks(0, 4))
	assert.Equal(t, [][2]int{{0, 3}}, chunks(3, 1))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, chunks(2, 8))
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 9}, {9, 10}}, chunks(10, 4))
}

func TestSteppable(t *testing.T) {
	assert.True(t, steppable(0.01))
	assert.False(t, steppable(0))
	assert.False(t, steppable(-0.01))
	assert.False(t, steppable(float32(math.NaN())))
	assert.False(t, steppable(float32(math.Inf(1))))
}

func TestNewGPUStage(t *testing.T) {
	alloc := &fakeAllocator{}
	buf, err := points.Create(alloc, points.Line(100, 0.5))
	require.NoError(t, err)

	r := &fakeComputeRenderer{}
	s, err := NewGPUStage(r, buf, attractor.Default())
	require.NoError(t, err)
	assert.Equal(t, 100, s.Count())

	require.Len(t, r.registered, 1)
	assert.Equal(t, PipelineKey, r.registered[0].PipelineKey())
	assert.Equal(t, pipeline.PipelineTypeCompute, r.registered[0].Type())

	require.NotNil(t, r.provider)
	assert.True(t, r.provider.IsShared(1))
	assert.Same(t, alloc.buf, r.provider.Buffer(1))
	assert.Len(t, r.desc.Entries, 2)
}

func TestNewGPUStageRejectsBadParameters(t *testing.T) {
	buf, err := points.Create(&fakeAllocator{}, points.Line(4, 0.5))
	require.NoError(t, err)

	_, err = NewGPUStage(&fakeComputeRenderer{}, buf, attractor.Parameters{Sigma: float32(math.NaN())})
	assert.ErrorIs(t, err, attractor.ErrInvalidParameters)
}

func TestGPUStageStep(t *testing.T) {
	buf, err := points.Create(&fakeAllocator{}, points.Line(100, 0.5))
	require.NoError(t, err)
	r := &fakeComputeRenderer{}
	s, err := NewGPUStage(r, buf, attractor.Default())
	require.NoError(t, err)

	require.NoError(t, s.Step(0))
	require.NoError(t, s.Step(-1))
	assert.Empty(t, r.calls)

	require.NoError(t, s.Step(0.01))
	assert.Equal(t, []string{"write", "begin", "dispatch:" + PipelineKey, "end"}, r.calls)
	assert.Equal(t, [][3]uint32{{2, 1, 1}}, r.shapes)

	require.Len(t, r.writes, 1)
	want := attractor.NewGPUSimParams(attractor.Default(), 0.01, 100)
	assert.Equal(t, want.Marshal(), r.writes[0].Data)
	assert.Equal(t, 0, r.writes[0].Binding)
}

func TestGPUStageStepPropagatesErrors(t *testing.T) {
	buf, err := points.Create(&fakeAllocator{}, points.Line(4, 0.5))
	require.NoError(t, err)
	boom := errors.New("boom")
	r := &fakeComputeRenderer{}
	s, err := NewGPUStage(r, buf, attractor.Default())
	require.NoError(t, err)

	r.beginErr = boom
	assert.ErrorIs(t, s.Step(0.01), boom)
}

func TestHostStageMatchesIntegrate(t *testing.T) {
	seeds := points.Cube(1000, 20, 7)
	alloc := &fakeAllocator{}
	buf, err := points.Create(alloc, seeds)
	require.NoError(t, err)

	params := attractor.Default()
	s, err := NewHostStage(buf, seeds, params, WithWorkers(4))
	require.NoError(t, err)
	t.Cleanup(s.Release)

	require.NoError(t, s.Step(0.005))
	require.NoError(t, s.Step(0.005))
	require.Len(t, alloc.writes, 2)

	got := points.UnmarshalPoints(alloc.writes[1])
	require.Len(t, got, len(seeds))
	for i, seed := range seeds {
		want := attractor.Integrate(params, attractor.Integrate(params, seed, 0.005), 0.005)
		assert.Equal(t, want, got[i], "slot %d", i)
	}
}

func TestHostStageFourPoints(t *testing.T) {
	seeds := points.Line(4, 0.5)
	alloc := &fakeAllocator{}
	buf, err := points.Create(alloc, seeds)
	require.NoError(t, err)

	s, err := NewHostStage(buf, seeds, attractor.Default(), WithWorkers(2))
	require.NoError(t, err)
	t.Cleanup(s.Release)
	require.NoError(t, s.Step(0.01))

	got := points.UnmarshalPoints(alloc.writes[0])
	assert.InDelta(t, 0.9, got[1][0], 1e-6)
	assert.InDelta(t, 0.28, got[1][1], 1e-6)
	assert.InDelta(t, 0, got[1][2], 1e-6)
}

func TestHostStageSkipsInvalidDt(t *testing.T) {
	seeds := points.Line(4, 0.5)
	alloc := &fakeAllocator{}
	buf, err := points.Create(alloc, seeds)
	require.NoError(t, err)

	s, err := NewHostStage(buf, seeds, attractor.Default())
	require.NoError(t, err)
	t.Cleanup(s.Release)
	require.NoError(t, s.Step(0))
	require.NoError(t, s.Step(float32(math.NaN())))
	assert.Empty(t, alloc.writes)
}

func TestNewHostStageRejectsMismatchedSeeds(t *testing.T) {
	buf, err := points.Create(&fakeAllocator{}, points.Line(4, 0.5))
	require.NoError(t, err)

	_, err = NewHostStage(buf, []common.Vec3{{1, 0, 0}}, attractor.Default())
	assert.ErrorIs(t, err, points.ErrCountMismatch)
}

func TestHostStageRelease(t *testing.T) {
	seeds := points.Line(8, 0.5)
	alloc := &fakeAllocator{}
	buf, err := points.Create(alloc, seeds)
	require.NoError(t, err)

	s, err := NewHostStage(buf, seeds, attractor.Default(), WithWorkers(2))
	require.NoError(t, err)
	require.NoError(t, s.Step(0.01))

	s.Release()
	s.Release()
	assert.ErrorIs(t, s.Step(0.01), ErrReleased)
	// Create plus the one step before release.
	assert.Len(t, alloc.writes, 2)
}

func TestGPUStageRelease(t *testing.T) {
	buf, err := points.Create(&fakeAllocator{}, points.Line(8, 0.5))
	require.NoError(t, err)
	r := &fakeComputeRenderer{}
	s, err := NewGPUStage(r, buf, attractor.Default())
	require.NoError(t, err)

	s.Release()
	s.Release()
	assert.ErrorIs(t, s.Step(0.01), ErrReleased)
	assert.Empty(t, r.calls)
}
