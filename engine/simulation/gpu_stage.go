package simulation

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-lorenz/engine/attractor"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/points"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// PipelineKey is the key the integration compute pipeline is registered under.
const PipelineKey = "lorenz_integrate"

//go:embed assets/integrate.wgsl
var integrateSource string

// ComputeRenderer is the part of the renderer the GPU stepper drives.
type ComputeRenderer interface {
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, usageOverrides map[int]wgpu.BufferUsage, sizeOverrides map[int]uint64) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	BeginComputeFrame() error
	DispatchCompute(key string, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error
	EndComputeFrame() error
}

// gpuStage integrates the point buffer in place with one compute dispatch per step.
type gpuStage struct {
	r        ComputeRenderer
	logger   *zap.Logger
	params   attractor.Parameters
	count    int
	shape    [3]uint32
	provider bind_group_provider.BindGroupProvider

	paramsBinding int
	released      bool
}

var _ Stepper = &gpuStage{}

// NewGPUStage compiles the integration shader, registers its pipeline and binds the point
// buffer as the storage array the shader writes.
//
// Parameters:
//   - r: the renderer that owns the GPU device
//   - buf: the shared point buffer
//   - params: the attractor parameters, fixed for the stage lifetime
//   - opts: optional StageOption functions
//
// Returns:
//   - Stepper: the GPU stepper
//   - error: an error if the parameters are invalid, the dispatch cannot cover the buffer, or GPU setup fails
func NewGPUStage(r ComputeRenderer, buf points.Buffer, params attractor.Parameters, opts ...StageOption) (Stepper, error) {
	o := defaultStageOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s, err := shader.NewShaderFromSource(PipelineKey, shader.ShaderTypeCompute, integrateSource)
	if err != nil {
		return nil, err
	}

	workgroupSize := s.WorkgroupSize()[0]
	shape, err := PlanDispatch(buf.Count(), workgroupSize)
	if err != nil {
		return nil, err
	}
	if err := ValidateDispatch(shape, workgroupSize, buf.Count()); err != nil {
		return nil, err
	}

	group, paramsBinding, ok := shader.FindBinding(s.Declarations(), shader.AnnotationArgSimParams)
	if !ok {
		return nil, fmt.Errorf("%s: missing sim params binding", PipelineKey)
	}
	pointsGroup, pointsBinding, ok := shader.FindBinding(s.Declarations(), shader.ArrayOf(shader.AnnotationArgPoint))
	if !ok || pointsGroup != group {
		return nil, fmt.Errorf("%s: points must be bound in group %d", PipelineKey, group)
	}

	p := pipeline.NewPipeline(PipelineKey, pipeline.PipelineTypeCompute, pipeline.WithComputeShader(s))
	if err := r.RegisterPipelines(p); err != nil {
		return nil, err
	}

	provider := bind_group_provider.NewBindGroupProvider(o.label,
		bind_group_provider.WithSharedBuffer(pointsBinding, buf.GPUBuffer()),
	)
	desc, ok := p.BindGroupLayoutDescriptor(group)
	if !ok {
		return nil, fmt.Errorf("%s: no layout for group %d", PipelineKey, group)
	}
	if err := r.InitBindGroup(provider, desc, nil, nil); err != nil {
		return nil, fmt.Errorf("%s: init bind group: %w", PipelineKey, err)
	}

	o.logger.Info("gpu simulation stage ready",
		zap.Int("points", buf.Count()),
		zap.Uint32("workgroup_size", workgroupSize),
		zap.Uint32s("dispatch", shape[:]),
	)

	return &gpuStage{
		r:             r,
		logger:        o.logger,
		params:        params,
		count:         buf.Count(),
		shape:         shape,
		provider:      provider,
		paramsBinding: paramsBinding,
	}, nil
}

func (g *gpuStage) Count() int {
	return g.count
}

// Release frees the params uniform and the bind group. The point buffer is shared and survives.
func (g *gpuStage) Release() {
	if g.released {
		return
	}
	g.released = true
	g.provider.Release()
}

func (g *gpuStage) Step(dt float32) error {
	if g.released {
		return ErrReleased
	}
	if !steppable(dt) {
		return nil
	}

	simParams := attractor.NewGPUSimParams(g.params, dt, uint32(g.count))
	g.r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: g.provider,
		Binding:  g.paramsBinding,
		Data:     simParams.Marshal(),
	}})

	if err := g.r.BeginComputeFrame(); err != nil {
		return fmt.Errorf("begin compute frame: %w", err)
	}
	if err := g.r.DispatchCompute(PipelineKey, g.provider, g.shape); err != nil {
		return fmt.Errorf("dispatch %s: %w", PipelineKey, err)
	}
	if err := g.r.EndComputeFrame(); err != nil {
		return fmt.Errorf("end compute frame: %w", err)
	}

	g.logger.Debug("simulation step", zap.Float32("dt", dt))
	return nil
}
