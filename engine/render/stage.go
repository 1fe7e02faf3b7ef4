// Package render draws the point ensemble as one instanced call of camera-facing quads.
package render

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-lorenz/engine/camera"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/points"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/sprite"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// PipelineKey is the key the point sprite render pipeline is registered under.
const PipelineKey = "lorenz_points"

//go:embed assets/draw.wgsl
var drawSource string

// DrawRenderer is the part of the renderer the render stage drives.
type DrawRenderer interface {
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, usageOverrides map[int]wgpu.BufferUsage, sizeOverrides map[int]uint64) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	DrawCall(key string, meshProvider bind_group_provider.BindGroupProvider, instanceBuffer *wgpu.Buffer, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
}

// stage is the implementation of the Stage interface.
type stage struct {
	mu     *sync.Mutex
	r      DrawRenderer
	logger *zap.Logger
	buf    points.Buffer

	params sprite.GPUDrawParams

	quad        bind_group_provider.BindGroupProvider
	drawParams  bind_group_provider.BindGroupProvider
	bindGroups  []bind_group_provider.BindGroupProvider
	drawBinding int
}

// Stage draws every record of the point buffer as a sprite.
type Stage interface {
	// Draw encodes the instanced draw into the current render pass.
	//
	// Returns:
	//   - error: an error if the draw could not be encoded
	Draw() error

	// DrawParams returns the current draw uniform.
	//
	// Returns:
	//   - sprite.GPUDrawParams: the sprite size, color and shading flag
	DrawParams() sprite.GPUDrawParams

	// SetDrawParams replaces the draw uniform and uploads it.
	//
	// Parameters:
	//   - p: the new draw parameters
	SetDrawParams(p sprite.GPUDrawParams)
}

var _ Stage = &stage{}

// NewStage registers the sprite pipeline, uploads the quad mesh and binds the camera and draw
// uniforms. The point buffer is bound as the per-instance vertex buffer on every draw.
//
// Parameters:
//   - r: the renderer that owns the GPU device
//   - cam: the camera whose uniform is bound at group 0
//   - buf: the shared point buffer
//   - options: optional StageOption functions
//
// Returns:
//   - Stage: the render stage
//   - error: an error if the shaders, pipeline or GPU resources could not be created
func NewStage(r DrawRenderer, cam camera.Camera, buf points.Buffer, options ...StageOption) (Stage, error) {
	s := &stage{
		mu:     &sync.Mutex{},
		r:      r,
		logger: zap.NewNop(),
		buf:    buf,
		params: sprite.GPUDrawParams{
			Color: [4]float32{1, 0, 0, 1},
			Size:  0.1,
		},
	}
	for _, opt := range options {
		opt(s)
	}

	vs, err := shader.NewShaderFromSource(PipelineKey+"_vs", shader.ShaderTypeVertex, drawSource)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShaderFromSource(PipelineKey+"_fs", shader.ShaderTypeFragment, drawSource)
	if err != nil {
		return nil, err
	}

	p := pipeline.NewPipeline(PipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexBufferLayouts(sprite.QuadLayout(), points.InstanceView()),
		pipeline.WithDepthCompare(wgpu.CompareFunctionLess),
		pipeline.WithCullMode(wgpu.CullModeNone),
		pipeline.WithBlendEnabled(false),
	)
	if err := r.RegisterPipelines(p); err != nil {
		return nil, err
	}

	s.quad = bind_group_provider.NewBindGroupProvider("sprite_quad")
	vertexData, indexData := sprite.QuadBytes()
	if err := r.InitMeshBuffers(s.quad, vertexData, indexData, sprite.QuadIndexCount); err != nil {
		return nil, fmt.Errorf("%s: quad mesh: %w", PipelineKey, err)
	}

	decls := vs.Declarations()
	cameraGroup, _, ok := shader.FindBinding(decls, shader.AnnotationArgCamera)
	if !ok {
		return nil, fmt.Errorf("%s: missing camera binding", PipelineKey)
	}
	drawGroup, drawBinding, ok := shader.FindBinding(decls, shader.AnnotationArgDrawParams)
	if !ok {
		return nil, fmt.Errorf("%s: missing draw params binding", PipelineKey)
	}
	s.drawBinding = drawBinding
	s.drawParams = bind_group_provider.NewBindGroupProvider("draw_params")

	groups := map[int]bind_group_provider.BindGroupProvider{
		cameraGroup: cam.BindGroupProvider(),
		drawGroup:   s.drawParams,
	}
	s.bindGroups = make([]bind_group_provider.BindGroupProvider, len(groups))
	for g, provider := range groups {
		if g >= len(groups) {
			return nil, fmt.Errorf("%s: bind groups must be contiguous, got group %d", PipelineKey, g)
		}
		desc, ok := p.BindGroupLayoutDescriptor(g)
		if !ok {
			return nil, fmt.Errorf("%s: no layout for group %d", PipelineKey, g)
		}
		if err := r.InitBindGroup(provider, desc, nil, nil); err != nil {
			return nil, fmt.Errorf("%s: init group %d: %w", PipelineKey, g, err)
		}
		s.bindGroups[g] = provider
	}

	cam.WriteUniform(r)
	s.writeParams()

	s.logger.Info("render stage ready",
		zap.Int("points", buf.Count()),
		zap.Float32("point_size", s.params.Size),
		zap.Bool("smooth_shading", s.params.SmoothShading != 0),
	)
	return s, nil
}

func (s *stage) Draw() error {
	return s.r.DrawCall(PipelineKey, s.quad, s.buf.GPUBuffer(), uint32(s.buf.Count()), s.bindGroups)
}

func (s *stage) DrawParams() sprite.GPUDrawParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *stage) SetDrawParams(p sprite.GPUDrawParams) {
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
	s.writeParams()
}

func (s *stage) writeParams() {
	s.mu.Lock()
	data := s.params.Marshal()
	s.mu.Unlock()
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.drawParams,
		Binding:  s.drawBinding,
		Data:     data,
	}})
}
