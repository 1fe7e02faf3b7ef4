package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUnknownPipeline is returned when a draw or dispatch references a pipeline key that was never registered.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	msaa                 MSAASampleCount
	clearColor           wgpu.Color
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a streamlined and idiomatic flow.
// The Renderer manages a cache of pipelines keyed by PipelineKey and forwards GPU work to a backend.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines registers one or more pipelines by creating the corresponding GPU
	// pipeline objects (render or compute) via the backend, then caching them by PipelineKey.
	// Pipelines whose keys are already registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	// A zero width or height (a minimized window) is ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface attachments could not be recreated
	Resize(width, height int) error

	// SetPresentMode sets the present mode used the next time the surface is configured.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the frame is cleared to.
	//
	// Parameters:
	//   - c: the clear color
	SetClearColor(c wgpu.Color)

	// CreateBuffer allocates a GPU buffer holding data.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//   - usage: the buffer usage flags
	//   - data: the initial contents
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: an error if the buffer could not be created
	CreateBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error)

	// WriteBuffer stages data into buf at offset.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: the byte offset into buf
	//   - data: the bytes to write
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// InitMeshBuffers uploads vertex and Uint32 index data and stores the buffers on provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that receives the vertex and index buffers
	//   - vertexData: the raw vertex bytes
	//   - indexData: the raw index bytes
	//   - indexCount: the number of indices in indexData
	//
	// Returns:
	//   - error: an error if the buffers could not be created
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates the buffers missing from provider and a bind group matching descriptor.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to populate
	//   - descriptor: the layout descriptor of the bind group
	//   - usageOverrides: extra usage flags keyed by binding index (nil safe)
	//   - sizeOverrides: buffer sizes keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if a buffer or the bind group could not be created
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, usageOverrides map[int]wgpu.BufferUsage, sizeOverrides map[int]uint64) error

	// WriteBuffers stages every write on the GPU queue.
	//
	// Parameters:
	//   - writes: the buffer writes to apply
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame opens the batched compute encoder for this frame.
	//
	// Returns:
	//   - error: an error if the encoder could not be created
	BeginComputeFrame() error

	// DispatchCompute encodes a dispatch of the compute pipeline registered under key.
	//
	// Parameters:
	//   - key: the pipeline key
	//   - provider: the BindGroupProvider bound at group 0
	//   - workGroupCount: the workgroup counts in x, y and z
	//
	// Returns:
	//   - error: ErrUnknownPipeline when key is not registered, or an error if no compute frame is open
	DispatchCompute(key string, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// EndComputeFrame submits every dispatch encoded since BeginComputeFrame.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndComputeFrame() error

	// BeginFrame acquires the swapchain texture and opens the main render pass.
	//
	// Returns:
	//   - error: an error if the frame could not be started; the caller should skip the frame
	BeginFrame() error

	// DrawCall encodes one indexed, instanced draw of the render pipeline registered under key.
	//
	// Parameters:
	//   - key: the pipeline key
	//   - meshProvider: the BindGroupProvider holding the vertex and index buffers
	//   - instanceBuffer: the per-instance vertex buffer bound at slot 1, or nil
	//   - instanceCount: the number of instances
	//   - bindGroups: the BindGroupProviders bound at group 0, 1, ...
	//
	// Returns:
	//   - error: ErrUnknownPipeline when key is not registered, or a backend error
	DrawCall(key string, meshProvider bind_group_provider.BindGroupProvider, instanceBuffer *wgpu.Buffer, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame closes the render pass and submits it.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndFrame() error

	// Present displays the submitted frame.
	Present()

	// Release frees the GPU device and surface.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend type and window.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - w: the window whose surface the renderer presents to
//   - options: optional RendererBuilderOption functions to customize the renderer
//
// Returns:
//   - Renderer: the created Renderer
//   - error: an error if the GPU adapter, device or surface could not be set up
func NewRenderer(backendType RendererBackendType, w window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		msaa:          MSAA4x,
		clearColor:    DefaultClearColor,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	var err error
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(w.SurfaceDescriptor(), r.forceFallbackAdapter, r.msaa)
	}
	if err != nil {
		return nil, err
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.SetClearColor(r.clearColor)

	if err := r.Resize(w.Width(), w.Height()); err != nil {
		r.backend.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, v := range r.pipelineCache {
		out[k] = v
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		if p == nil {
			continue
		}
		key := p.PipelineKey()
		if r.Pipeline(key) != nil {
			continue
		}

		var err error
		switch p.Type() {
		case pipeline.PipelineTypeRender:
			err = r.backend.RegisterRenderPipeline(p)
		case pipeline.PipelineTypeCompute:
			err = r.backend.RegisterComputePipeline(p)
		default:
			err = fmt.Errorf("pipeline %s: unknown type %d", key, p.Type())
		}
		if err != nil {
			return fmt.Errorf("register pipeline %s: %w", key, err)
		}

		r.mu.Lock()
		r.pipelineCache[key] = p
		r.mu.Unlock()
	}
	return nil
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.backend.SetClearColor(c)
}

func (r *renderer) CreateBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	return r.backend.CreateBuffer(label, usage, data)
}

func (r *renderer) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	r.backend.WriteBuffer(buf, offset, data)
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, usageOverrides map[int]wgpu.BufferUsage, sizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, usageOverrides, sizeOverrides)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	if len(writes) == 0 {
		return
	}
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginComputeFrame() error {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) DispatchCompute(key string, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	p := r.Pipeline(key)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPipeline, key)
	}
	return r.backend.DispatchCompute(p, provider, workGroupCount)
}

func (r *renderer) EndComputeFrame() error {
	return r.backend.EndComputeFrame()
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(key string, meshProvider bind_group_provider.BindGroupProvider, instanceBuffer *wgpu.Buffer, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(key)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPipeline, key)
	}
	return r.backend.DrawCall(p, meshProvider, instanceBuffer, instanceCount, bindGroups)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.backend.Release()
}
