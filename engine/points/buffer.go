package points

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrCountMismatch is returned by Upload when the number of positions differs from the buffer's record count.
var ErrCountMismatch = errors.New("point count mismatch")

// BufferUsage is the usage every point-state buffer is created with. Storage lets the
// compute pass write it, Vertex lets the render pass read it as instance data, and the
// copy flags allow host uploads and readback in tooling.
const BufferUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

// Allocator creates and writes GPU buffers. The renderer implements it.
type Allocator interface {
	// CreateBuffer creates a GPU buffer with the given usage and uploads data into it.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//   - usage: the buffer usage flags
	//   - data: the initial contents; its length is the buffer size
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: an error if creation fails
	CreateBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data into buf at offset.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: the byte offset into buf
	//   - data: the bytes to write
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
}

// buffer is the implementation of the Buffer interface.
type buffer struct {
	mu *sync.Mutex

	label  string
	alloc  Allocator
	gpu    *wgpu.Buffer
	count  int
	stride uint64
}

// Buffer is the fixed-size point-state buffer. The same GPU buffer is the simulation's
// storage binding and the render pass's per-instance vertex buffer. Its record count never
// changes after creation.
type Buffer interface {
	// GPUBuffer returns the underlying GPU buffer.
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer, nil after Release
	GPUBuffer() *wgpu.Buffer

	// Count returns the number of point records.
	//
	// Returns:
	//   - int: the record count
	Count() int

	// Stride returns the byte size of one record.
	//
	// Returns:
	//   - uint64: the record stride (16)
	Stride() uint64

	// Size returns the byte size of the whole buffer.
	//
	// Returns:
	//   - uint64: Count() * Stride()
	Size() uint64

	// InstanceView returns the vertex buffer layout that reads the buffer as per-instance positions.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the per-instance layout
	InstanceView() wgpu.VertexBufferLayout

	// Upload replaces every record with the given positions. Used by the host stepper.
	//
	// Parameters:
	//   - positions: exactly Count() positions
	//
	// Returns:
	//   - error: an error wrapping ErrCountMismatch if the length differs from Count()
	Upload(positions []common.Vec3) error

	// Release frees the GPU buffer.
	Release()
}

var _ Buffer = &buffer{}

// Create validates the seeds, allocates the point-state buffer and uploads the seeds as its initial contents.
//
// Parameters:
//   - alloc: the allocator used to create and write the GPU buffer
//   - seeds: the initial positions, one per point
//   - options: variadic list of BufferBuilderOption functions
//
// Returns:
//   - Buffer: the created buffer
//   - error: an error if the seeds are invalid or allocation fails
func Create(alloc Allocator, seeds []common.Vec3, options ...BufferBuilderOption) (Buffer, error) {
	if err := ValidateSeeds(seeds); err != nil {
		return nil, err
	}

	var rec GPUPoint
	b := &buffer{
		mu:     &sync.Mutex{},
		label:  "Point State",
		alloc:  alloc,
		count:  len(seeds),
		stride: uint64(rec.Size()),
	}
	for _, opt := range options {
		opt(b)
	}

	gpu, err := alloc.CreateBuffer(b.label, BufferUsage, MarshalPoints(seeds))
	if err != nil {
		return nil, fmt.Errorf("create point buffer: %w", err)
	}
	b.gpu = gpu
	return b, nil
}

// InstanceView returns the per-instance vertex layout for a point-state buffer: one
// Float32x3 attribute at offset 0 and InstanceLocation, stepping once per instance.
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout
func InstanceView() wgpu.VertexBufferLayout {
	var rec GPUPoint
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(rec.Size()),
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{
				Format:         wgpu.VertexFormatFloat32x3,
				Offset:         0,
				ShaderLocation: InstanceLocation,
			},
		},
	}
}

func (b *buffer) GPUBuffer() *wgpu.Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gpu
}

func (b *buffer) Count() int {
	return b.count
}

func (b *buffer) Stride() uint64 {
	return b.stride
}

func (b *buffer) Size() uint64 {
	return uint64(b.count) * b.stride
}

func (b *buffer) InstanceView() wgpu.VertexBufferLayout {
	return InstanceView()
}

func (b *buffer) Upload(positions []common.Vec3) error {
	if len(positions) != b.count {
		return fmt.Errorf("%w: got %d positions for %d records", ErrCountMismatch, len(positions), b.count)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alloc.WriteBuffer(b.gpu, 0, MarshalPoints(positions))
	return nil
}

func (b *buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gpu != nil {
		b.gpu.Release()
		b.gpu = nil
	}
}
