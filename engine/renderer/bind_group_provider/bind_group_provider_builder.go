package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithSharedBuffer attaches an externally owned buffer to a binding.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that shares the buffer at the specified binding
func WithSharedBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
		p.shared[binding] = true
	}
}

// WithMesh sets the vertex and index buffers drawn with this provider.
//
// Parameters:
//   - vertex: the vertex buffer
//   - index: the Uint32 index buffer
//   - indexCount: the number of indices to draw
//
// Returns:
//   - BindGroupProviderOption: a function that sets the mesh buffers
func WithMesh(vertex, index *wgpu.Buffer, indexCount int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexBuffer = vertex
		p.indexBuffer = index
		p.indexCount = indexCount
	}
}
