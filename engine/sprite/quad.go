package sprite

import (
	"encoding/binary"

	"github.com/cogentcore/webgpu/wgpu"
)

// QuadIndexCount is the number of indices in the sprite quad (two triangles).
const QuadIndexCount = 6

// Quad returns the four corners of a unit quad centered on the origin, counter-clockwise
// from the bottom-left corner.
//
// Returns:
//   - []GPUQuadVertex: the corner vertices
func Quad() []GPUQuadVertex {
	return []GPUQuadVertex{
		{Corner: [2]float32{-0.5, -0.5}},
		{Corner: [2]float32{0.5, -0.5}},
		{Corner: [2]float32{0.5, 0.5}},
		{Corner: [2]float32{-0.5, 0.5}},
	}
}

// QuadIndices returns the triangle list indices for Quad, both triangles wound counter-clockwise.
//
// Returns:
//   - []uint32: the QuadIndexCount indices
func QuadIndices() []uint32 {
	return []uint32{0, 1, 2, 0, 2, 3}
}

// QuadBytes serializes Quad and QuadIndices for upload as vertex and Uint32 index buffers.
//
// Returns:
//   - vertexData: the packed corner vertices
//   - indexData: the packed little-endian indices
func QuadBytes() (vertexData, indexData []byte) {
	for _, v := range Quad() {
		vertexData = append(vertexData, v.Marshal()...)
	}
	indices := QuadIndices()
	indexData = make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(indexData[i*4:], idx)
	}
	return vertexData, indexData
}

// QuadLocation is the shader location of the quad corner attribute.
const QuadLocation = 0

// QuadLayout returns the per-vertex layout of the quad mesh bound at vertex buffer slot 0.
//
// Returns:
//   - wgpu.VertexBufferLayout: one Float32x2 corner attribute, stride 8
func QuadLayout() wgpu.VertexBufferLayout {
	var v GPUQuadVertex
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(v.Size()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: QuadLocation},
		},
	}
}
