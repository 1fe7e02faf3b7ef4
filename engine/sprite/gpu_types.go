// Package sprite holds the GPU-side types of the camera-facing point sprite: the unit quad
// every point is expanded from and the per-draw uniform controlling its size and shading.
package sprite

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUQuadVertexSource is the canonical WGSL definition of the QuadVertex vertex input.
// Matches GPUQuadVertex layout exactly (8 bytes).
//
//go:embed assets/quad_vertex.wgsl
var GPUQuadVertexSource string

// GPUDrawParamsSource is the canonical WGSL definition of the DrawParams uniform.
// Matches GPUDrawParams layout exactly (32 bytes).
//
//go:embed assets/draw_params.wgsl
var GPUDrawParamsSource string

// GPUQuadVertex is a single corner of the sprite quad in sprite-local units.
// Size: 8 bytes.
type GPUQuadVertex struct {
	Corner [2]float32 // offset 0: corner offset, each component in [-0.5, 0.5]
}

// Size returns the size of the GPUQuadVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (8)
func (g *GPUQuadVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUQuadVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUQuadVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Corner[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Corner[1]))
	return buf
}

// GPUDrawParams is the GPU-aligned representation of the sprite draw uniform.
// Size: 32 bytes.
type GPUDrawParams struct {
	Color         [4]float32 // offset  0: RGBA sprite color
	Size          float32    // offset 16: sprite edge length in world units
	SmoothShading uint32     // offset 20: 1 draws round sprites, 0 draws squares
	_pad          [2]uint32  // offset 24: padding to 32 bytes
}

// Size returns the size of the GPUDrawParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUDrawParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDrawParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUDrawParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Color[i]))
	}
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Size))
	binary.LittleEndian.PutUint32(buf[20:24], g.SmoothShading)
	return buf
}
