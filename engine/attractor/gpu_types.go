package attractor

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSimParamsSource is the canonical WGSL definition of the SimParams struct.
// Matches GPUSimParams layout exactly (32 bytes, uniform aligned).
//
//go:embed assets/sim_params.wgsl
var GPUSimParamsSource string

// GPUSimParams is the GPU-aligned representation of the integration step uniform.
// Size: 32 bytes.
type GPUSimParams struct {
	Sigma float32   // offset  0
	Rho   float32   // offset  4
	Beta  float32   // offset  8
	Dt    float32   // offset 12: step size
	Count uint32    // offset 16: number of live points
	_pad  [3]uint32 // offset 20: padding to 32 bytes
}

// NewGPUSimParams packs the parameters, step size and point count into a GPUSimParams.
//
// Parameters:
//   - p: the attractor parameters
//   - dt: the step size
//   - count: the number of points in the state buffer
//
// Returns:
//   - GPUSimParams: the packed uniform
func NewGPUSimParams(p Parameters, dt float32, count uint32) GPUSimParams {
	return GPUSimParams{Sigma: p.Sigma, Rho: p.Rho, Beta: p.Beta, Dt: dt, Count: count}
}

// Size returns the size of the GPUSimParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUSimParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSimParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUSimParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Sigma))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Rho))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Beta))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Dt))
	binary.LittleEndian.PutUint32(buf[16:20], g.Count)
	return buf
}
