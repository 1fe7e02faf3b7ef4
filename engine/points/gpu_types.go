package points

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
)

// GPUPointSource is the canonical WGSL definition of the Point storage record.
// Matches GPUPoint layout exactly (16 bytes, std430 aligned).
//
//go:embed assets/point.wgsl
var GPUPointSource string

// GPUPointInstanceSource is the WGSL vertex input that reads a Point record as per-instance data.
// The position attribute sits at InstanceLocation.
//
//go:embed assets/point_instance.wgsl
var GPUPointInstanceSource string

// InstanceLocation is the shader location of the per-instance position attribute.
const InstanceLocation = 1

// GPUPoint is the GPU-aligned representation of a single point-state record.
// Size: 16 bytes (vec3<f32> position plus 4 bytes of padding).
type GPUPoint struct {
	Position [3]float32 // offset  0: current state (x, y, z)
	_pad     float32    // offset 12: padding to 16 bytes
}

// Size returns the size of the GPUPoint struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUPoint) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPoint struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUPoint) Marshal() []byte {
	buf := make([]byte, g.Size())
	putPoint(buf, g.Position)
	return buf
}

// MarshalPoints serializes positions into consecutive 16-byte Point records.
//
// Parameters:
//   - positions: the point states to serialize
//
// Returns:
//   - []byte: len(positions)*16 bytes ready for GPU upload
func MarshalPoints(positions []common.Vec3) []byte {
	var p GPUPoint
	stride := p.Size()
	buf := make([]byte, len(positions)*stride)
	for i, pos := range positions {
		putPoint(buf[i*stride:], pos)
	}
	return buf
}

// UnmarshalPoints decodes consecutive 16-byte Point records back into positions.
// Trailing bytes that do not form a full record are ignored.
//
// Parameters:
//   - data: the raw record bytes
//
// Returns:
//   - []common.Vec3: the decoded positions
func UnmarshalPoints(data []byte) []common.Vec3 {
	var p GPUPoint
	stride := p.Size()
	out := make([]common.Vec3, len(data)/stride)
	for i := range out {
		rec := data[i*stride:]
		out[i] = common.Vec3{
			math.Float32frombits(binary.LittleEndian.Uint32(rec[0:4])),
			math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8])),
			math.Float32frombits(binary.LittleEndian.Uint32(rec[8:12])),
		}
	}
	return out
}

func putPoint(buf []byte, pos [3]float32) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(pos[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(pos[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(pos[2]))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad
}
