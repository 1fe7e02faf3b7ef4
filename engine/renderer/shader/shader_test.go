package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lorenz/engine/points"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const computeSource = `
//@oxy:include sim_params
//@oxy:include point
//@oxy:group 0 0 storage_uniform params sim_params
//@oxy:group 0 1 storage_read_write points array<point>

@compute @workgroup_size(64)
fn integrate(@builtin(global_invocation_id) id: vec3<u32>) {
    let i = id.x;
    if (i >= params.count) {
        return;
    }
}
`

const vertexSource = `
//@oxy:include quad_vertex
//@oxy:include point_instance
//@oxy:include camera
//@oxy:group 0 0 storage_uniform camera camera

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) corner: vec2<f32>,
};

@vertex
fn vs_main(vertex: QuadVertex, instance: PointInstance) -> VertexOutput {
    var out: VertexOutput;
    out.clip = camera.view_proj * vec4<f32>(instance.position, 1.0);
    out.corner = vertex.corner;
    return out;
}
`

const fragmentSource = `
//@oxy:include camera
//@oxy:include draw_params
//@oxy:group 0 0 storage_uniform camera camera
//@oxy:group 1 0 storage_uniform draw draw_params

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return draw.color;
}
`

func TestPreProcessorGeneratesDeclarations(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process(computeSource)
	require.NoError(t, err)

	assert.Contains(t, out, "struct SimParams")
	assert.Contains(t, out, "struct Point")
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> params: SimParams;")
	assert.Contains(t, out, "@group(0) @binding(1) var<storage, read_write> points: array<Point>;")
	assert.NotContains(t, out, "@oxy:")

	decls := pp.Declarations()
	require.Len(t, decls, 2)

	g, b, ok := FindBinding(decls, ArrayOf(AnnotationArgPoint))
	require.True(t, ok)
	assert.Equal(t, 0, g)
	assert.Equal(t, 1, b)

	g, b, ok = FindBinding(decls, AnnotationArgSimParams)
	require.True(t, ok)
	assert.Equal(t, 0, g)
	assert.Equal(t, 0, b)

	_, _, ok = FindBinding(decls, AnnotationArgCamera)
	assert.False(t, ok)
}

func TestPreProcessorResetsDeclarations(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process(computeSource)
	require.NoError(t, err)
	_, err = pp.Process("fn noop() {}")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
}

func TestPreProcessorErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty annotation", "//@oxy:"},
		{"unknown annotation", "//@oxy:texture 0"},
		{"unknown include", "//@oxy:include material"},
		{"include arity", "//@oxy:include camera point"},
		{"group arity", "//@oxy:group 0 0 storage_uniform camera"},
		{"bad group index", "//@oxy:group x 0 storage_uniform camera camera"},
		{"bad binding index", "//@oxy:group 0 y storage_uniform camera camera"},
		{"unknown address space", "//@oxy:group 0 0 workgroup camera camera"},
		{"unknown struct", "//@oxy:group 0 0 storage_uniform light light"},
		{"unknown array element", "//@oxy:group 0 0 storage_read lights array<light>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPreProcessor().Process(tt.source)
			assert.Error(t, err)
		})
	}
}

func TestComputeShader(t *testing.T) {
	s, err := NewShaderFromSource("integrate", ShaderTypeCompute, computeSource)
	require.NoError(t, err)

	assert.Equal(t, "integrate", s.EntryPoint())
	assert.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())
	assert.Empty(t, s.VertexLayouts())
	require.NotNil(t, s.Module())
	assert.Equal(t, s.Source(), s.Module().WGSLDescriptor.Code)

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 2)

	params := desc.Entries[0]
	assert.Equal(t, uint32(0), params.Binding)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, params.Buffer.Type)
	assert.Equal(t, uint64(32), params.Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageCompute, params.Visibility)

	pts := desc.Entries[1]
	assert.Equal(t, uint32(1), pts.Binding)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, pts.Buffer.Type)
	assert.Equal(t, uint64(16), pts.Buffer.MinBindingSize)

	assert.Equal(t, "points", s.BindGroupVarName(0, 1))
	b, ok := s.BindGroupFromVarName(0, "params")
	assert.True(t, ok)
	assert.Equal(t, 0, b)
	_, ok = s.BindGroupFromVarName(3, "params")
	assert.False(t, ok)
	assert.Len(t, s.Declarations(), 2)
}

func TestVertexShaderLayouts(t *testing.T) {
	s, err := NewShaderFromSource("draw_vs", ShaderTypeVertex, vertexSource)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", s.EntryPoint())

	layouts := OrderedVertexLayouts(s)
	require.Len(t, layouts, 2)

	quad := layouts[0]
	assert.Equal(t, wgpu.VertexStepModeVertex, quad.StepMode)
	assert.Equal(t, uint64(8), quad.ArrayStride)
	require.Len(t, quad.Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, quad.Attributes[0].Format)
	assert.Equal(t, uint32(0), quad.Attributes[0].ShaderLocation)

	assert.Equal(t, points.InstanceView(), layouts[1])

	cam := s.BindGroupLayoutDescriptor(0)
	require.Len(t, cam.Entries, 1)
	assert.Equal(t, uint64(128), cam.Entries[0].Buffer.MinBindingSize)
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vs, err := NewShaderFromSource("draw_vs", ShaderTypeVertex, vertexSource)
	require.NoError(t, err)
	fs, err := NewShaderFromSource("draw_fs", ShaderTypeFragment, fragmentSource)
	require.NoError(t, err)

	merged := MergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
	require.Len(t, merged, 2)

	cam := merged[0]
	require.Len(t, cam.Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, cam.Entries[0].Visibility)

	draw := merged[1]
	require.Len(t, draw.Entries, 1)
	assert.Equal(t, wgpu.ShaderStageFragment, draw.Entries[0].Visibility)
	assert.Equal(t, uint64(32), draw.Entries[0].Buffer.MinBindingSize)
}

func TestNewShaderFromSourceRequiresEntryPoint(t *testing.T) {
	_, err := NewShaderFromSource("broken", ShaderTypeFragment, computeSource)
	assert.Error(t, err)
}

func TestNewShaderRejectsMissingFile(t *testing.T) {
	_, err := NewShader("missing", ShaderTypeCompute, "")
	assert.Error(t, err)

	_, err = NewShader("missing", ShaderTypeCompute, t.TempDir()+"/nope.wgsl")
	assert.Error(t, err)
}

func TestParseWorkgroupSize(t *testing.T) {
	tests := []struct {
		src  string
		want [3]uint32
	}{
		{"fn f() {}", [3]uint32{1, 1, 1}},
		{"@workgroup_size(64)", [3]uint32{64, 1, 1}},
		{"@workgroup_size(8, 8)", [3]uint32{8, 8, 1}},
		{"@workgroup_size(4, 4, 4)", [3]uint32{4, 4, 4}},
		{"// @workgroup_size(32)\n@workgroup_size(16)", [3]uint32{16, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, parseWorkgroupSize(tt.src))
		})
	}
}

func TestStripComments(t *testing.T) {
	src := "a /* outer /* inner */ still */ b // tail\nc"
	assert.Equal(t, "a  b \nc\n", stripComments(src))
}

func TestResolveTypeLayout(t *testing.T) {
	known := map[string]wgslTypeLayout{"Point": {16, 16}}
	tests := []struct {
		name string
		in   string
		want wgslTypeLayout
		ok   bool
	}{
		{"scalar", "f32", wgslTypeLayout{4, 4}, true},
		{"vec3 pads", "vec3<f32>", wgslTypeLayout{12, 16}, true},
		{"struct", "Point", wgslTypeLayout{16, 16}, true},
		{"fixed array", "array<Point, 4>", wgslTypeLayout{64, 16}, true},
		{"runtime array", "array<Point>", wgslTypeLayout{16, 16}, true},
		{"unknown", "Light", wgslTypeLayout{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolveTypeLayout(tt.in, known)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyResourceSkipsHandles(t *testing.T) {
	_, ok := classifyResource(0, wgpu.ShaderStageFragment, "")
	assert.False(t, ok)

	e, ok := classifyResource(2, wgpu.ShaderStageCompute, "storage, read")
	require.True(t, ok)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, e.Buffer.Type)
}
