package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vsSource = `
//@oxy:include quad_vertex
//@oxy:include camera
//@oxy:group 0 0 storage_uniform camera camera

@vertex
fn vs_main(v: QuadVertex) -> @builtin(position) vec4<f32> {
    return camera.view_proj * vec4<f32>(v.corner, 0.0, 1.0);
}
`

const fsSource = `
//@oxy:include camera
//@oxy:include draw_params
//@oxy:group 0 0 storage_uniform camera camera
//@oxy:group 1 0 storage_uniform draw draw_params

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return draw.color;
}
`

func renderShaders(t *testing.T) (shader.Shader, shader.Shader) {
	t.Helper()
	vs, err := shader.NewShaderFromSource("vs", shader.ShaderTypeVertex, vsSource)
	require.NoError(t, err)
	fs, err := shader.NewShaderFromSource("fs", shader.ShaderTypeFragment, fsSource)
	require.NoError(t, err)
	return vs, fs
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("draw", PipelineTypeRender)

	assert.Equal(t, "draw", p.PipelineKey())
	assert.Equal(t, PipelineTypeRender, p.Type())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CompareFunctionLess, p.DepthCompare())
	assert.False(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	assert.NotNil(t, p.BlendState())
	assert.Nil(t, p.VertexBufferLayouts())
}

func TestPipelineOptions(t *testing.T) {
	p := NewPipeline("draw", PipelineTypeRender,
		WithDepthCompare(wgpu.CompareFunctionLessEqual),
		WithDepthWriteEnabled(false),
		WithCullMode(wgpu.CullModeBack),
		WithBlendEnabled(true),
	)
	assert.Equal(t, wgpu.CompareFunctionLessEqual, p.DepthCompare())
	assert.False(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.True(t, p.BlendEnabled())
}

func TestVertexBufferLayoutsFallBackToShader(t *testing.T) {
	vs, fs := renderShaders(t)
	p := NewPipeline("draw", PipelineTypeRender, WithVertexShader(vs), WithFragmentShader(fs))

	layouts := p.VertexBufferLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(8), layouts[0].ArrayStride)
}

func TestVertexBufferLayoutsOverride(t *testing.T) {
	vs, fs := renderShaders(t)
	instance := wgpu.VertexBufferLayout{ArrayStride: 16, StepMode: wgpu.VertexStepModeInstance}
	p := NewPipeline("draw", PipelineTypeRender,
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithVertexBufferLayouts(shader.OrderedVertexLayouts(vs)[0], instance),
	)

	layouts := p.VertexBufferLayouts()
	require.Len(t, layouts, 2)
	assert.Equal(t, instance, layouts[1])
}

func TestBindGroupLayoutDescriptorMergesStages(t *testing.T) {
	vs, fs := renderShaders(t)
	p := NewPipeline("draw", PipelineTypeRender, WithVertexShader(vs), WithFragmentShader(fs))

	cam, ok := p.BindGroupLayoutDescriptor(0)
	require.True(t, ok)
	require.Len(t, cam.Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, cam.Entries[0].Visibility)

	_, ok = p.BindGroupLayoutDescriptor(1)
	assert.True(t, ok)
	_, ok = p.BindGroupLayoutDescriptor(2)
	assert.False(t, ok)
}

func TestShaderLookup(t *testing.T) {
	vs, fs := renderShaders(t)
	p := NewPipeline("draw", PipelineTypeRender, WithVertexShader(vs), WithFragmentShader(fs))
	assert.Same(t, vs, p.Shader(shader.ShaderTypeVertex))
	assert.Same(t, fs, p.Shader(shader.ShaderTypeFragment))
	assert.Nil(t, p.Shader(shader.ShaderTypeCompute))
}

func TestValidate(t *testing.T) {
	vs, fs := renderShaders(t)
	tests := []struct {
		name    string
		p       Pipeline
		wantErr bool
	}{
		{"render complete", NewPipeline("a", PipelineTypeRender, WithVertexShader(vs), WithFragmentShader(fs)), false},
		{"render without fragment", NewPipeline("b", PipelineTypeRender, WithVertexShader(vs)), true},
		{"render without vertex", NewPipeline("c", PipelineTypeRender, WithFragmentShader(fs)), true},
		{"compute without shader", NewPipeline("d", PipelineTypeCompute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingShader)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPipelineObjectByType(t *testing.T) {
	render := NewPipeline("r", PipelineTypeRender)
	compute := NewPipeline("c", PipelineTypeCompute)

	assert.Equal(t, (*wgpu.RenderPipeline)(nil), render.Pipeline())
	assert.Equal(t, (*wgpu.ComputePipeline)(nil), compute.Pipeline())
}
