// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/surfcache"
)

//go:embed shaders/quad.wgsl
var quadShaderSource string

// compileWGSL compiles WGSL to SPIR-V words.
func compileWGSL(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

// QuadPipeline is the render pipeline drawing a textured quad: a uniform
// with the destination and texture rectangles, the texture and a sampler.
type QuadPipeline struct {
	device hal.Device

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	nearest    hal.Sampler
	linear     hal.Sampler

	spirv []uint32
}

// NewQuadPipeline compiles the quad shader and builds its pipeline for
// targets of format target.
func NewQuadPipeline(device hal.Device, target gputypes.TextureFormat) (*QuadPipeline, error) {
	p := &QuadPipeline{device: device}
	if err := p.create(target); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *QuadPipeline) create(target gputypes.TextureFormat) error {
	code, err := compileWGSL(quadShaderSource)
	if err != nil {
		return err
	}
	p.spirv = code

	p.shader, err = p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "surfcache_quad_shader",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return fmt.Errorf("create quad shader: %w", err)
	}

	p.layout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "surfcache_quad_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create quad bind group layout: %w", err)
	}

	p.pipeLayout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "surfcache_quad_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("create quad pipeline layout: %w", err)
	}

	if p.nearest, err = p.sampler("surfcache_quad_nearest", gputypes.FilterModeNearest); err != nil {
		return err
	}
	if p.linear, err = p.sampler("surfcache_quad_linear", gputypes.FilterModeLinear); err != nil {
		return err
	}

	p.pipeline, err = p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "surfcache_quad_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    target,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create quad pipeline: %w", err)
	}
	return nil
}

func (p *QuadPipeline) sampler(label string, mode gputypes.FilterMode) (hal.Sampler, error) {
	s, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: mode,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s sampler: %w", label, err)
	}
	return s, nil
}

// samplerFor returns the sampler implementing f.
func (p *QuadPipeline) samplerFor(f surfcache.Filter) hal.Sampler {
	if f == surfcache.FilterLinear {
		return p.linear
	}
	return p.nearest
}

// bindGroup binds the uniform buffer, the source view and the sampler of f.
func (p *QuadPipeline) bindGroup(uniform hal.Buffer, src hal.TextureView, f surfcache.Filter) (hal.BindGroup, error) {
	g, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "surfcache_quad_bind_group",
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniform.NativeHandle(), Size: quadUniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: src.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: p.samplerFor(f).NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create quad bind group: %w", err)
	}
	return g, nil
}

// record draws the quad into a target of w x h pixels, clipped to clip.
func (p *QuadPipeline) record(rp hal.RenderPassEncoder, group hal.BindGroup, w, h int, clip image.Rectangle) {
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, group, nil)
	rp.SetViewport(0, 0, float32(w), float32(h), 0, 1)
	rp.SetScissorRect(uint32(clip.Min.X), uint32(clip.Min.Y), uint32(clip.Dx()), uint32(clip.Dy()))
	rp.Draw(6, 1, 0, 0)
}

// SPIRV returns the compiled shader words.
func (p *QuadPipeline) SPIRV() []uint32 { return p.spirv }

// Destroy releases the pipeline objects in reverse creation order.
func (p *QuadPipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.linear != nil {
		p.device.DestroySampler(p.linear)
		p.linear = nil
	}
	if p.nearest != nil {
		p.device.DestroySampler(p.nearest)
		p.nearest = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.layout != nil {
		p.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
