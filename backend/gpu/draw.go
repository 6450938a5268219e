// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/format"
)

// quadUniformSize is the size of the Quad struct in quad.wgsl.
const quadUniformSize = 48

// targetFormat is the render attachment format. Its bytes are the
// A8R8G8B8 layout of the drawables.
const targetFormat = gputypes.TextureFormatBGRA8Unorm

// quadUniform encodes q for a w x h target: the destination in clip space,
// the texture rectangle and the alpha test switch.
func quadUniform(q surfcache.Quad, w, h int) []byte {
	clipX := func(x int) float32 { return 2*float32(x)/float32(w) - 1 }
	clipY := func(y int) float32 { return 1 - 2*float32(y)/float32(h) }
	v := [quadUniformSize / 4]float32{
		clipX(q.Dst.Min.X), clipY(q.Dst.Min.Y), clipX(q.Dst.Max.X), clipY(q.Dst.Max.Y),
		q.TexCoords[0], q.TexCoords[1], q.TexCoords[2], q.TexCoords[3],
	}
	if q.AlphaTest {
		v[8] = 1
	}
	buf := make([]byte, quadUniformSize)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DrawTexture renders q with the quad pipeline when its texture lives on
// the HAL device. The drawable is loaded into a render attachment, the quad
// is drawn over it and the covered rectangle is read back. Textures the
// allocator left on the host are drawn by the soft device.
func (d *Device) DrawTexture(dst *surfcache.Surface, q surfcache.Quad) error {
	src, ok := q.Texture.(*Texture)
	if !ok || src.tex == nil || d.pipeline == nil {
		return d.Device.DrawTexture(dst, q)
	}
	w, h := dst.Width(), dst.Height()
	clip := q.Dst.Intersect(image.Rect(0, 0, w, h))
	if clip.Empty() {
		return nil
	}
	if err := d.drawQuad(dst, src, q, clip); err != nil {
		return fmt.Errorf("gpu: draw %v: %w", dst, err)
	}
	surfcache.Logger().Debug("gpu: quad drawn",
		slog.String("surface", dst.String()), slog.String("rect", clip.String()),
		slog.Bool("alpha_test", q.AlphaTest))
	return nil
}

func (d *Device) drawQuad(dst *surfcache.Surface, src *Texture, q surfcache.Quad, clip image.Rectangle) error {
	dev, queue := d.device, d.queue
	w, h := dst.Width(), dst.Height()
	extent := hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}

	target, err := dev.CreateTexture(&hal.TextureDescriptor{
		Label:         "surfcache_quad_target",
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create render target: %w", err)
	}
	defer dev.DestroyTexture(target)

	// Discarded texels keep what the drawable held.
	pix := d.Pixels(dst)
	seed := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			format.Pack(format.A8R8G8B8, seed[(y*w+x)*4:], pix.NRGBAAt(x, y))
		}
	}
	err = queue.WriteTexture(&hal.ImageCopyTexture{Texture: target},
		seed, &hal.ImageDataLayout{BytesPerRow: uint32(w * 4), RowsPerImage: uint32(h)}, &extent)
	if err != nil {
		return fmt.Errorf("load render target: %w", err)
	}

	uniform, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "surfcache_quad_uniform",
		Size:  quadUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	defer dev.DestroyBuffer(uniform)
	if err := queue.WriteBuffer(uniform, 0, quadUniform(q, w, h)); err != nil {
		return fmt.Errorf("write uniform buffer: %w", err)
	}

	viewDesc := &hal.TextureViewDescriptor{
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	}
	srcView, err := dev.CreateTextureView(src.tex, viewDesc)
	if err != nil {
		return fmt.Errorf("create source view: %w", err)
	}
	defer dev.DestroyTextureView(srcView)
	targetView, err := dev.CreateTextureView(target, viewDesc)
	if err != nil {
		return fmt.Errorf("create target view: %w", err)
	}
	defer dev.DestroyTextureView(targetView)

	group, err := d.pipeline.bindGroup(uniform, srcView, q.Filter)
	if err != nil {
		return err
	}
	defer dev.DestroyBindGroup(group)

	enc, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "surfcache_quad"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("surfcache_quad"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	enc.TransitionTextures([]hal.TextureBarrier{
		{Texture: src.tex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst, NewUsage: gputypes.TextureUsageTextureBinding,
		}},
		{Texture: target, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst, NewUsage: gputypes.TextureUsageRenderAttachment,
		}},
	})

	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "surfcache_quad_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    targetView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	d.pipeline.record(rp, group, w, h, clip)
	rp.End()

	enc.TransitionTextures([]hal.TextureBarrier{
		{Texture: src.tex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageTextureBinding, NewUsage: gputypes.TextureUsageCopyDst,
		}},
		{Texture: target, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment, NewUsage: gputypes.TextureUsageCopySrc,
		}},
	})

	rows, pitch, err := d.alloc.readback(enc, target, "surfcache_quad_target", uint32(w), uint32(h), 4)
	if err != nil {
		return err
	}
	return d.Device.DrawPixels(dst, dst.GLBuffer(), clip, format.A8R8G8B8,
		rows[clip.Min.Y*pitch+clip.Min.X*4:], pitch)
}
