// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/surfcache"
)

// copyPitchAlignment is the BytesPerRow alignment of texture to buffer
// copies.
const copyPitchAlignment = 256

const (
	// submitTimeout bounds the wait for a readback submission.
	submitTimeout = 5 * time.Second

	pollInterval = 200 * time.Microsecond
)

// ErrQueueTimeout is returned when a submission does not complete in time.
var ErrQueueTimeout = errors.New("gpu: queue did not complete the submission in time")

// Allocator creates textures on a HAL device. Formats without a native
// texture format, and compressed ones, are refused with ErrUnsupported.
type Allocator struct {
	device hal.Device
	queue  hal.Queue
	wait   time.Duration
}

// NewAllocator returns an allocator for device and queue.
func NewAllocator(device hal.Device, queue hal.Queue) *Allocator {
	return &Allocator{device: device, queue: queue, wait: submitTimeout}
}

func (a *Allocator) CreateTexture(desc surfcache.TextureDesc) (surfcache.Texture, error) {
	if !desc.Format.IsValid() || desc.Format.IsCompressed() {
		return nil, fmt.Errorf("gpu: %v texture: %w", desc.Format, surfcache.ErrUnsupported)
	}
	native := desc.Format.Native()
	if native == gputypes.TextureFormatUndefined {
		return nil, fmt.Errorf("gpu: %v has no native texture format: %w", desc.Format, surfcache.ErrUnsupported)
	}
	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        native,
		Usage:         gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %dx%d texture: %w", desc.Width, desc.Height, err)
	}
	return &Texture{a: a, desc: desc, tex: tex}, nil
}

// submit runs cmd and blocks until the queue reports it complete.
func (a *Allocator) submit(cmd hal.CommandBuffer) error {
	idx, err := a.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	deadline := time.Now().Add(a.wait)
	for a.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("gpu: submission %d after %v: %w", idx, a.wait, ErrQueueTimeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// readback records a copy of tex into a staging buffer on enc, which must
// be encoding, submits it and returns the rows at the aligned pitch.
func (a *Allocator) readback(enc hal.CommandEncoder, tex hal.Texture, label string, w, h, bpp uint32) ([]byte, int, error) {
	aligned := (w*bpp + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(aligned) * uint64(h)

	staging, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		enc.DiscardEncoding()
		return nil, 0, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(staging)

	enc.CopyTextureToBuffer(tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: aligned, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	cmdBuf, err := enc.EndEncoding()
	if err != nil {
		return nil, 0, fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	if err := a.submit(cmdBuf); err != nil {
		return nil, 0, err
	}

	m, err := a.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, 0, fmt.Errorf("gpu: map staging buffer: %w", err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(m.Ptr), size))
	if err := a.device.UnmapBuffer(staging); err != nil {
		return nil, 0, fmt.Errorf("gpu: unmap staging buffer: %w", err)
	}
	return out, int(aligned), nil
}

// Texture is a HAL texture holding surface data unchanged.
type Texture struct {
	a    *Allocator
	desc surfcache.TextureDesc
	tex  hal.Texture
}

func (t *Texture) Desc() surfcache.TextureDesc { return t.desc }

// Upload writes r. Partial rectangles are merged into a readback of the
// whole texture and written in one go.
func (t *Texture) Upload(data []byte, pitch int, r image.Rectangle) error {
	if t.tex == nil {
		return fmt.Errorf("gpu: upload to destroyed texture: %w", surfcache.ErrInvalidCall)
	}
	full := image.Rect(0, 0, t.desc.Width, t.desc.Height)
	if !r.In(full) {
		return fmt.Errorf("gpu: upload %v outside %v: %w", r, full, surfcache.ErrInvalidCall)
	}
	bpp := t.desc.BytesPerPixel
	if r != full {
		tight := t.desc.Width * bpp
		whole := make([]byte, tight*t.desc.Height)
		if err := t.Download(whole, tight); err != nil {
			return err
		}
		for y := 0; y < r.Dy(); y++ {
			dst := whole[(r.Min.Y+y)*tight+r.Min.X*bpp:]
			copy(dst[:r.Dx()*bpp], data[y*pitch:])
		}
		data, pitch = whole, tight
	}
	n := min(len(data), pitch*t.desc.Height)
	err := t.a.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data[:n],
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(pitch), RowsPerImage: uint32(t.desc.Height)},
		&hal.Extent3D{Width: uint32(t.desc.Width), Height: uint32(t.desc.Height), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("gpu: write %s: %w", t.desc.Label, err)
	}
	return nil
}

// Download copies the texture into a staging buffer and reads it back.
func (t *Texture) Download(dst []byte, pitch int) error {
	if t.tex == nil {
		return fmt.Errorf("gpu: download from destroyed texture: %w", surfcache.ErrInvalidCall)
	}
	enc, err := t.a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "surfcache_readback"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("surfcache_readback"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	w, h, bpp := t.desc.Width, t.desc.Height, t.desc.BytesPerPixel
	rows, aligned, err := t.a.readback(enc, t.tex, t.desc.Label, uint32(w), uint32(h), uint32(bpp))
	if err != nil {
		return err
	}
	n := min(pitch, w*bpp)
	for y := 0; y < h; y++ {
		if y*pitch+n > len(dst) {
			break
		}
		copy(dst[y*pitch:y*pitch+n], rows[y*aligned:])
	}
	return nil
}

func (t *Texture) Destroy() {
	if t.tex != nil {
		t.a.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// fallback tries the GPU allocator first and falls back to host textures
// for formats it refuses.
type fallback struct {
	primary, secondary surfcache.TextureAllocator
}

func (f fallback) CreateTexture(desc surfcache.TextureDesc) (surfcache.Texture, error) {
	tex, err := f.primary.CreateTexture(desc)
	if err == nil {
		return tex, nil
	}
	surfcache.Logger().Debug("gpu: texture on host",
		slog.String("label", desc.Label), slog.Any("error", err))
	return f.secondary.CreateTexture(desc)
}
