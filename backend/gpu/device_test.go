// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"image"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/backend"
	"github.com/gogpu/surfcache/backend/soft"
	"github.com/gogpu/surfcache/format"
)

// createNoopDevice opens a noop HAL device.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func TestCompileQuadShader(t *testing.T) {
	code, err := compileWGSL(quadShaderSource)
	if err != nil {
		t.Fatalf("compileWGSL() error = %v", err)
	}
	// SPIR-V magic number.
	if len(code) == 0 || code[0] != 0x07230203 {
		t.Errorf("missing SPIR-V magic, got %d words", len(code))
	}
}

func TestNewQuadPipeline(t *testing.T) {
	device, _ := createNoopDevice(t)
	p, err := NewQuadPipeline(device, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("NewQuadPipeline() error = %v", err)
	}
	if len(p.SPIRV()) == 0 {
		t.Error("SPIRV() is empty")
	}
	p.Destroy()
	p.Destroy()
}

func TestAllocatorRefusesFormats(t *testing.T) {
	device, queue := createNoopDevice(t)
	a := NewAllocator(device, queue)
	tests := []struct {
		name string
		desc surfcache.TextureDesc
	}{
		{"compressed", surfcache.TextureDesc{Width: 4, Height: 4, Format: format.DXT1, BytesPerPixel: 1}},
		{"unknown", surfcache.TextureDesc{Width: 4, Height: 4, Format: format.Unknown, BytesPerPixel: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.CreateTexture(tt.desc); !errors.Is(err, surfcache.ErrUnsupported) {
				t.Errorf("CreateTexture() error = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestSharedDeviceFallsBackToHost(t *testing.T) {
	device, queue := createNoopDevice(t)
	d, err := NewShared(backend.DefaultConfig(), device, queue)
	if err != nil {
		t.Fatalf("NewShared() error = %v", err)
	}
	defer d.Close()

	tex, err := d.CreateTexture(surfcache.TextureDesc{Width: 4, Height: 4, Format: format.DXT1, BytesPerPixel: 1})
	if err != nil {
		t.Fatalf("CreateTexture(DXT1) error = %v", err)
	}
	data := make([]byte, tex.Desc().Pitch()*tex.Desc().Rows())
	if err := tex.Upload(data, tex.Desc().Pitch(), image.Rect(0, 0, 4, 4)); err != nil {
		t.Errorf("Upload() error = %v", err)
	}
}

func TestNewSharedRequiresQueue(t *testing.T) {
	device, _ := createNoopDevice(t)
	if _, err := NewShared(backend.DefaultConfig(), device, nil); !errors.Is(err, surfcache.ErrInvalidCall) {
		t.Errorf("NewShared(nil queue) error = %v, want ErrInvalidCall", err)
	}
}

// recordingDevice records the objects created on a noop device.
type recordingDevice struct {
	hal.Device
	textures []hal.TextureDescriptor
	groups   [][]gputypes.BindGroupEntry
	encoders []*recordingEncoder
}

func (r *recordingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	r.textures = append(r.textures, *desc)
	return r.Device.CreateTexture(desc)
}

func (r *recordingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	r.groups = append(r.groups, desc.Entries)
	return r.Device.CreateBindGroup(desc)
}

func (r *recordingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := r.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	re := &recordingEncoder{CommandEncoder: enc}
	r.encoders = append(r.encoders, re)
	return re, nil
}

func (r *recordingDevice) passes() []*recordingPass {
	var out []*recordingPass
	for _, e := range r.encoders {
		out = append(out, e.passes...)
	}
	return out
}

type recordingEncoder struct {
	hal.CommandEncoder
	passes []*recordingPass
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	p := &recordingPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), desc: *desc}
	e.passes = append(e.passes, p)
	return p
}

type recordingPass struct {
	hal.RenderPassEncoder
	desc     hal.RenderPassDescriptor
	pipeline bool
	scissor  image.Rectangle
	draws    [][4]uint32
	ended    bool
}

func (p *recordingPass) SetPipeline(pl hal.RenderPipeline) {
	p.pipeline = pl != nil
	p.RenderPassEncoder.SetPipeline(pl)
}

func (p *recordingPass) SetScissorRect(x, y, w, h uint32) {
	p.scissor = image.Rect(int(x), int(y), int(x+w), int(y+h))
	p.RenderPassEncoder.SetScissorRect(x, y, w, h)
}

func (p *recordingPass) Draw(vertices, instances, firstVertex, firstInstance uint32) {
	p.draws = append(p.draws, [4]uint32{vertices, instances, firstVertex, firstInstance})
	p.RenderPassEncoder.Draw(vertices, instances, firstVertex, firstInstance)
}

func (p *recordingPass) End() {
	p.ended = true
	p.RenderPassEncoder.End()
}

// recordingQueue records buffer writes and can hold submissions back.
type recordingQueue struct {
	hal.Queue
	writes [][]byte
	stall  bool
}

func (q *recordingQueue) WriteBuffer(b hal.Buffer, offset uint64, data []byte) error {
	q.writes = append(q.writes, append([]byte(nil), data...))
	return q.Queue.WriteBuffer(b, offset, data)
}

func (q *recordingQueue) PollCompleted() uint64 {
	if q.stall {
		return 0
	}
	return q.Queue.PollCompleted()
}

func newRecordingDevice(t *testing.T) (*Device, *recordingDevice, *recordingQueue) {
	t.Helper()
	device, queue := createNoopDevice(t)
	rd := &recordingDevice{Device: device}
	rq := &recordingQueue{Queue: queue}
	d, err := NewShared(backend.DefaultConfig(), rd, rq)
	if err != nil {
		t.Fatalf("NewShared() error = %v", err)
	}
	t.Cleanup(d.Close)
	return d, rd, rq
}

func decodeFloats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func TestQuadUniform(t *testing.T) {
	tests := []struct {
		name string
		q    surfcache.Quad
		want []float32
	}{
		{
			name: "full target",
			q:    surfcache.Quad{TexCoords: [4]float32{0, 0, 1, 1}, Dst: image.Rect(0, 0, 8, 4)},
			want: []float32{-1, 1, 1, -1, 0, 0, 1, 1, 0, 0, 0, 0},
		},
		{
			name: "flipped keyed",
			q:    surfcache.Quad{TexCoords: [4]float32{0, 1, 1, 0}, Dst: image.Rect(2, 1, 6, 3), AlphaTest: true},
			want: []float32{-0.5, 0.5, 0.5, -0.5, 0, 1, 1, 0, 1, 0, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := quadUniform(tt.q, 8, 4)
			if len(got) != quadUniformSize {
				t.Fatalf("uniform size = %d, want %d", len(got), quadUniformSize)
			}
			if diff := cmp.Diff(tt.want, decodeFloats(got)); diff != "" {
				t.Errorf("uniform mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSamplerForFilter(t *testing.T) {
	device, _ := createNoopDevice(t)
	p, err := NewQuadPipeline(device, targetFormat)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()
	if p.samplerFor(surfcache.FilterLinear) != p.linear {
		t.Error("linear filter does not use the linear sampler")
	}
	if p.samplerFor(surfcache.FilterNone) != p.nearest || p.samplerFor(surfcache.FilterPoint) != p.nearest {
		t.Error("point filters do not use the nearest sampler")
	}
}

func TestDrawTextureRendersQuad(t *testing.T) {
	d, rd, rq := newRecordingDevice(t)
	dst, err := surfcache.NewSurface(d, surfcache.SurfaceDesc{Label: "dst", Width: 8, Height: 8, Format: format.A8R8G8B8})
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Release()
	if err := d.Clear(dst, image.Rect(0, 0, 8, 8), 0xFF00FF00); err != nil {
		t.Fatal(err)
	}
	tex, err := d.CreateTexture(surfcache.TextureDesc{Label: "src", Width: 4, Height: 4, Format: format.A8R8G8B8, BytesPerPixel: 4})
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Destroy()
	if _, ok := tex.(*Texture); !ok {
		t.Fatalf("texture %T is not on the HAL device", tex)
	}

	rd.textures, rq.writes = nil, nil
	q := surfcache.Quad{
		Texture:   tex,
		TexCoords: [4]float32{0, 0, 1, 1},
		Dst:       image.Rect(2, 2, 6, 6),
		Filter:    surfcache.FilterLinear,
		AlphaTest: true,
	}
	if err := d.DrawTexture(dst, q); err != nil {
		t.Fatalf("DrawTexture() error = %v", err)
	}

	passes := rd.passes()
	if len(passes) != 1 {
		t.Fatalf("render passes = %d, want 1", len(passes))
	}
	rp := passes[0]
	if !rp.pipeline || !rp.ended {
		t.Errorf("pass pipeline set = %v, ended = %v", rp.pipeline, rp.ended)
	}
	if diff := cmp.Diff([][4]uint32{{6, 1, 0, 0}}, rp.draws); diff != "" {
		t.Errorf("draws mismatch (-want +got):\n%s", diff)
	}
	if rp.scissor != q.Dst {
		t.Errorf("scissor = %v, want %v", rp.scissor, q.Dst)
	}
	if ca := rp.desc.ColorAttachments; len(ca) != 1 || ca[0].LoadOp != gputypes.LoadOpLoad {
		t.Errorf("color attachments = %+v, want one loading attachment", ca)
	}
	if len(rd.textures) != 1 || rd.textures[0].Format != targetFormat ||
		rd.textures[0].Usage&gputypes.TextureUsageRenderAttachment == 0 {
		t.Errorf("render target descriptors = %+v", rd.textures)
	}
	if len(rd.groups) != 1 || len(rd.groups[0]) != 3 {
		t.Errorf("bind groups = %v, want one with 3 entries", rd.groups)
	}
	if len(rq.writes) != 1 {
		t.Fatalf("buffer writes = %d, want 1", len(rq.writes))
	}
	if diff := cmp.Diff(quadUniform(q, 8, 8), rq.writes[0]); diff != "" {
		t.Errorf("uniform mismatch (-want +got):\n%s", diff)
	}

	// The noop device reads back zeros inside the quad only.
	img := d.Pixels(dst)
	if got := format.ARGB(img.NRGBAAt(0, 0)); got != 0xFF00FF00 {
		t.Errorf("pixel outside quad = %#08x, want 0xff00ff00", got)
	}
	if got := format.ARGB(img.NRGBAAt(3, 3)); got != 0 {
		t.Errorf("pixel inside quad = %#08x, want readback value 0", got)
	}
}

func TestDrawTextureHostTextureUsesSoftPath(t *testing.T) {
	d, rd, _ := newRecordingDevice(t)
	dst, err := surfcache.NewSurface(d, surfcache.SurfaceDesc{Label: "dst", Width: 4, Height: 4, Format: format.A8R8G8B8})
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Release()

	tex, err := soft.NewAllocator().CreateTexture(surfcache.TextureDesc{Width: 2, Height: 2, Format: format.A8R8G8B8, BytesPerPixel: 4})
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Destroy()
	src := make([]byte, 2*2*4)
	for i := 0; i < 4; i++ {
		format.Pack(format.A8R8G8B8, src[i*4:], format.FromARGB(0xFF112233))
	}
	if err := tex.Upload(src, 8, image.Rect(0, 0, 2, 2)); err != nil {
		t.Fatal(err)
	}

	q := surfcache.Quad{Texture: tex, TexCoords: [4]float32{0, 0, 1, 1}, Dst: image.Rect(0, 0, 4, 4)}
	if err := d.DrawTexture(dst, q); err != nil {
		t.Fatalf("DrawTexture() error = %v", err)
	}
	if n := len(rd.passes()); n != 0 {
		t.Errorf("render passes = %d, want 0 for a host texture", n)
	}
	if got := format.ARGB(d.Pixels(dst).NRGBAAt(3, 3)); got != 0xFF112233 {
		t.Errorf("pixel = %#08x, want 0xff112233", got)
	}
}

func TestDownloadTimeout(t *testing.T) {
	d, _, rq := newRecordingDevice(t)
	tex, err := d.CreateTexture(surfcache.TextureDesc{Label: "src", Width: 2, Height: 2, Format: format.A8R8G8B8, BytesPerPixel: 4})
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Destroy()

	rq.stall = true
	d.alloc.wait = 5 * time.Millisecond
	err = tex.Download(make([]byte, 16), 8)
	if !errors.Is(err, ErrQueueTimeout) {
		t.Fatalf("Download() error = %v, want ErrQueueTimeout", err)
	}
	if strings.Contains(err.Error(), "%!") {
		t.Errorf("malformed error message %q", err)
	}
}
