// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package soft implements surfcache.Device in memory.
//
// Drawables are 32-bit A8R8G8B8 pixel stores kept in scanout order:
// swapchain buffers bottom row first, offscreen targets top row first.
// Textures are byte arrays at the texture pitch unless another allocator
// is plugged in with WithTextures.
package soft

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/backend"
	"github.com/gogpu/surfcache/convert"
	"github.com/gogpu/surfcache/format"
)

func init() {
	backend.Register(backend.BackendSoft, func(cfg backend.Config) (surfcache.Device, error) {
		return New(cfg)
	})
}

// Activation records one Activate call.
type Activation struct {
	Surface *surfcache.Surface
	Usage   surfcache.ContextUsage
}

// Transfer records one copy out of a drawable. Method is "copy",
// "stretch" or "framebuffer".
type Transfer struct {
	Method     string
	Source     *surfcache.Surface
	SrcRect    image.Rectangle
	DstRect    image.Rectangle
	UpsideDown bool
}

// Option configures a Device.
type Option func(*Device)

// WithTextures makes the device allocate textures from a.
func WithTextures(a surfcache.TextureAllocator) Option {
	return func(d *Device) { d.textures = a }
}

// Device is an in-memory surfcache.Device.
type Device struct {
	mu sync.Mutex

	caps surfcache.Caps
	opts surfcache.Options

	textures  surfcache.TextureAllocator
	drawables map[*surfcache.Surface]*drawable

	palette      *convert.Palette
	renderTarget *surfcache.Surface
	depthStencil *surfcache.Surface
	inScene      bool
	implicit     *surfcache.Swapchain

	last          Activation
	activations   int
	presents      int
	renderbuffers int
	transfers     []Transfer
	quads         []surfcache.Quad

	log *slog.Logger
}

// New creates a device. A non-zero cfg.Width also creates the implicit
// swapchain and makes its back buffer the render target.
func New(cfg backend.Config, opts ...Option) (*Device, error) {
	d := &Device{
		caps:      cfg.Caps,
		opts:      cfg.Options,
		drawables: make(map[*surfcache.Surface]*drawable),
		log:       surfcache.Logger(),
	}
	d.textures = allocator{}
	for _, o := range opts {
		o(d)
	}
	if cfg.Width > 0 {
		f := cfg.Format
		if f == format.Unknown {
			f = format.X8R8G8B8
		}
		sc, err := surfcache.NewSwapchain(d, surfcache.SwapchainDesc{
			Label:       "implicit",
			Width:       cfg.Width,
			Height:      cfg.Height,
			Format:      f,
			BackBuffers: max(cfg.BackBuffers, 1),
			Effect:      surfcache.SwapDiscard,
		})
		if err != nil {
			return nil, fmt.Errorf("soft: implicit swapchain: %w", err)
		}
		d.implicit = sc
		d.renderTarget = sc.Back(0)
	}
	return d, nil
}

// SetLogger sets the logger used by the device.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = surfcache.Logger()
	}
	d.log = l
}

func (d *Device) Caps() surfcache.Caps       { return d.caps }
func (d *Device) Options() surfcache.Options { return d.opts }

// SetOptions replaces the options.
func (d *Device) SetOptions(o surfcache.Options) { d.opts = o }

func (d *Device) Activate(s *surfcache.Surface, u surfcache.ContextUsage) error {
	d.mu.Lock()
	d.last = Activation{Surface: s, Usage: u}
	d.activations++
	d.mu.Unlock()
	return nil
}

// LastActivation returns the most recent Activate call and the number of
// calls so far.
func (d *Device) LastActivation() (Activation, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.activations
}

// Transfers returns the drawable copies made so far.
func (d *Device) Transfers() []Transfer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Transfer(nil), d.transfers...)
}

// Quads returns the quads drawn so far.
func (d *Device) Quads() []surfcache.Quad {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]surfcache.Quad(nil), d.quads...)
}

func (d *Device) record(t Transfer) {
	d.mu.Lock()
	d.transfers = append(d.transfers, t)
	d.mu.Unlock()
}

func (d *Device) Palette() *convert.Palette { return d.palette }

func (d *Device) SetPalette(p *convert.Palette) {
	if p == nil {
		d.palette = nil
		return
	}
	cp := *p
	d.palette = &cp
}

func (d *Device) RenderTarget() *surfcache.Surface { return d.renderTarget }

// SetRenderTarget sets the primary render target.
func (d *Device) SetRenderTarget(s *surfcache.Surface) { d.renderTarget = s }

func (d *Device) DepthStencil() *surfcache.Surface { return d.depthStencil }

// SetDepthStencil sets the active depth/stencil surface.
func (d *Device) SetDepthStencil(s *surfcache.Surface) { d.depthStencil = s }

func (d *Device) InScene() bool { return d.inScene }

// BeginScene and EndScene bracket scene recording.
func (d *Device) BeginScene() { d.inScene = true }
func (d *Device) EndScene()   { d.inScene = false }

// Swapchain returns the implicit swapchain, or nil.
func (d *Device) Swapchain() *surfcache.Swapchain { return d.implicit }

// Present swaps the front and back drawables, or copies the back drawable
// to the front one for SwapCopy.
func (d *Device) Present(sc *surfcache.Swapchain, effect surfcache.SwapEffect) error {
	if sc == nil {
		sc = d.implicit
	}
	if sc == nil {
		d.log.Debug("soft: present without swapchain")
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presents++
	back := sc.Back(0)
	if back == nil {
		return nil
	}
	fd, bd := d.drawableLocked(sc.Front()), d.drawableLocked(back)
	if effect == surfcache.SwapCopy {
		copy(fd.pix, bd.pix)
		return nil
	}
	fd.pix, bd.pix = bd.pix, fd.pix
	return nil
}

// Presents returns the number of Present calls that reached a swapchain.
func (d *Device) Presents() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presents
}

func (d *Device) CreateTexture(desc surfcache.TextureDesc) (surfcache.Texture, error) {
	return d.textures.CreateTexture(desc)
}

type renderbuffer struct {
	d    *Device
	w, h int
	f    format.Format
}

func (r *renderbuffer) Destroy() {
	r.d.mu.Lock()
	r.d.renderbuffers--
	r.d.mu.Unlock()
}

func (d *Device) CreateRenderbuffer(width, height int, f format.Format) (surfcache.Renderbuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("soft: renderbuffer %dx%d: %w", width, height, surfcache.ErrInvalidCall)
	}
	d.mu.Lock()
	d.renderbuffers++
	d.mu.Unlock()
	return &renderbuffer{d: d, w: width, h: height, f: f}, nil
}

// Renderbuffers returns the number of live renderbuffers.
func (d *Device) Renderbuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.renderbuffers
}

// Forget drops the drawable of s.
func (d *Device) Forget(s *surfcache.Surface) {
	d.mu.Lock()
	delete(d.drawables, s)
	d.mu.Unlock()
}

// Close releases the implicit swapchain and every drawable.
func (d *Device) Close() {
	surfcache.DetachLogger(d)
	if d.implicit != nil {
		d.implicit.Release()
		d.implicit = nil
	}
	d.mu.Lock()
	clear(d.drawables)
	d.mu.Unlock()
}

var (
	_ surfcache.Device = (*Device)(nil)
	_ backend.Closer   = (*Device)(nil)
)
