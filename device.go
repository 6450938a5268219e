// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"image"

	"github.com/gogpu/surfcache/convert"
	"github.com/gogpu/surfcache/format"
)

// Device is the collaborator a surface calls into for everything outside
// host memory: context activation, drawables, textures, renderbuffers and
// OS bitmaps. Calls are synchronous and made from the thread that owns the
// surface.
type Device interface {
	Caps() Caps
	Options() Options

	// Activate makes a context current for work on s.
	Activate(s *Surface, u ContextUsage) error

	// Palette returns the device palette, the one paletted surfaces
	// without an attached palette are converted with. It may be nil.
	Palette() *convert.Palette

	// SetPalette replaces the device palette.
	SetPalette(p *convert.Palette)

	// RenderTarget returns the primary render target, or nil.
	RenderTarget() *Surface

	// DepthStencil returns the active depth/stencil surface, or nil.
	DepthStencil() *Surface

	// InScene reports whether a scene is being recorded.
	InScene() bool

	// Present shows the back buffer of sc using effect. A nil sc names
	// the device's implicit swapchain.
	Present(sc *Swapchain, effect SwapEffect) error

	Framebuffer
	TextureAllocator

	// CreateRenderbuffer allocates an auxiliary buffer, typically a
	// depth/stencil companion of a render target.
	CreateRenderbuffer(width, height int, f format.Format) (Renderbuffer, error)

	// CreateDIB allocates an OS bitmap that can back host memory.
	CreateDIB(desc DIBDesc) (DIB, error)
}

// Framebuffer moves pixels in and out of drawables. All rectangles are in
// surface coordinates, top row first.
type Framebuffer interface {
	// ReadPixels reads r of the drawable of s into dst. Rows arrive in
	// the drawable's scanout order: bottom row first for swapchain
	// buffers. Offscreen targets are stored upside down, so their rows
	// arrive top row first.
	ReadPixels(s *Surface, buf Buffer, r image.Rectangle, f format.Format, dst []byte, pitch int) error

	// DrawPixels writes src, top row first, to r of the drawable of s.
	DrawPixels(s *Surface, buf Buffer, r image.Rectangle, f format.Format, src []byte, pitch int) error

	// DrawTexture draws a textured quad into the drawable of dst.
	DrawTexture(dst *Surface, q Quad) error

	// Clear fills r of the drawable of dst with an A8R8G8B8 color.
	Clear(dst *Surface, r image.Rectangle, argb uint32) error

	// CopyToTexture copies sr of the drawable of src into dr of dst
	// scanline by scanline. Rows are taken in the drawable's storage order
	// and reversed unless upsideDown is set; a destination of a different
	// size picks the nearest source pixel.
	CopyToTexture(src *Surface, sr image.Rectangle, dst Texture, dr image.Rectangle, upsideDown bool) error

	// StretchToTexture renders sr of the drawable of src as a quad into
	// an auxiliary buffer and copies the result into dr of dst. upsideDown
	// has the meaning it has for CopyToTexture.
	StretchToTexture(src *Surface, sr image.Rectangle, dst Texture, dr image.Rectangle, upsideDown bool, filter Filter) error

	// BlitFramebuffer copies between drawables on the GPU. Only called
	// when Caps.FramebufferBlit is set.
	BlitFramebuffer(src *Surface, sr image.Rectangle, dst *Surface, dr image.Rectangle, upsideDown bool, filter Filter) error
}

// Quad describes a textured quad draw.
type Quad struct {
	Texture Texture

	// TexCoords are the normalized source coordinates: left, top, right,
	// bottom.
	TexCoords [4]float32

	Dst image.Rectangle

	// Filter applies to both magnification and minification.
	Filter Filter

	// AlphaTest discards texels with zero alpha.
	AlphaTest bool
}

// TextureDesc describes texture storage.
type TextureDesc struct {
	Label         string
	Width, Height int

	// Format is the layout of the uploaded bytes. format.Unknown is
	// allowed for converted layouts; BytesPerPixel then gives the width.
	Format        format.Format
	BytesPerPixel int
}

// Pitch returns the row pitch of the texture storage.
func (d TextureDesc) Pitch() int {
	if d.Format.IsValid() && d.Format.IsCompressed() {
		return format.Pitch(d.Format, d.Width)
	}
	return format.Align(d.Width*d.BytesPerPixel, format.SurfaceAlignment)
}

// Rows returns the number of storage rows: pixel rows, or block rows for
// compressed formats.
func (d TextureDesc) Rows() int {
	if d.Format.IsValid() && d.Format.IsCompressed() {
		return (d.Height + 3) / 4
	}
	return d.Height
}

// TextureAllocator creates textures.
type TextureAllocator interface {
	CreateTexture(desc TextureDesc) (Texture, error)
}

// Texture is GPU texture storage owned by one surface.
type Texture interface {
	Desc() TextureDesc

	// Upload writes data, laid out at pitch, into r of the texture.
	Upload(data []byte, pitch int, r image.Rectangle) error

	// Download reads the whole texture into dst at pitch, top row first.
	Download(dst []byte, pitch int) error

	Destroy()
}

// Renderbuffer is an auxiliary buffer.
type Renderbuffer interface {
	Destroy()
}

// DIBDesc describes a device-independent bitmap.
type DIBDesc struct {
	Width, Height int
	BitsPerPixel  int
	Pitch         int
	Masks         [3]uint32
}

// DIB is an OS bitmap backing host memory while a device context is out.
type DIB interface {
	// Bits returns the pixel memory of the bitmap.
	Bits() []byte
	SetColorTable(p *convert.Palette)
	Release()
}
