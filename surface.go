// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/surfcache/convert"
	"github.com/gogpu/surfcache/format"
)

// maxLockCount is the number of locks after which a surface keeps its host
// copy across texture uploads.
const maxLockCount = 50

// Container owns surfaces as levels of a texture. Surfaces hold a
// non-owning reference to it.
type Container interface {
	// SetDirty marks the whole texture stale.
	SetDirty(dirty bool)

	// SamplerDirty reports that sampler state bound to the texture must be
	// re-validated.
	SamplerDirty()

	// PreLoad brings every level's texture tier up to date.
	PreLoad() error
}

// SurfaceDesc describes a surface to create.
type SurfaceDesc struct {
	Label         string
	Width, Height int

	// Format may be format.Unknown; SetFormat then finalizes it once.
	Format format.Format
	Usage  Usage
}

// Surface is a 2D pixel buffer kept coherent across host memory, a
// drawable and a GPU texture.
//
// A Surface is not safe for concurrent use. Its reference count is.
type Surface struct {
	label  string
	device Device

	container Container
	swapchain *Swapchain

	usage         Usage
	format        format.Format
	width, height int
	pow2W, pow2H  int
	glRect        image.Rectangle
	size          int

	mem     []byte
	texture Texture
	state   State

	dirtyRect  image.Rectangle
	lockedRect image.Rectangle
	lockCount  int

	palette *Palette
	// palette9 is the device palette seen by the last load of a surface
	// without an attached palette.
	palette9 *convert.Palette

	keyFlags KeyFlags
	keys     [keyRoleCount]convert.ColorKey
	// glCKey is the source key the texture was last uploaded with.
	glCKey convert.ColorKey

	clipper    *Clipper
	dib        DIB
	overlayPos image.Point

	renderbuffers       []*renderbufferEntry
	currentRenderbuffer *renderbufferEntry

	refs atomic.Int32
}

// NewSurface creates a surface on dev. When desc.Format is known the
// format is finalized and host memory is allocated; the host tier is then
// the current one.
func NewSurface(dev Device, desc SurfaceDesc) (*Surface, error) {
	if dev == nil {
		return nil, fmt.Errorf("new surface: nil device: %w", ErrInvalidCall)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("new surface %dx%d: %w", desc.Width, desc.Height, ErrInvalidCall)
	}

	s := &Surface{
		label:  desc.Label,
		device: dev,
		usage:  desc.Usage,
		width:  desc.Width,
		height: desc.Height,
	}
	if dev.Caps().NonPow2 {
		s.pow2W, s.pow2H = desc.Width, desc.Height
	} else {
		s.pow2W, s.pow2H = format.NextPow2(desc.Width), format.NextPow2(desc.Height)
	}
	s.state.NonPow2 = s.pow2W != s.width || s.pow2H != s.height
	s.dirtyRect = s.emptyDirtyRect()
	s.refs.Store(1)

	if desc.Format != format.Unknown {
		if err := s.SetFormat(desc.Format); err != nil {
			return nil, err
		}
		s.allocHost()
		s.state.InHost = true
	}
	s.privateSetup()
	return s, nil
}

// privateSetup checks the storage size against the device texture limit.
func (s *Surface) privateSetup() {
	limit := s.device.Caps().MaxTextureSize
	if limit > 0 && (s.pow2W > limit || s.pow2H > limit) && s.usage&(UsageRenderTarget|UsageDepthStencil) == 0 {
		Logger().Warn("surfcache: creating an oversized surface",
			slog.String("surface", s.String()), slog.Int("limit", limit))
		s.state.Oversize = true
		// Set by the first blit.
		s.glRect = image.Rectangle{}
		return
	}
	s.state.Oversize = false
	s.glRect = image.Rect(0, 0, s.pow2W, s.pow2H)
}

// SetFormat finalizes the pixel format. It succeeds once, on a surface
// created with format.Unknown.
func (s *Surface) SetFormat(f format.Format) error {
	if s.format != format.Unknown {
		return fmt.Errorf("set format %v on %v surface: %w", f, s.format, ErrInvalidCall)
	}
	if !f.IsValid() {
		return fmt.Errorf("set format %v: %w", f, ErrInvalidCall)
	}
	if f == format.Unknown {
		s.size = 0
	} else {
		s.size = format.Size(f, s.pow2W, s.pow2H)
	}
	if f == format.D16Lockable {
		s.state.Lockable = true
	}
	s.state.Allocated = false
	s.format = f
	Logger().Debug("surfcache: format set",
		slog.String("surface", s.String()), slog.Int("size", s.size))
	return nil
}

// GetPitch returns the byte pitch of host memory rows.
func (s *Surface) GetPitch() int {
	return format.Pitch(s.format, s.width)
}

// AddRef increments the reference count.
func (s *Surface) AddRef() int32 {
	return s.refs.Add(1)
}

// Release decrements the reference count and frees both tiers when it
// reaches zero.
func (s *Surface) Release() int32 {
	n := s.refs.Add(-1)
	if n == 0 {
		s.destroy()
	}
	return n
}

func (s *Surface) destroy() {
	if s.texture != nil {
		if err := s.device.Activate(s, UsageResourceLoad); err != nil {
			Logger().Warn("surfcache: activate for texture release", slog.Any("err", err))
		}
		s.texture.Destroy()
		s.texture = nil
	}
	if s.state.DIBSection {
		s.releaseDIB()
	}
	if s.state.UserMemory {
		s.state.UserMemory = false
	}
	s.mem = nil
	s.palette9 = nil
	if s.palette != nil {
		s.palette.Release()
		s.palette = nil
	}
	for _, e := range s.renderbuffers {
		e.handle.Destroy()
	}
	s.renderbuffers = nil
	s.currentRenderbuffer = nil
	s.state = State{}
}

// SetContainer attaches s to a container, or detaches it when c is nil.
func (s *Surface) SetContainer(c Container) {
	s.container = c
}

// Container returns the container of s, or nil for a standalone surface.
func (s *Surface) Container() Container {
	return s.container
}

// Swapchain returns the swapchain s belongs to, or nil.
func (s *Surface) Swapchain() *Swapchain {
	return s.swapchain
}

// Device returns the device s was created on.
func (s *Surface) Device() Device { return s.device }

// Width returns the logical width.
func (s *Surface) Width() int { return s.width }

// Height returns the logical height.
func (s *Surface) Height() int { return s.height }

// StorageSize returns the storage (power of two) size.
func (s *Surface) StorageSize() (w, h int) { return s.pow2W, s.pow2H }

// Format returns the pixel format.
func (s *Surface) Format() format.Format { return s.format }

// Usage returns the usage the surface was created with.
func (s *Surface) Usage() Usage { return s.usage }

// State returns a copy of the state record.
func (s *Surface) State() State { return s.state }

// Texture returns the texture tier, or nil before the first upload.
func (s *Surface) Texture() Texture { return s.texture }

// Memory returns host memory, or nil while the host tier is not allocated.
// The slice aliases the surface; it is meant for diagnostics.
func (s *Surface) Memory() []byte { return s.mem }

// SetDoNotFree keeps host memory allocated across texture uploads.
func (s *Surface) SetDoNotFree(keep bool) { s.state.DoNotFree = keep }

// String returns a short description for logs.
func (s *Surface) String() string {
	name := s.label
	if name == "" {
		name = fmt.Sprintf("%p", s)
	}
	return fmt.Sprintf("%s(%dx%d %v)", name, s.width, s.height, s.format)
}

// GLBuffer returns the buffer backing the drawable of s: back buffer 0
// maps to BufferBack, the front buffer to BufferFront and everything else
// to BufferBack.
func (s *Surface) GLBuffer() Buffer {
	sc := s.swapchain
	if sc == nil {
		return BufferBack
	}
	if len(sc.back) > 0 && sc.back[0] == s {
		return BufferBack
	}
	if sc.front == s {
		return BufferFront
	}
	Logger().Warn("surfcache: higher back buffer has no buffer of its own", slog.String("surface", s.String()))
	return BufferBack
}

func (s *Surface) isRenderTarget() bool { return s.usage&UsageRenderTarget != 0 }

func (s *Surface) isPrimaryRenderTarget() bool { return s.device.RenderTarget() == s }

func (s *Surface) isDepthStencilTarget() bool { return s.device.DepthStencil() == s }

// onDrawable reports whether reads and writes of s go through its drawable.
func (s *Surface) onDrawable() bool {
	return s.swapchain != nil || s.isPrimaryRenderTarget()
}

func (s *Surface) fullRect() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// allocHost allocates zeroed host memory if none is present. Four bytes of
// slack follow the image.
func (s *Surface) allocHost() {
	if s.mem == nil {
		s.mem = make([]byte, s.size+4)
	}
}

// freeHost drops host memory unless something keeps it alive. Oversized
// surfaces keep it because their texture only holds a window, and
// converted textures cannot be read back.
func (s *Surface) freeHost() {
	if s.state.DoNotFree || s.state.DynLock || s.state.UserMemory || s.state.DIBSection ||
		s.state.Oversize || s.state.Converted {
		return
	}
	s.mem = nil
	s.state.InHost = false
}
