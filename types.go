// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"

	"github.com/gogpu/surfcache/convert"
)

// Usage describes what a surface is created for.
type Usage uint8

const (
	// UsageRenderTarget marks surfaces that can be drawn into.
	UsageRenderTarget Usage = 1 << iota
	// UsageDepthStencil marks depth/stencil buffers.
	UsageDepthStencil
	// UsageOverlay marks overlay surfaces.
	UsageOverlay
)

// ContextUsage tells the device what the context is activated for.
type ContextUsage uint8

const (
	// UsageResourceLoad activates any context able to touch textures.
	UsageResourceLoad ContextUsage = iota
	// UsageBlit activates the surface's drawable for pixel transfers.
	UsageBlit
	// UsageDraw activates the surface's drawable for rendering.
	UsageDraw
)

func (u ContextUsage) String() string {
	switch u {
	case UsageResourceLoad:
		return "resource-load"
	case UsageBlit:
		return "blit"
	case UsageDraw:
		return "draw"
	}
	return fmt.Sprintf("ContextUsage(%d)", uint8(u))
}

// Buffer names the GL-style buffer behind a drawable.
type Buffer uint8

const (
	BufferBack Buffer = iota
	BufferFront
)

func (b Buffer) String() string {
	if b == BufferFront {
		return "front"
	}
	return "back"
}

// LockFlags modify Lock.
type LockFlags uint32

const (
	// LockReadOnly promises not to write; the dirty rect is left alone.
	LockReadOnly LockFlags = 1 << iota
	// LockDiscard promises to overwrite the whole region; no download.
	LockDiscard
	// LockNoDirtyUpdate skips the dirty rect update.
	LockNoDirtyUpdate
	// LockNoSysLock is accepted and ignored.
	LockNoSysLock
)

// Filter selects texture filtering for stretched copies.
type Filter uint8

const (
	FilterNone Filter = iota
	FilterPoint
	FilterLinear
)

func (f Filter) String() string {
	switch f {
	case FilterNone:
		return "none"
	case FilterPoint:
		return "point"
	case FilterLinear:
		return "linear"
	}
	return fmt.Sprintf("Filter(%d)", uint8(f))
}

// BltFlags modify Blt.
type BltFlags uint32

const (
	BltColorFill BltFlags = 1 << iota
	BltKeyDest
	BltKeyDestOverride
	BltKeySrc
	BltKeySrcOverride
	BltWait
	BltDoNotWait
	BltDDFX
)

// BltFastFlags modify BltFast.
type BltFastFlags uint32

const (
	BltFastNoColorKey BltFastFlags = 0
	BltFastSrcColorKey BltFastFlags = 1 << (iota - 1)
	BltFastDestColorKey
	BltFastWait
	BltFastDoNotWait
)

// BltFx carries the optional parameters of Blt.
type BltFx struct {
	// FillColor is the fill value in the destination format, for
	// BltColorFill.
	FillColor uint32

	// SrcColorKey is used with BltKeySrcOverride.
	SrcColorKey convert.ColorKey

	// DestColorKey is used with BltKeyDestOverride.
	DestColorKey convert.ColorKey
}

// StatusFlags select the condition GetBltStatus and GetFlipStatus query.
type StatusFlags uint32

const (
	StatusCanBlt StatusFlags = 1 << iota
	StatusIsBltDone
	StatusCanFlip
	StatusIsFlipDone
)

// SwapEffect is the presentation behavior of a swapchain.
type SwapEffect uint8

const (
	SwapDiscard SwapEffect = iota
	SwapFlip
	SwapCopy
)

// RenderTargetLockMode selects how locked render targets are read and
// written back.
type RenderTargetLockMode uint8

const (
	// RTLDisabled makes render target locks succeed without a readback
	// and unlocks skip the flush.
	RTLDisabled RenderTargetLockMode = iota
	// RTLAuto reads the drawable and flushes with pixel writes.
	RTLAuto
	RTLReadDraw
	RTLReadTex
	RTLTexDraw
	RTLTexTex
)

var rtlNames = [...]string{"disabled", "auto", "readdraw", "readtex", "texdraw", "textex"}

func (m RenderTargetLockMode) String() string {
	if int(m) < len(rtlNames) {
		return rtlNames[m]
	}
	return fmt.Sprintf("RenderTargetLockMode(%d)", uint8(m))
}

// ParseRenderTargetLockMode parses a mode name as printed by String.
func ParseRenderTargetLockMode(s string) (RenderTargetLockMode, error) {
	for i, n := range rtlNames {
		if n == s {
			return RenderTargetLockMode(i), nil
		}
	}
	return RTLAuto, fmt.Errorf("surfcache: unknown render target lock mode %q", s)
}

// flushesWithTexture reports whether an unlock flushes through a textured
// quad instead of a pixel write.
func (m RenderTargetLockMode) flushesWithTexture() bool {
	return m == RTLReadTex || m == RTLTexTex
}

// OffscreenMode selects how offscreen render targets are backed.
type OffscreenMode uint8

const (
	// OffscreenBackbuffer renders offscreen targets in the back buffer.
	OffscreenBackbuffer OffscreenMode = iota
	// OffscreenFBO renders offscreen targets into framebuffer objects.
	OffscreenFBO
)

func (m OffscreenMode) String() string {
	if m == OffscreenFBO {
		return "fbo"
	}
	return "backbuffer"
}

// ParseOffscreenMode parses "backbuffer" or "fbo".
func ParseOffscreenMode(s string) (OffscreenMode, error) {
	switch s {
	case "backbuffer":
		return OffscreenBackbuffer, nil
	case "fbo":
		return OffscreenFBO, nil
	}
	return OffscreenBackbuffer, fmt.Errorf("surfcache: unknown offscreen mode %q", s)
}

// Options are the user-selectable behaviors a device reports.
type Options struct {
	RenderTargetLock   RenderTargetLockMode
	OffscreenRendering OffscreenMode
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{RenderTargetLock: RTLAuto, OffscreenRendering: OffscreenBackbuffer}
}

// Caps are the hardware capabilities a device reports.
type Caps struct {
	// MaxTextureSize is the largest texture edge. Zero means unlimited.
	MaxTextureSize int

	// NonPow2 allows texture storage of the logical size.
	NonPow2 bool

	PalettedTextures bool
	SignedFormats    bool

	// FramebufferBlit enables GPU-side framebuffer to framebuffer copies.
	FramebufferBlit bool
}

func (c Caps) convertCaps() convert.Caps {
	return convert.Caps{PalettedTextures: c.PalettedTextures, SignedFormats: c.SignedFormats}
}
