// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import "errors"

// Errors returned by surface operations. Callers compare with errors.Is;
// most are wrapped with the operation that produced them.
var (
	// ErrInvalidCall reports a violated precondition: unlocking a surface
	// that is not locked, locking twice, finalizing the format twice,
	// or touching the active depth/stencil surface inside a scene.
	ErrInvalidCall = errors.New("surfcache: invalid call")

	// ErrNotHandled is returned by the accelerated blit path when it cannot
	// serve a request. Blt answers it by running the software blit.
	ErrNotHandled = errors.New("surfcache: not handled by accelerated path")

	// ErrOutOfMemory reports a failed host or device allocation.
	ErrOutOfMemory = errors.New("surfcache: out of memory")

	// ErrUnsupported reports a format or feature with no implementation.
	ErrUnsupported = errors.New("surfcache: unsupported")

	// ErrDeviceLost is returned by IsLost for a lost surface.
	ErrDeviceLost = errors.New("surfcache: device lost")

	// ErrNotFlippable is returned by Flip on a surface that is not a
	// render target.
	ErrNotFlippable = errors.New("surfcache: surface not flippable")

	// ErrNoDC is returned by GetDC on a surface backed by user memory.
	ErrNoDC = errors.New("surfcache: no device context")

	// ErrDCAlreadyCreated is returned by GetDC while a DC is outstanding.
	ErrDCAlreadyCreated = errors.New("surfcache: device context already created")

	// ErrNotOverlay is returned by overlay calls on non-overlay surfaces.
	ErrNotOverlay = errors.New("surfcache: not an overlay surface")

	// ErrNoPalette is returned when a paletted surface has neither an
	// attached nor a device palette.
	ErrNoPalette = errors.New("surfcache: no palette")
)
