// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import "image"

// Resource is the lifetime side of a surface.
type Resource interface {
	AddRef() int32
	Release() int32
	PreLoad() error
}

// Locker maps surface memory for CPU access.
type Locker interface {
	Lock(r *image.Rectangle, flags LockFlags) (LockedRect, error)
	Unlock() error
}

// Blitter copies between surfaces.
type Blitter interface {
	Blt(dr *image.Rectangle, src *Surface, sr *image.Rectangle, flags BltFlags, fx *BltFx, filter Filter) error
	BltFast(x, y int, src *Surface, sr *image.Rectangle, trans BltFastFlags) error
}

var (
	_ Resource  = (*Surface)(nil)
	_ Locker    = (*Surface)(nil)
	_ Blitter   = (*Surface)(nil)
	_ Container = (*MipChain)(nil)
)
