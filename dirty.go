// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import "image"

// emptyDirtyRect returns the empty sentinel: Min at the far corner, Max at
// the origin. A union with it yields the other rectangle.
func (s *Surface) emptyDirtyRect() image.Rectangle {
	return image.Rectangle{Min: image.Pt(s.width, s.height), Max: image.Pt(0, 0)}
}

// DirtyRect returns the region written since the last flush, or an empty
// rectangle when nothing is pending.
func (s *Surface) DirtyRect() image.Rectangle {
	if s.dirtyRect.Empty() {
		return image.Rectangle{}
	}
	return s.dirtyRect
}

// AddDirtyRect records a host-side write. A nil rect dirties the whole
// surface. The GPU tiers stop being current and the container is marked
// dirty.
func (s *Surface) AddDirtyRect(r *image.Rectangle) {
	s.state.InTexture = false
	s.state.InDrawable = false

	if r == nil {
		s.dirtyRect = s.fullRect()
	} else {
		s.dirtyRect = unionDirty(s.dirtyRect, r.Intersect(s.fullRect()))
	}

	if s.container != nil {
		s.container.SetDirty(true)
	}
}

// unionDirty is image.Rectangle.Union without the empty-rectangle special
// cases, so that the sentinel acts as the identity.
func unionDirty(a, b image.Rectangle) image.Rectangle {
	if b.Empty() {
		return a
	}
	return image.Rectangle{
		Min: image.Pt(min(a.Min.X, b.Min.X), min(a.Min.Y, b.Min.Y)),
		Max: image.Pt(max(a.Max.X, b.Max.X), max(a.Max.Y, b.Max.Y)),
	}
}
