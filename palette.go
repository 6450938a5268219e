// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/surfcache/convert"
	"github.com/gogpu/surfcache/format"
)

// Palette is a 256-entry color table shared by paletted surfaces.
type Palette struct {
	entries convert.Palette

	// primary is the render target whose device palette this palette
	// backs, or nil.
	primary *Surface

	refs atomic.Int32
}

// NewPalette returns a palette holding entries; missing entries are black.
func NewPalette(entries []convert.Entry) *Palette {
	p := &Palette{}
	copy(p.entries[:], entries)
	p.refs.Store(1)
	return p
}

// AddRef increments the reference count.
func (p *Palette) AddRef() int32 { return p.refs.Add(1) }

// Release decrements the reference count.
func (p *Palette) Release() int32 { return p.refs.Add(-1) }

// Entries returns a copy of the color table.
func (p *Palette) Entries() convert.Palette { return p.entries }

// Primary reports whether the palette backs the device palette.
func (p *Palette) Primary() bool { return p.primary != nil }

// SetEntries replaces entries starting at start. A primary palette pushes
// the new table to the device and realizes it on its render target.
func (p *Palette) SetEntries(start int, entries []convert.Entry) error {
	if start < 0 || start+len(entries) > len(p.entries) {
		return fmt.Errorf("palette entries [%d:%d]: %w", start, start+len(entries), ErrInvalidCall)
	}
	copy(p.entries[start:], entries)
	if p.primary == nil {
		return nil
	}
	table := p.entries
	p.primary.device.SetPalette(&table)
	return p.primary.RealizePalette()
}

// SetPalette attaches p to the surface; nil detaches. On a render target
// the palette also becomes the device palette.
func (s *Surface) SetPalette(p *Palette) error {
	old := s.palette
	if old != nil && s.isRenderTarget() && old.primary == s {
		old.primary = nil
	}

	if p != nil {
		p.AddRef()
		if s.isRenderTarget() {
			if p.primary == nil {
				table := p.entries
				s.device.SetPalette(&table)
			}
			p.primary = s
		}
	}
	s.palette = p
	if old != nil {
		old.Release()
	}
	return s.RealizePalette()
}

// Palette returns the attached palette, or nil.
func (s *Surface) Palette() *Palette { return s.palette }

// RealizePalette applies a palette change: paletted surfaces lose their
// GPU tiers and a DIB gets the new color table.
func (s *Surface) RealizePalette() error {
	if s.format == format.P8 || s.format == format.A8P8 {
		if !s.state.InHost {
			Logger().Warn("surfcache: palette changed without a current host copy",
				slog.String("surface", s.String()))
		}
		s.state.InTexture = false
		s.state.InDrawable = false
	}
	if s.state.DIBSection && s.dib != nil {
		pal := s.colorTable()
		if pal == nil {
			pal = &convert.Palette{}
		}
		s.dib.SetColorTable(pal)
	}
	return nil
}

// colorTable resolves the palette used to convert s: the attached one,
// else the device palette. It may return nil.
func (s *Surface) colorTable() *convert.Palette {
	if s.palette != nil {
		return &s.palette.entries
	}
	return s.device.Palette()
}

// palette9Changed reports whether the device palette differs from the one
// s was last loaded with. Surfaces with an attached palette and
// non-paletted surfaces never see a change. The snapshot is updated.
func (s *Surface) palette9Changed() bool {
	if s.palette != nil || (s.format != format.P8 && s.format != format.A8P8) {
		return false
	}
	cur := s.device.Palette()
	if cur == nil {
		return false
	}
	if s.palette9 != nil && *s.palette9 == *cur {
		return false
	}
	snap := *cur
	s.palette9 = &snap
	return true
}
