// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"fmt"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/convert"
)

// DIB is an in-memory device-independent bitmap.
type DIB struct {
	desc     surfcache.DIBDesc
	bits     []byte
	table    []byte
	released bool
}

func (d *Device) CreateDIB(desc surfcache.DIBDesc) (surfcache.DIB, error) {
	if desc.Pitch <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("soft: dib %dx%d: %w", desc.Width, desc.Height, surfcache.ErrInvalidCall)
	}
	return &DIB{desc: desc, bits: make([]byte, desc.Pitch*desc.Height)}, nil
}

func (b *DIB) Bits() []byte { return b.bits }

// SetColorTable stores p as four-byte RGBQUAD entries.
func (b *DIB) SetColorTable(p *convert.Palette) {
	if p == nil {
		b.table = nil
		return
	}
	b.table = p.ColorTable()
}

// ColorTable returns the table set last.
func (b *DIB) ColorTable() []byte { return b.table }

// Desc returns the bitmap description.
func (b *DIB) Desc() surfcache.DIBDesc { return b.desc }

func (b *DIB) Release() {
	b.released = true
	b.bits = nil
}

// Released reports whether Release was called.
func (b *DIB) Released() bool { return b.released }
