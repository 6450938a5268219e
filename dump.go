// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"io"
	"os"

	"github.com/gogpu/surfcache/format"
	"github.com/gogpu/surfcache/snapshot"
)

// SaveSnapshot writes the surface as a truecolor dump of its storage size.
// Pixels past the logical size are transparent black. Rows are written top
// row first for every surface, swapchain buffers included, since RGBA reads
// drawables back upright.
func (s *Surface) SaveSnapshot(w io.Writer) error {
	rgba, err := s.RGBA()
	if err != nil {
		return err
	}
	return snapshot.Encode(w, s.pow2W, s.pow2H, rgba, false)
}

// SaveSnapshotFile writes SaveSnapshot output to path.
func (s *Surface) SaveSnapshotFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return s.SaveSnapshot(f)
}

// RGBA decodes the current image into R, G, B, A bytes at the storage size,
// top row first.
func (s *Surface) RGBA() ([]byte, error) {
	if s.format.IsCompressed() || !(s.format.IsPaletted() || format.CanUnpack(s.format)) {
		return nil, fmt.Errorf("decode %v: %w", s, ErrUnsupported)
	}
	if err := s.EnsureHostCurrent(); err != nil {
		return nil, err
	}

	out := make([]byte, s.pow2W*s.pow2H*4)
	pitch, bpp := s.GetPitch(), s.format.BytesPerPixel()
	pal := s.colorTable()
	if s.format.IsPaletted() && pal == nil {
		return nil, fmt.Errorf("decode %v: %w", s, ErrNoPalette)
	}

	for y := 0; y < s.height; y++ {
		row := s.mem[y*pitch:]
		dst := out[y*s.pow2W*4:]
		for x := 0; x < s.width; x++ {
			px, o := row[x*bpp:], dst[x*4:x*4+4]
			if s.format.IsPaletted() {
				e := pal[px[0]]
				a := uint8(0xFF)
				if s.format == format.A8P8 {
					a = px[1]
				}
				o[0], o[1], o[2], o[3] = e.R, e.G, e.B, a
				continue
			}
			c, _ := format.Unpack(s.format, px)
			o[0], o[1], o[2], o[3] = c.R, c.G, c.B, c.A
		}
	}
	return out, nil
}
