// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/surfcache/convert"
	"github.com/gogpu/surfcache/format"
)

// EnsureDrawableCurrent writes the current image to the drawable using
// the flush path selected by the device's render target lock mode.
func (s *Surface) EnsureDrawableCurrent() error {
	if s.state.InDrawable {
		return nil
	}
	mode := s.device.Options().RenderTargetLock
	if !mode.flushesWithTexture() {
		if err := s.EnsureHostCurrent(); err != nil {
			return err
		}
	}
	if err := s.device.Activate(s, UsageBlit); err != nil {
		return fmt.Errorf("flush %v: %w", s, err)
	}

	var err error
	if mode.flushesWithTexture() {
		err = s.flushTexture(s.fullRect())
	} else {
		err = s.flushDrawPixels(s.fullRect())
	}
	if err != nil {
		return err
	}
	s.dirtyRect = s.emptyDirtyRect()
	s.state.InDrawable = true
	return nil
}

// flushDrawPixels writes r of host memory to the drawable.
func (s *Surface) flushDrawPixels(r image.Rectangle) error {
	pitch := s.GetPitch()
	data, f := s.mem, s.format

	switch s.format {
	case format.A4R4G4B4, format.R5G6B5, format.A1R5G5B5, format.R8G8B8,
		format.A8R8G8B8, format.A2R10G10B10:

	case format.X4R4G4B4:
		s.setUnusedBits(r, pitch, 0xF000)
	case format.X1R5G5B5:
		s.setUnusedBits(r, pitch, 0x8000)
	case format.X8R8G8B8:
		s.setUnusedBits(r, pitch, 0xFF000000)

	case format.P8:
		outPitch := format.Align(s.width*4, format.SurfaceAlignment)
		buf := make([]byte, outPitch*s.height)
		err := convert.Convert(s.mem, pitch, s.width, s.height, buf, outPitch, convert.Paletted,
			convert.Params{Palette: s.colorTable()})
		if err != nil {
			return s.convertError(err, convert.Paletted)
		}
		data, f, pitch = buf, format.A8B8G8R8, outPitch

	default:
		Logger().Warn("surfcache: unsupported format in draw-pixels flush, trying anyway",
			slog.String("surface", s.String()), slog.String("format", s.format.String()))
	}

	off := format.LockOffset(f, pitch, r.Min.X, r.Min.Y)
	if err := s.device.DrawPixels(s, s.GLBuffer(), r, f, data[off:], pitch); err != nil {
		return fmt.Errorf("draw pixels to %v: %w", s, err)
	}
	return nil
}

// setUnusedBits forces the padding bits of X formats on inside r so the
// drawable sees opaque pixels.
func (s *Surface) setUnusedBits(r image.Rectangle, pitch int, bits uint32) {
	bpp := s.format.BytesPerPixel()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := s.mem[y*pitch+r.Min.X*bpp : y*pitch+r.Max.X*bpp]
		for x := 0; x < len(row); x += bpp {
			if bpp == 2 {
				binary.LittleEndian.PutUint16(row[x:], binary.LittleEndian.Uint16(row[x:])|uint16(bits))
			} else {
				binary.LittleEndian.PutUint32(row[x:], binary.LittleEndian.Uint32(row[x:])|bits)
			}
		}
	}
}

// flushTexture uploads the surface and draws r of its texture into the
// drawable with nearest filtering.
func (s *Surface) flushTexture(r image.Rectangle) error {
	q := Quad{
		TexCoords: [4]float32{
			float32(r.Min.X) / float32(s.pow2W),
			float32(r.Min.Y) / float32(s.pow2H),
			float32(r.Max.X) / float32(s.pow2W),
			float32(r.Max.Y) / float32(s.pow2H),
		},
		Dst:    r,
		Filter: FilterPoint,
	}
	if err := s.PreLoad(); err != nil {
		return err
	}
	q.Texture = s.texture
	if err := s.device.DrawTexture(s, q); err != nil {
		return fmt.Errorf("textured flush of %v: %w", s, err)
	}
	return nil
}
