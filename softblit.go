// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/surfcache/convert"
	"github.com/gogpu/surfcache/format"
)

// softBlt copies or fills on host memory. Copies need matching formats;
// stretching picks the nearest source pixel. Rectangles are clipped to both
// surfaces.
func (s *Surface) softBlt(dr image.Rectangle, src *Surface, sr *image.Rectangle, flags BltFlags, fx *BltFx) (err error) {
	if s.format.IsCompressed() || (src != nil && src.format.IsCompressed()) {
		return fmt.Errorf("software blit of %v: compressed formats: %w", s, ErrUnsupported)
	}
	dr = dr.Canon()
	clipped := dr.Intersect(s.fullRect())
	if clipped.Empty() {
		return nil
	}

	if flags&BltColorFill != 0 {
		return s.softFill(clipped, fx.FillColor)
	}

	if src.format != s.format {
		Logger().Warn("surfcache: software blit between formats not supported",
			slog.String("src", src.format.String()), slog.String("dst", s.format.String()))
		return fmt.Errorf("software blit %v to %v: %w", src.format, s.format, ErrUnsupported)
	}
	srect := src.rectOrFull(sr).Canon()
	if srect.Empty() {
		return nil
	}

	var srcKey, dstKey *convert.ColorKey
	switch {
	case flags&BltKeySrcOverride != 0:
		srcKey = &fx.SrcColorKey
	case flags&BltKeySrc != 0:
		if k, ok := src.ColorKey(KeySrcBlt); ok {
			srcKey = &k
		}
	}
	switch {
	case flags&BltKeyDestOverride != 0:
		dstKey = &fx.DestColorKey
	case flags&BltKeyDest != 0:
		if k, ok := s.ColorKey(KeyDestBlt); ok {
			dstKey = &k
		}
	}

	// Read the source first; it may be s itself.
	srcPix, srcPitch, err := src.readRect(srect)
	if err != nil {
		return err
	}

	lr, err := s.Lock(&clipped, 0)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := s.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()

	bpp := s.format.BytesPerPixel()
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		sy := (y - dr.Min.Y) * srect.Dy() / dr.Dy()
		if sy < 0 || srect.Min.Y+sy >= src.height {
			continue
		}
		drow := lr.Bits[(y-clipped.Min.Y)*lr.Pitch:]
		srow := srcPix[sy*srcPitch:]
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			sx := (x - dr.Min.X) * srect.Dx() / dr.Dx()
			if sx < 0 || srect.Min.X+sx >= src.width {
				continue
			}
			sp := srow[sx*bpp : sx*bpp+bpp]
			dp := drow[(x-clipped.Min.X)*bpp : (x-clipped.Min.X)*bpp+bpp]
			if srcKey != nil && srcKey.Contains(format.Word(sp, bpp)) {
				continue
			}
			if dstKey != nil && !dstKey.Contains(format.Word(dp, bpp)) {
				continue
			}
			copy(dp, sp)
		}
	}
	return err
}

// readRect returns a copy of r of the current image, clipped to the
// surface, packed at r.Dx()*bpp bytes per row.
func (s *Surface) readRect(r image.Rectangle) ([]byte, int, error) {
	bpp := s.format.BytesPerPixel()
	pitch := r.Dx() * bpp
	out := make([]byte, pitch*r.Dy())

	clipped := r.Intersect(s.fullRect())
	if clipped.Empty() {
		return out, pitch, nil
	}
	lr, err := s.Lock(&clipped, LockReadOnly)
	if err != nil {
		return nil, 0, err
	}
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		row := lr.Bits[(y-clipped.Min.Y)*lr.Pitch:]
		off := (y-r.Min.Y)*pitch + (clipped.Min.X-r.Min.X)*bpp
		copy(out[off:off+clipped.Dx()*bpp], row)
	}
	if err := s.Unlock(); err != nil {
		return nil, 0, err
	}
	return out, pitch, nil
}

// softFill writes the fill value, in the surface format, over r.
func (s *Surface) softFill(r image.Rectangle, fill uint32) (err error) {
	lr, err := s.Lock(&r, 0)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := s.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()
	bpp := s.format.BytesPerPixel()
	for y := 0; y < r.Dy(); y++ {
		row := lr.Bits[y*lr.Pitch:]
		for x := 0; x < r.Dx(); x++ {
			format.PutWord(row[x*bpp:], bpp, fill)
		}
	}
	return nil
}
