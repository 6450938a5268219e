// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/surfcache/convert"
	"github.com/gogpu/surfcache/format"
)

// PreLoad makes the texture tier current. Surfaces inside a container load
// through it so that every level is brought up to date together.
func (s *Surface) PreLoad() error {
	if s.container != nil {
		return s.container.PreLoad()
	}
	if err := s.device.Activate(s, UsageResourceLoad); err != nil {
		return fmt.Errorf("preload: %w", err)
	}
	return s.LoadTexture()
}

// needsReload reports whether the texture tier must be rebuilt: it is
// stale, the source key was toggled or changed since the last upload, or
// the device palette changed under a paletted surface.
func (s *Surface) needsReload() (bool, string) {
	// The palette snapshot is refreshed on every check.
	palChanged := s.palette9Changed()
	switch {
	case !s.state.InTexture:
		return true, "dirty"
	case s.state.ColorKeyed != s.srcKeyed():
		return true, "color key toggled"
	case s.srcKeyed() && s.glCKey != s.keys[roleSrcBlt]:
		return true, "color key changed"
	case palChanged:
		return true, "device palette changed"
	}
	return false, ""
}

// LoadTexture brings the texture tier up to date from the drawable or from
// host memory. Host memory is freed afterwards unless the surface keeps it.
func (s *Surface) LoadTexture() error {
	reload, reason := s.needsReload()
	if !reload {
		return nil
	}
	Logger().Debug("surfcache: loading texture",
		slog.String("surface", s.String()), slog.String("reason", reason))

	// A reload for a key or palette change needs the host copy back
	// when the last upload freed it.
	if s.state.InTexture && !s.state.InDrawable && s.mem == nil && s.texture != nil && !s.state.Converted {
		s.allocHost()
		if err := s.downloadTexture(); err != nil {
			return err
		}
		s.state.InHost = true
	}

	s.state.InTexture = true
	desc := convert.Select(s.format, s.srcKeyed(), s.device.Caps().convertCaps(), true)

	if s.state.InDrawable {
		return s.loadFromDrawable(desc)
	}

	if s.srcKeyed() {
		s.state.ColorKeyed = true
		s.glCKey = s.keys[roleSrcBlt]
	} else {
		s.state.ColorKeyed = false
	}

	w, h := s.width, s.height
	if s.state.Oversize {
		w, h = s.glRect.Dx(), s.glRect.Dy()
		if w == 0 || h == 0 {
			Logger().Debug("surfcache: oversized surface has no blit window yet", slog.String("surface", s.String()))
			return nil
		}
	}

	data, pitch := s.mem, s.GetPitch()
	if desc.Mode != convert.NoConversion && s.mem != nil {
		outPitch := desc.OutPitch(s.width)
		buf := make([]byte, outPitch*s.height)
		err := convert.Convert(s.mem, pitch, s.width, s.height, buf, outPitch, desc.Mode,
			convert.Params{Palette: s.colorTable(), Key: s.keys[roleSrcBlt]})
		if err != nil {
			s.state.InTexture = false
			return s.convertError(err, desc.Mode)
		}
		data, pitch = buf, outPitch
		s.state.Converted = true
	} else {
		s.state.Converted = false
	}

	if err := s.allocTexture(desc); err != nil {
		s.state.InTexture = false
		return err
	}
	if data != nil {
		if s.state.Oversize {
			bpp := desc.BytesPerPixel
			data = data[s.glRect.Min.Y*pitch+s.glRect.Min.X*bpp:]
		}
		if err := s.texture.Upload(data, pitch, image.Rect(0, 0, w, h)); err != nil {
			s.state.InTexture = false
			return fmt.Errorf("upload %v: %w", s, err)
		}
	}

	if s.mem != nil {
		s.freeHost()
	}
	return nil
}

func (s *Surface) loadFromDrawable(desc convert.Desc) error {
	if s.format.IsPaletted() || s.format.IsCompressed() {
		Logger().Warn("surfcache: drawable to texture copy not supported for format",
			slog.String("surface", s.String()), slog.String("format", s.format.String()))
		return nil
	}
	if err := s.allocTexture(desc); err != nil {
		return err
	}
	r := s.fullRect()
	if err := s.device.CopyToTexture(s, r, s.texture, r, !s.onSwapchain()); err != nil {
		return fmt.Errorf("copy drawable of %v: %w", s, err)
	}
	return nil
}

// allocTexture creates texture storage when none exists or when the
// existing storage has a different layout.
func (s *Surface) allocTexture(desc convert.Desc) error {
	w, h := s.pow2W, s.pow2H
	if s.state.Oversize {
		w, h = s.glRect.Dx(), s.glRect.Dy()
	}
	want := TextureDesc{
		Label:         s.label,
		Width:         w,
		Height:        h,
		Format:        desc.Format,
		BytesPerPixel: desc.BytesPerPixel,
	}
	if s.state.Allocated && s.texture != nil {
		have := s.texture.Desc()
		if have.Width == want.Width && have.Height == want.Height &&
			have.Format == want.Format && have.BytesPerPixel == want.BytesPerPixel {
			return nil
		}
		s.texture.Destroy()
		s.texture = nil
		s.state.Allocated = false
	}

	tex, err := s.device.CreateTexture(want)
	if err != nil {
		return fmt.Errorf("allocate %dx%d texture for %v: %w", w, h, s, err)
	}
	s.texture = tex
	s.state.Allocated = true
	return nil
}

func (s *Surface) convertError(err error, mode convert.Mode) error {
	switch {
	case errors.Is(err, convert.ErrNoPalette):
		return fmt.Errorf("convert %v: %w", s, ErrNoPalette)
	case errors.Is(err, convert.ErrUnsupported):
		Logger().Warn("surfcache: conversion not implemented",
			slog.String("surface", s.String()), slog.String("mode", mode.String()))
		return fmt.Errorf("convert %v with %v: %w", s, mode, ErrUnsupported)
	}
	return fmt.Errorf("convert %v: %w", s, err)
}

// EnsureHostCurrent makes host memory hold the current image, reading it
// back from the drawable or the texture as needed.
func (s *Surface) EnsureHostCurrent() error {
	if s.state.InHost {
		return nil
	}
	s.allocHost()

	switch {
	case s.state.InDrawable && !s.state.InTexture && s.onDrawable():
		if err := s.device.Activate(s, UsageBlit); err != nil {
			return fmt.Errorf("readback of %v: %w", s, err)
		}
		if err := s.readFramebuffer(s.fullRect(), s.GetPitch()); err != nil {
			return err
		}
	case s.state.InTexture || s.state.InDrawable:
		if err := s.PreLoad(); err != nil {
			return err
		}
		if err := s.downloadTexture(); err != nil {
			return err
		}
	default:
		clear(s.mem)
	}
	s.state.InHost = true
	return nil
}

// downloadTexture copies the texture into host memory, repacking rows when
// the texture pitch differs from the host pitch.
func (s *Surface) downloadTexture() error {
	if s.texture == nil {
		clear(s.mem)
		return nil
	}
	if s.state.Converted {
		Logger().Warn("surfcache: cannot read back converted texture", slog.String("surface", s.String()))
		return fmt.Errorf("download converted %v: %w", s, ErrUnsupported)
	}

	desc := s.texture.Desc()
	texPitch, pitch := desc.Pitch(), s.GetPitch()
	if texPitch == pitch && texPitch*desc.Rows() <= len(s.mem) {
		if err := s.texture.Download(s.mem, pitch); err != nil {
			return fmt.Errorf("download %v: %w", s, err)
		}
		return nil
	}

	tmp := make([]byte, texPitch*desc.Rows())
	if err := s.texture.Download(tmp, texPitch); err != nil {
		return fmt.Errorf("download %v: %w", s, err)
	}
	rows := s.height
	if s.format.IsCompressed() {
		rows = (s.height + 3) / 4
	}
	rows = min(rows, desc.Rows())
	n := min(pitch, texPitch)
	for y := 0; y < rows; y++ {
		copy(s.mem[y*pitch:y*pitch+n], tmp[y*texPitch:])
	}
	return nil
}

// readFramebuffer reads r of the drawable into host memory at pitch. P8
// surfaces are read as RGB and mapped back through the palette.
func (s *Surface) readFramebuffer(r image.Rectangle, pitch int) error {
	readFmt := s.format
	bpp := s.format.BytesPerPixel()
	if s.format == format.P8 {
		readFmt = format.R8G8B8
		bpp = 3
	}
	rowBytes := r.Dx() * bpp
	buf := make([]byte, rowBytes*r.Dy())
	if err := s.device.ReadPixels(s, s.GLBuffer(), r, readFmt, buf, rowBytes); err != nil {
		return fmt.Errorf("read drawable of %v: %w", s, err)
	}
	if s.onSwapchain() {
		flipRows(buf, rowBytes, r.Dy())
	}

	if s.format != format.P8 {
		for y := 0; y < r.Dy(); y++ {
			off := format.LockOffset(s.format, pitch, r.Min.X, r.Min.Y+y)
			copy(s.mem[off:off+rowBytes], buf[y*rowBytes:])
		}
		return nil
	}

	pal := s.colorTable()
	if pal == nil {
		return fmt.Errorf("read drawable of %v: %w", s, ErrNoPalette)
	}
	for y := 0; y < r.Dy(); y++ {
		row := buf[y*rowBytes:]
		off := (r.Min.Y+y)*pitch + r.Min.X
		for x := 0; x < r.Dx(); x++ {
			// Bytes arrive blue, green, red.
			px := row[x*3:]
			if idx, ok := pal.Lookup(px[2], px[1], px[0]); ok {
				s.mem[off+x] = idx
			}
		}
	}
	return nil
}

func (s *Surface) onSwapchain() bool { return s.swapchain != nil }

func flipRows(b []byte, pitch, height int) {
	tmp := make([]byte, pitch)
	for top, bot := 0, height-1; top < bot; top, bot = top+1, bot-1 {
		t, u := b[top*pitch:top*pitch+pitch], b[bot*pitch:bot*pitch+pitch]
		copy(tmp, t)
		copy(t, u)
		copy(u, tmp)
	}
}
