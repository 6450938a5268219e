// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/surfcache/convert"
	"github.com/gogpu/surfcache/format"
)

const pageSize = 4096

// GetDC backs host memory with a device-independent bitmap and locks the
// surface for drawing through it. The bitmap stays attached after
// ReleaseDC.
func (s *Surface) GetDC() (DIB, error) {
	switch {
	case s.state.UserMemory:
		return nil, fmt.Errorf("get dc of %v: %w", s, ErrNoDC)
	case s.state.DCInUse:
		return nil, fmt.Errorf("get dc of %v: %w", s, ErrDCAlreadyCreated)
	case s.state.Locked:
		return nil, fmt.Errorf("get dc of %v: locked: %w", s, ErrInvalidCall)
	}

	if s.dib == nil {
		if err := s.createDIB(); err != nil {
			return nil, err
		}
	}

	if _, err := s.Lock(nil, 0); err != nil {
		return nil, err
	}

	if s.format == format.P8 || s.format == format.A8P8 {
		pal := s.colorTable()
		if pal == nil {
			pal = &convert.Palette{}
		}
		s.dib.SetColorTable(pal)
	}
	s.state.DCInUse = true
	return s.dib, nil
}

func (s *Surface) createDIB() error {
	// Callers read pixels as 32-bit words; leave room past the last row.
	extra := 0
	if (s.size+3)%pageSize < 4 {
		extra = 1
	}
	desc := DIBDesc{
		Width:        s.width,
		Height:       s.height + extra,
		BitsPerPixel: s.format.BytesPerPixel() * 8,
		Pitch:        s.GetPitch(),
	}
	switch s.format {
	case format.X1R5G5B5, format.A1R5G5B5, format.A4R4G4B4, format.X4R4G4B4,
		format.R3G3B2, format.A2B10G10R10, format.A8B8G8R8, format.X8B8G8R8,
		format.A2R10G10B10, format.R5G6B5, format.A16B16G16R16:
		info := s.format.Info()
		desc.Masks = [3]uint32{info.RedMask, info.GreenMask, info.BlueMask}
	}

	dib, err := s.device.CreateDIB(desc)
	if err != nil {
		return fmt.Errorf("create dib for %v: %w", s, err)
	}
	bits := dib.Bits()
	if s.mem != nil {
		copy(bits, s.mem)
	} else {
		s.state.InHost = false
	}
	Logger().Debug("surfcache: dib section created",
		slog.String("surface", s.String()), slog.Int("bytes", len(bits)))

	s.dib = dib
	s.mem = bits
	s.state.DIBSection = true
	return nil
}

// ReleaseDC ends drawing through dc and unlocks the surface.
func (s *Surface) ReleaseDC(dc DIB) error {
	if !s.state.DCInUse || dc != s.dib {
		return fmt.Errorf("release dc of %v: %w", s, ErrInvalidCall)
	}
	err := s.Unlock()
	s.state.DCInUse = false
	return err
}

func (s *Surface) releaseDIB() {
	if s.dib != nil {
		s.dib.Release()
		s.dib = nil
	}
	s.mem = nil
	s.state.DIBSection = false
}

// SetMem makes mem, owned by the caller, the host memory of s. It must
// hold at least the surface size. A nil mem returns to library-owned
// memory, allocated again on the next lock.
func (s *Surface) SetMem(mem []byte) error {
	if s.isRenderTarget() {
		return fmt.Errorf("set memory of render target %v: %w", s, ErrInvalidCall)
	}
	if s.state.Locked || s.state.DCInUse {
		return fmt.Errorf("set memory of %v: locked or dc in use: %w", s, ErrInvalidCall)
	}

	if mem != nil && !sameMemory(mem, s.mem) {
		if len(mem) < s.size {
			return fmt.Errorf("set memory of %v: %d bytes, need %d: %w", s, len(mem), s.size, ErrInvalidCall)
		}
		if s.state.DIBSection {
			s.releaseDIB()
		}
		s.mem = mem
		s.state.UserMemory = true
		s.state.InHost = true
		s.state.InDrawable = false
		s.state.InTexture = false
		return nil
	}
	if mem == nil && s.state.UserMemory {
		s.mem = nil
		s.state.UserMemory = false
		s.state.InHost = false
	}
	return nil
}

func sameMemory(a, b []byte) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}
