// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache_test

import (
	"encoding/binary"
	"image"
	"testing"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/backend"
	"github.com/gogpu/surfcache/backend/soft"
	"github.com/gogpu/surfcache/format"
)

// newDevice opens an in-memory device. A non-zero size also creates the
// implicit swapchain with that edge length.
func newDevice(t *testing.T, size int) *soft.Device {
	t.Helper()
	cfg := backend.DefaultConfig()
	cfg.Width, cfg.Height = size, size
	cfg.Format = format.A8R8G8B8
	d, err := soft.New(cfg)
	if err != nil {
		t.Fatalf("soft.New() error = %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func newSurface(t *testing.T, d surfcache.Device, w, h int, f format.Format, u surfcache.Usage) *surfcache.Surface {
	t.Helper()
	s, err := surfcache.NewSurface(d, surfcache.SurfaceDesc{Label: t.Name(), Width: w, Height: h, Format: f, Usage: u})
	if err != nil {
		t.Fatalf("NewSurface() error = %v", err)
	}
	t.Cleanup(func() { s.Release() })
	return s
}

// fill32 writes v(x, y) into every pixel of a 32-bit surface.
func fill32(t *testing.T, s *surfcache.Surface, v func(x, y int) uint32) {
	t.Helper()
	lr, err := s.Lock(nil, 0)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			binary.LittleEndian.PutUint32(lr.Bits[y*lr.Pitch+x*4:], v(x, y))
		}
	}
	if err := s.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
}

// pixel32 reads one pixel of a 32-bit surface through a read-only lock.
func pixel32(t *testing.T, s *surfcache.Surface, x, y int) uint32 {
	t.Helper()
	r := image.Rect(x, y, x+1, y+1)
	lr, err := s.Lock(&r, surfcache.LockReadOnly)
	if err != nil {
		t.Fatalf("Lock(%v) error = %v", r, err)
	}
	v := binary.LittleEndian.Uint32(lr.Bits)
	if err := s.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	return v
}

func pattern(x, y int) uint32 { return 0xFF000000 | uint32(y)<<16 | uint32(x)<<8 | 0x40 }
