// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache_test

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/format"
)

func TestLockTwiceIsInvalid(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 8, 8, format.A8R8G8B8, 0)

	first := image.Rect(1, 1, 3, 3)
	if _, err := s.Lock(&first, 0); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	second := image.Rect(4, 4, 6, 6)
	if _, err := s.Lock(&second, 0); !errors.Is(err, surfcache.ErrInvalidCall) {
		t.Errorf("second Lock() error = %v, want ErrInvalidCall", err)
	}
	if got := s.LockedRect(); got != first {
		t.Errorf("LockedRect() = %v, want %v", got, first)
	}
	if err := s.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if s.State().Locked {
		t.Error("still locked after Unlock")
	}
}

func TestUnlockWithoutLock(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 4, 4, format.A8R8G8B8, 0)
	if err := s.Unlock(); !errors.Is(err, surfcache.ErrInvalidCall) {
		t.Errorf("Unlock() error = %v, want ErrInvalidCall", err)
	}
}

func TestLockUnknownFormat(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 4, 4, format.Unknown, 0)
	if _, err := s.Lock(nil, 0); !errors.Is(err, surfcache.ErrInvalidCall) {
		t.Errorf("Lock() error = %v, want ErrInvalidCall", err)
	}
	if err := s.SetFormat(format.R5G6B5); err != nil {
		t.Fatalf("SetFormat() error = %v", err)
	}
	if err := s.SetFormat(format.R5G6B5); !errors.Is(err, surfcache.ErrInvalidCall) {
		t.Errorf("second SetFormat() error = %v, want ErrInvalidCall", err)
	}
}

func TestDirtyRectTracksSinglePixelWrite(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 8, 8, format.A8R8G8B8, 0)

	if got := s.DirtyRect(); !got.Empty() {
		t.Fatalf("new surface DirtyRect() = %v, want empty", got)
	}
	px := image.Rect(5, 2, 6, 3)
	lr, err := s.Lock(&px, 0)
	if err != nil {
		t.Fatal(err)
	}
	lr.Bits[0] = 0xAB
	if err := s.Unlock(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Lock(nil, surfcache.LockReadOnly); err != nil {
		t.Fatal(err)
	}
	if got := s.DirtyRect(); got != px {
		t.Errorf("DirtyRect() = %v, want %v", got, px)
	}
	if err := s.Unlock(); err != nil {
		t.Fatal(err)
	}
}

func TestDirtyRectUnion(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 8, 8, format.A8R8G8B8, 0)
	a, b := image.Rect(1, 1, 2, 2), image.Rect(5, 6, 7, 7)
	s.AddDirtyRect(&a)
	s.AddDirtyRect(&b)
	if got, want := s.DirtyRect(), image.Rect(1, 1, 7, 7); got != want {
		t.Errorf("DirtyRect() = %v, want %v", got, want)
	}
	outside := image.Rect(6, 6, 20, 20)
	s.AddDirtyRect(&outside)
	if got, want := s.DirtyRect(), image.Rect(1, 1, 8, 8); got != want {
		t.Errorf("DirtyRect() after clipped add = %v, want %v", got, want)
	}
	s.AddDirtyRect(nil)
	if got, want := s.DirtyRect(), image.Rect(0, 0, 8, 8); got != want {
		t.Errorf("DirtyRect() after full add = %v, want %v", got, want)
	}
}

func TestLockOffsetCompressed(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 16, 16, format.DXT1, 0)

	base, err := s.Lock(nil, surfcache.LockReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Unlock(); err != nil {
		t.Fatal(err)
	}

	r := image.Rect(4, 4, 8, 8)
	lr, err := s.Lock(&r, surfcache.LockReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Unlock()

	want := base.Pitch*r.Min.Y/4 + r.Min.X*2
	if got := len(base.Bits) - len(lr.Bits); got != want {
		t.Errorf("lock offset = %d, want %d", got, want)
	}
}

func TestHostAuthoritativeAfterWrite(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 4, 4, format.A8R8G8B8, 0)

	if err := s.PreLoad(); err != nil {
		t.Fatal(err)
	}
	fill32(t, s, pattern)

	st := s.State()
	if !st.InHost || st.InTexture || st.InDrawable {
		t.Errorf("state after write = %v, want host only", st)
	}
	if got := pixel32(t, s, 3, 2); got != pattern(3, 2) {
		t.Errorf("pixel (3,2) = %#x, want %#x", got, pattern(3, 2))
	}
}

func TestFrequentLocksKeepHostCopy(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 4, 4, format.A8R8G8B8, 0)
	for range 51 {
		if _, err := s.Lock(nil, 0); err != nil {
			t.Fatal(err)
		}
		if err := s.Unlock(); err != nil {
			t.Fatal(err)
		}
	}
	if !s.State().DynLock {
		t.Fatal("DynLock not set after 51 locks")
	}
	if err := s.PreLoad(); err != nil {
		t.Fatal(err)
	}
	if s.Memory() == nil || !s.State().InHost {
		t.Errorf("host copy dropped after upload: %v", s.State())
	}
}

func TestDiscardLockSkipsDownload(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 4, 4, format.A8R8G8B8, 0)
	fill32(t, s, pattern)
	if err := s.PreLoad(); err != nil {
		t.Fatal(err)
	}
	if s.Memory() != nil {
		t.Fatal("host memory kept after upload")
	}
	lr, err := s.Lock(nil, surfcache.LockDiscard)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Unlock()
	for i, b := range lr.Bits[:16*4] {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want fresh zeroed memory", i, b)
		}
	}
}

func TestLockRejectsRectOutsideSurface(t *testing.T) {
	tests := []struct {
		name string
		r    image.Rectangle
	}{
		{name: "negative origin", r: image.Rect(-4, -4, 1, 1)},
		{name: "past the edge", r: image.Rect(100, 100, 101, 101)},
		{name: "straddles right edge", r: image.Rect(6, 0, 9, 2)},
		{name: "empty", r: image.Rect(2, 2, 2, 5)},
		{name: "inverted", r: image.Rectangle{Min: image.Pt(5, 5), Max: image.Pt(1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDevice(t, 0)
			s := newSurface(t, d, 8, 8, format.A8R8G8B8, 0)

			r := tt.r
			if _, err := s.Lock(&r, 0); !errors.Is(err, surfcache.ErrInvalidCall) {
				t.Fatalf("Lock(%v) error = %v, want ErrInvalidCall", r, err)
			}
			if s.State().Locked {
				t.Error("surface locked after rejected Lock")
			}
			if got := s.DirtyRect(); !got.Empty() {
				t.Errorf("DirtyRect() = %v, want empty", got)
			}
			if _, err := s.Lock(nil, 0); err != nil {
				t.Errorf("Lock(nil) after rejected Lock error = %v", err)
			}
			if err := s.Unlock(); err != nil {
				t.Errorf("Unlock() error = %v", err)
			}
		})
	}
}
