// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/convert"
	"github.com/gogpu/surfcache/format"
)

// texBytes downloads the texture tier of s at its storage pitch.
func texBytes(t *testing.T, s *surfcache.Surface) ([]byte, int) {
	t.Helper()
	tex := s.Texture()
	if tex == nil {
		t.Fatal("surface has no texture")
	}
	desc := tex.Desc()
	buf := make([]byte, desc.Pitch()*desc.Rows())
	if err := tex.Download(buf, desc.Pitch()); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	return buf, desc.Pitch()
}

func grayPalette() []convert.Entry {
	entries := make([]convert.Entry, 256)
	for i := range entries {
		entries[i] = convert.Entry{R: uint8(i), G: uint8(i), B: uint8(i)}
	}
	return entries
}

func fill8(t *testing.T, s *surfcache.Surface, v func(x, y int) byte) {
	t.Helper()
	lr, err := s.Lock(nil, 0)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			lr.Bits[y*lr.Pitch+x] = v(x, y)
		}
	}
	if err := s.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
}

func TestLoadTextureRoundTrip(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 4, 4, format.A8R8G8B8, 0)
	fill32(t, s, pattern)

	if err := s.PreLoad(); err != nil {
		t.Fatalf("PreLoad() error = %v", err)
	}
	st := s.State()
	if !st.InTexture || st.InHost || st.Converted {
		t.Fatalf("state after PreLoad = %v, want texture only", st)
	}
	if s.Memory() != nil {
		t.Error("host memory kept after upload")
	}

	for _, p := range [][2]int{{0, 0}, {3, 0}, {1, 2}, {3, 3}} {
		if got, want := pixel32(t, s, p[0], p[1]), pattern(p[0], p[1]); got != want {
			t.Errorf("pixel %v = %#08x, want %#08x", p, got, want)
		}
	}
	if !s.State().InHost {
		t.Error("lock did not make host current")
	}
}

func TestLoadTextureSkipsWhenCurrent(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 2, 2, format.A8R8G8B8, 0)
	if err := s.PreLoad(); err != nil {
		t.Fatalf("PreLoad() error = %v", err)
	}
	tex := s.Texture()
	if err := s.PreLoad(); err != nil {
		t.Fatalf("second PreLoad() error = %v", err)
	}
	if s.Texture() != tex {
		t.Error("texture recreated without a reason")
	}
}

func TestPalettedKeyedUpload(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 4, 4, format.P8, 0)
	if err := s.SetPalette(surfcache.NewPalette(grayPalette())); err != nil {
		t.Fatalf("SetPalette() error = %v", err)
	}
	fill8(t, s, func(x, y int) byte { return byte(y*4 + x) })
	if err := s.SetColorKey(surfcache.KeySrcBlt, &convert.ColorKey{Low: 10, High: 10}); err != nil {
		t.Fatalf("SetColorKey() error = %v", err)
	}

	if err := s.PreLoad(); err != nil {
		t.Fatalf("PreLoad() error = %v", err)
	}
	st := s.State()
	if !st.Converted || !st.ColorKeyed {
		t.Fatalf("state = %v, want converted and colorkeyed", st)
	}
	if got := s.Texture().Desc().Format; got != format.A8B8G8R8 {
		t.Errorf("texture format = %v, want %v", got, format.A8B8G8R8)
	}
	if s.Memory() == nil {
		t.Error("converted surface dropped its host copy")
	}

	buf, pitch := texBytes(t, s)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			px := buf[y*pitch+x*4:]
			idx := byte(y*4 + x)
			wantA := byte(0xFF)
			if idx == 10 {
				wantA = 0
			}
			if px[0] != idx || px[3] != wantA {
				t.Errorf("texel (%d,%d) = %v, want gray %d alpha %#02x", x, y, px[:4], idx, wantA)
			}
		}
	}
}

func TestColorKeyToggleReloads(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 2, 2, format.X8R8G8B8, 0)
	fill32(t, s, pattern)
	if err := s.PreLoad(); err != nil {
		t.Fatalf("PreLoad() error = %v", err)
	}
	if s.Memory() != nil {
		t.Fatal("host memory kept after plain upload")
	}

	key := pattern(1, 0) & 0x00FFFFFF
	if err := s.SetColorKey(surfcache.KeySrcBlt, &convert.ColorKey{Low: key, High: key}); err != nil {
		t.Fatalf("SetColorKey() error = %v", err)
	}
	if err := s.PreLoad(); err != nil {
		t.Fatalf("keyed PreLoad() error = %v", err)
	}
	st := s.State()
	if !st.ColorKeyed || !st.Converted {
		t.Fatalf("state = %v, want converted and colorkeyed", st)
	}
	if got := s.Texture().Desc().Format; got != format.A8R8G8B8 {
		t.Errorf("texture format = %v, want %v", got, format.A8R8G8B8)
	}

	buf, pitch := texBytes(t, s)
	tests := []struct {
		x, y  int
		alpha byte
	}{
		{0, 0, 0xFF},
		{1, 0, 0x00},
		{0, 1, 0xFF},
		{1, 1, 0xFF},
	}
	for _, tt := range tests {
		px := buf[tt.y*pitch+tt.x*4:]
		if px[3] != tt.alpha {
			t.Errorf("alpha at (%d,%d) = %#02x, want %#02x", tt.x, tt.y, px[3], tt.alpha)
		}
		if want := byte(pattern(tt.x, tt.y) >> 8); px[1] != want {
			t.Errorf("green at (%d,%d) = %#02x, want %#02x", tt.x, tt.y, px[1], want)
		}
	}

	if err := s.SetColorKey(surfcache.KeySrcBlt, nil); err != nil {
		t.Fatalf("clear key error = %v", err)
	}
	if err := s.PreLoad(); err != nil {
		t.Fatalf("unkeyed PreLoad() error = %v", err)
	}
	if st := s.State(); st.ColorKeyed || st.Converted {
		t.Errorf("state after clearing key = %v", st)
	}
}

func TestDevicePaletteChangeReloads(t *testing.T) {
	d := newDevice(t, 0)
	pal := convert.Palette{}
	copy(pal[:], grayPalette())
	d.SetPalette(&pal)

	s := newSurface(t, d, 2, 2, format.P8, 0)
	fill8(t, s, func(x, y int) byte { return 7 })
	if err := s.PreLoad(); err != nil {
		t.Fatalf("PreLoad() error = %v", err)
	}
	buf, _ := texBytes(t, s)
	if buf[0] != 7 {
		t.Fatalf("red of first texel = %d, want 7", buf[0])
	}

	pal[7] = convert.Entry{R: 200, G: 0, B: 0}
	d.SetPalette(&pal)
	if err := s.PreLoad(); err != nil {
		t.Fatalf("PreLoad() after palette change error = %v", err)
	}
	buf, _ = texBytes(t, s)
	if buf[0] != 200 || buf[1] != 0 {
		t.Errorf("first texel = %v, want red 200", buf[:4])
	}
}

func TestPalettedWithoutPalette(t *testing.T) {
	d := newDevice(t, 0)
	s := newSurface(t, d, 2, 2, format.P8, 0)
	err := s.PreLoad()
	if err == nil {
		t.Fatal("PreLoad() succeeded without a palette")
	}
	if s.State().InTexture {
		t.Error("texture marked current after failed conversion")
	}
}

func TestLoadTextureLogsReason(t *testing.T) {
	orig := surfcache.Logger()
	t.Cleanup(func() { surfcache.SetLogger(orig) })
	var buf bytes.Buffer
	surfcache.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	d := newDevice(t, 0)
	s := newSurface(t, d, 2, 2, format.A8R8G8B8, 0)
	if err := s.PreLoad(); err != nil {
		t.Fatalf("PreLoad() error = %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "loading texture") || !strings.Contains(out, "reason=dirty") {
		t.Errorf("log output = %q", out)
	}
}
