// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package convert

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/surfcache/format"
)

func grayPalette() *Palette {
	var p Palette
	for i := range p {
		p[i] = Entry{R: uint8(i), G: uint8(i), B: uint8(i)}
	}
	return &p
}

// The paletted key marks in-range indices transparent. This is the
// opposite of the inclusive-range-is-opaque reading and is kept on purpose.
func TestPalettedCKInRangeIndexIsTransparent(t *testing.T) {
	const w, h = 4, 4
	src := make([]byte, w*h)
	for i := range src {
		src[i] = uint8(i + 5) // 5..20, index 10 appears once
	}
	src[15] = 10

	dst := make([]byte, w*h*4)
	p := Params{Palette: grayPalette(), Key: ColorKey{Low: 10, High: 10}}
	if err := Convert(src, w, w, h, dst, w*4, PalettedCK, p); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	for i, idx := range src {
		px := dst[i*4 : i*4+4]
		wantA := uint8(0xff)
		if idx == 10 {
			wantA = 0x00
		}
		if px[3] != wantA {
			t.Errorf("pixel %d (index %d): alpha = %#x, want %#x", i, idx, px[3], wantA)
		}
		if px[0] != idx || px[1] != idx || px[2] != idx {
			t.Errorf("pixel %d: rgb = %v, want %d", i, px[:3], idx)
		}
	}
}

func TestPalettedIgnoresKey(t *testing.T) {
	src := []byte{10, 11}
	dst := make([]byte, 8)
	p := Params{Palette: grayPalette(), Key: ColorKey{Low: 10, High: 10}}
	if err := Convert(src, 2, 2, 1, dst, 8, Paletted, p); err != nil {
		t.Fatal(err)
	}
	if dst[3] != 0xff || dst[7] != 0xff {
		t.Errorf("unkeyed paletted output has alpha %#x %#x", dst[3], dst[7])
	}
}

func TestKeyedConversionIsIdempotent(t *testing.T) {
	src := []byte{0x00, 0xf8, 0x1f, 0x00, 0xe0, 0x07, 0xff, 0xff}
	p := Params{Key: ColorKey{Low: 0x001f, High: 0x07e0}}

	first := make([]byte, len(src))
	second := make([]byte, len(src))
	if err := Convert(src, 8, 4, 1, first, 8, CK565, p); err != nil {
		t.Fatal(err)
	}
	if err := Convert(src, 8, 4, 1, second, 8, CK565, p); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestCK565(t *testing.T) {
	tests := []struct {
		name string
		in   uint16
		key  ColorKey
		want uint16
	}{
		{"out of range is opaque", 0xf81f, ColorKey{0, 0}, (0xf81f & 0xffc0) | (0x1f << 1) | 1},
		{"in range is transparent", 0xf81f, ColorKey{0xf81f, 0xf81f}, (0xf81f & 0xffc0) | (0x1f << 1)},
		{"white opaque", 0xffff, ColorKey{0, 0x10}, 0xffff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte{byte(tt.in), byte(tt.in >> 8)}
			dst := make([]byte, 2)
			if err := Convert(src, 2, 1, 1, dst, 2, CK565, Params{Key: tt.key}); err != nil {
				t.Fatal(err)
			}
			if got := uint16(dst[0]) | uint16(dst[1])<<8; got != tt.want {
				t.Errorf("got %#04x, want %#04x", got, tt.want)
			}
		})
	}
}

func TestCKRGB24AndRGB32888(t *testing.T) {
	key := ColorKey{Low: 0xff00ff, High: 0xff00ff}

	src24 := []byte{0xff, 0x00, 0xff, 0x01, 0x02, 0x03}
	dst := make([]byte, 8)
	if err := Convert(src24, 6, 2, 1, dst, 8, CKRGB24, Params{Key: key}); err != nil {
		t.Fatal(err)
	}
	want := []byte{0xff, 0x00, 0xff, 0x00, 0x01, 0x02, 0x03, 0xff}
	if !bytes.Equal(dst, want) {
		t.Errorf("CKRGB24 = %x, want %x", dst, want)
	}

	src32 := []byte{0xff, 0x00, 0xff, 0x80, 0x01, 0x02, 0x03, 0x00}
	if err := Convert(src32, 8, 2, 1, dst, 8, RGB32888, Params{Key: key}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst, want) {
		t.Errorf("RGB32888 = %x, want %x", dst, want)
	}
}

func TestBumpRebias(t *testing.T) {
	t.Run("v8u8", func(t *testing.T) {
		src := []byte{0x00, 0x80} // u=0, v=-128
		dst := make([]byte, 3)
		if err := Convert(src, 2, 1, 1, dst, 4, V8U8, Params{}); err != nil {
			t.Fatal(err)
		}
		if want := []byte{0xff, 0x00, 0x80}; !bytes.Equal(dst, want) {
			t.Errorf("got %x, want %x", dst, want)
		}
	})

	t.Run("q8w8v8u8", func(t *testing.T) {
		src := []byte{0x01, 0x02, 0x03, 0x7f}
		dst := make([]byte, 4)
		if err := Convert(src, 4, 1, 1, dst, 4, Q8W8V8U8, Params{}); err != nil {
			t.Fatal(err)
		}
		if want := []byte{0x83, 0x82, 0x81, 0xff}; !bytes.Equal(dst, want) {
			t.Errorf("got %x, want %x", dst, want)
		}
	})

	t.Run("x8l8v8u8", func(t *testing.T) {
		src := []byte{0x10, 0x20, 0x30, 0x00}
		dst := make([]byte, 4)
		if err := Convert(src, 4, 1, 1, dst, 4, X8L8V8U8, Params{}); err != nil {
			t.Fatal(err)
		}
		if want := []byte{0x30, 0xa0, 0x90, 0xff}; !bytes.Equal(dst, want) {
			t.Errorf("got %x, want %x", dst, want)
		}
	})

	t.Run("v16u16", func(t *testing.T) {
		src := []byte{0x00, 0x00, 0x00, 0x80} // u=0, v=-32768
		dst := make([]byte, 6)
		if err := Convert(src, 4, 1, 1, dst, 8, V16U16, Params{}); err != nil {
			t.Fatal(err)
		}
		if want := []byte{0xff, 0xff, 0x00, 0x00, 0x00, 0x80}; !bytes.Equal(dst, want) {
			t.Errorf("got %x, want %x", dst, want)
		}
	})
}

func TestNoConversionHonoursPitches(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, 4)
	if err := Convert(src, 4, 2, 2, dst, 2, NoConversion, Params{}); err != nil {
		t.Fatal(err)
	}
	if want := []byte{1, 2, 5, 6}; !bytes.Equal(dst, want) {
		t.Errorf("got %v, want %v", dst, want)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		p    Params
		src  []byte
		dst  []byte
		want error
	}{
		{"unsupported mode", CK4444, Params{}, make([]byte, 4), make([]byte, 4), ErrUnsupported},
		{"unknown mode", Mode(200), Params{}, make([]byte, 4), make([]byte, 4), ErrUnsupported},
		{"missing palette", Paletted, Params{}, make([]byte, 4), make([]byte, 16), ErrNoPalette},
		{"short destination", Paletted, Params{Palette: grayPalette()}, make([]byte, 4), make([]byte, 15), ErrShortBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Convert(tt.src, 4, 4, 1, tt.dst, 16, tt.mode, tt.p)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBandedMatchesSerial(t *testing.T) {
	const w, h = 17, 300
	src := make([]byte, w*h)
	for i := range src {
		src[i] = uint8(i * 7)
	}
	pal := grayPalette()
	key := ColorKey{Low: 30, High: 90}

	got := make([]byte, w*4*h)
	if err := Convert(src, w, w, h, got, w*4, PalettedCK, Params{Palette: pal, Key: key}); err != nil {
		t.Fatal(err)
	}

	table := ExpandTable(pal, key, true)
	want := make([]byte, w*4*h)
	for i, idx := range src {
		copy(want[i*4:], table[idx][:])
	}
	if !bytes.Equal(got, want) {
		t.Error("banded conversion differs from a serial expansion")
	}
}

func TestTableIsCached(t *testing.T) {
	pal := grayPalette()
	pal[1] = Entry{R: 0x42}
	a := Table(pal, ColorKey{Low: 1, High: 1}, true)
	b := Table(pal, ColorKey{Low: 1, High: 1}, true)
	if a != b {
		t.Error("identical palette and key produced distinct tables")
	}
	c := Table(pal, ColorKey{Low: 1, High: 1}, false)
	if c == a || c[1][3] != 0xff || a[1][3] != 0x00 {
		t.Error("keyed and unkeyed tables must differ")
	}
}

func TestTableShardCollision(t *testing.T) {
	saved := tableShard
	tableShard = func(tableKey) uint64 { return 0 }
	t.Cleanup(func() { tableShard = saved })

	p := grayPalette()
	q := grayPalette()
	q[7] = Entry{R: 0xAA, G: 0xBB, B: 0xCC}
	a := Table(p, ColorKey{}, false)
	b := Table(q, ColorKey{}, false)
	if a == b {
		t.Fatal("palettes in the same shard share a table")
	}
	if got, want := b[7], [4]byte{0xAA, 0xBB, 0xCC, 0xff}; got != want {
		t.Errorf("entry 7 = %v, want %v", got, want)
	}
	if got, want := a[7], [4]byte{7, 7, 7, 0xff}; got != want {
		t.Errorf("entry 7 of gray table = %v, want %v", got, want)
	}
	if Table(q, ColorKey{}, false) != b {
		t.Error("second lookup missed the cache")
	}
}

func TestPaletteHelpers(t *testing.T) {
	p := grayPalette()
	q := grayPalette()
	if !p.Equal(q) {
		t.Error("equal palettes compare unequal")
	}
	q[3].Flags = 9
	if !p.Equal(q) {
		t.Error("flags must not affect Equal")
	}
	q[3].R = 99
	if p.Equal(q) {
		t.Error("different palettes compare equal")
	}
	if idx, ok := p.Lookup(7, 7, 7); !ok || idx != 7 {
		t.Errorf("Lookup = %d, %v", idx, ok)
	}
	ct := p.ColorTable()
	if len(ct) != 1024 || ct[4*5] != 5 || ct[4*5+2] != 5 || ct[4*5+3] != 0 {
		t.Errorf("ColorTable entry 5 = %x", ct[20:24])
	}
}

func TestSelect(t *testing.T) {
	none := Caps{}
	full := Caps{PalettedTextures: true, SignedFormats: true}

	tests := []struct {
		name      string
		format    format.Format
		keyed     bool
		caps      Caps
		texturing bool
		want      Desc
	}{
		{"p8 without paletted textures", format.P8, false, none, true, Desc{Paletted, format.A8B8G8R8, 4}},
		{"p8 keyed", format.P8, true, full, true, Desc{PalettedCK, format.A8B8G8R8, 4}},
		{"p8 native", format.P8, false, full, true, Desc{NoConversion, format.P8, 1}},
		{"p8 not texturing", format.P8, false, full, false, Desc{Paletted, format.A8B8G8R8, 4}},
		{"565 keyed", format.R5G6B5, true, none, true, Desc{CK565, format.R5G5B5A1, 2}},
		{"565 plain", format.R5G6B5, false, none, true, Desc{NoConversion, format.R5G6B5, 2}},
		{"rgb24 keyed", format.R8G8B8, true, none, true, Desc{CKRGB24, format.A8R8G8B8, 4}},
		{"xrgb keyed", format.X8R8G8B8, true, none, true, Desc{RGB32888, format.A8R8G8B8, 4}},
		{"v8u8 emulated", format.V8U8, false, none, true, Desc{V8U8, format.R8G8B8, 3}},
		{"v8u8 native", format.V8U8, false, full, true, Desc{NoConversion, format.V8U8, 2}},
		{"q8w8v8u8 emulated", format.Q8W8V8U8, false, none, true, Desc{Q8W8V8U8, format.A8R8G8B8, 4}},
		{"v16u16 emulated", format.V16U16, false, none, true, Desc{V16U16, format.Unknown, 6}},
		{"argb untouched", format.A8R8G8B8, true, none, true, Desc{NoConversion, format.A8R8G8B8, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.format, tt.keyed, tt.caps, tt.texturing)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Select mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutPitch(t *testing.T) {
	d := Desc{Mode: V8U8, Format: format.R8G8B8, BytesPerPixel: 3}
	if got := d.OutPitch(5); got != 16 {
		t.Errorf("OutPitch(5) = %d, want 16", got)
	}
}

func TestModeString(t *testing.T) {
	if PalettedCK.String() != "paletted-ck" || Mode(99).String() != "Mode(99)" {
		t.Errorf("unexpected names %q %q", PalettedCK, Mode(99))
	}
	if !CK565.Keyed() || V8U8.Keyed() {
		t.Error("Keyed mismatch")
	}
}
