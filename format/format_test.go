// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package format

import (
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestFormat_BytesPerPixel(t *testing.T) {
	tests := []struct {
		format   Format
		expected int
	}{
		{R8G8B8, 3},
		{A8R8G8B8, 4},
		{R5G6B5, 2},
		{P8, 1},
		{A8P8, 2},
		{V8U8, 2},
		{Q8W8V8U8, 4},
		{DXT1, 1},
		{A16B16G16R16, 8},
		{D24S8, 4},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.BytesPerPixel(); got != tt.expected {
				t.Errorf("BytesPerPixel() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestFormat_Native(t *testing.T) {
	tests := []struct {
		format   Format
		expected gputypes.TextureFormat
	}{
		{A8R8G8B8, gputypes.TextureFormatBGRA8Unorm},
		{A8B8G8R8, gputypes.TextureFormatRGBA8Unorm},
		{R8G8B8, gputypes.TextureFormatUndefined},
		{P8, gputypes.TextureFormatUndefined},
		{V8U8, gputypes.TextureFormatRG8Snorm},
		{DXT1, gputypes.TextureFormatBC1RGBAUnorm},
		{DXT5, gputypes.TextureFormatBC3RGBAUnorm},
		{D16Lockable, gputypes.TextureFormatDepth16Unorm},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.Native(); got != tt.expected {
				t.Errorf("Native() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFormat_Classes(t *testing.T) {
	if !DXT3.IsCompressed() || A8R8G8B8.IsCompressed() {
		t.Error("IsCompressed mismatch")
	}
	if !P8.IsPaletted() || !A8P8.IsPaletted() || L8.IsPaletted() {
		t.Error("IsPaletted mismatch")
	}
	if !V16U16.IsSigned() || G16R16.IsSigned() {
		t.Error("IsSigned mismatch")
	}
	if !D24S8.IsDepth() || R5G6B5.IsDepth() {
		t.Error("IsDepth mismatch")
	}
	if !A1R5G5B5.HasAlpha() || X1R5G5B5.HasAlpha() {
		t.Error("HasAlpha mismatch")
	}
}

func TestFormat_InfoPanicsOnUnregistered(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Info() on an unregistered format did not panic")
		}
	}()
	_ = Format(formatCount + 3).Info()
}

func TestFormat_StringAndParse(t *testing.T) {
	for _, f := range All() {
		got, ok := Parse(f.String())
		if !ok || got != f {
			t.Errorf("Parse(%q) = %v, %v", f.String(), got, ok)
		}
	}
	if _, ok := Parse("NOPE"); ok {
		t.Error("Parse accepted an unknown name")
	}
	if s := Format(200).String(); s != "Format(200)" {
		t.Errorf("String() = %q", s)
	}
}

func TestPitch(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		width  int
		want   int
	}{
		{"rgb24 padded", R8G8B8, 5, 16},
		{"argb", A8R8G8B8, 7, 28},
		{"565 odd", R5G6B5, 3, 8},
		{"p8", P8, 10, 12},
		{"dxt1", DXT1, 16, 32},
		{"dxt1 partial block", DXT1, 5, 16},
		{"dxt3", DXT3, 16, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pitch(tt.format, tt.width); got != tt.want {
				t.Errorf("Pitch(%v, %d) = %d, want %d", tt.format, tt.width, got, tt.want)
			}
		})
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		name          string
		format        Format
		width, height int
		want          int
	}{
		{"argb", A8R8G8B8, 8, 4, 128},
		{"rgb24", R8G8B8, 2, 2, 16},
		{"dxt1", DXT1, 8, 8, 32},
		{"dxt1 tiny", DXT1, 1, 1, 8},
		{"dxt5", DXT5, 8, 8, 64},
		{"dxt2 tiny", DXT2, 2, 2, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Size(tt.format, tt.width, tt.height); got != tt.want {
				t.Errorf("Size = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLockOffset(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		pitch  int
		x, y   int
		want   int
	}{
		{"dxt1 block", DXT1, 32, 4, 4, 32*4/4 + 4*2},
		{"dxt5 block", DXT5, 64, 4, 8, 64*8/4 + 4*4},
		{"argb", A8R8G8B8, 64, 3, 2, 64*2 + 3*4},
		{"rgb24", R8G8B8, 12, 1, 1, 12 + 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LockOffset(tt.format, tt.pitch, tt.x, tt.y); got != tt.want {
				t.Errorf("LockOffset = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNextPow2AndAlign(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128} {
		if got := NextPow2(in); got != want {
			t.Errorf("NextPow2(%d) = %d, want %d", in, got, want)
		}
	}
	if got := Align(13, 4); got != 16 {
		t.Errorf("Align(13, 4) = %d", got)
	}
	if got := Align(16, 4); got != 16 {
		t.Errorf("Align(16, 4) = %d", got)
	}
}

func TestUnpack(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		bytes  []byte
		want   color.NRGBA
	}{
		{"argb", A8R8G8B8, []byte{0x10, 0x20, 0x30, 0x40}, color.NRGBA{R: 0x30, G: 0x20, B: 0x10, A: 0x40}},
		{"xrgb opaque", X8R8G8B8, []byte{0x10, 0x20, 0x30, 0x00}, color.NRGBA{R: 0x30, G: 0x20, B: 0x10, A: 0xff}},
		{"rgb24", R8G8B8, []byte{0x01, 0x02, 0x03}, color.NRGBA{R: 0x03, G: 0x02, B: 0x01, A: 0xff}},
		{"565 white", R5G6B5, []byte{0xff, 0xff}, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"565 red", R5G6B5, []byte{0x00, 0xf8}, color.NRGBA{R: 0xff, A: 0xff}},
		{"1555 transparent", A1R5G5B5, []byte{0x1f, 0x00}, color.NRGBA{B: 0xff}},
		{"l8", L8, []byte{0x80}, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Unpack(tt.format, tt.bytes)
			if !ok {
				t.Fatal("Unpack reported unsupported format")
			}
			if got != tt.want {
				t.Errorf("Unpack = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPackUnpack8BitChannels(t *testing.T) {
	c := color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0x78}
	for _, f := range []Format{A8R8G8B8, A8B8G8R8} {
		buf := make([]byte, 4)
		if !Pack(f, buf, c) {
			t.Fatalf("Pack(%v) unsupported", f)
		}
		got, _ := Unpack(f, buf)
		if got != c {
			t.Errorf("%v: got %+v, want %+v", f, got, c)
		}
	}
}

func TestCanUnpack(t *testing.T) {
	for _, f := range []Format{P8, DXT1, D16, R32F, A16B16G16R16} {
		if CanUnpack(f) {
			t.Errorf("CanUnpack(%v) = true", f)
		}
		if _, ok := Unpack(f, make([]byte, 8)); ok {
			t.Errorf("Unpack(%v) succeeded", f)
		}
	}
}

func TestARGB(t *testing.T) {
	c := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	if v := ARGB(c); v != 0x04010203 {
		t.Errorf("ARGB = %#x", v)
	}
	if got := FromARGB(0x04010203); got != c {
		t.Errorf("FromARGB = %+v", got)
	}
}
