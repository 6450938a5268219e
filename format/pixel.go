// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package format

import (
	"image/color"
	"math/bits"
)

// CanUnpack reports whether Unpack and Pack support f. Paletted,
// block-compressed, depth, float and 64-bit formats are not addressable
// through channel masks.
func CanUnpack(f Format) bool {
	info := f.Info()
	if info.Flags&(FlagPaletted|FlagCompressed|FlagDepth|FlagFloat) != 0 {
		return false
	}
	return info.BytesPerPixel >= 1 && info.BytesPerPixel <= 4
}

// Word reads one little-endian pixel word of bpp bytes.
func Word(p []byte, bpp int) uint32 {
	var w uint32
	for i := bpp - 1; i >= 0; i-- {
		w = w<<8 | uint32(p[i])
	}
	return w
}

// PutWord writes the low bpp bytes of w to p, little-endian.
func PutWord(p []byte, bpp int, w uint32) {
	for i := 0; i < bpp; i++ {
		p[i] = byte(w)
		w >>= 8
	}
}

// Unpack decodes the pixel at the start of p into a non-premultiplied color.
// Formats without an alpha mask decode as opaque; luminance formats copy
// the luminance into all three color channels.
func Unpack(f Format, p []byte) (color.NRGBA, bool) {
	if !CanUnpack(f) {
		return color.NRGBA{}, false
	}
	info := f.Info()
	w := Word(p, info.BytesPerPixel)
	c := color.NRGBA{
		R: channel(w, info.RedMask),
		G: channel(w, info.GreenMask),
		B: channel(w, info.BlueMask),
		A: 0xff,
	}
	if info.AlphaMask != 0 {
		c.A = channel(w, info.AlphaMask)
	}
	if info.Flags&FlagLuminance != 0 {
		c.G, c.B = c.R, c.R
	}
	return c, true
}

// Pack encodes c into the pixel at the start of p. Channels the format does
// not store are dropped.
func Pack(f Format, p []byte, c color.NRGBA) bool {
	if !CanUnpack(f) {
		return false
	}
	info := f.Info()
	var w uint32
	if info.Flags&FlagLuminance != 0 {
		l := (uint32(c.R)*77 + uint32(c.G)*150 + uint32(c.B)*29) >> 8
		w |= place(uint8(l), info.RedMask)
	} else {
		w |= place(c.R, info.RedMask)
		w |= place(c.G, info.GreenMask)
		w |= place(c.B, info.BlueMask)
	}
	w |= place(c.A, info.AlphaMask)
	PutWord(p, info.BytesPerPixel, w)
	return true
}

// ARGB returns c as a packed 0xAARRGGBB word.
func ARGB(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// FromARGB unpacks a 0xAARRGGBB word.
func FromARGB(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: uint8(v >> 24)}
}

func channel(w, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	top := uint32(1)<<width - 1
	v := (w & mask) >> shift
	return uint8((v*255 + top/2) / top)
}

func place(c uint8, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	top := uint64(1)<<width - 1
	v := (uint64(c)*top + 127) / 255
	return uint32(v<<shift) & mask
}
