// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package convert transforms packed-pixel buffers between the layout an
// application writes and the layout a texture can be uploaded in.
//
// Conversions are pure functions over byte slices. Both buffers are
// addressed row by row with explicit pitches, so a tightly packed source can
// be written into aligned texture storage and vice versa.
package convert

import (
	"errors"
	"fmt"
)

// Mode selects a conversion.
type Mode uint8

const (
	// NoConversion copies rows unchanged.
	NoConversion Mode = iota
	// Paletted expands 8-bit palette indices to R, G, B, A bytes.
	Paletted
	// PalettedCK is Paletted with indices inside the source color key
	// written transparent.
	PalettedCK
	// CK565 repacks R5G6B5 into R5G5B5A1 with a synthesized alpha bit.
	CK565
	CK5551
	CK4444
	CK4444ARGB
	CK1555
	CK555
	CKRGB565
	CKARGB
	// RGB32888 adds a color-key alpha to X8R8G8B8.
	RGB32888
	// CKRGB24 widens R8G8B8 to 32 bits with a color-key alpha.
	CKRGB24
	// V8U8 rebiases a signed two-channel bump map into unsigned B, G, R.
	V8U8
	L6V5U5
	// X8L8V8U8 rebiases the signed channels and keeps luminance.
	X8L8V8U8
	// Q8W8V8U8 rebiases all four signed channels.
	Q8W8V8U8
	// V16U16 rebiases 16-bit signed channels into three 16-bit words.
	V16U16

	modeCount
)

var modeNames = [modeCount]string{
	NoConversion: "none",
	Paletted:     "paletted",
	PalettedCK:   "paletted-ck",
	CK565:        "ck-565",
	CK5551:       "ck-5551",
	CK4444:       "ck-4444",
	CK4444ARGB:   "ck-4444-argb",
	CK1555:       "ck-1555",
	CK555:        "ck-555",
	CKRGB565:     "ck-rgb565",
	CKARGB:       "ck-argb",
	RGB32888:     "rgb32-888",
	CKRGB24:      "ck-rgb24",
	V8U8:         "v8u8",
	L6V5U5:       "l6v5u5",
	X8L8V8U8:     "x8l8v8u8",
	Q8W8V8U8:     "q8w8v8u8",
	V16U16:       "v16u16",
}

func (m Mode) String() string {
	if m >= modeCount {
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
	return modeNames[m]
}

// Keyed reports whether the mode synthesizes alpha from a color key.
func (m Mode) Keyed() bool {
	switch m {
	case PalettedCK, CK565, CK5551, CK4444, CK4444ARGB, CK1555, CK555, CKRGB565, CKARGB, RGB32888, CKRGB24:
		return true
	}
	return false
}

var (
	// ErrUnsupported is returned for modes that have no implementation.
	ErrUnsupported = errors.New("convert: unsupported conversion")

	// ErrNoPalette is returned by paletted modes called without a palette.
	ErrNoPalette = errors.New("convert: paletted conversion without palette")

	// ErrShortBuffer is returned when a buffer cannot hold width x height
	// pixels at its pitch.
	ErrShortBuffer = errors.New("convert: buffer too small")
)

// Entry is one palette color.
type Entry struct {
	R, G, B uint8
	Flags   uint8
}

// Palette is a 256-color table.
type Palette [256]Entry

// ColorKey is an inclusive range of key values.
type ColorKey struct {
	Low, High uint32
}

// Contains reports whether v lies inside the key range.
func (k ColorKey) Contains(v uint32) bool {
	return v >= k.Low && v <= k.High
}

// Params carries the inputs a conversion may read besides the pixels.
type Params struct {
	// Palette is the palette used by paletted modes. The caller resolves
	// precedence: the surface palette when attached, else the device one.
	Palette *Palette

	// Key is the source color key for keyed modes.
	Key ColorKey
}

// srcBytes and dstBytes give the per-pixel widths of each mode.
var (
	srcBytes = [modeCount]int{
		Paletted: 1, PalettedCK: 1, CK565: 2, RGB32888: 4, CKRGB24: 3,
		V8U8: 2, X8L8V8U8: 4, Q8W8V8U8: 4, V16U16: 4,
	}
	dstBytes = [modeCount]int{
		Paletted: 4, PalettedCK: 4, CK565: 2, RGB32888: 4, CKRGB24: 4,
		V8U8: 3, X8L8V8U8: 4, Q8W8V8U8: 4, V16U16: 6,
	}
)

// Supported reports whether Convert implements m.
func Supported(m Mode) bool {
	return m == NoConversion || (m < modeCount && srcBytes[m] != 0)
}

// DstBytesPerPixel returns the output pixel width of m, or 0 for
// NoConversion and unsupported modes.
func DstBytesPerPixel(m Mode) int {
	if m >= modeCount {
		return 0
	}
	return dstBytes[m]
}

// Convert transforms a width x height block of src into dst.
//
// Rows are processed one destination row per source row. For NoConversion
// each row copies min(srcPitch, dstPitch) bytes. Unsupported modes return
// ErrUnsupported without touching dst.
func Convert(src []byte, srcPitch, width, height int, dst []byte, dstPitch int, mode Mode, p Params) error {
	if !Supported(mode) {
		return fmt.Errorf("%w: %v", ErrUnsupported, mode)
	}
	if width <= 0 || height <= 0 {
		return nil
	}

	sb, db := srcBytes[mode], dstBytes[mode]
	if mode == NoConversion {
		sb, db = 0, 0
	}
	if err := checkBuffer(src, srcPitch, width*sb, height); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := checkBuffer(dst, dstPitch, width*db, height); err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	rows, err := rowFunc(mode, width, srcPitch, dstPitch, p)
	if err != nil {
		return err
	}
	return runBands(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			rows(src[y*srcPitch:], dst[y*dstPitch:])
		}
	})
}

func checkBuffer(b []byte, pitch, rowBytes, height int) error {
	if pitch < rowBytes {
		return fmt.Errorf("%w: pitch %d < row %d", ErrShortBuffer, pitch, rowBytes)
	}
	if need := pitch*(height-1) + rowBytes; len(b) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(b), need)
	}
	return nil
}

// rowFunc returns the per-row kernel of mode.
func rowFunc(mode Mode, width, srcPitch, dstPitch int, p Params) (func(src, dst []byte), error) {
	switch mode {
	case NoConversion:
		n := min(srcPitch, dstPitch)
		return func(src, dst []byte) {
			copy(dst[:min(n, len(dst))], src)
		}, nil

	case Paletted, PalettedCK:
		if p.Palette == nil {
			return nil, ErrNoPalette
		}
		table := Table(p.Palette, p.Key, mode == PalettedCK)
		return func(src, dst []byte) {
			for x := 0; x < width; x++ {
				copy(dst[x*4:x*4+4], table[src[x]][:])
			}
		}, nil

	case CK565:
		key := p.Key
		return func(src, dst []byte) {
			for x := 0; x < width; x++ {
				c := uint16(src[x*2]) | uint16(src[x*2+1])<<8
				out := (c & 0xffc0) | ((c & 0x001f) << 1)
				if !key.Contains(uint32(c)) {
					out |= 0x0001
				}
				dst[x*2] = byte(out)
				dst[x*2+1] = byte(out >> 8)
			}
		}, nil

	case CKRGB24:
		key := p.Key
		return func(src, dst []byte) {
			for x := 0; x < width; x++ {
				s, d := src[x*3:x*3+3], dst[x*4:x*4+4]
				c := uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16
				d[0], d[1], d[2] = s[0], s[1], s[2]
				d[3] = keyAlpha(key, c)
			}
		}, nil

	case RGB32888:
		key := p.Key
		return func(src, dst []byte) {
			for x := 0; x < width; x++ {
				s, d := src[x*4:x*4+4], dst[x*4:x*4+4]
				c := uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16
				d[0], d[1], d[2] = s[0], s[1], s[2]
				d[3] = keyAlpha(key, c)
			}
		}, nil

	case V8U8:
		return func(src, dst []byte) {
			for x := 0; x < width; x++ {
				u, v := src[x*2], src[x*2+1]
				d := dst[x*3 : x*3+3]
				d[0] = 0xff
				d[1] = v + 128
				d[2] = u + 128
			}
		}, nil

	case X8L8V8U8:
		return func(src, dst []byte) {
			for x := 0; x < width; x++ {
				s, d := src[x*4:x*4+4], dst[x*4:x*4+4]
				d[0] = s[2]
				d[1] = s[1] + 128
				d[2] = s[0] + 128
				d[3] = 0xff
			}
		}, nil

	case Q8W8V8U8:
		return func(src, dst []byte) {
			for x := 0; x < width; x++ {
				s, d := src[x*4:x*4+4], dst[x*4:x*4+4]
				d[0] = s[2] + 128
				d[1] = s[1] + 128
				d[2] = s[0] + 128
				d[3] = s[3] + 128
			}
		}, nil

	case V16U16:
		return func(src, dst []byte) {
			for x := 0; x < width; x++ {
				s, d := src[x*4:x*4+4], dst[x*6:x*6+6]
				u := uint16(s[0]) | uint16(s[1])<<8
				v := uint16(s[2]) | uint16(s[3])<<8
				put16(d[0:], 0xffff)
				put16(d[2:], v+32768)
				put16(d[4:], u+32768)
			}
		}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, mode)
}

func keyAlpha(key ColorKey, c uint32) uint8 {
	if key.Contains(c) {
		return 0x00
	}
	return 0xff
}

func put16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
