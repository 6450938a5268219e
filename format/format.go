// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package format describes the pixel formats a surface can be created with.
//
// Every format has a static entry in the format table holding its byte
// width, its channel masks and the native GPU texture format it is stored
// as when the hardware can take it without conversion. Packed formats are
// little-endian words: A8R8G8B8 is laid out in memory as B, G, R, A.
package format

import (
	"strconv"

	"github.com/gogpu/gputypes"
)

// Format identifies a logical pixel format.
type Format uint8

const (
	// Unknown is the format of a surface that has not been finalized yet.
	Unknown Format = iota

	R8G8B8
	A8R8G8B8
	X8R8G8B8
	R5G6B5
	X1R5G5B5
	A1R5G5B5
	A4R4G4B4
	X4R4G4B4
	// R5G5B5A1 keeps alpha in the low bit; color-keyed R5G6B5 converts to it.
	R5G5B5A1
	R3G3B2
	A8
	A2R10G10B10
	A2B10G10R10
	A8B8G8R8
	X8B8G8R8
	G16R16
	A16B16G16R16

	// P8 is an 8-bit palette index.
	P8
	// A8P8 is an 8-bit palette index with 8 bits of alpha.
	A8P8

	L8
	A8L8
	A4L4

	// V8U8 and the formats after it are signed bump-map formats.
	V8U8
	L6V5U5
	X8L8V8U8
	Q8W8V8U8
	V16U16

	// DXT1 through DXT5 address memory in 4x4 blocks.
	DXT1
	DXT2
	DXT3
	DXT4
	DXT5

	D16Lockable
	D16
	D32
	D15S1
	D24S8
	D24X8

	R32F

	// formatCount is the number of formats (for internal use).
	formatCount
)

// Flags describe the storage class of a format.
type Flags uint8

const (
	// FlagCompressed marks block-compressed formats.
	FlagCompressed Flags = 1 << iota
	// FlagPaletted marks palette-index formats.
	FlagPaletted
	// FlagSigned marks signed bump-map formats.
	FlagSigned
	// FlagDepth marks depth and stencil formats.
	FlagDepth
	// FlagFloat marks floating point formats.
	FlagFloat
	// FlagLuminance marks luminance formats.
	FlagLuminance
)

// Info contains metadata about a pixel format.
type Info struct {
	// Name is the display name of the format.
	Name string

	// BytesPerPixel is the number of bytes per pixel. Block-compressed
	// formats report 1, the value the size formulas expect.
	BytesPerPixel int

	RedMask   uint32
	GreenMask uint32
	BlueMask  uint32
	AlphaMask uint32

	// Native is the GPU texture format holding this format's bytes
	// unchanged, or TextureFormatUndefined when the data must be converted
	// before upload.
	Native gputypes.TextureFormat

	Flags Flags
}

var infoTable = [formatCount]Info{
	Unknown: {Name: "Unknown"},

	R8G8B8:       {Name: "R8G8B8", BytesPerPixel: 3, RedMask: 0x00ff0000, GreenMask: 0x0000ff00, BlueMask: 0x000000ff},
	A8R8G8B8:     {Name: "A8R8G8B8", BytesPerPixel: 4, RedMask: 0x00ff0000, GreenMask: 0x0000ff00, BlueMask: 0x000000ff, AlphaMask: 0xff000000, Native: gputypes.TextureFormatBGRA8Unorm},
	X8R8G8B8:     {Name: "X8R8G8B8", BytesPerPixel: 4, RedMask: 0x00ff0000, GreenMask: 0x0000ff00, BlueMask: 0x000000ff, Native: gputypes.TextureFormatBGRA8Unorm},
	R5G6B5:       {Name: "R5G6B5", BytesPerPixel: 2, RedMask: 0xf800, GreenMask: 0x07e0, BlueMask: 0x001f, Native: gputypes.TextureFormatR16Uint},
	X1R5G5B5:     {Name: "X1R5G5B5", BytesPerPixel: 2, RedMask: 0x7c00, GreenMask: 0x03e0, BlueMask: 0x001f, Native: gputypes.TextureFormatR16Uint},
	A1R5G5B5:     {Name: "A1R5G5B5", BytesPerPixel: 2, RedMask: 0x7c00, GreenMask: 0x03e0, BlueMask: 0x001f, AlphaMask: 0x8000, Native: gputypes.TextureFormatR16Uint},
	A4R4G4B4:     {Name: "A4R4G4B4", BytesPerPixel: 2, RedMask: 0x0f00, GreenMask: 0x00f0, BlueMask: 0x000f, AlphaMask: 0xf000, Native: gputypes.TextureFormatR16Uint},
	X4R4G4B4:     {Name: "X4R4G4B4", BytesPerPixel: 2, RedMask: 0x0f00, GreenMask: 0x00f0, BlueMask: 0x000f, Native: gputypes.TextureFormatR16Uint},
	R5G5B5A1:     {Name: "R5G5B5A1", BytesPerPixel: 2, RedMask: 0xf800, GreenMask: 0x07c0, BlueMask: 0x003e, AlphaMask: 0x0001, Native: gputypes.TextureFormatR16Uint},
	R3G3B2:       {Name: "R3G3B2", BytesPerPixel: 1, RedMask: 0xe0, GreenMask: 0x1c, BlueMask: 0x03, Native: gputypes.TextureFormatR8Uint},
	A8:           {Name: "A8", BytesPerPixel: 1, AlphaMask: 0xff, Native: gputypes.TextureFormatR8Unorm},
	A2R10G10B10:  {Name: "A2R10G10B10", BytesPerPixel: 4, RedMask: 0x3ff00000, GreenMask: 0x000ffc00, BlueMask: 0x000003ff, AlphaMask: 0xc0000000},
	A2B10G10R10:  {Name: "A2B10G10R10", BytesPerPixel: 4, RedMask: 0x000003ff, GreenMask: 0x000ffc00, BlueMask: 0x3ff00000, AlphaMask: 0xc0000000, Native: gputypes.TextureFormatRGB10A2Unorm},
	A8B8G8R8:     {Name: "A8B8G8R8", BytesPerPixel: 4, RedMask: 0x000000ff, GreenMask: 0x0000ff00, BlueMask: 0x00ff0000, AlphaMask: 0xff000000, Native: gputypes.TextureFormatRGBA8Unorm},
	X8B8G8R8:     {Name: "X8B8G8R8", BytesPerPixel: 4, RedMask: 0x000000ff, GreenMask: 0x0000ff00, BlueMask: 0x00ff0000, Native: gputypes.TextureFormatRGBA8Unorm},
	G16R16:       {Name: "G16R16", BytesPerPixel: 4, RedMask: 0x0000ffff, GreenMask: 0xffff0000, Native: gputypes.TextureFormatRG16Unorm},
	A16B16G16R16: {Name: "A16B16G16R16", BytesPerPixel: 8, Native: gputypes.TextureFormatRGBA16Unorm},

	P8:   {Name: "P8", BytesPerPixel: 1, Flags: FlagPaletted},
	A8P8: {Name: "A8P8", BytesPerPixel: 2, AlphaMask: 0xff00, Flags: FlagPaletted},

	L8:   {Name: "L8", BytesPerPixel: 1, RedMask: 0xff, Native: gputypes.TextureFormatR8Unorm, Flags: FlagLuminance},
	A8L8: {Name: "A8L8", BytesPerPixel: 2, RedMask: 0x00ff, AlphaMask: 0xff00, Native: gputypes.TextureFormatRG8Unorm, Flags: FlagLuminance},
	A4L4: {Name: "A4L4", BytesPerPixel: 1, RedMask: 0x0f, AlphaMask: 0xf0, Flags: FlagLuminance},

	V8U8:     {Name: "V8U8", BytesPerPixel: 2, RedMask: 0x00ff, GreenMask: 0xff00, Native: gputypes.TextureFormatRG8Snorm, Flags: FlagSigned},
	L6V5U5:   {Name: "L6V5U5", BytesPerPixel: 2, RedMask: 0x001f, GreenMask: 0x03e0, BlueMask: 0xfc00, Flags: FlagSigned},
	X8L8V8U8: {Name: "X8L8V8U8", BytesPerPixel: 4, RedMask: 0x000000ff, GreenMask: 0x0000ff00, BlueMask: 0x00ff0000, Flags: FlagSigned},
	Q8W8V8U8: {Name: "Q8W8V8U8", BytesPerPixel: 4, RedMask: 0x000000ff, GreenMask: 0x0000ff00, BlueMask: 0x00ff0000, AlphaMask: 0xff000000, Native: gputypes.TextureFormatRGBA8Snorm, Flags: FlagSigned},
	V16U16:   {Name: "V16U16", BytesPerPixel: 4, RedMask: 0x0000ffff, GreenMask: 0xffff0000, Native: gputypes.TextureFormatRG16Snorm, Flags: FlagSigned},

	DXT1: {Name: "DXT1", BytesPerPixel: 1, Native: gputypes.TextureFormatBC1RGBAUnorm, Flags: FlagCompressed},
	DXT2: {Name: "DXT2", BytesPerPixel: 1, Native: gputypes.TextureFormatBC2RGBAUnorm, Flags: FlagCompressed},
	DXT3: {Name: "DXT3", BytesPerPixel: 1, Native: gputypes.TextureFormatBC2RGBAUnorm, Flags: FlagCompressed},
	DXT4: {Name: "DXT4", BytesPerPixel: 1, Native: gputypes.TextureFormatBC3RGBAUnorm, Flags: FlagCompressed},
	DXT5: {Name: "DXT5", BytesPerPixel: 1, Native: gputypes.TextureFormatBC3RGBAUnorm, Flags: FlagCompressed},

	D16Lockable: {Name: "D16_LOCKABLE", BytesPerPixel: 2, Native: gputypes.TextureFormatDepth16Unorm, Flags: FlagDepth},
	D16:         {Name: "D16", BytesPerPixel: 2, Native: gputypes.TextureFormatDepth16Unorm, Flags: FlagDepth},
	D32:         {Name: "D32", BytesPerPixel: 4, Native: gputypes.TextureFormatDepth32Float, Flags: FlagDepth},
	D15S1:       {Name: "D15S1", BytesPerPixel: 2, Native: gputypes.TextureFormatDepth24PlusStencil8, Flags: FlagDepth},
	D24S8:       {Name: "D24S8", BytesPerPixel: 4, Native: gputypes.TextureFormatDepth24PlusStencil8, Flags: FlagDepth},
	D24X8:       {Name: "D24X8", BytesPerPixel: 4, Native: gputypes.TextureFormatDepth24Plus, Flags: FlagDepth},

	R32F: {Name: "R32F", BytesPerPixel: 4, Native: gputypes.TextureFormatR32Float, Flags: FlagFloat},
}

// Info returns the table entry for f. Asking for an unregistered format is
// a programming error and panics.
func (f Format) Info() Info {
	if f >= formatCount {
		panic("format: unregistered format " + strconv.Itoa(int(f)))
	}
	return infoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// Native returns the GPU texture format storing f without conversion.
func (f Format) Native() gputypes.TextureFormat {
	return f.Info().Native
}

// String returns the display name of the format.
func (f Format) String() string {
	if !f.IsValid() {
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
	return infoTable[f].Name
}

// IsValid returns true if the format is a registered format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// IsCompressed reports whether f is a DXT block format.
func (f Format) IsCompressed() bool { return f.Info().Flags&FlagCompressed != 0 }

// IsPaletted reports whether f stores palette indices.
func (f Format) IsPaletted() bool { return f.Info().Flags&FlagPaletted != 0 }

// IsSigned reports whether f is a signed bump-map format.
func (f Format) IsSigned() bool { return f.Info().Flags&FlagSigned != 0 }

// IsDepth reports whether f is a depth or stencil format.
func (f Format) IsDepth() bool { return f.Info().Flags&FlagDepth != 0 }

// HasAlpha reports whether f carries an alpha channel.
func (f Format) HasAlpha() bool { return f.Info().AlphaMask != 0 }

// All returns every registered format except Unknown, in table order.
func All() []Format {
	out := make([]Format, 0, formatCount-1)
	for f := Unknown + 1; f < formatCount; f++ {
		out = append(out, f)
	}
	return out
}

// Parse returns the format with the given display name.
func Parse(name string) (Format, bool) {
	for f := Unknown; f < formatCount; f++ {
		if infoTable[f].Name == name {
			return f, true
		}
	}
	return Unknown, false
}
