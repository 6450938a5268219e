// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package convert

import "github.com/gogpu/surfcache/format"

// Caps lists the texture capabilities that decide whether a format can be
// uploaded as-is.
type Caps struct {
	// PalettedTextures reports native support for 8-bit paletted textures.
	PalettedTextures bool

	// SignedFormats reports native support for signed bump-map formats.
	SignedFormats bool
}

// Desc describes the texture data produced for a surface format.
type Desc struct {
	Mode Mode

	// Format is the layout of the converted data. It equals the surface
	// format when Mode is NoConversion, and is format.Unknown for outputs
	// no registered format describes (V16U16's three 16-bit words).
	Format format.Format

	BytesPerPixel int
}

// Select picks the conversion for a surface of format f.
//
// keyed is true when the caller needs alpha from the source color key and
// the surface has one set. texturing is false when the data is headed for a
// pixel-transfer path rather than a texture; paletted data is always
// expanded there.
func Select(f format.Format, keyed bool, caps Caps, texturing bool) Desc {
	d := Desc{Mode: NoConversion, Format: f, BytesPerPixel: f.BytesPerPixel()}

	switch f {
	case format.P8:
		if !caps.PalettedTextures || keyed || !texturing {
			d = Desc{Mode: Paletted, Format: format.A8B8G8R8, BytesPerPixel: 4}
			if keyed {
				d.Mode = PalettedCK
			}
		}

	case format.R5G6B5:
		if keyed {
			d = Desc{Mode: CK565, Format: format.R5G5B5A1, BytesPerPixel: 2}
		}

	case format.R8G8B8:
		if keyed {
			d = Desc{Mode: CKRGB24, Format: format.A8R8G8B8, BytesPerPixel: 4}
		}

	case format.X8R8G8B8:
		if keyed {
			d = Desc{Mode: RGB32888, Format: format.A8R8G8B8, BytesPerPixel: 4}
		}

	case format.V8U8:
		if !caps.SignedFormats {
			d = Desc{Mode: V8U8, Format: format.R8G8B8, BytesPerPixel: 3}
		}

	case format.X8L8V8U8:
		if !caps.SignedFormats {
			d = Desc{Mode: X8L8V8U8, Format: format.A8R8G8B8, BytesPerPixel: 4}
		}

	case format.L6V5U5:
		if !caps.SignedFormats {
			d = Desc{Mode: L6V5U5, Format: format.R5G6B5, BytesPerPixel: 2}
		}

	case format.Q8W8V8U8:
		if !caps.SignedFormats {
			d = Desc{Mode: Q8W8V8U8, Format: format.A8R8G8B8, BytesPerPixel: 4}
		}

	case format.V16U16:
		if !caps.SignedFormats {
			d = Desc{Mode: V16U16, Format: format.Unknown, BytesPerPixel: 6}
		}
	}
	return d
}

// OutPitch returns the aligned destination pitch for width converted pixels.
func (d Desc) OutPitch(width int) int {
	return format.Align(width*d.BytesPerPixel, format.SurfaceAlignment)
}
