// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package format

// SurfaceAlignment is the row alignment, in bytes, of host-memory surfaces.
const SurfaceAlignment = 4

// Align rounds n up to a multiple of a. a must be a power of two.
func Align(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}

// NextPow2 returns the smallest power of two that is >= n. NextPow2(0) is 1.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Pitch returns the byte pitch of a host-memory row of width pixels.
//
// Block-compressed formats return the pitch of one row of 4x4 blocks.
func Pitch(f Format, width int) int {
	switch f {
	case DXT1:
		return ((width + 3) >> 2) << 3
	case DXT2, DXT3, DXT4, DXT5:
		return ((width + 3) >> 2) << 4
	default:
		return Align(f.BytesPerPixel()*width, SurfaceAlignment)
	}
}

// Size returns the number of host-memory bytes of a width x height surface.
// Callers pass the storage (pow2) size.
func Size(f Format, width, height int) int {
	bpp := f.BytesPerPixel()
	switch f {
	case DXT1:
		return (max(width, 4) * bpp * max(height, 4)) >> 1
	case DXT2, DXT3, DXT4, DXT5:
		return max(width, 4) * bpp * max(height, 4)
	default:
		return Align(width*bpp, SurfaceAlignment) * height
	}
}

// LockOffset returns the byte offset of pixel (x, y) in a buffer with the
// given pitch. Block-compressed formats address whole 4x4 blocks, so x and
// y are expected to be multiples of 4 for them.
func LockOffset(f Format, pitch, x, y int) int {
	switch f {
	case DXT1:
		return pitch*y/4 + x*2
	case DXT2, DXT3, DXT4, DXT5:
		return pitch*y/4 + x*4
	default:
		return pitch*y + x*f.BytesPerPixel()
	}
}
