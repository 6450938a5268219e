// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package snapshot writes and reads the debug dump of a surface.
//
// A dump is an uncompressed 32-bit truecolor TGA: an 18-byte header with
// little-endian width and height, a top-left origin descriptor, and the
// raster as B, G, R, A bytes.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of the fixed dump header.
const HeaderSize = 18

const (
	imageTypeTruecolor = 2
	bitsPerPixel       = 0x20
	descriptor         = 0x28 // 8 alpha bits, top-left origin
)

// ErrFormat is returned by Decode for streams that are not a dump.
var ErrFormat = errors.New("snapshot: not a truecolor dump")

// Header returns the dump header of a width x height image.
func Header(width, height int) [HeaderSize]byte {
	var h [HeaderSize]byte
	h[2] = imageTypeTruecolor
	binary.LittleEndian.PutUint16(h[12:], uint16(width))
	binary.LittleEndian.PutUint16(h[14:], uint16(height))
	h[16] = bitsPerPixel
	h[17] = descriptor
	return h
}

// Encode writes a dump of rgba, a width x height image of R, G, B, A bytes
// stored top row first with a pitch of width*4. flipped writes the rows in
// reverse order, for sources whose rows arrive bottom row first.
func Encode(w io.Writer, width, height int, rgba []byte, flipped bool) error {
	if width < 0 || height < 0 || width > 0xffff || height > 0xffff {
		return fmt.Errorf("snapshot: invalid size %dx%d", width, height)
	}
	if len(rgba) < width*height*4 {
		return fmt.Errorf("snapshot: %d bytes for %dx%d image", len(rgba), width, height)
	}

	bw := bufio.NewWriter(w)
	hdr := Header(width, height)
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	row := make([]byte, width*4)
	for y := 0; y < height; y++ {
		sy := y
		if flipped {
			sy = height - 1 - y
		}
		src := rgba[sy*width*4 : (sy+1)*width*4]
		for x := 0; x < width; x++ {
			row[x*4+0] = src[x*4+2]
			row[x*4+1] = src[x*4+1]
			row[x*4+2] = src[x*4+0]
			row[x*4+3] = src[x*4+3]
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode reads a dump written by Encode and returns its size and R, G, B, A
// pixels, top row first.
func Decode(r io.Reader) (width, height int, rgba []byte, err error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if hdr[2] != imageTypeTruecolor || hdr[16] != bitsPerPixel {
		return 0, 0, nil, ErrFormat
	}
	width = int(binary.LittleEndian.Uint16(hdr[12:]))
	height = int(binary.LittleEndian.Uint16(hdr[14:]))

	// Skip the image ID field if present.
	if n := int64(hdr[0]); n > 0 {
		if _, err := io.CopyN(io.Discard, r, n); err != nil {
			return 0, 0, nil, fmt.Errorf("snapshot: skip id: %w", err)
		}
	}

	rgba = make([]byte, width*height*4)
	if _, err := io.ReadFull(r, rgba); err != nil {
		return 0, 0, nil, fmt.Errorf("snapshot: read pixels: %w", err)
	}
	for i := 0; i < len(rgba); i += 4 {
		rgba[i], rgba[i+2] = rgba[i+2], rgba[i]
	}
	if hdr[17]&0x20 == 0 {
		flipRows(rgba, width*4, height)
	}
	return width, height, rgba, nil
}

func flipRows(b []byte, pitch, height int) {
	tmp := make([]byte, pitch)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		t, btm := b[top*pitch:(top+1)*pitch], b[bottom*pitch:(bottom+1)*pitch]
		copy(tmp, t)
		copy(t, btm)
		copy(btm, tmp)
	}
}
