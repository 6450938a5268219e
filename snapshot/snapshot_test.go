// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderBytes(t *testing.T) {
	got := Header(0x0102, 0x0304)
	want := [HeaderSize]byte{0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x02, 0x01, 0x04, 0x03, 0x20, 0x28}
	if got != want {
		t.Errorf("Header = % x\nwant     % x", got, want)
	}
}

func TestEncodeSwapsToBGRA(t *testing.T) {
	rgba := []byte{
		0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80,
	}
	var buf bytes.Buffer
	if err := Encode(&buf, 2, 1, rgba, false); err != nil {
		t.Fatal(err)
	}
	raster := buf.Bytes()[HeaderSize:]
	want := []byte{0x30, 0x20, 0x10, 0x40, 0x70, 0x60, 0x50, 0x80}
	if !bytes.Equal(raster, want) {
		t.Errorf("raster = % x, want % x", raster, want)
	}
}

func TestEncodeFlipped(t *testing.T) {
	rgba := []byte{
		1, 1, 1, 1, // row 0
		2, 2, 2, 2, // row 1
	}
	var buf bytes.Buffer
	if err := Encode(&buf, 1, 2, rgba, true); err != nil {
		t.Fatal(err)
	}
	raster := buf.Bytes()[HeaderSize:]
	if raster[0] != 2 || raster[4] != 1 {
		t.Errorf("flipped raster = % x", raster)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	rgba := make([]byte, 3*2*4)
	for i := range rgba {
		rgba[i] = byte(i)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, 3, 2, rgba, false); err != nil {
		t.Fatal(err)
	}
	w, h, got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if w != 3 || h != 2 || !bytes.Equal(got, rgba) {
		t.Errorf("Decode = %dx%d % x", w, h, got)
	}
}

func TestDecodeRejectsOtherImages(t *testing.T) {
	hdr := Header(1, 1)
	hdr[2] = 10 // RLE truecolor
	_, _, _, err := Decode(bytes.NewReader(append(hdr[:], 0, 0, 0, 0)))
	if !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want ErrFormat", err)
	}
}

func TestEncodeErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, 2, 2, make([]byte, 4), false); err == nil {
		t.Error("short pixel buffer accepted")
	}
	if err := Encode(&buf, 70000, 1, nil, false); err == nil {
		t.Error("oversized width accepted")
	}
}
