// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"fmt"
	"image"

	"github.com/gogpu/surfcache"
)

// allocator creates in-memory textures.
type allocator struct{}

func (allocator) CreateTexture(desc surfcache.TextureDesc) (surfcache.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.BytesPerPixel <= 0 {
		return nil, fmt.Errorf("soft: texture %dx%d: %w", desc.Width, desc.Height, surfcache.ErrInvalidCall)
	}
	return &Texture{desc: desc, pix: make([]byte, desc.Pitch()*desc.Rows())}, nil
}

// Texture is texture storage in memory, rows at desc.Pitch().
type Texture struct {
	desc surfcache.TextureDesc
	pix  []byte
}

func (t *Texture) Desc() surfcache.TextureDesc { return t.desc }

// Upload copies r.Dy() rows of data into r. Compressed textures take whole
// block rows and ignore r.Min.X.
func (t *Texture) Upload(data []byte, pitch int, r image.Rectangle) error {
	if t.pix == nil {
		return fmt.Errorf("soft: upload to destroyed texture: %w", surfcache.ErrInvalidCall)
	}
	if !r.In(image.Rect(0, 0, t.desc.Width, t.desc.Height)) {
		return fmt.Errorf("soft: upload %v outside %dx%d texture: %w", r, t.desc.Width, t.desc.Height, surfcache.ErrInvalidCall)
	}
	tp := t.desc.Pitch()
	rows, rowBytes, x0 := r.Dy(), r.Dx()*t.desc.BytesPerPixel, r.Min.X*t.desc.BytesPerPixel
	y0 := r.Min.Y
	if t.desc.Format.IsValid() && t.desc.Format.IsCompressed() {
		rows, rowBytes, x0, y0 = (r.Dy()+3)/4, min(pitch, tp), 0, r.Min.Y/4
	}
	for y := 0; y < rows; y++ {
		if y*pitch >= len(data) {
			break
		}
		dst := t.pix[(y0+y)*tp+x0:]
		copy(dst[:min(rowBytes, len(dst))], data[y*pitch:])
	}
	return nil
}

func (t *Texture) Download(dst []byte, pitch int) error {
	if t.pix == nil {
		return fmt.Errorf("soft: download from destroyed texture: %w", surfcache.ErrInvalidCall)
	}
	tp := t.desc.Pitch()
	n := min(pitch, tp)
	for y := 0; y < t.desc.Rows(); y++ {
		if y*pitch+n > len(dst) {
			break
		}
		copy(dst[y*pitch:y*pitch+n], t.pix[y*tp:])
	}
	return nil
}

func (t *Texture) Destroy() { t.pix = nil }

// Bytes returns the storage of t.
func (t *Texture) Bytes() []byte { return t.pix }

// NewAllocator returns the allocator the device uses by default.
func NewAllocator() surfcache.TextureAllocator { return allocator{} }
