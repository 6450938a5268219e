// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/format"
)

// drawable holds A8R8G8B8 words in scanout order.
type drawable struct {
	w, h     int
	bottomUp bool
	pix      []uint32
}

func (dr *drawable) index(x, y int) int {
	if dr.bottomUp {
		y = dr.h - 1 - y
	}
	return y*dr.w + x
}

func (dr *drawable) bounds() image.Rectangle { return image.Rect(0, 0, dr.w, dr.h) }

// storageRows lists the surface rows of r in scanout order.
func (dr *drawable) storageRows(r image.Rectangle) []int {
	rows := make([]int, 0, r.Dy())
	if dr.bottomUp {
		for y := r.Max.Y - 1; y >= r.Min.Y; y-- {
			rows = append(rows, y)
		}
		return rows
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		rows = append(rows, y)
	}
	return rows
}

func (d *Device) drawableLocked(s *surfcache.Surface) *drawable {
	dr, ok := d.drawables[s]
	if !ok {
		dr = &drawable{
			w:        s.Width(),
			h:        s.Height(),
			bottomUp: s.Swapchain() != nil,
			pix:      make([]uint32, s.Width()*s.Height()),
		}
		d.drawables[s] = dr
	}
	return dr
}

// Pixels returns the drawable of s top row first.
func (d *Device) Pixels(s *surfcache.Surface) *image.NRGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	dr := d.drawableLocked(s)
	img := image.NewNRGBA(dr.bounds())
	for y := 0; y < dr.h; y++ {
		for x := 0; x < dr.w; x++ {
			img.SetNRGBA(x, y, format.FromARGB(dr.pix[dr.index(x, y)]))
		}
	}
	return img
}

func (d *Device) ReadPixels(s *surfcache.Surface, _ surfcache.Buffer, r image.Rectangle, f format.Format, dst []byte, pitch int) error {
	if !format.CanUnpack(f) {
		return fmt.Errorf("soft: read pixels as %v: %w", f, surfcache.ErrUnsupported)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	dr := d.drawableLocked(s)
	r = r.Intersect(dr.bounds())
	bpp := f.BytesPerPixel()
	for i, y := range dr.storageRows(r) {
		row := dst[i*pitch:]
		for x := r.Min.X; x < r.Max.X; x++ {
			format.Pack(f, row[(x-r.Min.X)*bpp:], format.FromARGB(dr.pix[dr.index(x, y)]))
		}
	}
	return nil
}

func (d *Device) DrawPixels(s *surfcache.Surface, _ surfcache.Buffer, r image.Rectangle, f format.Format, src []byte, pitch int) error {
	if !format.CanUnpack(f) {
		return fmt.Errorf("soft: draw pixels from %v: %w", f, surfcache.ErrUnsupported)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	dr := d.drawableLocked(s)
	bpp := f.BytesPerPixel()
	clipped := r.Intersect(dr.bounds())
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		row := src[(y-r.Min.Y)*pitch:]
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			c, _ := format.Unpack(f, row[(x-r.Min.X)*bpp:])
			dr.pix[dr.index(x, y)] = format.ARGB(c)
		}
	}
	return nil
}

func (d *Device) Clear(dst *surfcache.Surface, r image.Rectangle, argb uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dr := d.drawableLocked(dst)
	r = r.Intersect(dr.bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dr.pix[dr.index(x, y)] = argb
		}
	}
	return nil
}

func (d *Device) DrawTexture(dst *surfcache.Surface, q surfcache.Quad) error {
	d.mu.Lock()
	d.quads = append(d.quads, q)
	d.mu.Unlock()
	src, err := decodeTexture(q.Texture)
	if err != nil {
		return err
	}
	w, h := float64(src.Rect.Dx()), float64(src.Rect.Dy())
	tc := q.TexCoords
	flipX, flipY := tc[0] > tc[2], tc[1] > tc[3]
	sr := image.Rect(
		int(math.Round(float64(tc[0])*w)), int(math.Round(float64(tc[1])*h)),
		int(math.Round(float64(tc[2])*w)), int(math.Round(float64(tc[3])*h)),
	).Canon()
	if sr.Empty() || q.Dst.Empty() {
		return nil
	}
	scaled := image.NewNRGBA(image.Rect(0, 0, q.Dst.Dx(), q.Dst.Dy()))
	scaler(q.Filter).Scale(scaled, scaled.Rect, src, sr, draw.Src, nil)

	d.mu.Lock()
	defer d.mu.Unlock()
	dr := d.drawableLocked(dst)
	clipped := q.Dst.Intersect(dr.bounds())
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		ty := y - q.Dst.Min.Y
		if flipY {
			ty = q.Dst.Dy() - 1 - ty
		}
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			tx := x - q.Dst.Min.X
			if flipX {
				tx = q.Dst.Dx() - 1 - tx
			}
			c := scaled.NRGBAAt(tx, ty)
			if q.AlphaTest && c.A == 0 {
				continue
			}
			dr.pix[dr.index(x, y)] = format.ARGB(c)
		}
	}
	return nil
}

// ordered returns sr of the drawable of s as an image, rows taken in
// scanout order and reversed unless upsideDown is set.
func (d *Device) ordered(s *surfcache.Surface, sr image.Rectangle, upsideDown bool) *image.NRGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	dr := d.drawableLocked(s)
	sr = sr.Intersect(dr.bounds())
	rows := dr.storageRows(sr)
	img := image.NewNRGBA(image.Rect(0, 0, sr.Dx(), len(rows)))
	for i := range rows {
		y := rows[i]
		if !upsideDown {
			y = rows[len(rows)-1-i]
		}
		for x := sr.Min.X; x < sr.Max.X; x++ {
			img.SetNRGBA(x-sr.Min.X, i, format.FromARGB(dr.pix[dr.index(x, y)]))
		}
	}
	return img
}

func (d *Device) CopyToTexture(src *surfcache.Surface, sr image.Rectangle, dst surfcache.Texture, dr image.Rectangle, upsideDown bool) error {
	d.record(Transfer{Method: "copy", Source: src, SrcRect: sr, DstRect: dr, UpsideDown: upsideDown})
	return d.toTexture(src, sr, dst, dr, upsideDown, draw.NearestNeighbor)
}

func (d *Device) StretchToTexture(src *surfcache.Surface, sr image.Rectangle, dst surfcache.Texture, dr image.Rectangle, upsideDown bool, filter surfcache.Filter) error {
	d.record(Transfer{Method: "stretch", Source: src, SrcRect: sr, DstRect: dr, UpsideDown: upsideDown})
	return d.toTexture(src, sr, dst, dr, upsideDown, scaler(filter))
}

func (d *Device) toTexture(src *surfcache.Surface, sr image.Rectangle, dst surfcache.Texture, dr image.Rectangle, upsideDown bool, sc draw.Scaler) error {
	if dst == nil {
		return fmt.Errorf("soft: copy to nil texture: %w", surfcache.ErrInvalidCall)
	}
	img := d.ordered(src, sr, upsideDown)
	return uploadImage(dst, scale(img, dr.Size(), sc), dr)
}

// BlitFramebuffer writes into the texture of dst when it has one, the way
// a framebuffer object bound to that texture would, and into its drawable
// otherwise.
func (d *Device) BlitFramebuffer(src *surfcache.Surface, sr image.Rectangle, dst *surfcache.Surface, dr image.Rectangle, upsideDown bool, filter surfcache.Filter) error {
	d.record(Transfer{Method: "framebuffer", Source: src, SrcRect: sr, DstRect: dr, UpsideDown: upsideDown})
	img := scale(d.ordered(src, sr, upsideDown), dr.Size(), scaler(filter))
	if tex := dst.Texture(); tex != nil {
		return uploadImage(tex, img, dr)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.drawableLocked(dst)
	clipped := dr.Intersect(out.bounds())
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			out.pix[out.index(x, y)] = format.ARGB(img.NRGBAAt(x-dr.Min.X, y-dr.Min.Y))
		}
	}
	return nil
}

func scaler(f surfcache.Filter) draw.Scaler {
	if f == surfcache.FilterLinear {
		return draw.ApproxBiLinear
	}
	return draw.NearestNeighbor
}

func scale(img *image.NRGBA, size image.Point, sc draw.Scaler) *image.NRGBA {
	if img.Rect.Size() == size {
		return img
	}
	out := image.NewNRGBA(image.Rectangle{Max: size})
	if !img.Rect.Empty() {
		sc.Scale(out, out.Rect, img, img.Rect, draw.Src, nil)
	}
	return out
}

// decodeTexture reads a texture back as an image of its full size.
func decodeTexture(tex surfcache.Texture) (*image.NRGBA, error) {
	if tex == nil {
		return nil, fmt.Errorf("soft: draw of nil texture: %w", surfcache.ErrInvalidCall)
	}
	desc := tex.Desc()
	if !format.CanUnpack(desc.Format) {
		return nil, fmt.Errorf("soft: sample %v texture: %w", desc.Format, surfcache.ErrUnsupported)
	}
	pitch := desc.Pitch()
	buf := make([]byte, pitch*desc.Rows())
	if err := tex.Download(buf, pitch); err != nil {
		return nil, err
	}
	bpp := desc.Format.BytesPerPixel()
	img := image.NewNRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	for y := 0; y < desc.Height; y++ {
		row := buf[y*pitch:]
		for x := 0; x < desc.Width; x++ {
			c, _ := format.Unpack(desc.Format, row[x*bpp:])
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}

// uploadImage packs img in the texture format and uploads it to r.
func uploadImage(tex surfcache.Texture, img *image.NRGBA, r image.Rectangle) error {
	desc := tex.Desc()
	if !format.CanUnpack(desc.Format) {
		return fmt.Errorf("soft: write %v texture: %w", desc.Format, surfcache.ErrUnsupported)
	}
	bpp := desc.Format.BytesPerPixel()
	pitch := r.Dx() * bpp
	buf := make([]byte, pitch*r.Dy())
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			var c color.NRGBA
			if image.Pt(x, y).In(img.Rect) {
				c = img.NRGBAAt(x, y)
			}
			format.Pack(desc.Format, buf[y*pitch+x*bpp:], c)
		}
	}
	return tex.Upload(buf, pitch, r)
}
