// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcanvas

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/format"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("surfcanvas: canvas is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("surfcanvas: invalid dimensions")

	// ErrNilDevice is returned when a nil surfcache.Device is passed.
	ErrNilDevice = errors.New("surfcanvas: nil device")
)

type textureDestroyer interface {
	Destroy()
}

// Canvas is an A8R8G8B8 surface whose host image is mirrored into a
// texture of a gpucontext renderer. Only the damaged part is uploaded when
// the texture supports region updates.
//
// Canvas is NOT safe for concurrent use.
type Canvas struct {
	dev     surfcache.Device
	surface *surfcache.Surface

	texture    gpucontext.Texture
	oldTexture gpucontext.Texture

	// damage is the region written since the last upload, empty when
	// the texture is current.
	damage image.Rectangle

	sizeChanged bool
	width       int
	height      int
	closed      bool
}

// New creates a width x height canvas on dev.
func New(dev surfcache.Device, width, height int) (*Canvas, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	s, err := newSurface(dev, width, height)
	if err != nil {
		return nil, err
	}
	return &Canvas{
		dev:     dev,
		surface: s,
		width:   width,
		height:  height,
		damage:  image.Rect(0, 0, width, height),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(dev surfcache.Device, width, height int) *Canvas {
	c, err := New(dev, width, height)
	if err != nil {
		panic(err)
	}
	return c
}

func newSurface(dev surfcache.Device, width, height int) (*surfcache.Surface, error) {
	s, err := surfcache.NewSurface(dev, surfcache.SurfaceDesc{
		Label:  "canvas",
		Width:  width,
		Height: height,
		Format: format.A8R8G8B8,
	})
	if err != nil {
		return nil, fmt.Errorf("surfcanvas: %w", err)
	}
	// Uploads read the host image every frame.
	s.SetDoNotFree(true)
	return s, nil
}

// Surface returns the backing surface, or nil after Close. Writes made
// through it directly must be reported with MarkDirty.
func (c *Canvas) Surface() *surfcache.Surface {
	if c.closed {
		return nil
	}
	return c.surface
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// Size returns width and height as a convenience.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// MarkDirty adds r to the region uploaded on the next Flush. A nil r
// marks the whole canvas.
func (c *Canvas) MarkDirty(r *image.Rectangle) {
	full := image.Rect(0, 0, c.width, c.height)
	if r == nil {
		c.damage = full
		return
	}
	c.damage = c.damage.Union(r.Intersect(full))
}

// IsDirty reports whether an upload is pending.
func (c *Canvas) IsDirty() bool {
	return !c.damage.Empty() || c.sizeChanged
}

// Damage returns the region that the next Flush uploads.
func (c *Canvas) Damage() image.Rectangle {
	return c.damage
}

// Draw locks r of the surface, calls fn with it and marks r dirty. A nil
// r locks the whole canvas.
func (c *Canvas) Draw(r *image.Rectangle, fn func(lr surfcache.LockedRect)) error {
	if c.closed {
		return ErrCanvasClosed
	}
	lr, err := c.surface.Lock(r, 0)
	if err != nil {
		return err
	}
	fn(lr)
	if err := c.surface.Unlock(); err != nil {
		return err
	}
	c.MarkDirty(r)
	return nil
}

// Blt copies sr of src into dr of the canvas and marks dr dirty.
func (c *Canvas) Blt(dr *image.Rectangle, src *surfcache.Surface, sr *image.Rectangle, filter surfcache.Filter) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if err := c.surface.Blt(dr, src, sr, 0, nil, filter); err != nil {
		return err
	}
	c.MarkDirty(dr)
	return nil
}

// Fill fills r with the A8R8G8B8 value argb and marks r dirty.
func (c *Canvas) Fill(r *image.Rectangle, argb uint32) error {
	if c.closed {
		return ErrCanvasClosed
	}
	fx := &surfcache.BltFx{FillColor: argb}
	if err := c.surface.Blt(r, nil, nil, surfcache.BltColorFill, fx, surfcache.FilterNone); err != nil {
		return err
	}
	c.MarkDirty(r)
	return nil
}

// Resize replaces the surface with a cleared one of the new size.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if c.width == width && c.height == height {
		return nil
	}

	s, err := newSurface(c.dev, width, height)
	if err != nil {
		return err
	}
	c.surface.Release()
	c.surface = s
	c.width, c.height = width, height
	c.sizeChanged = true
	c.damage = image.Rect(0, 0, width, height)
	return nil
}

// Flush brings the texture up to date. Before the first RenderTo there is
// no texture and Flush only reports the pending state.
func (c *Canvas) Flush() (gpucontext.Texture, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}
	// The old texture may still be referenced by in-flight command
	// buffers; it is destroyed after the replacement is created.
	if c.sizeChanged {
		if c.texture != nil {
			destroy(c.oldTexture)
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.sizeChanged = false
	}
	if c.texture == nil || c.damage.Empty() {
		return c.texture, nil
	}

	rgba, err := c.pixels()
	if err != nil {
		return nil, err
	}
	if err := c.upload(rgba); err != nil {
		return nil, err
	}
	c.damage = image.Rectangle{}
	return c.texture, nil
}

// upload sends the damaged region, or everything when the texture cannot
// take regions.
func (c *Canvas) upload(rgba []byte) error {
	full := image.Rect(0, 0, c.width, c.height)
	if ru, ok := c.texture.(gpucontext.TextureRegionUpdater); ok && c.damage != full {
		r := c.damage
		surfcache.Logger().Debug("surfcanvas: region upload",
			slog.Int("x", r.Min.X), slog.Int("y", r.Min.Y),
			slog.Int("w", r.Dx()), slog.Int("h", r.Dy()))
		if err := ru.UpdateRegion(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), subImage(rgba, c.width, r)); err != nil {
			return fmt.Errorf("surfcanvas: region update failed: %w", err)
		}
		return nil
	}
	if u, ok := c.texture.(gpucontext.TextureUpdater); ok {
		surfcache.Logger().Debug("surfcanvas: full upload", slog.Int("w", c.width), slog.Int("h", c.height))
		if err := u.UpdateData(rgba); err != nil {
			return fmt.Errorf("surfcanvas: texture update failed: %w", err)
		}
		return nil
	}
	surfcache.Logger().Warn("surfcanvas: texture cannot be updated", slog.String("type", fmt.Sprintf("%T", c.texture)))
	return nil
}

// pixels returns the canvas image as densely packed RGBA rows.
func (c *Canvas) pixels() ([]byte, error) {
	rgba, err := c.surface.RGBA()
	if err != nil {
		return nil, fmt.Errorf("surfcanvas: %w", err)
	}
	sw, _ := c.surface.StorageSize()
	if sw == c.width {
		return rgba[:c.width*c.height*4], nil
	}
	out := make([]byte, c.width*c.height*4)
	for y := 0; y < c.height; y++ {
		copy(out[y*c.width*4:(y+1)*c.width*4], rgba[y*sw*4:])
	}
	return out, nil
}

// subImage packs r of a width-wide RGBA image into dense rows.
func subImage(rgba []byte, width int, r image.Rectangle) []byte {
	out := make([]byte, r.Dx()*r.Dy()*4)
	row := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := rgba[(y*width+r.Min.X)*4:]
		copy(out[(y-r.Min.Y)*row:(y-r.Min.Y+1)*row], src[:row])
	}
	return out
}

// Texture returns the current texture without flushing.
func (c *Canvas) Texture() gpucontext.Texture {
	return c.texture
}

// Close releases the surface and the textures. Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	destroy(c.oldTexture)
	destroy(c.texture)
	c.oldTexture, c.texture = nil, nil
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	c.dev = nil
	return nil
}

func destroy(t gpucontext.Texture) {
	if d, ok := t.(textureDestroyer); ok {
		d.Destroy()
	}
}
