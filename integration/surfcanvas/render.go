// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcanvas

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
)

// ErrInvalidRenderer is returned when the drawer has no texture creator.
var ErrInvalidRenderer = errors.New("surfcanvas: drawer has no TextureCreator")

// RenderOptions controls where the canvas is drawn.
type RenderOptions struct {
	X, Y float32
}

// RenderTo flushes the canvas and draws it at the origin of dc.
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToEx(dc, RenderOptions{})
}

// RenderToPosition flushes the canvas and draws it at (x, y).
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	return c.RenderToEx(dc, RenderOptions{X: x, Y: y})
}

// RenderToEx flushes the canvas and draws it with opts. The texture is
// created from dc's TextureCreator on first use and after a resize.
func (c *Canvas) RenderToEx(dc gpucontext.TextureDrawer, opts RenderOptions) error {
	if c.closed {
		return ErrCanvasClosed
	}
	tex, err := c.Flush()
	if err != nil {
		return err
	}

	if tex == nil {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		rgba, err := c.pixels()
		if err != nil {
			return err
		}
		tex, err = creator.NewTextureFromRGBA(c.width, c.height, rgba)
		if err != nil {
			return fmt.Errorf("surfcanvas: NewTextureFromRGBA failed: %w", err)
		}
		// Surface pixels are straight alpha.
		if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(false)
		}
		c.texture = tex
		c.damage = image.Rectangle{}

		destroy(c.oldTexture)
		c.oldTexture = nil
	}
	return dc.DrawTexture(tex, opts.X, opts.Y)
}
