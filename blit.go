// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/surfcache/format"
)

// bltResult is the outcome of an accelerated blit strategy.
type bltResult uint8

const (
	bltNotHandled bltResult = iota
	bltHandled
)

// bltOp is one blit request with the derived facts strategies test.
type bltOp struct {
	dst, src *Surface
	dr, sr   image.Rectangle
	srcGiven bool
	flags    BltFlags
	fx       *BltFx
	filter   Filter

	dstSC, srcSC *Swapchain
	// dstRT and srcRT are set for surfaces whose image lives in a drawable.
	dstRT, srcRT bool
}

// bltStrategy is one rung of the accelerated blit ladder. The first
// strategy whose applies returns true decides the outcome.
type bltStrategy struct {
	name    string
	applies func(op *bltOp) bool
	run     func(op *bltOp) (bltResult, error)
}

func notHandled(*bltOp) (bltResult, error) { return bltNotHandled, nil }

var bltLadder = []bltStrategy{
	{
		name:    "no-render-target",
		applies: func(op *bltOp) bool { return !op.dstRT && !op.srcRT },
		run:     notHandled,
	},
	{
		name:    "dest-color-key",
		applies: func(op *bltOp) bool { return op.flags&(BltKeyDest|BltKeyDestOverride) != 0 },
		run:     notHandled,
	},
	{
		name:    "swapchain-present",
		applies: func(op *bltOp) bool { return op.dstSC != nil && op.dstSC == op.srcSC },
		run:     bltPresent,
	},
	{
		name:    "between-drawables",
		applies: func(op *bltOp) bool { return op.dstRT && op.srcRT },
		run:     notHandled,
	},
	{
		name:    "drawable-to-texture",
		applies: func(op *bltOp) bool { return op.srcRT },
		run:     bltDrawableToTexture,
	},
	{
		name:    "texture-to-drawable",
		applies: func(op *bltOp) bool { return op.src != nil },
		run:     bltTextureToDrawable,
	},
	{
		name:    "color-fill",
		applies: func(op *bltOp) bool { return op.flags&BltColorFill != 0 },
		run:     bltColorFill,
	},
}

// Blt copies sr of src into dr of s, or fills dr when flags has
// BltColorFill. Nil rectangles mean the whole surface. Blits involving a
// render target try the accelerated ladder first; everything else runs in
// software on host memory.
func (s *Surface) Blt(dr *image.Rectangle, src *Surface, sr *image.Rectangle, flags BltFlags, fx *BltFx, filter Filter) error {
	if err := s.checkBltArgs(src, flags, fx); err != nil {
		return err
	}
	if s.isRenderTarget() || (src != nil && src.isRenderTarget()) {
		op := s.newBltOp(dr, src, sr, flags, fx, filter)
		res, err := s.bltOverride(op)
		if err != nil {
			return err
		}
		if res == bltHandled {
			return nil
		}
	}
	return s.softBlt(s.rectOrFull(dr), src, sr, flags, fx)
}

// BltFast copies sr of src to (x, y) of s without scaling.
func (s *Surface) BltFast(x, y int, src *Surface, sr *image.Rectangle, trans BltFastFlags) error {
	if src == nil {
		return fmt.Errorf("bltfast to %v: no source: %w", s, ErrInvalidCall)
	}
	var flags BltFlags
	if trans&BltFastSrcColorKey != 0 {
		flags |= BltKeySrc
	}
	if trans&BltFastDestColorKey != 0 {
		flags |= BltKeyDest
	}
	if trans&BltFastWait != 0 {
		flags |= BltWait
	}
	if trans&BltFastDoNotWait != 0 {
		flags |= BltDoNotWait
	}
	if err := s.checkBltArgs(src, flags, nil); err != nil {
		return err
	}

	srect := src.rectOrFull(sr)
	drect := image.Rect(x, y, x+srect.Dx(), y+srect.Dy())
	if s.isRenderTarget() || src.isRenderTarget() {
		op := s.newBltOp(&drect, src, &srect, flags, nil, FilterNone)
		res, err := s.bltOverride(op)
		if err != nil {
			return err
		}
		if res == bltHandled {
			return nil
		}
	}
	return s.softBlt(drect, src, &srect, flags, nil)
}

func (s *Surface) checkBltArgs(src *Surface, flags BltFlags, fx *BltFx) error {
	dev := s.device
	if dev.InScene() {
		if ds := dev.DepthStencil(); ds != nil && (ds == s || ds == src) {
			return fmt.Errorf("blt %v: depth/stencil in use by a scene: %w", s, ErrInvalidCall)
		}
	}
	if flags&(BltColorFill|BltKeySrcOverride|BltKeyDestOverride) != 0 && fx == nil {
		return fmt.Errorf("blt %v: flags %#x need BltFx: %w", s, uint32(flags), ErrInvalidCall)
	}
	if src == nil && flags&BltColorFill == 0 {
		return fmt.Errorf("blt %v: no source: %w", s, ErrInvalidCall)
	}
	return nil
}

func (s *Surface) rectOrFull(r *image.Rectangle) image.Rectangle {
	if r == nil {
		return s.fullRect()
	}
	return *r
}

func (s *Surface) newBltOp(dr *image.Rectangle, src *Surface, sr *image.Rectangle, flags BltFlags, fx *BltFx, filter Filter) *bltOp {
	op := &bltOp{
		dst:    s,
		src:    src,
		dr:     s.rectOrFull(dr),
		flags:  flags,
		fx:     fx,
		filter: filter,
		dstSC:  s.swapchain,
		dstRT:  s.onDrawable(),
	}
	if src != nil {
		op.srcSC = src.swapchain
		op.srcRT = src.onDrawable()
		op.sr = src.rectOrFull(sr)
		op.srcGiven = sr != nil
	}
	return op
}

// bltOverride runs the accelerated ladder.
func (s *Surface) bltOverride(op *bltOp) (bltResult, error) {
	for _, st := range bltLadder {
		if !st.applies(op) {
			continue
		}
		res, err := st.run(op)
		if err != nil {
			return bltNotHandled, fmt.Errorf("blt %s: %w", st.name, err)
		}
		if res == bltHandled {
			Logger().Debug("surfcache: blit handled",
				slog.String("strategy", st.name), slog.String("dst", s.String()))
		} else {
			Logger().Debug("surfcache: blit falls back to software",
				slog.String("strategy", st.name), slog.String("dst", s.String()))
		}
		return res, nil
	}
	Logger().Debug("surfcache: no accelerated blit path", slog.String("dst", s.String()))
	return bltNotHandled, nil
}

// bltPresent turns a full, unscaled back buffer to front buffer copy on
// one swapchain into a present with a copy swap effect.
func bltPresent(op *bltOp) (bltResult, error) {
	sc, dst, src := op.dstSC, op.dst, op.src
	if len(sc.back) == 0 || dst != sc.front || src != sc.back[0] {
		Logger().Debug("surfcache: unsupported blit between buffers of one swapchain")
		return bltNotHandled, nil
	}
	if op.srcGiven && op.sr != src.fullRect() {
		return bltNotHandled, nil
	}
	if op.dr.Dx() != src.width || op.dr.Dy() != src.height {
		return bltNotHandled, nil
	}
	if c := dst.clipper; c != nil && c.HasWindow() {
		if op.dr != c.Window() {
			return bltNotHandled, nil
		}
	} else if op.dr != dst.fullRect() {
		return bltNotHandled, nil
	}
	if op.flags&^(BltWait|BltDoNotWait) != 0 {
		return bltNotHandled, nil
	}

	if err := src.EnsureDrawableCurrent(); err != nil {
		return bltNotHandled, err
	}
	if err := dst.device.Present(sc, SwapCopy); err != nil {
		return bltNotHandled, err
	}
	dst.state.InDrawable = true
	dst.state.InTexture = false
	dst.state.InHost = false
	return bltHandled, nil
}

// bltDrawableToTexture copies a render target's drawable into the texture
// of a plain surface.
func bltDrawableToTexture(op *bltOp) (bltResult, error) {
	dst, src := op.dst, op.src
	if op.flags&(BltKeySrc|BltKeySrcOverride) != 0 {
		return bltNotHandled, nil
	}
	if dst.state.Oversize {
		return bltNotHandled, nil
	}
	if err := dst.PreLoad(); err != nil {
		return bltNotHandled, err
	}
	if err := src.EnsureDrawableCurrent(); err != nil {
		return bltNotHandled, err
	}

	srect, dr := op.sr, op.dr
	upsideDown := false
	if srect.Min.Y > srect.Max.Y {
		srect.Min.Y, srect.Max.Y = srect.Max.Y, srect.Min.Y
		upsideDown = true
	}
	if dr.Min.X > dr.Max.X {
		dr.Min.X, dr.Max.X = dr.Max.X, dr.Min.X
		upsideDown = !upsideDown
	}
	if op.srcSC == nil {
		// Offscreen targets are stored upside down.
		upsideDown = !upsideDown
	}
	stretchX := dr.Dx() != srect.Dx()

	dev := dst.device
	if err := dev.Activate(src, UsageBlit); err != nil {
		return bltNotHandled, err
	}
	var err error
	switch {
	case dev.Options().OffscreenRendering == OffscreenFBO && dev.Caps().FramebufferBlit:
		err = dev.BlitFramebuffer(src, srect, dst, dr, upsideDown, op.filter)
	case !stretchX || dr.Dx() > src.width || dr.Dy() > src.height:
		err = dev.CopyToTexture(src, srect, dst.texture, dr, upsideDown)
	default:
		err = dev.StretchToTexture(src, srect, dst.texture, dr, upsideDown, op.filter)
	}
	if err != nil {
		return bltNotHandled, err
	}

	dst.freeHost()
	dst.state.InHost = false
	dst.state.InTexture = true
	dst.state.InDrawable = false
	return bltHandled, nil
}

// bltTextureToDrawable draws the texture of src as a quad into the
// drawable of the destination.
func bltTextureToDrawable(op *bltOp) (bltResult, error) {
	dst, src := op.dst, op.src
	coords, ok := src.texRect(op.sr)
	if !ok {
		Logger().Warn("surfcache: source area too big for a texture",
			slog.String("surface", src.String()), slog.Any("rect", op.sr))
		return bltNotHandled, nil
	}

	savedFlags, savedKey := src.keyFlags, src.keys[roleSrcBlt]
	defer func() {
		src.keyFlags, src.keys[roleSrcBlt] = savedFlags, savedKey
	}()
	keyed := op.flags&(BltKeySrc|BltKeySrcOverride) != 0
	switch {
	case op.flags&BltKeySrc != 0:
	case op.flags&BltKeySrcOverride != 0:
		src.keyFlags |= KeySrcBlt
		src.keys[roleSrcBlt] = op.fx.SrcColorKey
	default:
		src.keyFlags &^= KeySrcBlt
	}
	if err := src.PreLoad(); err != nil {
		return bltNotHandled, err
	}

	if !dst.state.InDrawable && op.dr != dst.fullRect() {
		if err := dst.EnsureDrawableCurrent(); err != nil {
			return bltNotHandled, err
		}
	}
	dev := dst.device
	if err := dev.Activate(dst, UsageBlit); err != nil {
		return bltNotHandled, err
	}
	q := Quad{Texture: src.texture, TexCoords: coords, Dst: op.dr, Filter: op.filter, AlphaTest: keyed}
	if err := dev.DrawTexture(dst, q); err != nil {
		return bltNotHandled, err
	}

	dst.state.InHost = false
	if op.dstSC != nil || dev.Options().OffscreenRendering != OffscreenFBO {
		dst.state.InDrawable = true
		dst.state.InTexture = false
	} else {
		dst.state.InTexture = true
	}
	return bltHandled, nil
}

// texRect returns the normalized texture coordinates of r. Oversized
// surfaces move their texture window over r; ok is false when r does not
// fit in a texture.
func (s *Surface) texRect(r image.Rectangle) (coords [4]float32, ok bool) {
	if !s.state.Oversize {
		return [4]float32{
			float32(r.Min.X) / float32(s.pow2W),
			float32(r.Min.Y) / float32(s.pow2H),
			float32(r.Max.X) / float32(s.pow2W),
			float32(r.Max.Y) / float32(s.pow2H),
		}, true
	}

	limit := s.device.Caps().MaxTextureSize
	if r.Dx() > limit || r.Dy() > limit {
		return coords, false
	}
	if !r.In(s.glRect) {
		s.glRect = image.Rect(r.Min.X, r.Min.Y,
			min(r.Min.X+limit, s.width), min(r.Min.Y+limit, s.height))
		s.state.InTexture = false
	}
	w, h := float32(s.glRect.Dx()), float32(s.glRect.Dy())
	return [4]float32{
		float32(r.Min.X-s.glRect.Min.X) / w,
		float32(r.Min.Y-s.glRect.Min.Y) / h,
		float32(r.Max.X-s.glRect.Min.X) / w,
		float32(r.Max.Y-s.glRect.Min.Y) / h,
	}, true
}

// bltColorFill clears a rectangle of a drawable.
func bltColorFill(op *bltOp) (bltResult, error) {
	dst := op.dst
	argb, ok := dst.fillARGB(op.fx.FillColor)
	if !ok {
		Logger().Warn("surfcache: color fill format not handled",
			slog.String("format", dst.format.String()))
		return bltNotHandled, nil
	}
	if sc := op.dstSC; sc != nil {
		if (len(sc.back) == 0 || sc.back[0] != dst) && sc.front != dst {
			return bltNotHandled, nil
		}
	} else if !dst.isPrimaryRenderTarget() {
		return bltNotHandled, nil
	}

	if !dst.state.InDrawable && op.dr != dst.fullRect() {
		if err := dst.EnsureDrawableCurrent(); err != nil {
			return bltNotHandled, err
		}
	}
	if err := dst.device.Activate(dst, UsageBlit); err != nil {
		return bltNotHandled, err
	}
	if err := dst.device.Clear(dst, op.dr, argb); err != nil {
		return bltNotHandled, err
	}
	dst.state.InDrawable = true
	dst.state.InTexture = false
	dst.state.InHost = false
	return bltHandled, nil
}

// fillARGB maps a fill value in the surface format to A8R8G8B8.
func (s *Surface) fillARGB(fill uint32) (uint32, bool) {
	switch s.format {
	case format.P8:
		if s.palette == nil {
			return 0xFF000000, true
		}
		e := s.palette.entries[fill&0xFF]
		return 0xFF000000 | uint32(e.R)<<16 | uint32(e.G)<<8 | uint32(e.B), true
	case format.R5G6B5:
		if fill == 0xFFFF {
			return 0xFFFFFFFF, true
		}
		return 0xFF000000 | (fill&0xF800)<<8 | (fill&0x07E0)<<5 | (fill&0x001F)<<3, true
	case format.R8G8B8, format.X8R8G8B8:
		return 0xFF000000 | fill, true
	case format.A8R8G8B8:
		return fill, true
	}
	return 0, false
}
