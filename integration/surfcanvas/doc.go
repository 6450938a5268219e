// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surfcanvas mirrors a surfcache surface into a texture of a
// gogpu window.
//
// The data flow is:
//
//	Lock/Blt (host memory) -> Canvas damage -> gpucontext texture -> window
//
// # Usage
//
//	canvas := surfcanvas.MustNew(dev, 800, 600)
//	defer canvas.Close()
//
//	r := image.Rect(10, 10, 110, 60)
//	canvas.Fill(&r, 0xFFFF0000)
//	canvas.RenderTo(dc.AsTextureDrawer())
//
// The first RenderTo creates the texture with the drawer's TextureCreator.
// Later flushes upload only the damaged rectangle when the texture
// implements gpucontext.TextureRegionUpdater, and the whole image
// otherwise.
//
// The package depends on gpucontext interfaces only, so it does not import
// gogpu.
package surfcanvas
