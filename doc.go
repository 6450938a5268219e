// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surfcache manages GPU surfaces whose pixels live in up to three
// places at once: host memory, a drawable owned by the device, and a GPU
// texture.
//
// # Overview
//
// A Surface records which of its tiers hold the current image in its
// State. Writes through Lock and the software blitter dirty the host tier;
// PreLoad and blits move the image into the texture or drawable tier when
// it is needed there. Everything outside host memory goes through a Device,
// which is implemented by the backend packages:
//
//	import (
//		"github.com/gogpu/surfcache"
//		"github.com/gogpu/surfcache/backend"
//		_ "github.com/gogpu/surfcache/backend/soft"
//	)
//
//	_, dev, err := backend.Default(backend.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	s, err := surfcache.NewSurface(dev, surfcache.SurfaceDesc{
//		Width: 64, Height: 64, Format: format.A8R8G8B8,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Release()
//
//	lr, _ := s.Lock(nil, 0)
//	// write lr.Bits at lr.Pitch
//	s.Unlock()
//	s.PreLoad() // converts and uploads the texture tier
//
// # Tiers
//
// Lock downloads into host memory when the host tier is stale. Unlock of a
// render target flushes the written rectangle back into its drawable, using
// draw-pixels or a textured quad as Options.RenderTargetLock selects.
// Plain surfaces upload lazily on PreLoad. Formats the device cannot sample
// directly are converted on upload (package convert); converted surfaces
// keep their host copy because the texture cannot be read back.
//
// # Blits
//
// Blt and BltFast try an ordered list of accelerated strategies when a
// render target is involved: swapchain present, drawable to texture,
// texture to drawable and color fill. Anything they do not handle runs in
// software on host memory.
//
// # Logging
//
// The package logs through log/slog. Nothing is logged until SetLogger is
// called.
//
// # Thread Safety
//
// A Surface is owned by one goroutine at a time. Reference counts on
// surfaces, palettes and mip chains are atomic.
package surfcache
