// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend selects the device a surface cache runs on.
//
// Devices are opened through factories that backend packages register
// from init:
//
//	import _ "github.com/gogpu/surfcache/backend/soft"
//
// # Backend Selection
//
// Open asks for a backend by name; Default tries them in priority order
// and falls back to whatever else is registered:
//
//	name, dev, err := backend.Default(backend.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	s, err := surfcache.NewSurface(dev, surfcache.SurfaceDesc{...})
//
// # Available Backends
//
//   - "gpu": textures on a gogpu/wgpu HAL device, drawables in memory
//   - "soft": everything in memory (always available)
package backend
