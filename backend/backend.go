// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"errors"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/format"
)

// Backend name constants.
const (
	// BackendSoft is the name of the in-memory device.
	BackendSoft = "soft"
	// BackendGPU is the name of the device whose textures live on a
	// gogpu/wgpu HAL device.
	BackendGPU = "gpu"
)

// Common backend errors.
var (
	// ErrNotAvailable is returned when no registered backend can create
	// a device.
	ErrNotAvailable = errors.New("backend: not available")

	// ErrNotFound is returned by Open for a name nothing registered.
	ErrNotFound = errors.New("backend: not registered")
)

// Config is handed to a Factory. Zero fields take the backend's defaults.
type Config struct {
	Caps    surfcache.Caps
	Options surfcache.Options

	// Width, Height and Format size the implicit swapchain. A zero Width
	// creates a device without one.
	Width, Height int
	Format        format.Format
	BackBuffers   int

	// Adapter selects a HAL adapter by index for backends that open one.
	Adapter int
}

// DefaultConfig returns the configuration devices are opened with when the
// caller passes none.
func DefaultConfig() Config {
	return Config{
		Caps:    surfcache.Caps{MaxTextureSize: 8192, NonPow2: true},
		Options: surfcache.DefaultOptions(),
	}
}

// Closer is implemented by devices holding resources beyond their
// surfaces.
type Closer interface {
	Close()
}
