// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import "strings"

// State is the per-surface state record.
//
// Location fields say which tiers hold a current copy of the image. More
// than one may be set after a transfer; AddDirtyRect clears the GPU-side
// ones when the host copy is written.
type State struct {
	// InHost is set when host memory holds the current image. Set after a
	// download or readback, by SetMem, and after a full-surface lock of a
	// render target. Cleared when LoadTexture frees host memory.
	InHost bool

	// InTexture is set by LoadTexture and by blits into the texture.
	// Cleared by AddDirtyRect and RealizePalette.
	InTexture bool

	// InDrawable is set when a render target flush or a blit to a drawable
	// completes. Cleared by AddDirtyRect and RealizePalette.
	InDrawable bool

	// Locked is set between Lock and Unlock.
	Locked bool

	// Converted is set when the texture holds converted data, which
	// cannot be read back.
	Converted bool

	// ColorKeyed is set when the texture was uploaded with source color
	// key alpha. Compared against the current key on every load.
	ColorKeyed bool

	// DynLock is set once the surface has been locked more than
	// maxLockCount times. The host copy is then kept after uploads.
	DynLock bool

	// Allocated is set once texture storage exists.
	Allocated bool

	// NonPow2 is set when the storage size differs from the logical size.
	NonPow2 bool

	// Oversize is set when the storage size exceeds the device texture
	// limit. Such surfaces can only take part in blits.
	Oversize bool

	// DoNotFree keeps host memory after uploads.
	DoNotFree bool

	// UserMemory is set while host memory belongs to the application.
	UserMemory bool

	// DIBSection is set while host memory is a device-independent bitmap.
	DIBSection bool

	// DCInUse is set between GetDC and ReleaseDC.
	DCInUse bool

	// Lost is set when the device was lost; cleared by Restore.
	Lost bool

	// Lockable marks lockable depth formats.
	Lockable bool
}

// String lists the set fields.
func (s State) String() string {
	var parts []string
	add := func(set bool, name string) {
		if set {
			parts = append(parts, name)
		}
	}
	add(s.InHost, "host")
	add(s.InTexture, "texture")
	add(s.InDrawable, "drawable")
	add(s.Locked, "locked")
	add(s.Converted, "converted")
	add(s.ColorKeyed, "colorkeyed")
	add(s.DynLock, "dynlock")
	add(s.Allocated, "allocated")
	add(s.NonPow2, "nonpow2")
	add(s.Oversize, "oversize")
	add(s.DoNotFree, "donotfree")
	add(s.UserMemory, "usermem")
	add(s.DIBSection, "dib")
	add(s.DCInUse, "dcinuse")
	add(s.Lost, "lost")
	add(s.Lockable, "lockable")
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
