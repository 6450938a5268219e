// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/surfcache/format"
)

// LockedRect is the host memory handed out by Lock.
type LockedRect struct {
	// Pitch is the byte distance between rows.
	Pitch int

	// Bits starts at the top-left pixel of the locked region and runs to
	// the end of host memory.
	Bits []byte
}

// Lock maps r (nil for the whole surface) into host memory and returns a
// pointer to it. The host tier is brought up to date unless flags contain
// LockDiscard. Writable locks mark r dirty.
func (s *Surface) Lock(r *image.Rectangle, flags LockFlags) (LockedRect, error) {
	if s.state.Locked {
		return LockedRect{}, fmt.Errorf("lock %v: already locked: %w", s, ErrInvalidCall)
	}
	if s.format == format.Unknown {
		return LockedRect{}, fmt.Errorf("lock %v: format not set: %w", s, ErrInvalidCall)
	}
	if s.usage&UsageDepthStencil != 0 && !s.state.Lockable {
		Logger().Debug("surfcache: locking a non-lockable surface", slog.String("surface", s.String()))
	}

	if r != nil && (r.Empty() || !r.In(s.fullRect())) {
		return LockedRect{}, fmt.Errorf("lock %v: rect %v outside %v: %w", s, *r, s.fullRect(), ErrInvalidCall)
	}

	lr := LockedRect{Pitch: s.GetPitch()}
	s.state.Locked = true

	if s.mem == nil {
		s.allocHost()
		s.state.InHost = false
	}

	if r == nil {
		s.lockedRect = s.fullRect()
	} else {
		s.lockedRect = *r
	}
	off := format.LockOffset(s.format, lr.Pitch, s.lockedRect.Min.X, s.lockedRect.Min.Y)
	lr.Bits = s.mem[off:]

	if !s.state.DynLock {
		s.lockCount++
		if s.lockCount > maxLockCount {
			Logger().Debug("surfcache: surface is locked regularly, keeping host copy",
				slog.String("surface", s.String()))
			s.state.DynLock = true
		}
	}

	if flags&LockDiscard == 0 && !s.state.InHost {
		if err := s.lockRead(lr.Pitch); err != nil {
			s.state.Locked = false
			s.lockedRect = image.Rectangle{}
			return LockedRect{}, err
		}
	}

	if flags&(LockNoDirtyUpdate|LockReadOnly) == 0 {
		dirty := s.lockedRect
		s.AddDirtyRect(&dirty)
	}
	return lr, nil
}

// lockRead fills host memory for a lock from whichever tier is current.
func (s *Surface) lockRead(pitch int) error {
	switch {
	case s.onDrawable():
		if s.device.Options().RenderTargetLock == RTLDisabled {
			Logger().Warn("surfcache: render target lock with render target locking disabled",
				slog.String("surface", s.String()))
			return nil
		}
		if err := s.device.Activate(s, UsageBlit); err != nil {
			return fmt.Errorf("lock %v: %w", s, err)
		}
		if err := s.readFramebuffer(s.lockedRect, pitch); err != nil {
			return err
		}
		if s.lockedRect == s.fullRect() {
			s.state.InHost = true
		}

	case s.isDepthStencilTarget():
		Logger().Warn("surfcache: depth/stencil readback not supported", slog.String("surface", s.String()))

	default:
		if s.texture != nil && (s.state.InTexture || s.state.InDrawable) {
			if err := s.PreLoad(); err != nil {
				return fmt.Errorf("lock %v: %w", s, err)
			}
			if err := s.downloadTexture(); err != nil {
				return err
			}
		} else if !s.state.InTexture && !s.state.InDrawable {
			clear(s.mem)
		}
		s.state.InHost = true
	}
	return nil
}

// Unlock releases the lock taken by Lock and propagates the written region
// to the drawable of render targets.
func (s *Surface) Unlock() error {
	if !s.state.Locked {
		return fmt.Errorf("unlock %v: not locked: %w", s, ErrInvalidCall)
	}
	defer func() {
		s.state.Locked = false
		s.lockedRect = image.Rectangle{}
	}()

	if s.state.InDrawable || s.state.InTexture {
		return nil
	}

	switch {
	case s.onDrawable():
		mode := s.device.Options().RenderTargetLock
		if mode == RTLDisabled {
			Logger().Warn("surfcache: render target write with render target locking disabled",
				slog.String("surface", s.String()))
			return nil
		}
		if err := s.device.Activate(s, UsageBlit); err != nil {
			return fmt.Errorf("unlock %v: %w", s, err)
		}
		var err error
		if mode.flushesWithTexture() {
			err = s.flushTexture(s.lockedRect)
		} else {
			err = s.flushDrawPixels(s.lockedRect)
		}
		if err != nil {
			return err
		}
		s.dirtyRect = s.emptyDirtyRect()
		s.state.InDrawable = true

	case s.isDepthStencilTarget():
		Logger().Warn("surfcache: depth/stencil write-back not supported", slog.String("surface", s.String()))

	default:
		if s.container != nil {
			s.container.SamplerDirty()
		}
	}
	return nil
}

// LockedRect returns the rectangle of the lock in flight, or an empty one.
func (s *Surface) LockedRect() image.Rectangle { return s.lockedRect }
