// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"image"
)

// GetBltStatus reports whether blits can be queued or are done. Blits
// complete synchronously, so both queries succeed.
func (s *Surface) GetBltStatus(flags StatusFlags) error {
	switch flags {
	case StatusCanBlt, StatusIsBltDone:
		return nil
	}
	return fmt.Errorf("blt status %#x: %w", uint32(flags), ErrInvalidCall)
}

// GetFlipStatus is GetBltStatus for flips.
func (s *Surface) GetFlipStatus(flags StatusFlags) error {
	switch flags {
	case StatusCanFlip, StatusIsFlipDone:
		return nil
	}
	return fmt.Errorf("flip status %#x: %w", uint32(flags), ErrInvalidCall)
}

// MarkLost flags the surface as lost with its device.
func (s *Surface) MarkLost() { s.state.Lost = true }

// IsLost returns ErrDeviceLost for a lost surface.
func (s *Surface) IsLost() error {
	if s.state.Lost {
		return ErrDeviceLost
	}
	return nil
}

// Restore clears the lost flag. Nothing else is lost with the device.
func (s *Surface) Restore() error {
	s.state.Lost = false
	return nil
}

// Flip presents the swapchain of a render target. override is accepted for
// compatibility and ignored.
func (s *Surface) Flip(override *Surface) error {
	if !s.isRenderTarget() {
		return fmt.Errorf("flip %v: %w", s, ErrNotFlippable)
	}
	if s.swapchain != nil {
		return s.swapchain.Present()
	}
	return s.device.Present(nil, SwapFlip)
}

func (s *Surface) checkOverlay() error {
	if s.usage&UsageOverlay == 0 {
		return fmt.Errorf("%v: %w", s, ErrNotOverlay)
	}
	return nil
}

// UpdateOverlay repositions the overlay. Overlays are not composited; the
// call only validates the surface.
func (s *Surface) UpdateOverlay(sr *image.Rectangle, dst *Surface, dr *image.Rectangle, flags uint32) error {
	return s.checkOverlay()
}

// SetOverlayPosition records the overlay position.
func (s *Surface) SetOverlayPosition(x, y int) error {
	if err := s.checkOverlay(); err != nil {
		return err
	}
	s.overlayPos = image.Pt(x, y)
	return nil
}

// GetOverlayPosition returns the position set by SetOverlayPosition.
func (s *Surface) GetOverlayPosition() (image.Point, error) {
	if err := s.checkOverlay(); err != nil {
		return image.Point{}, err
	}
	return s.overlayPos, nil
}

// UpdateOverlayZOrder validates an overlay z-order change.
func (s *Surface) UpdateOverlayZOrder(flags uint32, ref *Surface) error {
	return s.checkOverlay()
}

// Clipper restricts presentation to a window rectangle.
type Clipper struct {
	window    image.Rectangle
	hasWindow bool
}

// NewClipper returns a clipper without a window.
func NewClipper() *Clipper { return &Clipper{} }

// SetWindow sets the window client rectangle in surface coordinates.
func (c *Clipper) SetWindow(r image.Rectangle) {
	c.window = r
	c.hasWindow = true
}

// Window returns the window rectangle.
func (c *Clipper) Window() image.Rectangle { return c.window }

// HasWindow reports whether a window was set.
func (c *Clipper) HasWindow() bool { return c.hasWindow }

// SetClipper attaches c; nil detaches.
func (s *Surface) SetClipper(c *Clipper) { s.clipper = c }

// Clipper returns the attached clipper, or nil.
func (s *Surface) Clipper() *Clipper { return s.clipper }
