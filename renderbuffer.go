// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"log/slog"
)

type renderbufferEntry struct {
	width, height int
	handle        Renderbuffer
}

// CompatibleRenderbuffer selects an auxiliary buffer of width x height for
// s, creating it on first use. Requests larger than the storage size are
// ignored and a request for exactly the storage size clears the selection.
func (s *Surface) CompatibleRenderbuffer(width, height int) error {
	if width > s.pow2W || height > s.pow2H {
		return nil
	}
	if width == s.pow2W && height == s.pow2H {
		s.currentRenderbuffer = nil
		return nil
	}

	for _, e := range s.renderbuffers {
		if e.width == width && e.height == height {
			s.currentRenderbuffer = e
			return nil
		}
	}

	rb, err := s.device.CreateRenderbuffer(width, height, s.format)
	if err != nil {
		return fmt.Errorf("renderbuffer %dx%d for %v: %w", width, height, s, err)
	}
	e := &renderbufferEntry{width: width, height: height, handle: rb}
	// Newest first.
	s.renderbuffers = append([]*renderbufferEntry{e}, s.renderbuffers...)
	s.currentRenderbuffer = e
	Logger().Debug("surfcache: renderbuffer created",
		slog.String("surface", s.String()), slog.Int("width", width), slog.Int("height", height))
	return nil
}

// CurrentRenderbuffer returns the selected auxiliary buffer, or nil when
// the surface's own size is in use.
func (s *Surface) CurrentRenderbuffer() Renderbuffer {
	if s.currentRenderbuffer == nil {
		return nil
	}
	return s.currentRenderbuffer.handle
}

// Renderbuffers returns the number of cached auxiliary buffers.
func (s *Surface) Renderbuffers() int { return len(s.renderbuffers) }
