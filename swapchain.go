// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"

	"github.com/gogpu/surfcache/format"
)

// SwapchainDesc describes a swapchain to create.
type SwapchainDesc struct {
	Label         string
	Width, Height int
	Format        format.Format
	BackBuffers   int
	Effect        SwapEffect
}

// Swapchain is a front buffer with zero or more back buffers, all render
// targets presented by the device.
type Swapchain struct {
	device Device
	front  *Surface
	back   []*Surface
	effect SwapEffect
}

// NewSwapchain creates the front and back buffer surfaces of a swapchain.
func NewSwapchain(dev Device, desc SwapchainDesc) (*Swapchain, error) {
	if desc.BackBuffers < 0 {
		return nil, fmt.Errorf("new swapchain: %d back buffers: %w", desc.BackBuffers, ErrInvalidCall)
	}
	sc := &Swapchain{device: dev, effect: desc.Effect}
	newBuffer := func(name string) (*Surface, error) {
		s, err := NewSurface(dev, SurfaceDesc{
			Label:  desc.Label + "/" + name,
			Width:  desc.Width,
			Height: desc.Height,
			Format: desc.Format,
			Usage:  UsageRenderTarget,
		})
		if err != nil {
			return nil, err
		}
		s.swapchain = sc
		return s, nil
	}

	var err error
	if sc.front, err = newBuffer("front"); err != nil {
		return nil, err
	}
	for i := range desc.BackBuffers {
		b, err := newBuffer(fmt.Sprintf("back%d", i))
		if err != nil {
			return nil, err
		}
		sc.back = append(sc.back, b)
	}
	return sc, nil
}

// Front returns the front buffer.
func (sc *Swapchain) Front() *Surface { return sc.front }

// Back returns back buffer i, or nil.
func (sc *Swapchain) Back(i int) *Surface {
	if i < 0 || i >= len(sc.back) {
		return nil
	}
	return sc.back[i]
}

// BackBuffers returns the number of back buffers.
func (sc *Swapchain) BackBuffers() int { return len(sc.back) }

// Effect returns the swap effect.
func (sc *Swapchain) Effect() SwapEffect { return sc.effect }

// Present shows back buffer 0. After a flip or discard the back buffer
// only lives in its drawable.
func (sc *Swapchain) Present() error {
	if len(sc.back) > 0 {
		if err := sc.back[0].EnsureDrawableCurrent(); err != nil {
			return err
		}
	}
	if sc.effect == SwapFlip {
		if err := sc.front.EnsureDrawableCurrent(); err != nil {
			return err
		}
	}
	if err := sc.device.Present(sc, sc.effect); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	sc.front.markDrawableOnly()
	if len(sc.back) > 0 && sc.effect != SwapCopy {
		sc.back[0].markDrawableOnly()
	}
	return nil
}

// Release releases every buffer.
func (sc *Swapchain) Release() {
	sc.front.Release()
	for _, b := range sc.back {
		b.Release()
	}
}

func (s *Surface) markDrawableOnly() {
	s.state.InDrawable = true
	s.state.InTexture = false
	s.state.InHost = false
}
