// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"fmt"
	"sync/atomic"
)

// MipChain is a texture container holding one surface per mip level.
type MipChain struct {
	device Device
	levels []*Surface

	dirty        atomic.Bool
	samplerDirty atomic.Uint64
	refs         atomic.Int32
}

// NewMipChain creates levels surfaces, each half the size of the previous
// one down to 1x1.
func NewMipChain(dev Device, desc SurfaceDesc, levels int) (*MipChain, error) {
	if levels <= 0 {
		return nil, fmt.Errorf("new mip chain: %d levels: %w", levels, ErrInvalidCall)
	}
	mc := &MipChain{device: dev}
	mc.refs.Store(1)
	w, h := desc.Width, desc.Height
	for i := range levels {
		d := desc
		d.Width, d.Height = w, h
		if desc.Label != "" {
			d.Label = fmt.Sprintf("%s/level%d", desc.Label, i)
		}
		s, err := NewSurface(dev, d)
		if err != nil {
			mc.Release()
			return nil, err
		}
		s.SetContainer(mc)
		mc.levels = append(mc.levels, s)
		w, h = max(1, w/2), max(1, h/2)
	}
	mc.dirty.Store(true)
	return mc, nil
}

// Level returns level i, or nil.
func (mc *MipChain) Level(i int) *Surface {
	if i < 0 || i >= len(mc.levels) {
		return nil
	}
	return mc.levels[i]
}

// Levels returns the number of levels.
func (mc *MipChain) Levels() int { return len(mc.levels) }

// SetDirty marks the chain stale.
func (mc *MipChain) SetDirty(dirty bool) { mc.dirty.Store(dirty) }

// Dirty reports whether a level changed since the last PreLoad.
func (mc *MipChain) Dirty() bool { return mc.dirty.Load() }

// SamplerDirty counts sampler invalidations.
func (mc *MipChain) SamplerDirty() { mc.samplerDirty.Add(1) }

// SamplerGeneration returns the number of sampler invalidations so far.
func (mc *MipChain) SamplerGeneration() uint64 { return mc.samplerDirty.Load() }

// PreLoad loads every level's texture.
func (mc *MipChain) PreLoad() error {
	if len(mc.levels) == 0 {
		return nil
	}
	if err := mc.device.Activate(mc.levels[0], UsageResourceLoad); err != nil {
		return fmt.Errorf("preload mip chain: %w", err)
	}
	for i, s := range mc.levels {
		if err := s.LoadTexture(); err != nil {
			return fmt.Errorf("level %d: %w", i, err)
		}
	}
	mc.dirty.Store(false)
	return nil
}

// AddRef increments the reference count.
func (mc *MipChain) AddRef() int32 { return mc.refs.Add(1) }

// Release decrements the reference count and releases the levels when it
// reaches zero.
func (mc *MipChain) Release() int32 {
	n := mc.refs.Add(-1)
	if n == 0 {
		for _, s := range mc.levels {
			s.SetContainer(nil)
			s.Release()
		}
		mc.levels = nil
	}
	return n
}
