// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

// Package gpu provides a surfcache device whose textures live on a
// gogpu/wgpu HAL device. Drawables stay in memory as in package soft;
// textured quads are rendered into them with a naga-compiled pipeline.
package gpu

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the Vulkan HAL backend for standalone devices.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/backend"
	"github.com/gogpu/surfcache/backend/soft"
)

func init() {
	backend.Register(backend.BackendGPU, func(cfg backend.Config) (surfcache.Device, error) {
		return Open(cfg)
	})
}

// Device is a soft device with HAL textures and GPU quad draws.
type Device struct {
	*soft.Device

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool // device and queue belong to the caller

	alloc    *Allocator
	pipeline *QuadPipeline
	adapter  string
}

// Open creates a standalone Vulkan device on adapter cfg.Adapter, or on
// the first discrete or integrated GPU when the index is out of range.
func Open(cfg backend.Config) (*Device, error) {
	hb, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("gpu: vulkan: %w", backend.ErrNotAvailable)
	}
	instance, err := hb.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: no adapters: %w", backend.ErrNotAvailable)
	}

	var selected *hal.ExposedAdapter
	if cfg.Adapter > 0 && cfg.Adapter < len(adapters) {
		selected = &adapters[cfg.Adapter]
	}
	for i := range adapters {
		if selected != nil {
			break
		}
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}
	d, err := newDevice(cfg, openDev.Device, openDev.Queue, false)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.adapter = selected.Info.Name
	surfcache.Logger().Info("gpu: device opened", slog.String("adapter", d.adapter))
	return d, nil
}

// NewShared wraps a device and queue owned by the caller, such as the
// ones a host window exposes. Close leaves them alive.
func NewShared(cfg backend.Config, device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: shared device without queue: %w", surfcache.ErrInvalidCall)
	}
	return newDevice(cfg, device, queue, true)
}

func newDevice(cfg backend.Config, device hal.Device, queue hal.Queue, external bool) (*Device, error) {
	alloc := NewAllocator(device, queue)
	pipeline, err := NewQuadPipeline(device, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		return nil, err
	}
	sd, err := soft.New(cfg, soft.WithTextures(fallback{primary: alloc, secondary: soft.NewAllocator()}))
	if err != nil {
		pipeline.Destroy()
		return nil, err
	}
	return &Device{
		Device:   sd,
		device:   device,
		queue:    queue,
		external: external,
		alloc:    alloc,
		pipeline: pipeline,
	}, nil
}

// Adapter returns the adapter name of a standalone device.
func (d *Device) Adapter() string { return d.adapter }

// Pipeline returns the quad pipeline.
func (d *Device) Pipeline() *QuadPipeline { return d.pipeline }

// Close releases the drawables, the pipeline and, for standalone
// devices, the HAL device and instance.
func (d *Device) Close() {
	surfcache.DetachLogger(d)
	d.Device.Close()
	if d.pipeline != nil {
		d.pipeline.Destroy()
		d.pipeline = nil
	}
	if d.external {
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

var _ surfcache.Device = (*Device)(nil)
