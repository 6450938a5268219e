// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/surfcache"
)

// Factory opens a device.
type Factory func(cfg Config) (surfcache.Device, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for Default (first that opens wins).
	priority = []string{BackendGPU, BackendSoft}
)

// Register registers a device factory under name, replacing any earlier
// one. Backend packages call it from init.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a factory. Used by tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens a device with the named backend.
func Open(name string, cfg Config) (surfcache.Device, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("open %q: %w", name, ErrNotFound)
	}
	dev, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	surfcache.AttachLogger(dev)
	return dev, nil
}

// Default opens the first backend in priority order that succeeds, then
// any other registered backend. It returns the backend name with the
// device.
func Default(cfg Config) (string, surfcache.Device, error) {
	registryMu.RLock()
	order := slices.Clone(priority)
	for name := range factories {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	registryMu.RUnlock()

	for _, name := range order {
		if !IsRegistered(name) {
			continue
		}
		dev, err := Open(name, cfg)
		if err != nil {
			surfcache.Logger().Debug("backend: skipping", slog.String("backend", name), slog.Any("error", err))
			continue
		}
		return name, dev, nil
	}
	return "", nil, ErrNotAvailable
}

// MustDefault is Default that panics when nothing opens.
func MustDefault(cfg Config) surfcache.Device {
	_, dev, err := Default(cfg)
	if err != nil {
		panic("backend: no device available")
	}
	return dev
}
