// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surfcache

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for surfcache and the backends that
// share it. By default nothing is logged. Pass nil to restore the silent
// default.
//
// Log levels used:
//   - [slog.LevelDebug]: tier transitions, chosen blit and flush paths
//   - [slog.LevelWarn]: unsupported formats and readback gaps
//   - [slog.LevelError]: device failures during a tier transition
//
// Devices attached with AttachLogger receive l as well, until they are
// detached with DetachLogger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	attached.Lock()
	defer attached.Unlock()
	loggerPtr.Store(l)
	for _, d := range attached.devs {
		d.SetLogger(l)
	}
}

// Logger returns the current logger. Sub-packages call this to share the
// same configuration without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// attached lists the devices that follow SetLogger.
var attached struct {
	sync.Mutex
	devs []loggerSetter
}

// AttachLogger passes the current logger to d if it accepts one, and keeps
// passing it the logger of later SetLogger calls.
func AttachLogger(d Device) {
	ls, ok := d.(loggerSetter)
	if !ok {
		return
	}
	attached.Lock()
	defer attached.Unlock()
	ls.SetLogger(Logger())
	if !slices.Contains(attached.devs, ls) {
		attached.devs = append(attached.devs, ls)
	}
}

// DetachLogger stops SetLogger from reaching d. Devices call it on Close.
func DetachLogger(d Device) {
	ls, ok := d.(loggerSetter)
	if !ok {
		return
	}
	attached.Lock()
	attached.devs = slices.DeleteFunc(attached.devs, func(x loggerSetter) bool { return x == ls })
	attached.Unlock()
}
