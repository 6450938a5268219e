// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/backend"
	"github.com/gogpu/surfcache/format"
)

// blitRecorder keeps the blit path decisions logged during a scenario and
// forwards every record to next.
type blitRecorder struct {
	mu       sync.Mutex
	strategy string
	handled  bool
	next     slog.Handler
}

func (r *blitRecorder) Enabled(ctx context.Context, l slog.Level) bool {
	return l == slog.LevelDebug || r.next.Enabled(ctx, l)
}

func (r *blitRecorder) Handle(ctx context.Context, rec slog.Record) error {
	if strings.HasPrefix(rec.Message, "surfcache: blit") {
		r.mu.Lock()
		r.handled = rec.Message == "surfcache: blit handled"
		rec.Attrs(func(a slog.Attr) bool {
			if a.Key == "strategy" {
				r.strategy = a.Value.String()
				return false
			}
			return true
		})
		r.mu.Unlock()
	}
	if r.next.Enabled(ctx, rec.Level) {
		return r.next.Handle(ctx, rec)
	}
	return nil
}

func (r *blitRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &blitRecorder{next: r.next.WithAttrs(attrs)}
}

func (r *blitRecorder) WithGroup(name string) slog.Handler {
	return &blitRecorder{next: r.next.WithGroup(name)}
}

// path reports the strategy that handled the last blit, or "software".
func (r *blitRecorder) path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.handled || r.strategy == "" {
		return "software"
	}
	return r.strategy
}

func (r *blitRecorder) reset() {
	r.mu.Lock()
	r.strategy, r.handled = "", false
	r.mu.Unlock()
}

type blitScenario struct {
	name string
	run  func(sc *surfcache.Swapchain, plain, other *surfcache.Surface) (*surfcache.Surface, error)
}

var blitScenarios = []blitScenario{
	{"present", func(sc *surfcache.Swapchain, _, _ *surfcache.Surface) (*surfcache.Surface, error) {
		return sc.Front(), sc.Front().Blt(nil, sc.Back(0), nil, 0, nil, surfcache.FilterNone)
	}},
	{"fill", func(sc *surfcache.Swapchain, _, _ *surfcache.Surface) (*surfcache.Surface, error) {
		fx := &surfcache.BltFx{FillColor: 0xFF203040}
		return sc.Back(0), sc.Back(0).Blt(nil, nil, nil, surfcache.BltColorFill, fx, surfcache.FilterNone)
	}},
	{"upload", func(sc *surfcache.Swapchain, plain, _ *surfcache.Surface) (*surfcache.Surface, error) {
		return sc.Back(0), sc.Back(0).Blt(nil, plain, nil, 0, nil, surfcache.FilterLinear)
	}},
	{"readback", func(sc *surfcache.Swapchain, plain, _ *surfcache.Surface) (*surfcache.Surface, error) {
		return plain, plain.Blt(nil, sc.Back(0), nil, 0, nil, surfcache.FilterNone)
	}},
	{"software", func(_ *surfcache.Swapchain, plain, other *surfcache.Surface) (*surfcache.Surface, error) {
		r := image.Rect(0, 0, plain.Width()/2, plain.Height()/2)
		return other, other.Blt(&r, plain, &r, 0, nil, surfcache.FilterNone)
	}},
}

func (a *app) blitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blit",
		Short: "Run blits between swapchain buffers and plain surfaces and report the paths taken",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bc := a.cfg.BackendConfig()
			if bc.Width == 0 {
				bc.Width, bc.Height = 64, 64
			}
			name, dev, closeFn, err := a.openDevice(bc)
			if err != nil {
				return err
			}
			defer closeFn()

			sc, release, err := ensureSwapchain(dev, bc)
			if err != nil {
				return err
			}
			defer release()

			w, h := sc.Front().Width(), sc.Front().Height()
			plain, err := surfcache.NewSurface(dev, surfcache.SurfaceDesc{Label: "plain", Width: w, Height: h, Format: sc.Front().Format()})
			if err != nil {
				return err
			}
			defer plain.Release()
			other, err := surfcache.NewSurface(dev, surfcache.SurfaceDesc{Label: "other", Width: w, Height: h, Format: plain.Format()})
			if err != nil {
				return err
			}
			defer other.Release()
			if err := fillGradient(plain); err != nil {
				return err
			}

			prev := surfcache.Logger()
			rec := &blitRecorder{next: prev.Handler()}
			surfcache.SetLogger(slog.New(rec))
			defer surfcache.SetLogger(prev)

			fmt.Fprintf(a.out, "backend %s, swapchain %dx%d %s\n", name, w, h, sc.Front().Format())
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SCENARIO\tPATH\tDST STATE")
			for _, s := range blitScenarios {
				rec.reset()
				dst, err := s.run(sc, plain, other)
				if err != nil {
					return fmt.Errorf("%s: %w", s.name, err)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.name, rec.path(), dst.State())
			}
			return tw.Flush()
		},
	}
}

// ensureSwapchain returns the device's implicit swapchain, creating one
// when the device has none.
func ensureSwapchain(dev surfcache.Device, bc backend.Config) (*surfcache.Swapchain, func(), error) {
	if d, ok := dev.(interface{ Swapchain() *surfcache.Swapchain }); ok {
		if sc := d.Swapchain(); sc != nil {
			return sc, func() {}, nil
		}
	}
	f := bc.Format
	if f == format.Unknown {
		f = format.X8R8G8B8
	}
	sc, err := surfcache.NewSwapchain(dev, surfcache.SwapchainDesc{
		Label:       "surfctl",
		Width:       bc.Width,
		Height:      bc.Height,
		Format:      f,
		BackBuffers: max(bc.BackBuffers, 1),
		Effect:      surfcache.SwapCopy,
	})
	if err != nil {
		return nil, nil, err
	}
	return sc, sc.Release, nil
}
