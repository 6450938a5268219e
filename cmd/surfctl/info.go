// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gogpu/gputypes"
	"github.com/spf13/cobra"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/format"
)

func (a *app) infoCmd() *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print device capabilities and the format table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bc := a.cfg.BackendConfig()
			bc.Width, bc.Height = 0, 0
			name, dev, closeFn, err := a.openDevice(bc)
			if err != nil {
				return err
			}
			defer closeFn()
			a.printDevice(name, dev)
			return a.printFormats(dev, width, height)
		},
	}
	cmd.Flags().IntVar(&width, "width", 100, "surface width used for the storage column")
	cmd.Flags().IntVar(&height, "height", 60, "surface height used for the storage column")
	return cmd
}

func (a *app) printDevice(name string, dev surfcache.Device) {
	caps, opts := dev.Caps(), dev.Options()
	fmt.Fprintf(a.out, "backend:             %s\n", name)
	if ad, ok := dev.(interface{ Adapter() string }); ok && ad.Adapter() != "" {
		fmt.Fprintf(a.out, "adapter:             %s\n", ad.Adapter())
	}
	fmt.Fprintf(a.out, "max texture size:    %d\n", caps.MaxTextureSize)
	fmt.Fprintf(a.out, "non-pow2 textures:   %t\n", caps.NonPow2)
	fmt.Fprintf(a.out, "paletted textures:   %t\n", caps.PalettedTextures)
	fmt.Fprintf(a.out, "signed formats:      %t\n", caps.SignedFormats)
	fmt.Fprintf(a.out, "framebuffer blit:    %t\n", caps.FramebufferBlit)
	fmt.Fprintf(a.out, "render target lock:  %s\n", opts.RenderTargetLock)
	fmt.Fprintf(a.out, "offscreen rendering: %s\n", opts.OffscreenRendering)
	fmt.Fprintln(a.out)
}

func (a *app) printFormats(dev surfcache.Device, width, height int) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FORMAT\tBPP\tFLAGS\tNATIVE\tSTORAGE")
	for _, f := range format.All() {
		storage := "-"
		s, err := surfcache.NewSurface(dev, surfcache.SurfaceDesc{Label: "info", Width: width, Height: height, Format: f})
		if err == nil {
			w, h := s.StorageSize()
			storage = a.p.Sprintf("%dx%d %d bytes", w, h, format.Size(f, w, h))
			s.Release()
		}
		native := "convert"
		if f.Native() != gputypes.TextureFormatUndefined {
			native = "yes"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", f, f.BytesPerPixel(), flagNames(f), native, storage)
	}
	return tw.Flush()
}

func flagNames(f format.Format) string {
	var names []string
	if f.IsCompressed() {
		names = append(names, "compressed")
	}
	if f.IsPaletted() {
		names = append(names, "paletted")
	}
	if f.IsSigned() {
		names = append(names, "signed")
	}
	if f.IsDepth() {
		names = append(names, "depth")
	}
	if f.HasAlpha() {
		names = append(names, "alpha")
	}
	if format.CanUnpack(f) {
		names = append(names, "unpack")
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
