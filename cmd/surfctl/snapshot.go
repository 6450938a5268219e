// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"image/color"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/surfcache"
	"github.com/gogpu/surfcache/format"
)

func (a *app) snapshotCmd() *cobra.Command {
	var (
		width, height int
		formatName    string
		out           string
		preload       bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fill a test surface and dump it as a truecolor TGA",
		Long: `snapshot creates a surface, fills it with a gradient through Lock
and writes it with SaveSnapshotFile. With --preload the image is uploaded
to the texture tier first, so the dump reads it back from there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := format.Parse(formatName)
			if !ok {
				return fmt.Errorf("unknown format %q", formatName)
			}
			if !format.CanUnpack(f) {
				return fmt.Errorf("format %s cannot be filled: %w", f, surfcache.ErrUnsupported)
			}

			bc := a.cfg.BackendConfig()
			bc.Width, bc.Height = 0, 0
			_, dev, closeFn, err := a.openDevice(bc)
			if err != nil {
				return err
			}
			defer closeFn()

			s, err := surfcache.NewSurface(dev, surfcache.SurfaceDesc{Label: "snapshot", Width: width, Height: height, Format: f})
			if err != nil {
				return err
			}
			defer s.Release()

			if err := fillGradient(s); err != nil {
				return err
			}
			if preload {
				if err := s.PreLoad(); err != nil {
					return err
				}
			}
			if err := s.SaveSnapshotFile(out); err != nil {
				return err
			}
			fi, err := os.Stat(out)
			if err != nil {
				return err
			}
			a.p.Fprintf(a.out, "wrote %s (%d bytes, %s)\n", out, fi.Size(), s.State())
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 64, "surface width")
	cmd.Flags().IntVar(&height, "height", 64, "surface height")
	cmd.Flags().StringVar(&formatName, "format", format.A8R8G8B8.String(), "surface format")
	cmd.Flags().StringVarP(&out, "out", "o", "snapshot.tga", "output path")
	cmd.Flags().BoolVar(&preload, "preload", false, "upload to the texture tier before dumping")
	return cmd
}

// fillGradient writes a red/green gradient with a blue diagonal.
func fillGradient(s *surfcache.Surface) error {
	lr, err := s.Lock(nil, surfcache.LockDiscard)
	if err != nil {
		return err
	}
	bpp := s.Format().BytesPerPixel()
	w, h := s.Width(), s.Height()
	for y := 0; y < h; y++ {
		row := lr.Bits[y*lr.Pitch:]
		for x := 0; x < w; x++ {
			c := color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				A: 0xFF,
			}
			if x == y {
				c.B = 0xFF
			}
			format.Pack(s.Format(), row[x*bpp:], c)
		}
	}
	return s.Unlock()
}
