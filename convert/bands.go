// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package convert

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minBandRows is the smallest band handed to a worker. Images shorter than
// two bands are converted on the calling goroutine.
const minBandRows = 64

// runBands splits [0, height) into contiguous row bands and runs fn on each.
// Bands never overlap, so kernels writing one destination row per source row
// need no synchronization.
func runBands(height int, fn func(y0, y1 int)) error {
	workers := min(runtime.GOMAXPROCS(0), height/minBandRows)
	if workers < 2 {
		fn(0, height)
		return nil
	}

	band := (height + workers - 1) / workers
	var g errgroup.Group
	for y0 := 0; y0 < height; y0 += band {
		y1 := min(y0+band, height)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	return g.Wait()
}
