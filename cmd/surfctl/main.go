// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command surfctl inspects surfcache devices and exercises their storage
// tiers.
//
// Usage:
//
//	surfctl info [--width N --height N]
//	surfctl snapshot --out dump.tga [--format A8R8G8B8 --preload]
//	surfctl blit
//	surfctl config [--save path]
package main

import (
	"fmt"
	"os"

	_ "github.com/gogpu/surfcache/backend/gpu"
	_ "github.com/gogpu/surfcache/backend/soft"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
