// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package convert

import (
	"encoding/binary"

	"github.com/gogpu/surfcache/internal/tablecache"
)

// LookupTable maps a palette index to R, G, B, A bytes.
type LookupTable [256][4]byte

// tableKey identifies a table by the palette colors themselves, so two
// palettes never share a table even when their hashes collide.
type tableKey struct {
	rgb       [256 * 3]byte
	low, high uint32
	keyed     bool
}

// tableShard picks the cache shard of a key.
var tableShard = func(k tableKey) uint64 {
	return tablecache.HashBytes(k.rgb[:]) ^ uint64(k.low)<<1 ^ uint64(k.high)<<33
}

var tables = tablecache.New[tableKey, *LookupTable](0, func(k tableKey) uint64 {
	return tableShard(k)
})

// Table returns the RGBA lookup table for pal. When keyed is set, entries
// whose index lies inside key are transparent and all others opaque;
// otherwise every entry is opaque. The returned table is shared and must
// not be modified.
func Table(pal *Palette, key ColorKey, keyed bool) *LookupTable {
	k := tableKey{rgb: paletteRGB(pal), keyed: keyed}
	if keyed {
		k.low, k.high = key.Low, key.High
	}
	return tables.GetOrCreate(k, func() *LookupTable {
		return ExpandTable(pal, key, keyed)
	})
}

// ExpandTable builds a fresh lookup table without consulting the cache.
func ExpandTable(pal *Palette, key ColorKey, keyed bool) *LookupTable {
	var t LookupTable
	for i, e := range pal {
		t[i] = [4]byte{e.R, e.G, e.B, 0xff}
		if keyed && key.Contains(uint32(i)) {
			t[i][3] = 0x00
		}
	}
	return &t
}

// TableStats reports hit and miss counts of the shared table cache.
func TableStats() tablecache.Stats {
	return tables.Stats()
}

func paletteRGB(pal *Palette) [256 * 3]byte {
	var buf [256 * 3]byte
	for i, e := range pal {
		buf[i*3], buf[i*3+1], buf[i*3+2] = e.R, e.G, e.B
	}
	return buf
}

// Equal reports whether two palettes hold the same colors. Flags are ignored.
func (p *Palette) Equal(o *Palette) bool {
	if p == nil || o == nil {
		return p == o
	}
	for i := range p {
		if p[i].R != o[i].R || p[i].G != o[i].G || p[i].B != o[i].B {
			return false
		}
	}
	return true
}

// Lookup returns the first index whose color equals r, g, b.
func (p *Palette) Lookup(r, g, b uint8) (uint8, bool) {
	for i, e := range p {
		if e.R == r && e.G == g && e.B == b {
			return uint8(i), true
		}
	}
	return 0, false
}

// ColorTable returns the palette as little-endian 0x00RRGGBB words, the
// layout of a device-independent bitmap color table.
func (p *Palette) ColorTable() []byte {
	out := make([]byte, 256*4)
	for i, e := range p {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(e.R)<<16|uint32(e.G)<<8|uint32(e.B))
	}
	return out
}
