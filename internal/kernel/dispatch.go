// Copyright (C) 2025 The edgeflow authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package kernel

import (
	"runtime"

	"github.com/klauspost/cpuid"
)

// Default edge length of a scheduling tile, in pixels. Purely a performance
// knob; results are identical for any tile size
const DefaultTileSize = 8

// A half-open rectangle [x0,x1) x [y0,y1) of output coordinates, processed
// by a single unit of work
type tile struct {
	x0, y0 int
	x1, y1 int
}

// Partitions the w x h coordinate domain into tiles of at most size x size
// pixels. Every coordinate lands in exactly one tile
func tiles(w, h, size int) []tile {
	ts:=make([]tile, 0, ((w+size-1)/size)*((h+size-1)/size))
	for y0:=0; y0<h; y0+=size {
		y1:=y0+size
		if y1>h { y1=h }
		for x0:=0; x0<w; x0+=size {
			x1:=x0+size
			if x1>w { x1=w }
			ts=append(ts, tile{x0, y0, x1, y1})
		}
	}
	return ts
}

// Returns the default number of worker goroutines for kernel dispatch.
// The kernel is compute bound, so physical cores are preferred over
// hyperthreads where the CPU reports them
func NumWorkers() int {
	if n:=cpuid.CPU.PhysicalCores; n>0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}
