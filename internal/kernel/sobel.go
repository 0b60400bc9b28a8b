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


// Package kernel implements the per-pixel parallel edge detection kernel.
// It is a pure function over its coordinate domain: every interior pixel of
// the destination receives the clamped absolute value of a fixed 3x3
// directional Sobel gradient of the source, with opaque alpha. The first row
// and first column of the destination are never written, and out-of-range
// neighbor reads clamp to the nearest edge pixel.
package kernel

import (
	"fmt"

	"github.com/edgeflow/edgeflow/internal/frame"
)

// Weights of the fixed 3x3 directional gradient, emphasizing horizontal
// edges. Indexed [dx+1][dy+1] for dx,dy in -1..1, i.e. per column top to
// bottom. Each column sums to zero, so uniform input yields zero gradient.
var weights=[3][3]float32{
	{1, 0, -1},  // x-1
	{2, 0, -2},  // x
	{1, 0, -1},  // x+1
}

// Clamps coordinate v into [0,size-1]. Out-of-range neighbor reads thus
// return the edge pixel value instead of faulting or yielding zero
func clampCoord(v, size int) int {
	if v<0 { return 0 }
	if v>=size { return size-1 }
	return v
}

// EdgePixel computes the edge magnitude at coordinate (x,y) from the 3x3
// neighborhood of the interleaved RGBA source data. All nine samples are
// read with edge-clamped coordinates, the weighted per-channel sums are
// taken by absolute value and clamped to [0,1]
func EdgePixel(src []float32, width, height, x, y int) (r, g, b float32) {
	var sumR, sumG, sumB float32
	for dx:=-1; dx<=1; dx++ {
		sx:=clampCoord(x+dx, width)
		for dy:=-1; dy<=1; dy++ {
			w:=weights[dx+1][dy+1]
			sy:=clampCoord(y+dy, height)
			offset:=(sy*width+sx)*frame.Channels
			sumR+=w*src[offset  ]
			sumG+=w*src[offset+1]
			sumB+=w*src[offset+2]
		}
	}
	return clampUnit(abs(sumR)), clampUnit(abs(sumG)), clampUnit(abs(sumB))
}

func abs(v float32) float32 {
	if v<0 { return -v }
	return v
}

func clampUnit(v float32) float32 {
	if v>1 { return 1 }
	return v
}

// Runs the kernel over every coordinate of one tile, writing edge magnitude
// pixels with opaque alpha. Coordinates on the first image row or column are
// skipped without reading or writing; the destination keeps its prior
// contents there
func applyTile(dst, src []float32, width, height int, t tile) {
	x0, y0:=t.x0, t.y0
	if x0==0 { x0=1 }
	if y0==0 { y0=1 }
	for y:=y0; y<t.y1; y++ {
		offset:=(y*width+x0)*frame.Channels
		for x:=x0; x<t.x1; x++ {
			r,g,b:=EdgePixel(src, width, height, x, y)
			dst[offset  ]=r
			dst[offset+1]=g
			dst[offset+2]=b
			dst[offset+3]=1
			offset+=frame.Channels
		}
	}
}

// Apply runs the edge kernel over the full coordinate domain of src, writing
// results to dst. Both frames must have identical dimensions; this is the
// only error condition, and it belongs to the host binding rather than the
// per-pixel kernel, which is total. Tiles of tileSize x tileSize pixels are
// processed by up to maxThreads concurrent goroutines; each output pixel is
// written by exactly one of them, so the tiling is not observable in the
// result. Zero or negative arguments select the defaults
func Apply(dst, src *frame.Frame, tileSize, maxThreads int) error {
	if dst.Width!=src.Width || dst.Height!=src.Height {
		return fmt.Errorf("dimension mismatch: source %s vs destination %s",
			src.DimensionsToString(), dst.DimensionsToString())
	}
	if tileSize<=0   { tileSize=DefaultTileSize }
	if maxThreads<=0 { maxThreads=NumWorkers() }

	limiter:=make(chan bool, maxThreads)
	for _,t:=range tiles(src.Width, src.Height, tileSize) {
		limiter <- true
		go func(t tile) {
			defer func() { <-limiter }()
			applyTile(dst.Data, src.Data, src.Width, src.Height, t)
		}(t)
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}
	return nil
}
