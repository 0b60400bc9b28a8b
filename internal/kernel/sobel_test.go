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
	"math"
	"testing"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/mat"

	"github.com/edgeflow/edgeflow/internal/frame"
)

// Fills a frame with uniform pseudo-random pixels in [0,1]
func randomFrame(width, height int, rng *fastrand.RNG) *frame.Frame {
	f:=frame.NewFrame(width, height)
	for i:=range f.Data {
		f.Data[i]=float32(rng.Uint32n(1001))/1000
	}
	return f
}

// Independent reference implementation: per-channel dense matrices and a
// plain float64 convolution loop with explicit coordinate clamping
func referenceEdge(src *frame.Frame) *frame.Frame {
	w, h:=src.Width, src.Height
	chans:=[3]*mat.Dense{}
	for c:=0; c<3; c++ {
		chans[c]=mat.NewDense(h, w, nil)
		for y:=0; y<h; y++ {
			for x:=0; x<w; x++ {
				chans[c].Set(y, x, float64(src.Data[(y*w+x)*frame.Channels+c]))
			}
		}
	}

	wgt:=[3][3]float64{{1,0,-1},{2,0,-2},{1,0,-1}} // [dx+1][dy+1]
	clamp:=func(v, size int) int {
		if v<0 { return 0 }
		if v>=size { return size-1 }
		return v
	}

	dst:=frame.NewFrame(w, h)
	for y:=1; y<h; y++ {
		for x:=1; x<w; x++ {
			var rgb [3]float64
			for c:=0; c<3; c++ {
				sum:=0.0
				for dx:=-1; dx<=1; dx++ {
					for dy:=-1; dy<=1; dy++ {
						sum+=wgt[dx+1][dy+1]*chans[c].At(clamp(y+dy, h), clamp(x+dx, w))
					}
				}
				sum=math.Abs(sum)
				if sum>1 { sum=1 }
				rgb[c]=sum
			}
			dst.Set(x, y, float32(rgb[0]), float32(rgb[1]), float32(rgb[2]), 1)
		}
	}
	return dst
}

// The first row and first column must never be written: pre-filled sentinel
// values have to survive the kernel untouched
func TestBoundarySkip(t *testing.T) {
	width, height:=9, 7
	rng:=fastrand.RNG{}
	src:=randomFrame(width, height, &rng)
	dst:=frame.NewFrame(width, height)
	sentinel:=float32(0.123)
	dst.Fill(sentinel, sentinel, sentinel, sentinel)

	if err:=Apply(dst, src, 4, 2); err!=nil { t.Fatalf("apply: %s", err.Error()) }

	for x:=0; x<width; x++ {
		r,g,b,a:=dst.At(x, 0)
		if r!=sentinel || g!=sentinel || b!=sentinel || a!=sentinel {
			t.Errorf("dst(%d,0)=(%f %f %f %f); want sentinel %f", x, r, g, b, a, sentinel)
		}
	}
	for y:=0; y<height; y++ {
		r,g,b,a:=dst.At(0, y)
		if r!=sentinel || g!=sentinel || b!=sentinel || a!=sentinel {
			t.Errorf("dst(0,%d)=(%f %f %f %f); want sentinel %f", y, r, g, b, a, sentinel)
		}
	}
	for y:=1; y<height; y++ {
		for x:=1; x<width; x++ {
			if _,_,_,a:=dst.At(x, y); a!=1 {
				t.Errorf("dst(%d,%d) alpha=%f; want 1", x, y, a)
			}
		}
	}
}

// A constant field has zero gradient: the weights sum to zero per column
func TestUniformInputZeroGradient(t *testing.T) {
	width, height:=3, 3
	src:=frame.NewFrame(width, height)
	src.Fill(0.5, 0.5, 0.5, 1)
	dst:=frame.NewFrame(width, height)
	sentinel:=float32(0.75)
	dst.Fill(sentinel, sentinel, sentinel, sentinel)

	if err:=Apply(dst, src, 0, 0); err!=nil { t.Fatalf("apply: %s", err.Error()) }

	for y:=1; y<height; y++ {
		for x:=1; x<width; x++ {
			r,g,b,a:=dst.At(x, y)
			if r!=0 || g!=0 || b!=0 || a!=1 {
				t.Errorf("dst(%d,%d)=(%f %f %f %f); want (0 0 0 1)", x, y, r, g, b, a)
			}
		}
	}
	r,g,b,a:=dst.At(0, 2)
	if r!=sentinel || g!=sentinel || b!=sentinel || a!=sentinel {
		t.Errorf("dst(0,2)=(%f %f %f %f); want sentinel %f", r, g, b, a, sentinel)
	}
}

// A single bright pixel at (1,0) contributes with weight 2 at (1,1); the
// resulting gradient of 2.0 must clamp to fully saturated white
func TestSingleBrightPixel(t *testing.T) {
	src:=frame.NewFrame(3, 3)
	src.Set(1, 0, 1, 1, 1, 1)
	dst:=frame.NewFrame(3, 3)

	if err:=Apply(dst, src, 8, 1); err!=nil { t.Fatalf("apply: %s", err.Error()) }

	r,g,b,a:=dst.At(1, 1)
	if r!=1 || g!=1 || b!=1 || a!=1 {
		t.Errorf("dst(1,1)=(%f %f %f %f); want (1 1 1 1)", r, g, b, a)
	}
}

// Out-of-range neighbor reads at the last row and column must return the
// edge pixel value, not zero. With a uniform bright frame, zero padding
// would produce a spurious gradient of 4.0 at the bottom right corner
func TestEdgeClampAtBorder(t *testing.T) {
	width, height:=5, 4
	src:=frame.NewFrame(width, height)
	src.Fill(1, 1, 1, 1)
	dst:=frame.NewFrame(width, height)

	if err:=Apply(dst, src, 8, 1); err!=nil { t.Fatalf("apply: %s", err.Error()) }

	r,g,b,_:=dst.At(width-1, height-1)
	if r!=0 || g!=0 || b!=0 {
		t.Errorf("dst(%d,%d)=(%f %f %f); want (0 0 0), out-of-range reads must clamp", width-1, height-1, r, g, b)
	}
}

// Negative-going gradients must come out as positive magnitudes in [0,1]
func TestNonNegativity(t *testing.T) {
	rng:=fastrand.RNG{}
	src:=randomFrame(17, 13, &rng)
	dst:=frame.NewFrame(17, 13)

	if err:=Apply(dst, src, 8, 4); err!=nil { t.Fatalf("apply: %s", err.Error()) }

	for y:=1; y<13; y++ {
		for x:=1; x<17; x++ {
			r,g,b,_:=dst.At(x, y)
			for i,v:=range []float32{r,g,b} {
				if v<0 || v>1 {
					t.Errorf("dst(%d,%d) channel %d=%f; want within [0,1]", x, y, i, v)
				}
			}
		}
	}
}

// Repeated invocation with identical input must produce identical output
func TestDeterminism(t *testing.T) {
	rng:=fastrand.RNG{}
	src:=randomFrame(32, 19, &rng)
	dst1:=frame.NewFrame(32, 19)
	dst2:=frame.NewFrame(32, 19)

	if err:=Apply(dst1, src, 8, 4); err!=nil { t.Fatalf("apply: %s", err.Error()) }
	if err:=Apply(dst2, src, 8, 4); err!=nil { t.Fatalf("apply: %s", err.Error()) }

	for i:=range dst1.Data {
		if dst1.Data[i]!=dst2.Data[i] {
			t.Fatalf("dst1.Data[%d]=%f differs from dst2.Data[%d]=%f", i, dst1.Data[i], i, dst2.Data[i])
		}
	}
}

// Tile size and worker count are scheduling details and must not be
// observable in the output
func TestTileSizeInvariance(t *testing.T) {
	rng:=fastrand.RNG{}
	src:=randomFrame(23, 18, &rng)

	ref:=frame.NewFrame(23, 18)
	if err:=Apply(ref, src, 1, 1); err!=nil { t.Fatalf("apply: %s", err.Error()) }

	for _, tileSize:=range []int{2, 3, 8, 16, 1024} {
		for _, threads:=range []int{1, 2, 7} {
			dst:=frame.NewFrame(23, 18)
			if err:=Apply(dst, src, tileSize, threads); err!=nil { t.Fatalf("apply: %s", err.Error()) }
			for i:=range ref.Data {
				if dst.Data[i]!=ref.Data[i] {
					t.Fatalf("tile %d threads %d: Data[%d]=%f; want %f", tileSize, threads, i, dst.Data[i], ref.Data[i])
				}
			}
		}
	}
}

// Cross-check the kernel against an independent float64 implementation
func TestAgainstReference(t *testing.T) {
	epsilon:=float32(1e-5)
	rng:=fastrand.RNG{}
	dims:=[][2]int{{3,3}, {7,5}, {16,16}, {33,17}}

	for _, d:=range dims {
		width, height:=d[0], d[1]
		src:=randomFrame(width, height, &rng)
		dst:=frame.NewFrame(width, height)
		if err:=Apply(dst, src, 8, 4); err!=nil { t.Fatalf("apply: %s", err.Error()) }
		want:=referenceEdge(src)

		for y:=1; y<height; y++ {
			for x:=1; x<width; x++ {
				offset:=(y*width+x)*frame.Channels
				for c:=0; c<frame.Channels; c++ {
					got, exp:=dst.Data[offset+c], want.Data[offset+c]
					if diff:=got-exp; diff>epsilon || diff< -epsilon {
						t.Errorf("%dx%d dst(%d,%d) channel %d=%f; want %f", width, height, x, y, c, got, exp)
					}
				}
			}
		}
	}
}

// Mismatched frame dimensions must be rejected at the host binding
func TestDimensionMismatch(t *testing.T) {
	src:=frame.NewFrame(4, 4)
	dst:=frame.NewFrame(4, 5)
	if err:=Apply(dst, src, 8, 1); err==nil {
		t.Errorf("apply with mismatched dimensions returned nil error")
	}
}

// Spell out the weighted sum for a hand-checkable neighborhood
func TestEdgePixelWeights(t *testing.T) {
	src:=frame.NewFrame(3, 3)
	src.Set(0, 0, 0.05, 0.05, 0.05, 1)
	src.Set(1, 0, 0.10, 0.10, 0.10, 1)
	src.Set(2, 0, 0.15, 0.15, 0.15, 1)
	src.Set(0, 2, 0.20, 0.20, 0.20, 1)
	src.Set(1, 2, 0.25, 0.25, 0.25, 1)
	src.Set(2, 2, 0.30, 0.30, 0.30, 1)

	r,g,b:=EdgePixel(src.Data, 3, 3, 1, 1)
	// per column: 0.05-0.20 + 2*(0.10-0.25) + 0.15-0.30 = -0.6
	want:=float32(0.6)
	epsilon:=float32(1e-6)
	for i,v:=range []float32{r,g,b} {
		if diff:=v-want; diff>epsilon || diff< -epsilon {
			t.Errorf("EdgePixel channel %d=%f; want %f", i, v, want)
		}
	}
}
