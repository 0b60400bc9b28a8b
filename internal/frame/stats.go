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


package frame

import (
	"fmt"
	"sort"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic luminance statistics of a frame, estimated from a random pixel
// subsample for large frames
type Stats struct {
	Min    float32
	Max    float32
	Mean   float32
	StdDev float32
	Samples int       // number of pixels the estimate is based on
}

// Rec.601 luma coefficients
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Returns the luma of the pixel at (x,y)
func (f *Frame) Luma(x, y int) float32 {
	r,g,b,_:=f.At(x, y)
	return lumaR*r + lumaG*g + lumaB*b
}

// Calculates luminance statistics for the frame. Subsamples at most
// numSamples pixels with a fast PRNG; when the frame has no more pixels than
// that, every pixel enters the estimate and the result is exact
func CalcStats(f *Frame, numSamples int) *Stats {
	lumas:=sampleLumas(f, numSamples)

	min, max:=lumas[0], lumas[0]
	for _,l:=range lumas {
		if l<min { min=l }
		if l>max { max=l }
	}
	mean, stdDev:=stat.MeanStdDev(lumas, nil)

	return &Stats{
		Min    : float32(min),
		Max    : float32(max),
		Mean   : float32(mean),
		StdDev : float32(stdDev),
		Samples: len(lumas),
	}
}

// Calculates a luminance histogram with the given number of equally sized
// bins over [0,1], from at most numSamples subsampled pixels.
// Returns bin counts and the bin dividers
func LumaHistogram(f *Frame, bins, numSamples int) (counts, dividers []float64) {
	lumas:=sampleLumas(f, numSamples)
	sort.Float64s(lumas)

	dividers=make([]float64, bins+1)
	floats.Span(dividers, 0, 1)
	dividers[bins]=1+1e-6 // final divider is exclusive, keep luma 1.0 countable

	counts=stat.Histogram(make([]float64, bins), dividers, lumas, nil)
	return counts, dividers
}

// Gathers luminances of at most numSamples pixels as float64, clamped to
// [0,1]. Samples all pixels when the frame is small enough
func sampleLumas(f *Frame, numSamples int) []float64 {
	numPixels:=f.Width*f.Height
	if numSamples<=0 || numSamples>numPixels { numSamples=numPixels }

	lumas:=make([]float64, numSamples)
	if numSamples==numPixels {
		i:=0
		for y:=0; y<f.Height; y++ {
			for x:=0; x<f.Width; x++ {
				lumas[i]=clampedLuma(f, x, y)
				i++
			}
		}
		return lumas
	}

	rng:=fastrand.RNG{}
	for i:=range lumas {
		index:=int(rng.Uint32n(uint32(numPixels)))
		lumas[i]=clampedLuma(f, index%f.Width, index/f.Width)
	}
	return lumas
}

func clampedLuma(f *Frame, x, y int) float64 {
	l:=f.Luma(x, y)
	if l<0 { l=0 }
	if l>1 { l=1 }
	return float64(l)
}

func (s *Stats) String() string {
	return fmt.Sprintf("min %.4g max %.4g mean %.4g stdDev %.4g (%d samples)",
		s.Min, s.Max, s.Mean, s.StdDev, s.Samples)
}
