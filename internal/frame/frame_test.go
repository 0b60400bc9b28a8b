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
	"image"
	"image/color"
	"math"
	"testing"
)

func TestNewFrameZeroFilled(t *testing.T) {
	f:=NewFrame(4, 3)
	if f.Width!=4 || f.Height!=3 { t.Errorf("dimensions %s; want 4x3", f.DimensionsToString()) }
	if len(f.Data)!=4*3*Channels { t.Errorf("len(Data)=%d; want %d", len(f.Data), 4*3*Channels) }
	for i,v:=range f.Data {
		if v!=0 { t.Fatalf("Data[%d]=%f; want 0", i, v) }
	}
}

func TestFillAndAt(t *testing.T) {
	f:=NewFrame(2, 2)
	f.Fill(0.25, 0.5, 0.75, 1)
	r,g,b,a:=f.At(1, 1)
	if r!=0.25 || g!=0.5 || b!=0.75 || a!=1 {
		t.Errorf("At(1,1)=(%f %f %f %f); want (0.25 0.5 0.75 1)", r, g, b, a)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f:=NewFrame(3, 2)
	f.Set(2, 1, 0.1, 0.2, 0.3, 0.4)
	c:=f.Clone()
	c.Set(2, 1, 0.9, 0.9, 0.9, 0.9)
	r,_,_,_:=f.At(2, 1)
	if r!=0.1 { t.Errorf("original changed by clone write: r=%f; want 0.1", r) }
}

func TestNewFrameFromImage(t *testing.T) {
	img:=image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 0, B: 51, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 0, G: 255, B: 0, A: 255})

	f:=NewFrameFromImage(img)
	epsilon:=float32(1e-4)
	r,g,b,a:=f.At(0, 0)
	want:=[]float32{1, 0, 51.0/255.0, 1}
	for i,v:=range []float32{r,g,b,a} {
		if diff:=v-want[i]; diff>epsilon || diff< -epsilon {
			t.Errorf("At(0,0) channel %d=%f; want %f", i, v, want[i])
		}
	}
	r,g,_,_=f.At(1, 0)
	if r>epsilon || g<1-epsilon {
		t.Errorf("At(1,0) r=%f g=%f; want 0 and 1", r, g)
	}
}

func TestToRGBAClamps(t *testing.T) {
	f:=NewFrame(3, 1)
	f.Set(0, 0, -0.5, 1.5, 0.5, 1)
	f.Set(1, 0, float32(math.NaN()), 0, 0, 1)
	f.Set(2, 0, 1, 1, 1, 1)

	img:=f.ToRGBA()
	if c:=img.RGBAAt(0, 0); c.R!=0 || c.G!=255 || c.B!=128 {
		t.Errorf("pixel 0 = %v; want R=0 G=255 B=128", c)
	}
	if c:=img.RGBAAt(1, 0); c.R!=0 {
		t.Errorf("NaN pixel R=%d; want 0", c.R)
	}
	if c:=img.RGBAAt(2, 0); c.R!=255 || c.G!=255 || c.B!=255 || c.A!=255 {
		t.Errorf("white pixel = %v; want all 255", c)
	}
}

func TestImageRoundTrip(t *testing.T) {
	f:=NewFrame(4, 4)
	for y:=0; y<4; y++ {
		for x:=0; x<4; x++ {
			v:=float32(y*4+x)/15
			f.Set(x, y, v, 1-v, 0.5, 1)
		}
	}

	g:=NewFrameFromImage(f.ToRGBA())
	epsilon:=float32(1.0/255.0) // 8-bit quantization
	for i:=range f.Data {
		if diff:=f.Data[i]-g.Data[i]; diff>epsilon || diff< -epsilon {
			t.Errorf("Data[%d]=%f after round trip; want %f within %f", i, g.Data[i], f.Data[i], epsilon)
		}
	}
}
