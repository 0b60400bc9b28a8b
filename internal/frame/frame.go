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
	"image"

	ef "github.com/edgeflow/edgeflow/internal"
)

// Number of channels per pixel. Frames are always interleaved RGBA.
const Channels = 4

// A video or still image frame with interleaved RGBA float32 pixels,
// each channel normalized to [0,1]. Pixel (x,y) channel c lives at
// Data[(y*Width+x)*Channels+c].
type Frame struct {
	ID       int     // Sequential ID number, for log output. Counted upwards from 0
	FileName string  // Original file name, if any, for log output

	Width  int       // Width of the frame in pixels
	Height int       // Height of the frame in pixels

	Data []float32   // The interleaved pixel data, Width*Height*Channels long
}

// Creates a frame of the given dimensions with all pixels transparent black.
// Pixel storage comes from the pool, so call Done() once the frame is retired
func NewFrame(width, height int) *Frame {
	data:=ef.GetArrayOfFloat32FromPool(width*height*Channels)
	data=data[:width*height*Channels]
	for i:=range data { data[i]=0 }
	return &Frame{
		Width : width,
		Height: height,
		Data  : data,
	}
}

// Creates a frame from a Go image, converting to normalized float RGBA
func NewFrameFromImage(img image.Image) *Frame {
	bounds:=img.Bounds()
	width, height:=bounds.Dx(), bounds.Dy()
	f:=NewFrame(width, height)
	for y:=0; y<height; y++ {
		offset:=y*width*Channels
		for x:=0; x<width; x++ {
			r,g,b,a:=img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			f.Data[offset  ]=float32(r)/65535
			f.Data[offset+1]=float32(g)/65535
			f.Data[offset+2]=float32(b)/65535
			f.Data[offset+3]=float32(a)/65535
			offset+=Channels
		}
	}
	return f
}

// Returns the pixel storage to the pool. The frame must not be used afterwards
func (f *Frame) Done() {
	if f.Data!=nil {
		ef.PutArrayOfFloat32IntoPool(f.Data)
		f.Data=nil
	}
}

// Creates a deep copy of the frame
func (f *Frame) Clone() *Frame {
	c:=NewFrame(f.Width, f.Height)
	c.ID, c.FileName=f.ID, f.FileName
	copy(c.Data, f.Data)
	return c
}

// Fills every pixel of the frame with the given channel values
func (f *Frame) Fill(r, g, b, a float32) {
	for i:=0; i<len(f.Data); i+=Channels {
		f.Data[i  ]=r
		f.Data[i+1]=g
		f.Data[i+2]=b
		f.Data[i+3]=a
	}
}

// Returns the channel values of the pixel at (x,y)
func (f *Frame) At(x, y int) (r, g, b, a float32) {
	offset:=(y*f.Width+x)*Channels
	return f.Data[offset], f.Data[offset+1], f.Data[offset+2], f.Data[offset+3]
}

// Sets the pixel at (x,y) to the given channel values
func (f *Frame) Set(x, y int, r, g, b, a float32) {
	offset:=(y*f.Width+x)*Channels
	f.Data[offset  ]=r
	f.Data[offset+1]=g
	f.Data[offset+2]=b
	f.Data[offset+3]=a
}

// Returns the frame dimensions as a string for logging, e.g. "1920x1080"
func (f *Frame) DimensionsToString() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}
