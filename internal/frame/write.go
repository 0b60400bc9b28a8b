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
	"bufio"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/tiff"

	ef "github.com/edgeflow/edgeflow/internal"
)

// Converts the frame into an 8-bit Go image, clamping each channel to the
// representable [0,1] range first. NaNs are replaced with zeros so that the
// encoders do not produce broken output. The pixel storage comes from the
// shared pool; recycleRGBA returns it after encoding
func (f *Frame) ToRGBA() *image.RGBA {
	pix:=ef.GetArrayOfByteFromPool(f.Width*f.Height*Channels)
	img:=&image.RGBA{Pix: pix, Stride: f.Width*Channels, Rect: image.Rect(0, 0, f.Width, f.Height)}
	for y:=0; y<f.Height; y++ {
		offset:=y*f.Width*Channels
		for x:=0; x<f.Width; x++ {
			r:=clampUnit(f.Data[offset  ])
			g:=clampUnit(f.Data[offset+1])
			b:=clampUnit(f.Data[offset+2])
			a:=clampUnit(f.Data[offset+3])
			imgOff:=img.PixOffset(x, y)
			img.Pix[imgOff  ]=uint8(r*255+0.5)
			img.Pix[imgOff+1]=uint8(g*255+0.5)
			img.Pix[imgOff+2]=uint8(b*255+0.5)
			img.Pix[imgOff+3]=uint8(a*255+0.5)
			offset+=Channels
		}
	}
	return img
}

func clampUnit(v float32) float32 {
	if math.IsNaN(float64(v)) || v<0 { return 0 }
	if v>1 { return 1 }
	return v
}

func recycleRGBA(img *image.RGBA) {
	ef.PutArrayOfByteIntoPool(img.Pix)
	img.Pix=nil
}

// Writes the frame as PNG to the given writer
func (f *Frame) WritePNG(w io.Writer) error {
	img:=f.ToRGBA()
	defer recycleRGBA(img)
	return png.Encode(w, img)
}

// Writes the frame as PNG to the given file
func (f *Frame) WritePNGToFile(fileName string) error {
	return f.writeToFile(fileName, f.WritePNG)
}

// Writes the frame as JPEG with the given quality to the given writer
func (f *Frame) WriteJPG(w io.Writer, quality int) error {
	img:=f.ToRGBA()
	defer recycleRGBA(img)
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// Writes the frame as JPEG with the given quality to the given file
func (f *Frame) WriteJPGToFile(fileName string, quality int) error {
	return f.writeToFile(fileName, func(w io.Writer) error { return f.WriteJPG(w, quality) })
}

// Writes the frame as deflate-compressed TIFF to the given writer
func (f *Frame) WriteTIFF(w io.Writer) error {
	img:=f.ToRGBA()
	defer recycleRGBA(img)
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// Writes the frame as deflate-compressed TIFF to the given file
func (f *Frame) WriteTIFFToFile(fileName string) error {
	return f.writeToFile(fileName, f.WriteTIFF)
}

func (f *Frame) writeToFile(fileName string, write func(io.Writer) error) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	defer writer.Flush()

	return write(writer)
}
