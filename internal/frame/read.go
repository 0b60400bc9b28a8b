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
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"io"
	"os"

	_ "golang.org/x/image/tiff" // register TIFF decoding
)

// Reads a frame from the given PNG, JPEG or TIFF file
func ReadFile(fileName string, id int) (f *Frame, err error) {
	file, err:=os.Open(fileName)
	if err!=nil { return nil, err }
	defer file.Close()

	f, err=Read(bufio.NewReader(file))
	if err!=nil { return nil, fmt.Errorf("%s: %s", fileName, err.Error()) }
	f.ID, f.FileName=id, fileName
	return f, nil
}

// Reads a frame from the given reader, detecting the image format from
// its magic bytes
func Read(r io.Reader) (f *Frame, err error) {
	img, _, err:=image.Decode(r)
	if err!=nil { return nil, err }
	return NewFrameFromImage(img), nil
}
