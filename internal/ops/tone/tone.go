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


package tone

import (
	"encoding/json"
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/edgeflow/edgeflow/internal/frame"
	"github.com/edgeflow/edgeflow/internal/ops"
)

// Replaces each pixel's RGB with its CIE Lab lightness, turning the frame
// into a perceptual grayscale. Useful ahead of edge detection when only
// luminance edges are of interest. Alpha is kept
type OpMonochrome struct {
	ops.OpUnaryBase
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpMonochromeDefault() }) } // register the operator for JSON decoding

func NewOpMonochromeDefault() *OpMonochrome { return NewOpMonochrome(false) }

func NewOpMonochrome(active bool) *OpMonochrome {
	op:=OpMonochrome{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "monochrome", Active: active}},
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpMonochrome) UnmarshalJSON(data []byte) error {
	type defaults OpMonochrome
	def:=defaults(*NewOpMonochromeDefault())
	err:=json.Unmarshal(data, &def)
	if err!=nil { return err }
	*op=OpMonochrome(def)
	op.OpUnaryBase.Apply=op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpMonochrome) Apply(f *frame.Frame, c *ops.Context) (result *frame.Frame, err error) {
	if !op.Active { return f, nil }
	fmt.Fprintf(c.Log, "%d: Converting %s frame to monochrome Lab lightness\n", f.ID, f.DimensionsToString())

	data:=f.Data
	for i:=0; i<len(data); i+=frame.Channels {
		col:=colorful.Color{R: float64(data[i]), G: float64(data[i+1]), B: float64(data[i+2])}
		l,_,_:=col.Lab()
		lum:=float32(l)
		if lum<0 { lum=0 }
		if lum>1 { lum=1 }
		data[i], data[i+1], data[i+2]=lum, lum, lum
	}
	return f, nil
}
