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


package edge

import (
	"encoding/json"
	"fmt"

	"github.com/edgeflow/edgeflow/internal/frame"
	"github.com/edgeflow/edgeflow/internal/kernel"
	"github.com/edgeflow/edgeflow/internal/ops"
)

// Detects edges in a frame with the directional Sobel gradient kernel.
// Produces a new frame of identical dimensions; the first row and column of
// the output stay transparent black, since the kernel leaves them unwritten
type OpEdgeDetect struct {
	ops.OpUnaryBase
	TileSize int `json:"tileSize"` // scheduling tile edge length, 0=default
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpEdgeDetectDefault() }) } // register the operator for JSON decoding

func NewOpEdgeDetectDefault() *OpEdgeDetect { return NewOpEdgeDetect(kernel.DefaultTileSize) }

func NewOpEdgeDetect(tileSize int) *OpEdgeDetect {
	op:=OpEdgeDetect{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "edgeDetect", Active: true}},
		TileSize   : tileSize,
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpEdgeDetect) UnmarshalJSON(data []byte) error {
	type defaults OpEdgeDetect
	def:=defaults(*NewOpEdgeDetectDefault())
	err:=json.Unmarshal(data, &def)
	if err!=nil { return err }
	*op=OpEdgeDetect(def)
	op.OpUnaryBase.Apply=op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpEdgeDetect) Apply(f *frame.Frame, c *ops.Context) (result *frame.Frame, err error) {
	if !op.Active { return f, nil }

	threads:=c.MaxThreads
	if threads<=0 { threads=kernel.NumWorkers() }
	fmt.Fprintf(c.Log, "%d: Detecting edges in %s frame with %d pixel tiles on up to %d threads\n",
		f.ID, f.DimensionsToString(), op.TileSize, threads)

	dst:=frame.NewFrame(f.Width, f.Height)
	dst.ID, dst.FileName=f.ID, f.FileName
	if err=kernel.Apply(dst, f, op.TileSize, threads); err!=nil {
		dst.Done()
		return nil, err
	}

	f.Done() // recycle the source pixel storage
	return dst, nil
}
