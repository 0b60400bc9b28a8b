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


package ops

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pbnjay/memory"
	"github.com/edgeflow/edgeflow/internal/frame"
)

// An execution context for operators
type Context struct {
	Log        io.Writer `json:"-"`
	MemoryMB   int       // memory.TotalMemory()/1024/1024
	MaxThreads int       `json:"maxThreads"` // upper bound on concurrent workers, per frame and per kernel dispatch
	TileSize   int       `json:"tileSize"`   // scheduling tile edge length for kernel dispatch, 0=default
}

func NewContext(log io.Writer) *Context {
	memoryMB:=int(memory.TotalMemory()/1024/1024)
	return &Context{
		Log       : log,
		MemoryMB  : memoryMB,
		MaxThreads: runtime.GOMAXPROCS(0),
	}
}

// A promise for a frame. Returns a materialized frame, or an error
type Promise func() (f *frame.Frame, err error)

// Materializes all promises with given concurrency limit
func MaterializeAll(ins []Promise, maxThreads int, forget bool) (outs []*frame.Frame, err error) {
	if len(ins)==0 { return nil, nil }
	if !forget {
		outs=make([]*frame.Frame, len(ins))
	}
	limiter:=make(chan bool, maxThreads)
	errs   :=make(chan error, len(ins))
	for i, in := range ins {
		limiter <- true
		go func(i int, theIn Promise) {
			defer func() { <-limiter }()
			f, err:=theIn() // materialize the promise
			if err!=nil {
				errs <- err
				return
			}
			if !forget {
				outs[i]=f
			}
			errs <- nil
		}(i, in)
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}
	for i:=0; i<len(ins); i++ {  // collect errors
		e := <- errs
		if e!=nil {
			if err==nil {
				err=e
			} else {
				err=fmt.Errorf("%s; %s", err.Error(), e.Error())
			}
		}
	}
	return RemoveNils(outs), err
}

// Remove nils from an array of frames, editing the underlying array in place
func RemoveNils(frames []*frame.Frame) []*frame.Frame {
	o:=0
	for i:=0; i<len(frames); i+=1 {
		if frames[i]!=nil {
			frames[o]=frames[i]
			o+=1
		}
	}
	for i:=o; i<len(frames); i++ {
		frames[i]=nil
	}
	return frames[:o]
}


// A general frame processing operator: takes n promises as inputs,
// and produces m promises as output or an error
type Operator interface {
	GetType() string
	IsActive() bool
	MakePromises(ins []Promise, c *Context) (outs []Promise, err error)
}

// Base type for operators, including type information for JSON serializing/deserializing
type OpBase struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool  { return op.Active }

// Factory method for operator subclasses, for JSON serializing/deserializing
type OperatorFactory func() Operator

// Mapping from operator type strings to factory methods for the type
var operatorFactories=map[string]OperatorFactory{}

// Returns the operator factory for a given type string
func GetOperatorFactory(t string) OperatorFactory {
	return operatorFactories[t]
}

// Registers a given type string for a given type of Operator, identified via an exemplar generator
func SetOperatorFactory(f OperatorFactory) {
	op:=f()
	t:=op.GetType()
	if GetOperatorFactory(t)!=nil { panic(fmt.Sprintf("error: re-registering operator key %s\n", t)) }
	operatorFactories[t]=f
}


// A unary frame processing operator: given n promises as inputs,
// applies itself to each of them individually and returns n output promises or an error
type OperatorUnary interface {
	Operator
	Apply(f *frame.Frame, c *Context) (fOut *frame.Frame, err error)
}

// Abstract base type for unary operators. Uses golang workaround for abstract classes
type OpUnaryBase struct {
	OpBase
	Apply func(f *frame.Frame, c *Context) (fOut *frame.Frame, err error) `json:"-"`
}

func (op *OpUnaryBase) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins)==0 { return nil, errors.New("unary operator with zero inputs") }
	outs=make([]Promise, len(ins))
	for i,in:=range ins {
		outs[i]=op.MakePromise(in, c)
	}
	return outs, nil
}

func (op *OpUnaryBase) MakePromise(in Promise, c *Context) (out Promise) {
	return func() (f *frame.Frame, err error) {
		if f, err=in();           err!=nil { return nil, err } // materialize input promise
		if f, err=op.Apply(f, c); err!=nil { return nil, err } // apply unary operator
		return f, nil                                          // wrap output in promise
	}
}

// Load a single frame from a single filename. Takes zero inputs, produces one output
type OpLoad struct {
	OpBase
	ID       int    `json:"id"`
	FileName string `json:"fileName"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpLoadDefault() }) } // register the operator for JSON decoding

func NewOpLoadDefault() *OpLoad { return NewOpLoad(0, "") }

func NewOpLoad(id int, fileName string) *OpLoad {
	return &OpLoad{
		OpBase  : OpBase{Type: "load", Active: true},
		ID      : id,
		FileName: fileName,
	}
}

// Load frame from a file. Ignores any inputs provided
func (op *OpLoad) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins)>0 { return nil, fmt.Errorf("%s operator with non-zero input", op.Type) }
	if !isPathAllowed(op.FileName) { return nil, errors.New("filename outside current directory tree, aborting") }

	out:=func() (f *frame.Frame, err error) {
		return op.Apply(nil, c)
	}
	return []Promise{out}, nil
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) { return false }          // relative paths only
	if strings.Contains(p, "..") { return false }  // no going outside the tree
	return true
}

func (op *OpLoad) Apply(f *frame.Frame, c *Context) (result *frame.Frame, err error) {
	f, err=frame.ReadFile(op.FileName, op.ID)
	if err!=nil { return nil, err }

	stats:=frame.CalcStats(f, 16384)
	warning:=""
	if stats.Max-stats.Min<1e-8 {
		warning="; WARNING low dynamic range"
	}

	fmt.Fprintf(c.Log, "%d: Loaded %s frame with %v from %s%s\n",
		f.ID, f.DimensionsToString(), stats, f.FileName, warning)
	return f, nil
}

// Load many frames from a slice of filename patterns with wildcards.
// Takes zero inputs, produces n outputs
type OpLoadMany struct {
	OpBase
	FilePatterns []string `json:"filePatterns"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpLoadManyDefault() }) } // register the operator for JSON decoding

func NewOpLoadManyDefault() *OpLoadMany { return NewOpLoadMany(nil) }

func NewOpLoadMany(filePatterns []string) *OpLoadMany {
	return &OpLoadMany{
		OpBase      : OpBase{Type: "loadMany", Active: true},
		FilePatterns: filePatterns,
	}
}

// Turn filename wildcards into a list of file load operators
func (op *OpLoadMany) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins)>0 { return nil, fmt.Errorf("%s operator with non-zero input", op.Type) }
	for _, pattern := range op.FilePatterns {
		matches, err := filepath.Glob(pattern)
		if err!=nil { return nil, err }
		for _,match:=range matches {
			if !isPathAllowed(match) {
				fmt.Fprintf(c.Log, "Pattern match outside current directory tree, skipping\n")
				continue
			}
			opLoad:=NewOpLoad(len(outs), match)
			promises, err:=opLoad.MakePromises(nil, c)
			if err!=nil { return nil, err }
			if len(promises)!=1 { return nil, fmt.Errorf("%s operator did not return exactly one promise", opLoad.Type) }
			outs=append(outs, promises[0])
		}
	}
	if len(outs)==0 {
		return nil, fmt.Errorf("%s operator with no files to load from pattern %v",
			op.Type, op.FilePatterns)
	}
	fmt.Fprintf(c.Log, "Found %d files.\n", len(outs))
	return outs, nil
}


// Saves given promise under a given filename, with pattern expansion for %d based on the frame id.
// Takes one input, produces one output (the materialized but unchanged input)
type OpSave struct {
	OpUnaryBase
	FilePattern string `json:"filePattern"`
	Quality     int    `json:"quality"` // JPEG only
}

func init() { SetOperatorFactory(func() Operator { return NewOpSaveDefault() }) } // register the operator for JSON decoding

func NewOpSaveDefault() *OpSave { return NewOpSave("", 95) }

func NewOpSave(filenamePattern string, quality int) *OpSave {
	op:=OpSave{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "save", Active: filenamePattern!=""}},
		FilePattern: filenamePattern,
		Quality    : quality,
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return &op
}

func (op *OpSave) Apply(f *frame.Frame, c *Context) (result *frame.Frame, err error) {
	if !op.Active || op.FilePattern=="" { return f, nil }
	fileName:=op.FilePattern
	if strings.Contains(fileName, "%d") || strings.Contains(fileName, "%04d") {
		fileName=fmt.Sprintf(op.FilePattern, f.ID)
	}
	fnLower:=strings.ToLower(fileName)

	switch {
	case strings.HasSuffix(fnLower, ".png"):
		fmt.Fprintf(c.Log, "%d: Writing %s pixel PNG to %s\n", f.ID, f.DimensionsToString(), fileName)
		err=f.WritePNGToFile(fileName)
	case strings.HasSuffix(fnLower, ".jpg") || strings.HasSuffix(fnLower, ".jpeg"):
		fmt.Fprintf(c.Log, "%d: Writing %s pixel JPEG to %s\n", f.ID, f.DimensionsToString(), fileName)
		err=f.WriteJPGToFile(fileName, op.Quality)
	case strings.HasSuffix(fnLower, ".tif") || strings.HasSuffix(fnLower, ".tiff"):
		fmt.Fprintf(c.Log, "%d: Writing %s pixel TIFF to %s\n", f.ID, f.DimensionsToString(), fileName)
		err=f.WriteTIFFToFile(fileName)
	default:
		err=errors.New("unknown suffix")
	}
	if err!=nil { return nil, fmt.Errorf("%d: error writing to file %s: %s", f.ID, fileName, err.Error()) }
	return f, nil
}


// Applies a sequence of operators to a promise. Number of inputs, outputs as per the chained steps
type OpSequence struct {
	OpBase
	Steps    []Operator        `json:"-"`     // the actual steps
	StepsRaw []json.RawMessage `json:"steps"` // helper for unmarshaling
}

func init() { SetOperatorFactory(func() Operator { return NewOpSequenceDefault() }) } // register the operator for JSON decoding

func NewOpSequenceDefault() *OpSequence { return NewOpSequence() }

func NewOpSequence(steps ...Operator) *OpSequence {
	return &OpSequence{
		OpBase: OpBase{Type: "seq", Active: len(steps)>0},
		Steps : steps,
	}
}

// Unmarshals a sequence of polymorphic operators from JSON,
// using the registered operator factories keyed by type string
func (op *OpSequence) UnmarshalJSON(b []byte) error {
	type alias OpSequence
	err := json.Unmarshal(b, (*alias)(op))
	if err != nil { return err }

	for _, raw := range op.StepsRaw {
		var step OpBase
		err = json.Unmarshal(raw, &step)
		if err != nil { return err }

		var i Operator
		if factory:=GetOperatorFactory(step.Type); factory!=nil {
			i=factory()
		} else {
			return fmt.Errorf("unknown operator type '%s' in raw JSON message '%s'", step.Type, string(raw))
		}
		err = json.Unmarshal(raw, i)
		if err != nil { return err }
		op.Steps = append(op.Steps, i)
	}
	return nil
}

// Appends one or more operators to the existing sequence
func (op *OpSequence) Append(steps ...Operator) {
	op.Steps=append(op.Steps, steps...)
}

// Marshals a sequence with polymorphic operators to JSON.
// Uses the actual op.Steps with label "steps", and ignores op.StepsRaw
func (op *OpSequence) MarshalJSON() (bs []byte, err error) {
	buf:=bytes.Buffer{}
	buf.WriteString("{\"type\":")
	inner,err:=json.Marshal(op.Type)
	if err!=nil { return nil, err }
	buf.Write(inner)
	fmt.Fprintf(&buf, ", \"active\":%v, \"steps\":", op.Active)
	inner,err=json.Marshal(op.Steps)
	if err!=nil { return nil, err }
	buf.Write(inner)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (op *OpSequence) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	return op.applyRecursive(op.Steps, ins, c)
}

func (op *OpSequence) applyRecursive(steps []Operator, ins []Promise, c *Context) (outs []Promise, err error) {
	if len(steps)==0 { return ins, nil }
	ins, err=steps[0].MakePromises(ins, c)
	if err!=nil { return nil, err }
	return op.applyRecursive(steps[1:], ins, c)
}
