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

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	ef "github.com/edgeflow/edgeflow/internal"
	"github.com/edgeflow/edgeflow/internal/frame"
	"github.com/edgeflow/edgeflow/internal/kernel"
	"github.com/edgeflow/edgeflow/internal/ops"
	"github.com/edgeflow/edgeflow/internal/ops/edge"
	"github.com/edgeflow/edgeflow/internal/ops/tone"
	"github.com/edgeflow/edgeflow/internal/rest"
)

const version = "0.1.2"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out     = flag.String("out", "edge%04d.png", "save output frames to `file` pattern; %d is replaced with the frame id")
var log     = flag.String("log", "", "save log output to `file`")
var quality = flag.Int("quality", 95, "JPEG quality for .jpg output patterns")

var mono    = flag.Bool("mono", false, "convert frames to monochrome Lab lightness before edge detection")
var tile    = flag.Int("tile", kernel.DefaultTileSize, "scheduling tile edge length in pixels for kernel dispatch")
var threads = flag.Int("threads", 0, "number of concurrent workers, 0=detect from CPU")

var bins    = flag.Int("bins", 16, "number of luminance histogram bins for the stats command")

var addr    = flag.String("addr", ":8080", "listen address for the serve command")
var chroot  = flag.String("chroot", "", "sandbox serve command into given chroot directory (requires root)")
var setuid  = flag.Int("setuid", -1, "drop to given user id after sandboxing the serve command, -1=keep")

func main() {
	logWriter:=ef.LogWriter()
	start:=time.Now()
	flag.Usage=func() {
		fmt.Fprintf(logWriter, `Edgeflow Copyright (c) 2025 The edgeflow authors
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (edge|stats|serve|legal|version) (img0.png ... imgn.png)

Commands:
  edge    Detect edges in the input frames and save the results
  stats   Show input frame statistics
  serve   Serve the edge detection REST API
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log!="" {
		if err:=ef.LogAlsoToFile(*log); err!=nil {
			fmt.Fprintf(logWriter, "Unable to open logfile '%s'\n", *log)
			os.Exit(-1)
		}
		logWriter=ef.LogWriter()
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			ef.LogFatalf("Could not create CPU profile: %s\n", err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			ef.LogFatalf("Could not start CPU profile: %s\n", err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}

	c:=ops.NewContext(logWriter)
	c.TileSize=*tile
	if *threads>0 {
		c.MaxThreads=*threads
	} else {
		c.MaxThreads=kernel.NumWorkers()
	}

	var err error
	switch args[0] {
	case "edge":
		err=cmdEdge(args[1:], c)

	case "stats":
		err=cmdStats(args[1:], c)

	case "serve":
		rest.MakeSandbox(*chroot, *setuid)
		rest.Serve(*addr)

	case "legal":
		ef.LogPrintf("%s\n", legal)

	case "version":
		ef.LogPrintf("Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		ef.LogPrintf("Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	elapsed:=time.Since(start)
	ef.LogPrintf("\nDone after %v\n", elapsed)

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			ef.LogFatalf("Could not create memory profile: %s\n", err.Error())
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			ef.LogFatalf("Could not write allocation profile: %s\n", err.Error())
		}
	}

	if err!=nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}
	ef.LogSync()
}

// Performs the edge detection command: load frames matching the given
// patterns, optionally convert to monochrome, run the edge kernel, and save
func cmdEdge(patterns []string, c *ops.Context) error {
	if len(patterns)==0 {
		return fmt.Errorf("no input files given")
	}
	savePattern:=*out
	if !strings.Contains(savePattern, "%") && len(patterns)>1 {
		// multiple inputs writing to a fixed name would clobber each other
		ext:=filepath.Ext(savePattern)
		savePattern=strings.TrimSuffix(savePattern, ext)+"%04d"+ext
		fmt.Fprintf(c.Log, "Multiple inputs, saving to pattern %s instead of %s\n", savePattern, *out)
	}

	seq:=ops.NewOpSequence(
		ops.NewOpLoadMany(patterns),
		tone.NewOpMonochrome(*mono),
		edge.NewOpEdgeDetect(c.TileSize),
		ops.NewOpSave(savePattern, *quality),
	)
	promises, err:=seq.MakePromises(nil, c)
	if err!=nil { return err }

	_, err=ops.MaterializeAll(promises, c.MaxThreads, true)
	return err
}

// Performs the stats command: load frames and print sampled luminance
// statistics and a histogram for each
func cmdStats(patterns []string, c *ops.Context) error {
	if len(patterns)==0 {
		return fmt.Errorf("no input files given")
	}
	opLoadMany:=ops.NewOpLoadMany(patterns)
	promises, err:=opLoadMany.MakePromises(nil, c)
	if err!=nil { return err }

	for _, p:=range promises {
		f, err:=p()
		if err!=nil { return err }

		counts, dividers:=frame.LumaHistogram(f, *bins, 65536)
		total:=float64(0)
		for _,count:=range counts { total+=count }
		fmt.Fprintf(c.Log, "%d: Luminance histogram of %s:\n", f.ID, f.FileName)
		for i,count:=range counts {
			bar:=strings.Repeat("#", int(40*count/total+0.5))
			fmt.Fprintf(c.Log, "  [%.3f,%.3f) %6.0f %s\n", dividers[i], dividers[i+1], count, bar)
		}
		f.Done()
	}
	return nil
}
