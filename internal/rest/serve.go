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


package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	ef "github.com/edgeflow/edgeflow/internal"
	"github.com/edgeflow/edgeflow/internal/frame"
	"github.com/edgeflow/edgeflow/internal/ops"
	"github.com/edgeflow/edgeflow/internal/ops/edge"
	"github.com/edgeflow/edgeflow/internal/ops/tone"
)

// Runs the REST API server on the given address, e.g. ":8080"
func Serve(addr string) {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET ("/ping",  getPing)
			v1.POST("/edge",  postEdge)
			v1.POST("/stats", postStats)
		}
	}
	r.Run(addr)
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m,err:=json.MarshalIndent(args, "", "  ")
	if err!=nil { return err }
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

type postEdgeArgs struct {
	FilePatterns []string           `json:"filePatterns"`
	Monochrome   bool               `json:"monochrome"`
	EdgeDetect   *edge.OpEdgeDetect `json:"edgeDetect"`
	SavePattern  string             `json:"savePattern"`
	Quality      int                `json:"quality"`
}

func postEdge(c *gin.Context) {
	logWriter := c.Writer
	var args postEdgeArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err:=printArgs(logWriter, "Arguments:\n", "\n", args); err!=nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	ctx:=ops.NewContext(logWriter)
	if args.EdgeDetect==nil {
		args.EdgeDetect=edge.NewOpEdgeDetectDefault()
	}
	if args.Quality<=0 { args.Quality=95 }

	seq:=ops.NewOpSequence(
		ops.NewOpLoadMany(args.FilePatterns),
		tone.NewOpMonochrome(args.Monochrome),
		args.EdgeDetect,
		ops.NewOpSave(args.SavePattern, args.Quality),
	)
	promises, err:=seq.MakePromises(nil, ctx)
	if err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		logWriter.(http.Flusher).Flush()
		return
	}

	_, err=ops.MaterializeAll(promises, ctx.MaxThreads, true)
	if err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	logWriter.(http.Flusher).Flush()
	ef.ClearPools() // return per-request frame storage between requests
}

type postStatsArgs struct {
	FilePatterns []string `json:"filePatterns"`
	Bins         int      `json:"bins"`
}

func postStats(c *gin.Context) {
	logWriter := c.Writer
	var args postStatsArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if args.Bins<=0 { args.Bins=16 }
	ctx:=ops.NewContext(logWriter)

	opLoadMany:=ops.NewOpLoadMany(args.FilePatterns)
	promises, err:=opLoadMany.MakePromises(nil, ctx)
	if err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		logWriter.(http.Flusher).Flush()
		return
	}

	frames, err:=ops.MaterializeAll(promises, ctx.MaxThreads, false)
	if err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	for _,f:=range frames {
		counts, dividers:=frame.LumaHistogram(f, args.Bins, 65536)
		fmt.Fprintf(logWriter, "%d: Luminance histogram of %s:\n", f.ID, f.FileName)
		for i,count:=range counts {
			fmt.Fprintf(logWriter, "  [%.3f,%.3f): %.0f\n", dividers[i], dividers[i+1], count)
		}
		f.Done()
	}
	logWriter.(http.Flusher).Flush()
}
