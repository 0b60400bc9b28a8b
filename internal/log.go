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


package internal

import (
	"fmt"
	"io"
	"os"
)

// Singleton log sink. Writes to stdout, and optionally tees into a file.
// Operators receive it as a plain io.Writer via the execution context,
// so only the command line entry points talk to this directly.

var logWriter io.Writer = os.Stdout
var logFileOS *os.File

// Returns the current log sink for handing to operator contexts
func LogWriter() io.Writer { return logWriter }

// Enables logging to the given file in addition to stdout
func LogAlsoToFile(fileName string) (err error) {
	if logFileOS!=nil {
		if err=logFileOS.Close(); err!=nil { return err }
	}
	logFileOS, err=os.OpenFile(fileName, os.O_CREATE | os.O_TRUNC | os.O_WRONLY, 0666)
	if err!=nil { return err }
	logWriter=io.MultiWriter(os.Stdout, logFileOS)
	return nil
}

func LogPrintf(format string, args ...interface{}) (n int, err error) {
	return fmt.Fprintf(logWriter, format, args...)
}

func LogFatalf(format string, args ...interface{}) {
	fmt.Fprintf(logWriter, format, args...)
	LogSync()
	os.Exit(1)
}

// Flushes and syncs the optional log file
func LogSync() {
	if logFileOS!=nil { logFileOS.Sync() }
}
