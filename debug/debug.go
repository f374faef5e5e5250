// Package debug exposes the build time debug flag and the cleaned call
// stacks the relaxation builders attach when they recover a panic out of a
// host model.
//
// Build with -tags=debug to keep full file paths and every frame in the
// captured stacks.
package debug

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Stack returns the call stack of the caller, cleaned per WriteStack.
func Stack() string {
	var sbb strings.Builder
	WriteStack(&sbb)
	return sbb.String()
}

// WriteStack writes the call stack of the caller of the enclosing function
// to sbb, one "function\n\tfile:line\n" entry per frame. Unless the debug
// tag is set, frames are cleaned: runtime panic plumbing and the builders'
// recover closures are dropped and file names lose their directories. The
// trace always ends where the caller's code hands over to the test or
// runtime harness. Passing forceClean true cleans even under the debug tag.
func WriteStack(sbb *strings.Builder, forceClean ...bool) {
	// derived from: https://golang.org/pkg/runtime/#example_Frames
	clean := !Debug || (len(forceClean) > 0 && forceClean[0])

	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	if n == 0 {
		return
	}
	pc = pc[:n]
	frames := runtime.CallersFrames(pc)
	for {
		frame, more := frames.Next()
		fe := strings.Split(frame.Function, "/")
		function := fe[len(fe)-1]
		file := frame.File

		if strings.HasPrefix(function, "testing.") || function == "runtime.main" {
			break
		}
		if clean {
			if strings.HasPrefix(function, "runtime.") || strings.HasSuffix(function, ".Build.func1") {
				if !more {
					break
				}
				continue
			}
			file = filepath.Base(file)
		}

		sbb.WriteString(function)
		sbb.WriteByte('\n')
		sbb.WriteByte('\t')
		sbb.WriteString(file)
		sbb.WriteByte(':')
		sbb.WriteString(strconv.Itoa(frame.Line))
		sbb.WriteByte('\n')

		if !more {
			break
		}
	}
}
