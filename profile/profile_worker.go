package profile

import (
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/google/pprof/profile"
)

// since we are assuming usage of this package from a single go routine, this channel only has
// one "producer", and one "consumer". it's purpose is to guarantee the order of execution of
// adding / removing a profiling session and sampling events, while enabling the caller
// (the model construction code) to sample the events asynchronously.
var chCommands = make(chan command, 100)
var onceInit sync.Once

type sampleKind uint8

const (
	sampleConstraint sampleKind = iota
	sampleVariable
)

type command struct {
	p      *Profile
	pc     []uintptr
	kind   sampleKind
	remove bool
}

func worker() {
	for c := range chCommands {
		if c.p != nil {
			if c.remove {
				for i := 0; i < len(sessions); i++ {
					if sessions[i] == c.p {
						sessions[i] = sessions[len(sessions)-1]
						sessions = sessions[:len(sessions)-1]
						break
					}
				}
				close(c.p.chDone)

				// decrement active sessions
				atomic.AddUint32(&activeSessions, ^uint32(0))
			} else {
				sessions = append(sessions, c.p)
			}
			continue
		}

		// it's a sampling of an allocation event
		collectSample(c.pc, c.kind)
	}

}

// collectSample must be called from the worker go routine
func collectSample(pc []uintptr, kind sampleKind) {
	// for each session we may have a distinct sample, since ids of functions and locations may mismatch
	samples := make([]*profile.Sample, len(sessions))
	for i := range samples {
		v := []int64{1, 0}
		if kind == sampleVariable {
			v = []int64{0, 1}
		}
		samples[i] = &profile.Sample{Value: v}
	}

	frames := runtime.CallersFrames(pc)
	// Loop to get frames.
	// A fixed number of pcs can expand to an indefinite number of Frames.
	for {
		frame, more := frames.Next()

		if strings.HasPrefix(frame.Function, "testing.") || strings.HasPrefix(frame.Function, "runtime.") {
			// past the caller's code; the frames below carry no signal
			break
		}

		if strings.HasSuffix(frame.Function, ".func1") {
			continue
		}

		// filter internal model functions
		if filterModelPrivateFunc(frame.Function) {
			if !more {
				break
			}
			continue
		}

		frame.Function = strings.ReplaceAll(frame.Function, "[...]", "[T]")

		for i := range samples {
			samples[i].Location = append(samples[i].Location, sessions[i].getLocation(&frame))
		}

		if !more {
			break
		}
		if strings.HasSuffix(frame.Function, ".Build") {
			for i := range sessions {
				sessions[i].onceSetName.Do(func() {
					// once per profile session, we set the "name of the binary"
					// here we grep the type name owning Build: hopefully the formulation name
					fe := strings.Split(frame.Function, "/")
					builderName := strings.TrimSuffix(fe[len(fe)-1], ".Build")
					sessions[i].pprof.Mapping = []*profile.Mapping{
						{ID: 1, File: builderName},
					}
				})
			}
		}
	}

	for i := range sessions {
		sessions[i].pprof.Sample = append(sessions[i].pprof.Sample, samples[i])
	}
}

func filterModelPrivateFunc(f string) bool {
	const mipPrefix = "github.com/milpkit/milpkit/mip.(*Model)."
	if strings.HasPrefix(f, mipPrefix) && len(f) > len(mipPrefix) {
		// filter model private APIs from the trace.
		c := []rune(f)[len(mipPrefix)]
		if unicode.IsLower(c) {
			return true
		}
	}
	return false
}
