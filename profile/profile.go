// Package profile provides a simple way to generate pprof compatible model construction profiles.
//
// Since model construction is not thread safe and operates in a single go-routine,
// this package is also NOT thread safe and is meant to be called in the same go-routine.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/pprof/profile"
	"github.com/milpkit/milpkit/logger"
)

var (
	sessions       []*Profile // active sessions
	activeSessions uint32
)

// Profile represents an active model construction profiling session.
type Profile struct {
	// defaults to ./milpkit.pprof
	// if blank, profile is not written to disk
	filePath string

	// actual pprof profile struct
	// details on pprof format: https://github.com/google/pprof/blob/main/proto/README.md
	pprof profile.Profile

	functions map[string]*profile.Function
	locations map[uint64]*profile.Location

	onceSetName sync.Once

	chDone chan struct{}
}

// Option defines configuration Options for Profile.
type Option func(*Profile)

// WithPath controls the profile destination file. If blank, profile is not written.
//
// Defaults to ./milpkit.pprof.
func WithPath(path string) Option {
	return func(p *Profile) {
		p.filePath = path
	}
}

// WithNoOutput indicates that the profile is not going to be written to disk.
//
// This is equivalent to WithPath("")
func WithNoOutput() Option {
	return func(p *Profile) {
		p.filePath = ""
	}
}

// Start creates a new active profiling session. When Stop() is called, this session is removed from
// active profiling sessions and may be serialized to disk as a pprof compatible file (see WithPath option).
//
// All calls to profile.Start() and Stop() are meant to be executed in the same go routine that
// builds the model.
//
// It is allowed to create multiple overlapping profiling sessions for one model.
func Start(options ...Option) *Profile {

	// start the worker first time a profiling session starts.
	onceInit.Do(func() {
		go worker()
	})

	p := Profile{
		functions: make(map[string]*profile.Function),
		locations: make(map[uint64]*profile.Location),
		filePath:  filepath.Join(".", "milpkit.pprof"),
		chDone:    make(chan struct{}),
	}
	p.pprof.SampleType = []*profile.ValueType{
		{Type: "constraints", Unit: "count"},
		{Type: "variables", Unit: "count"},
	}

	for _, option := range options {
		option(&p)
	}

	log := logger.Logger()
	if p.filePath == "" {
		log.Warn().Msg("milpkit profiling enabled [not writing to disk]")
	} else {
		log.Info().Str("path", p.filePath).Msg("milpkit profiling enabled")
	}

	// add the session to active sessions
	chCommands <- command{p: &p}
	atomic.AddUint32(&activeSessions, 1)

	return &p
}

// Stop removes the profile from active sessions and may write the pprof file to disk. See WithPath option.
func (p *Profile) Stop() {
	log := logger.Logger()

	if p.chDone == nil {
		log.Fatal().Msg("milpkit profile stopped multiple times")
	}

	// ask worker routine to remove ourselves from the active sessions
	chCommands <- command{p: p, remove: true}

	// wait for worker routine to remove us.
	<-p.chDone
	p.chDone = nil

	// if filePath is set, serialize profile to disk in pprof format
	if p.filePath != "" {
		f, err := os.Create(p.filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create milpkit profile")
		}
		if err := p.pprof.Write(f); err != nil {
			log.Error().Err(err).Msg("writing profile")
		}
		f.Close()
		log.Info().Str("path", p.filePath).Msg("milpkit profiling disabled")
	} else {
		log.Warn().Msg("milpkit profiling disabled [not writing to disk]")
	}

}

// NbConstraints returns the number of constraint samples collected by the session.
func (p *Profile) NbConstraints() int {
	n := 0
	for _, s := range p.pprof.Sample {
		n += int(s.Value[0])
	}
	return n
}

// NbVariables returns the number of variable samples collected by the session.
func (p *Profile) NbVariables() int {
	n := 0
	for _, s := range p.pprof.Sample {
		n += int(s.Value[1])
	}
	return n
}

// Top returns a pprof-top-like summary of the session, ordered by flat
// constraint count.
func (p *Profile) Top() string {
	type agg struct {
		name        string
		constraints int64
		variables   int64
	}
	byLeaf := make(map[string]*agg)
	var total int64
	for _, s := range p.pprof.Sample {
		if len(s.Location) == 0 {
			continue
		}
		leaf := s.Location[0]
		if len(leaf.Line) == 0 {
			continue
		}
		fn := leaf.Line[0].Function
		key := fmt.Sprintf("%s %s:%d", fn.Name, filepath.Base(fn.Filename), leaf.Line[0].Line)
		a, ok := byLeaf[key]
		if !ok {
			a = &agg{name: key}
			byLeaf[key] = a
		}
		a.constraints += s.Value[0]
		a.variables += s.Value[1]
		total += s.Value[0] + s.Value[1]
	}

	rows := make([]*agg, 0, len(byLeaf))
	for _, a := range byLeaf {
		rows = append(rows, a)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].constraints != rows[j].constraints {
			return rows[i].constraints > rows[j].constraints
		}
		if rows[i].variables != rows[j].variables {
			return rows[i].variables > rows[j].variables
		}
		return rows[i].name < rows[j].name
	})

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Showing nodes accounting for %d samples\n", total)
	fmt.Fprintf(&buf, "%12s %12s   location\n", "constraints", "variables")
	for _, a := range rows {
		fmt.Fprintf(&buf, "%12d %12d   %s\n", a.constraints, a.variables, a.name)
	}
	return buf.String()
}

// RecordConstraint adds a constraint sample (with count == 1) to all the active profiling sessions.
func RecordConstraint() {
	record(sampleConstraint)
}

// RecordVariable adds a variable sample (with count == 1) to all the active profiling sessions.
func RecordVariable() {
	record(sampleVariable)
}

func record(kind sampleKind) {
	if n := atomic.LoadUint32(&activeSessions); n == 0 {
		return // do nothing, no active session.
	}

	// collect the stack and send it async to the worker
	pc := make([]uintptr, 20)
	n := runtime.Callers(3, pc)
	if n == 0 {
		return
	}
	pc = pc[:n]
	chCommands <- command{pc: pc, kind: kind}
}

func (p *Profile) getLocation(frame *runtime.Frame) *profile.Location {
	l, ok := p.locations[uint64(frame.PC)]
	if !ok {
		// first let's see if we have the function.
		f, ok := p.functions[frame.File+frame.Function]
		if !ok {
			fe := strings.Split(frame.Function, "/")
			fName := fe[len(fe)-1]
			f = &profile.Function{
				ID:         uint64(len(p.functions) + 1),
				Name:       fName,
				SystemName: frame.Function,
				Filename:   frame.File,
			}

			p.functions[frame.File+frame.Function] = f
			p.pprof.Function = append(p.pprof.Function, f)
		}

		l = &profile.Location{
			ID:   uint64(len(p.locations) + 1),
			Line: []profile.Line{{Function: f, Line: int64(frame.Line)}},
		}
		p.locations[uint64(frame.PC)] = l
		p.pprof.Location = append(p.pprof.Location, l)
	}

	return l
}
