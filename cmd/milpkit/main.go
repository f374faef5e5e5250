// milpkit builds MILP relaxations of bilinear programs described in .hcl
// files and writes them out in CPLEX LP format.
//
//	milpkit build -f problem.hcl -o out.lp [-method mccormick|incremental] [-watch] [-profile out.pprof] [-v]
//	milpkit version
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/milpkit/milpkit"
	"github.com/milpkit/milpkit/logger"
	"github.com/milpkit/milpkit/lpformat"
	"github.com/milpkit/milpkit/profile"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "build":
		if err := runBuild(os.Args[2:]); err != nil {
			logger.Logger().Fatal().Err(err).Msg("build failed")
		}
	case "version":
		fmt.Println("milpkit", milpkit.Version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: milpkit build -f problem.hcl -o out.lp [-method mccormick|incremental] [-watch] [-profile out.pprof] [-v]")
	fmt.Fprintln(os.Stderr, "       milpkit version")
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		fInput   = fs.String("f", "problem.hcl", "problem description to build")
		fOutput  = fs.String("o", "", "output .lp path (defaults to the input with a .lp extension)")
		fMethod  = fs.String("method", "mccormick", "relaxation for blocks without an explicit method")
		fWatch   = fs.Bool("watch", false, "rebuild whenever the problem file changes")
		fProfile = fs.String("profile", "", "write a construction profile to this pprof file")
		fVerbose = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*fVerbose {
		logger.Set(logger.Logger().Level(zerolog.InfoLevel))
	}
	log := logger.Logger()

	in := *fInput
	out := *fOutput
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".lp"
	}

	err := buildOnce(in, out, *fMethod, *fProfile)
	if !*fWatch {
		return err
	}
	if err != nil {
		// watch mode stays up so the next save can fix the problem
		log.Error().Err(err).Msg("build failed")
	}
	return watch(in, func() {
		if err := buildOnce(in, out, *fMethod, *fProfile); err != nil {
			log.Error().Err(err).Msg("build failed")
		}
	})
}

func buildOnce(in, out, method, profilePath string) error {
	log := logger.Logger()

	pf, err := parseProblem(in)
	if err != nil {
		return err
	}

	var p *profile.Profile
	if profilePath != "" {
		p = profile.Start(profile.WithPath(profilePath))
	}
	m, err := buildModel(pf, method)
	if p != nil {
		p.Stop()
		log.Info().Str("path", profilePath).
			Int("nbVariables", p.NbVariables()).
			Int("nbConstraints", p.NbConstraints()).
			Msg("construction profile written")
	}
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := lpformat.Write(f, m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Info().Str("problem", in).Str("lp", out).
		Int("nbVariables", m.NumCols()).
		Int("nbConstraints", m.NumRows()).
		Msg("wrote relaxation")
	return nil
}

// watch rebuilds on every write to the problem file until interrupted. The
// parent directory is watched instead of the file itself; most editors save
// by renaming a fresh file over the old one, which would drop a direct
// watch.
func watch(path string, rebuild func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	log := logger.Logger()
	log.Info().Str("path", path).Msg("watching")

	name := filepath.Clean(path)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug().Str("event", ev.Op.String()).Msg("problem file changed")
			rebuild()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		case <-sig:
			log.Info().Msg("stopping")
			return nil
		}
	}
}
