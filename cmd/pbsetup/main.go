// Command pbsetup bootstraps a local PocketBase development project:
// it downloads the right release binary for the host platform (cached
// under ~/.pb_cache), writes the project configuration and generates
// the project skeleton with TypeScript hooks tooling.
//
// Usage:
//
//	pbsetup [project-dir] [--version v0.30.3] [--port 8090]
//
// Values not supplied as arguments are prompted for when stdin is a
// terminal, and defaulted otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pbsetup"
)

// Exit codes per failure category, so callers can tell an unsupported
// platform from a network failure.
const (
	exitOK          = 0
	exitFailure     = 1
	exitPlatform    = 2
	exitVersion     = 3
	exitNetwork     = 4
	exitInvalidPort = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	versionFlag := flag.String("version", "", "PocketBase version to install (e.g. v0.30.3, default: latest)")
	portFlag := flag.Int("port", pbsetup.DefaultPort, "port for PocketBase (1024-65535)")
	cacheFlag := flag.String("cache-dir", "", "binary cache directory (default: ~/.pb_cache)")
	flag.Usage = printUsage
	flag.Parse()

	portSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "port" {
			portSet = true
		}
	})

	// Validate the port before any work happens.
	if portSet {
		if err := pbsetup.ValidatePort(*portFlag); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return exitInvalidPort
		}
	}

	var dir string
	if args := flag.Args(); len(args) > 0 {
		dir = args[0]
	}

	cacheDir := *cacheFlag
	if cacheDir == "" {
		var err error
		if cacheDir, err = pbsetup.DefaultCacheDir(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return exitFailure
		}
	}
	cache, err := pbsetup.NewCache(cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitFailure
	}

	// Route missing values to the terminal prompter when possible;
	// otherwise fall back to argument-backed defaults.
	var input pbsetup.InputSource
	if pbsetup.IsTerminal(os.Stdin) {
		input = &pbsetup.TerminalInput{
			Dir:     dir,
			Tag:     *versionFlag,
			PortNum: *portFlag,
			PortSet: portSet,
			In:      os.Stdin,
			Out:     os.Stdout,
		}
	} else {
		input = pbsetup.ArgsInput{
			Dir:     dir,
			Tag:     *versionFlag,
			PortNum: *portFlag,
			PortSet: portSet,
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Track download progress from the fetcher; a separate goroutine
	// renders it. Purely cosmetic - an interrupted fetch leaves the
	// cache untouched either way.
	var written, total atomic.Int64
	source := &pbsetup.GitHubReleases{}
	fetcher := &pbsetup.Fetcher{
		Source: source,
		Progress: func(w, t int64) {
			written.Store(w)
			total.Store(t)
		},
	}

	scaffolder := &pbsetup.Scaffolder{
		Source:  source,
		Cache:   cache,
		Input:   input,
		Fetcher: fetcher,
	}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return scaffolder.Run(gctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if t := total.Load(); t > 0 {
					w := written.Load()
					if w < t {
						fmt.Printf("\r  downloading... %d%%", w*100/t)
					}
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
		return exitCode(err)
	}

	fmt.Println("\nSetup complete. Next steps:")
	fmt.Printf("  1. cd %s\n", scaffolder.ProjectDir())
	fmt.Println("  2. ./init-types.sh")
	fmt.Println("  3. cd pb_hooks_ts && npm install && npm run build")
	fmt.Println("  4. ./run.sh")
	return exitOK
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, pbsetup.ErrUnsupportedPlatform):
		return exitPlatform
	case errors.Is(err, pbsetup.ErrVersionNotFound),
		errors.Is(err, pbsetup.ErrNoVersionsAvailable):
		return exitVersion
	case errors.Is(err, pbsetup.ErrNotFound), pbsetup.IsRetryable(err):
		return exitNetwork
	case errors.Is(err, pbsetup.ErrInvalidPort):
		return exitInvalidPort
	default:
		return exitFailure
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `pbsetup - bootstrap a PocketBase project with TypeScript hooks

Usage:
  pbsetup [project-dir] [flags]

Flags:
  --version tag    PocketBase version to install (default: latest)
  --port n         port for PocketBase, 1024-65535 (default: 8090)
  --cache-dir dir  binary cache directory (default: ~/.pb_cache)

Examples:
  pbsetup                                  interactive setup
  pbsetup ~/my_project                     project path given, rest prompted
  pbsetup ~/my_project --version v0.30.3 --port 3000
`)
}
