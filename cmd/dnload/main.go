// Command dnload is the CLI entry point for the header generator and
// tiny-binary compose pipeline. It does nothing but parse flags, dispatch
// -h/-V, hand the resolved Config to the Driver, and translate the single
// returned error (or lack of one) into a process exit code - the only
// place in the module allowed to call os.Exit.
package main

import (
	"fmt"
	"os"

	"github.com/xyproto/dnload/internal/config"
	"github.com/xyproto/dnload/internal/pipeline"
)

// version is reported by -V/--version. Bumped by hand; this module has
// no release tooling of its own yet.
const version = "dnload 1.0.0"

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		config.Usage(os.Stderr)
		os.Exit(1)
	}

	if cfg.Help {
		config.Usage(os.Stdout)
		os.Exit(0)
	}
	if cfg.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := pipeline.New(cfg.Verbose).Run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
