package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/laml/manifest"
	"github.com/chazu/laml/server"
)

func cmdLSP(args []string) int {
	fs := flag.NewFlagSet("lsp", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose logging")
	logFile := fs.String("log", "", "Write logs to this file instead of stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	configureLogging(*verbose, *logFile)

	var globals []string
	if m, err := manifest.FindAndLoad("."); err != nil {
		log.Warningf("ignoring laml.toml: %s", err)
	} else if m != nil {
		globals = m.Compiler.Globals
	}

	if err := server.NewLSP(version, globals).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
