package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/laml/asm"
	"github.com/chazu/laml/compiler"
	"github.com/chazu/laml/manifest"
)

type buildConfig struct {
	input   string
	output  string
	format  string
	globals []string
}

func cmdBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	out := fs.String("o", "", "Output file (default: manifest output path, or stdout)")
	format := fs.String("format", "", "Output format: text, cbor or labeled (default: manifest format, or text)")
	verbose := fs.Bool("v", false, "Verbose output")
	logFile := fs.String("log", "", "Write logs to this file instead of stderr")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s build [options] [file]\n\n", appName)
		fmt.Fprintf(os.Stderr, "Without a file, compiles the entry named in laml.toml, or stdin when\nthere is no laml.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	configureLogging(*verbose, *logFile)

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cfg := resolveBuild(m, fs.Arg(0), *out, *format)
	if !manifest.ValidFormat(cfg.format) {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (want text, cbor or labeled)\n", cfg.format)
		return 2
	}

	name, src, err := readInput(cfg.input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	data, err := build(name, string(src), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return 1
	}
	if err := writeOutput(cfg.output, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// resolveBuild merges command-line settings over the manifest. The
// manifest's output path only applies when its entry is being built.
func resolveBuild(m *manifest.Manifest, input, output, format string) buildConfig {
	cfg := buildConfig{input: input, output: output, format: format}
	if m != nil {
		cfg.globals = m.Compiler.Globals
		if cfg.input == "" {
			cfg.input = m.EntryPath()
			if cfg.output == "" {
				cfg.output = m.OutputPath()
			}
		}
		if cfg.format == "" {
			cfg.format = m.Output.Format
		}
	}
	if cfg.format == "" {
		cfg.format = manifest.FormatText
	}
	return cfg
}

// build compiles src and encodes it in the configured format.
func build(name, src string, cfg buildConfig) ([]byte, error) {
	start := time.Now()
	prog, err := compiler.CompileWith(src, compiler.Options{Globals: cfg.globals})
	if err != nil {
		return nil, err
	}
	log.Infof("compiled %s: %d blocks, %d instructions in %s",
		name, len(prog.Blocks()), prog.Len(), time.Since(start))

	if cfg.format == manifest.FormatLabeled {
		return []byte(prog.Labeled()), nil
	}

	abs, err := prog.Translate()
	if err != nil {
		return nil, err
	}
	return encode(abs, filepath.Base(name), cfg.format)
}

// encode renders an absolute program as text or a CBOR image.
func encode(abs *asm.Absolute, source, format string) ([]byte, error) {
	if format == manifest.FormatCBOR {
		img, err := abs.Image(source)
		if err != nil {
			return nil, err
		}
		log.Infof("image %s: %d instructions", img.BuildID, len(img.Instructions))
		return asm.MarshalImage(img)
	}
	text, err := abs.Render()
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}
