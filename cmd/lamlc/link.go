package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/laml/asm"
	"github.com/chazu/laml/manifest"
)

func cmdLink(args []string) int {
	fs := flag.NewFlagSet("link", flag.ContinueOnError)
	out := fs.String("o", "", "Output file (default: stdout)")
	format := fs.String("format", manifest.FormatText, "Output format: text or cbor")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s link [options] [file]\n\n", appName)
		fmt.Fprintf(os.Stderr, "Reads a labeled listing (from build -format labeled) and resolves\nevery label to an address.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	configureLogging(*verbose, "")
	if *format != manifest.FormatText && *format != manifest.FormatCBOR {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (want text or cbor)\n", *format)
		return 2
	}

	name, data, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	encoded, err := link(name, string(data), *format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return 1
	}
	if err := writeOutput(*out, encoded); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// link resolves a labeled listing and encodes the result.
func link(name, listing, format string) ([]byte, error) {
	prog, err := asm.ParseLabeled(listing)
	if err != nil {
		return nil, err
	}
	abs, err := prog.Translate()
	if err != nil {
		return nil, err
	}
	log.Infof("linked %s: %d blocks, %d instructions", name, len(prog.Blocks()), prog.Len())
	return encode(abs, filepath.Base(name), format)
}

func cmdDisasm(args []string) int {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	out := fs.String("o", "", "Output file (default: stdout)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s disasm [options] <image>\n\n", appName)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	configureLogging(false, "")

	name, data, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	text, err := disasm(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		return 1
	}
	if err := writeOutput(*out, []byte(text)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// disasm decodes a CBOR image and renders it as assembly text preceded by
// a comment line describing the image.
func disasm(data []byte) (string, error) {
	img, err := asm.UnmarshalImage(data)
	if err != nil {
		return "", err
	}
	abs, err := img.Absolute()
	if err != nil {
		return "", err
	}
	text, err := abs.Render()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("; %s (build %s, %d instructions)\n%s", img.Source, img.BuildID, abs.Len(), text), nil
}
