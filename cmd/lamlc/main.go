// lamlc compiles LaML programs to GCC assembly.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const appName = "lamlc"

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "0.1.0"

var log = commonlog.GetLogger("laml.lamlc")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "build":
		os.Exit(cmdBuild(os.Args[2:]))
	case "link":
		os.Exit(cmdLink(os.Args[2:]))
	case "disasm":
		os.Exit(cmdDisasm(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "lsp":
		os.Exit(cmdLSP(os.Args[2:]))
	case "version":
		fmt.Println(version)
		return
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options] [args]\n\n", appName)
	fmt.Fprintf(os.Stderr, "Compiles LaML programs to ICFP 2014 GCC assembly.\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  build [file]    Compile a program (default: laml.toml entry, or stdin)\n")
	fmt.Fprintf(os.Stderr, "  link [file]     Resolve a labeled listing into final assembly\n")
	fmt.Fprintf(os.Stderr, "  disasm <image>  Print the assembly stored in a CBOR program image\n")
	fmt.Fprintf(os.Stderr, "  repl            Compile interactively\n")
	fmt.Fprintf(os.Stderr, "  lsp             Run the language server on stdio\n")
	fmt.Fprintf(os.Stderr, "  version         Print the version\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s build ai.laml -o ai.gcc\n", appName)
	fmt.Fprintf(os.Stderr, "  %s build -format labeled < ai.laml\n", appName)
	fmt.Fprintf(os.Stderr, "  %s build -format cbor -o ai.gcb\n", appName)
	fmt.Fprintf(os.Stderr, "  %s link ai.lst -o ai.gcc\n", appName)
}

// configureLogging sets up the commonlog backend. Logs go to stderr unless
// path is set, so stdout stays free for program output.
func configureLogging(verbose bool, path string) {
	verbosity := 0
	if verbose {
		verbosity = 2
	}
	var p *string
	if path != "" {
		p = &path
	}
	commonlog.Configure(verbosity, p)
}

// readInput reads the named file, or stdin when path is "" or "-".
func readInput(path string) (name string, data []byte, err error) {
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
		return "<stdin>", data, err
	}
	data, err = os.ReadFile(path)
	return path, data, err
}

// writeOutput writes data to path, creating parent directories, or to
// stdout when path is "" or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
