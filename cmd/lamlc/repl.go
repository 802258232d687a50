package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/chazu/laml/compiler"
	"github.com/chazu/laml/manifest"
)

const (
	historyFile = ".laml_history"
	promptMain  = "laml> "
	promptCont  = "  ... "
)

var (
	banner   = fmt.Sprintf("LaML %s\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.", version)
	helpText = `
REPL commands:
  :quit      Exit the REPL
  :reset     Forget all definitions
  :text      Show resolved assembly
  :labeled   Show the labeled listing (default)
  :session   Show the definitions kept so far
`
)

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

// session accumulates top-level definitions between inputs. Each input is
// compiled after them; inputs made only of definitions are kept.
type session struct {
	defs    []string
	globals []string
	format  string
}

// compile compiles input after the kept definitions and returns the
// listing in the session's format.
func (s *session) compile(input string) (string, error) {
	src := strings.Join(append(append([]string(nil), s.defs...), input), "\n")
	prog, err := compiler.CompileWith(src, compiler.Options{Globals: s.globals})
	if err != nil {
		return "", err
	}
	if definitionsOnly(input) {
		s.defs = append(s.defs, input)
	}
	if s.format == manifest.FormatText {
		abs, err := prog.Translate()
		if err != nil {
			return "", err
		}
		return abs.Render()
	}
	return prog.Labeled(), nil
}

// definitionsOnly reports whether every top-level form of src is a define.
func definitionsOnly(src string) bool {
	root, err := compiler.Parse(src)
	if err != nil || len(root.Args) == 0 {
		return false
	}
	for _, form := range root.Args {
		app, ok := form.(*compiler.Application)
		if !ok {
			return false
		}
		if name, _ := app.OperatorName(); name != "define" {
			return false
		}
	}
	return true
}

// command handles a ':' command. It returns false when the REPL should exit.
func (s *session) command(cmd string) bool {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case ":quit", ":q":
		return false
	case ":reset":
		s.defs = nil
		fmt.Println("definitions cleared")
	case ":text":
		s.format = manifest.FormatText
	case ":labeled":
		s.format = manifest.FormatLabeled
	case ":session":
		for _, d := range s.defs {
			fmt.Println(d)
		}
	case ":help":
		fmt.Print(helpText)
	default:
		fmt.Println("unknown command. Type :help for commands.")
	}
	return true
}

func cmdRepl(args []string) (ret int) {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	configureLogging(*verbose, "")

	s := &session{format: manifest.FormatLabeled}
	if m, err := manifest.FindAndLoad("."); err == nil && m != nil {
		s.globals = m.Compiler.Globals
	}

	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			if !s.command(code) {
				return 0
			}
			continue
		}

		if strings.TrimSpace(code) == "" {
			continue
		}

		out, err := s.compile(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Print(blue(out))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// readByParseProbe reads lines until they form complete input: it keeps
// prompting while the lexer reports an unterminated form.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, perr := compiler.Parse(src); perr != nil && compiler.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}
