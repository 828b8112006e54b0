// cmd/rill/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	pkgerrors "github.com/pkg/errors"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/rill-lang/rill/internal/buildutil"
	"github.com/rill-lang/rill/internal/bytecode"
	"github.com/rill-lang/rill/internal/compiler"
	"github.com/rill-lang/rill/internal/config"
	rillerrors "github.com/rill-lang/rill/internal/errors"
	"github.com/rill-lang/rill/internal/repl"
	"github.com/rill-lang/rill/internal/vm"
)

const VERSION = "0.3.0"

// Build variables - can be set during build with ldflags
var (
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var (
	log      = commonlog.GetLogger("rill.cli")
	buildLog = commonlog.GetLogger("rill.build")
)

func main() {
	args := os.Args[1:]

	// Leading -v flags raise log verbosity for the whole run.
	verbosity := 0
	for len(args) > 0 && (args[0] == "-v" || args[0] == "-vv") {
		verbosity += len(args[0]) - 1
		args = args[1:]
	}
	commonlog.Configure(verbosity, nil)

	cfg, err := config.Load()
	if err != nil {
		log.Warningf("config ignored: %v", err)
		cfg = config.Default()
	}

	if len(args) == 0 {
		repl.Start(cfg)
		return
	}

	switch args[0] {
	case "--help", "-h", "help":
		showUsage()
		return
	case "--version", "version":
		showVersion()
		return
	case "build":
		if err := buildCommand(args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	runFile(args[0], cfg)
}

// runFile compiles and executes one script (or loads a prebuilt .rlc) as a
// single top-level unit. Any error exits nonzero after reporting.
func runFile(path string, cfg config.Config) {
	var prog *bytecode.Program
	var source string
	var err error

	if strings.HasSuffix(path, buildutil.Extension) {
		prog, err = buildutil.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	} else {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			fmt.Fprintln(os.Stderr, "error:", pkgerrors.Wrapf(rerr, "open %s", path))
			os.Exit(1)
		}
		source = string(data)
		prog, err = compiler.CompileSource(source)
		if err != nil {
			reportError(err, path, source)
			os.Exit(1)
		}
	}
	log.Infof("running %s", path)

	machine := vm.NewVM()
	machine.MaxDepth = cfg.MaxCallDepth
	_, err = machine.Execute(prog, vm.NewGlobalState(), func(text string) {
		fmt.Println(text)
	})
	if err != nil {
		reportError(err, path, source)
		os.Exit(1)
	}
}

func buildCommand(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	out := fs.String("o", "", "output path (default: input with "+buildutil.Extension+")")
	disasm := fs.Bool("d", false, "print the instruction listing instead of writing a file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return pkgerrors.New("usage: rill build [-d] [-o out] <file.rl>")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "open %s", path)
	}
	prog, err := compiler.CompileSource(string(data))
	if err != nil {
		reportError(err, path, string(data))
		os.Exit(1)
	}
	buildLog.Infof("compiled %s: %d function(s)", path, len(prog.Functions))

	if *disasm {
		fmt.Print(bytecode.Disassemble(prog))
		return nil
	}

	target := *out
	if target == "" {
		target = strings.TrimSuffix(path, ".rl") + buildutil.Extension
	}
	n, err := buildutil.WriteFile(target, prog)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s)\n", target, humanize.Bytes(uint64(n)))
	return nil
}

// reportError prints a diagnostic, with the source line and a caret when the
// error carries a position and the source is at hand.
func reportError(err error, path, source string) {
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	msg := err.Error()
	if useColor {
		msg = "\x1b[31m" + msg + "\x1b[0m"
	}

	pos := errorPosition(err)
	if pos.Line > 0 {
		fmt.Fprintf(os.Stderr, "%s:%s: %s\n", path, pos, msg)
		lines := strings.Split(source, "\n")
		if pos.Line <= len(lines) {
			line := lines[pos.Line-1]
			fmt.Fprintf(os.Stderr, "  %d | %s\n", pos.Line, line)
			if pos.Column > 0 {
				prefix := fmt.Sprintf("  %d | ", pos.Line)
				fmt.Fprintf(os.Stderr, "%s%s^\n",
					strings.Repeat(" ", len(prefix)),
					strings.Repeat(" ", pos.Column-1))
			}
		}
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", path, msg)
}

func errorPosition(err error) rillerrors.Position {
	switch e := err.(type) {
	case *rillerrors.LexError:
		return e.Pos
	case *rillerrors.ParseError:
		return e.Pos
	case *rillerrors.CompileError:
		return e.Pos
	}
	return rillerrors.Position{}
}

func showUsage() {
	fmt.Println(`rill - an expression-oriented scripting language

Usage:
  rill                       start the interactive REPL
  rill <file.rl>             compile and run a script
  rill <file.rlc>            run a prebuilt program
  rill build [-d] [-o out] <file.rl>
                             compile to a .rlc file (-d: print listing)
  rill version               print version information

Flags:
  -v, -vv                    increase log verbosity (before the command)`)
}

func showVersion() {
	fmt.Printf("rill %s (built %s, commit %s)\n", VERSION, BuildDate, GitCommit)
}
