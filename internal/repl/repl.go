// internal/repl/repl.go
package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/tliron/commonlog"

	"github.com/rill-lang/rill/internal/compiler"
	"github.com/rill-lang/rill/internal/config"
	"github.com/rill-lang/rill/internal/vm"
)

var log = commonlog.GetLogger("rill.repl")

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

// Start runs the interactive loop. Each line is one top-level unit: compiled,
// executed, and echoed. Errors finish only the current entry; the session and
// its global state continue.
func Start(cfg config.Config) {
	fmt.Println("rill | type 'exit' or Ctrl-D to quit")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	loadHistory(ln, cfg.HistoryFile)

	useColor := cfg.Color == "always" ||
		(cfg.Color == "auto" && isatty.IsTerminal(os.Stdout.Fd()))

	globals := vm.NewGlobalState()
	machine := vm.NewVM()
	machine.MaxDepth = cfg.MaxCallDepth

	for {
		line, err := ln.Prompt(cfg.Prompt)
		if err == io.EOF {
			fmt.Println()
			break
		}
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil {
			log.Errorf("read line: %v", err)
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}
		ln.AppendHistory(line)

		prog, err := compiler.CompileSource(line)
		if err != nil {
			printError(err, useColor)
			continue
		}
		result, err := machine.Execute(prog, globals, func(text string) {
			fmt.Println(text)
		})
		if err != nil {
			printError(err, useColor)
			continue
		}
		fmt.Println(vm.ToString(result))
	}

	saveHistory(ln, cfg.HistoryFile)
}

func printError(err error, useColor bool) {
	msg := err.Error()
	if useColor {
		msg = red(msg)
	}
	fmt.Fprintln(os.Stderr, msg)
}

func loadHistory(ln *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := ln.ReadHistory(f); err != nil {
		log.Infof("history not loaded: %v", err)
	}
}

func saveHistory(ln *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		log.Infof("history not saved: %v", err)
		return
	}
	defer f.Close()
	if _, err := ln.WriteHistory(f); err != nil {
		log.Infof("history not saved: %v", err)
	}
}
