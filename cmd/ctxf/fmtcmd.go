package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davidahmann/ctxf/core/format"
	"github.com/davidahmann/ctxf/core/fsx"
)

type fmtOutput struct {
	OK      bool   `json:"ok"`
	Path    string `json:"path,omitempty"`
	Changed bool   `json:"changed"`
	Written bool   `json:"written"`
	Error   string `json:"error,omitempty"`
}

// runFmt parses a context file and rewrites it in canonical section order.
// Without --write the canonical form goes to stdout and the file is untouched.
func runFmt(arguments []string) int {
	flagSet := flag.NewFlagSet("fmt", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var writeBack bool
	var jsonOutput bool
	var helpFlag bool
	flagSet.BoolVar(&writeBack, "write", false, "rewrite the file in place (atomic)")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(fmtOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("usage: ctxf fmt [--write] [--json] <file>")
		return exitOK
	}
	if len(flagSet.Args()) != 1 {
		return writeJSONOutput(fmtOutput{Error: "expected exactly one file argument"}, exitInvalidInput)
	}

	path := flagSet.Args()[0]
	original, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path.
	if err != nil {
		return writeJSONOutput(fmtOutput{Path: path, Error: err.Error()}, exitInternalFailure)
	}
	doc, err := format.Parse(original)
	if err != nil {
		return writeJSONOutput(fmtOutput{Path: path, Error: errorText(err)}, exitCodeForError(err, exitInvalidDocument))
	}

	canonical := format.Compile(doc)
	changed := !bytes.Equal(original, canonical)
	output := fmtOutput{OK: true, Path: path, Changed: changed}

	if !writeBack {
		if jsonOutput {
			return writeJSONOutput(output, exitOK)
		}
		fmt.Print(string(canonical))
		return exitOK
	}

	if changed {
		if err := fsx.WriteFileAtomic(path, canonical, 0o600); err != nil {
			output.OK = false
			output.Error = errorText(err)
			return writeJSONOutput(output, exitCodeForError(err, exitInternalFailure))
		}
		output.Written = true
	}
	if jsonOutput {
		return writeJSONOutput(output, exitOK)
	}
	if changed {
		fmt.Println("rewrote", path)
	} else {
		fmt.Println(path, "already canonical")
	}
	return exitOK
}
