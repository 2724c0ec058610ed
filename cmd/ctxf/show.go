package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/davidahmann/ctxf/core/format"
	schemacontext "github.com/davidahmann/ctxf/core/schema/v1/context"
)

type showOutput struct {
	OK       bool                        `json:"ok"`
	Path     string                      `json:"path,omitempty"`
	Session  *schemacontext.Session      `json:"session,omitempty"`
	State    []schemacontext.StateRecord `json:"state,omitempty"`
	Records  int                         `json:"records"`
	Warnings int                         `json:"warnings"`
	Error    string                      `json:"error,omitempty"`
}

// runShow prints the reader's reconciled view: the current session and the
// last-write-wins state, not the raw append log.
func runShow(arguments []string) int {
	flagSet := flag.NewFlagSet("show", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var jsonOutput bool
	var helpFlag bool
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(showOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("usage: ctxf show [--json] <file>")
		return exitOK
	}
	if len(flagSet.Args()) != 1 {
		return writeJSONOutput(showOutput{Error: "expected exactly one file argument"}, exitInvalidInput)
	}

	path := flagSet.Args()[0]
	doc, err := format.ParseFile(path)
	if err != nil {
		return writeJSONOutput(showOutput{Path: path, Error: errorText(err)}, exitCodeForError(err, exitInvalidDocument))
	}

	output := showOutput{
		OK:       true,
		Path:     path,
		Session:  doc.CurrentSession(),
		State:    doc.ResolvedState(),
		Records:  recordCount(doc),
		Warnings: len(doc.Warnings),
	}
	if jsonOutput {
		return writeJSONOutput(output, exitOK)
	}

	if output.Session != nil {
		fmt.Printf("session %s (%s) app=%s user=%s events=%d tokens=%d\n",
			output.Session.ID, output.Session.Status, output.Session.App,
			output.Session.User, output.Session.Events, output.Session.Tokens)
	} else {
		fmt.Println("no session")
	}
	for _, record := range output.State {
		fmt.Printf("state %s/%s=%s\n", record.Scope, record.Key, record.Value)
	}
	fmt.Printf("%d records, %d warnings\n", output.Records, output.Warnings)
	return exitOK
}
