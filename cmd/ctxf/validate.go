package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/davidahmann/ctxf/core/format"
	schemacontext "github.com/davidahmann/ctxf/core/schema/v1/context"
)

type validateOutput struct {
	OK       bool                    `json:"ok"`
	Path     string                  `json:"path,omitempty"`
	Sessions int                     `json:"sessions"`
	Records  int                     `json:"records"`
	Warnings []schemacontext.Warning `json:"warnings,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

func runValidate(arguments []string) int {
	flagSet := flag.NewFlagSet("validate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var strictMode bool
	var jsonOutput bool
	var helpFlag bool
	flagSet.BoolVar(&strictMode, "strict", false, "treat warnings as failures")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeValidateOutput(jsonOutput, validateOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("usage: ctxf validate [--strict] [--json] <file>")
		return exitOK
	}
	if len(flagSet.Args()) != 1 {
		return writeValidateOutput(jsonOutput, validateOutput{Error: "expected exactly one file argument"}, exitInvalidInput)
	}

	path := flagSet.Args()[0]
	doc, err := format.ParseFile(path)
	if err != nil {
		return writeValidateOutput(jsonOutput, validateOutput{Path: path, Error: errorText(err)}, exitCodeForError(err, exitInvalidDocument))
	}

	output := validateOutput{
		OK:       true,
		Path:     path,
		Sessions: len(doc.Sessions),
		Records:  recordCount(doc),
		Warnings: doc.Warnings,
	}
	exitCode := exitOK
	if strictMode && len(doc.Warnings) > 0 {
		output.OK = false
		output.Error = fmt.Sprintf("%d warnings in strict mode", len(doc.Warnings))
		exitCode = exitInvalidDocument
	}
	return writeValidateOutput(jsonOutput, output, exitCode)
}

func recordCount(doc *schemacontext.Document) int {
	return len(doc.Conversation) + len(doc.Memory) + len(doc.State) +
		len(doc.Insights) + len(doc.Decisions) + len(doc.Work) + len(doc.Links)
}

func writeValidateOutput(jsonOutput bool, output validateOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.Error != "" {
		fmt.Println("validate failed:", output.Error)
		return exitCode
	}
	fmt.Printf("ok: %d sessions, %d records, %d warnings\n", output.Sessions, output.Records, len(output.Warnings))
	for _, warning := range output.Warnings {
		fmt.Printf("  line %d [%s]: %s\n", warning.Line, warning.Section, warning.Reason)
	}
	return exitCode
}
