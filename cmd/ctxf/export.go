package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/davidahmann/ctxf/core/format"
	"github.com/davidahmann/ctxf/core/fsx"
	"github.com/davidahmann/ctxf/core/schema/validate"
)

type exportOutput struct {
	OK     bool   `json:"ok"`
	Path   string `json:"path,omitempty"`
	Out    string `json:"out,omitempty"`
	Digest string `json:"digest,omitempty"`
	Error  string `json:"error,omitempty"`
}

// runExport converts a context file to canonical JSON. --check validates the
// export against the embedded document schema before anything is emitted.
func runExport(arguments []string) int {
	flagSet := flag.NewFlagSet("export", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var outPath string
	var digestOnly bool
	var checkSchema bool
	var helpFlag bool
	flagSet.StringVar(&outPath, "out", "", "write JSON to this path instead of stdout")
	flagSet.BoolVar(&digestOnly, "digest", false, "print the canonical sha256 digest instead of the document")
	flagSet.BoolVar(&checkSchema, "check", false, "validate the export against the embedded schema")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(exportOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("usage: ctxf export [--out path] [--digest] [--check] <file>")
		return exitOK
	}
	if len(flagSet.Args()) != 1 {
		return writeJSONOutput(exportOutput{Error: "expected exactly one file argument"}, exitInvalidInput)
	}

	path := flagSet.Args()[0]
	doc, err := format.ParseFile(path)
	if err != nil {
		return writeJSONOutput(exportOutput{Path: path, Error: errorText(err)}, exitCodeForError(err, exitInvalidDocument))
	}

	encoded, err := format.ExportJSON(doc)
	if err != nil {
		return writeJSONOutput(exportOutput{Path: path, Error: errorText(err)}, exitCodeForError(err, exitInternalFailure))
	}
	if checkSchema {
		if err := validate.ValidateDocumentJSON(encoded); err != nil {
			return writeJSONOutput(exportOutput{Path: path, Error: errorText(err)}, exitInvalidDocument)
		}
	}

	if digestOnly {
		digest, err := format.ExportDigest(doc)
		if err != nil {
			return writeJSONOutput(exportOutput{Path: path, Error: errorText(err)}, exitCodeForError(err, exitInternalFailure))
		}
		fmt.Println(digest)
		return exitOK
	}

	if outPath != "" {
		if err := fsx.WriteFileAtomic(outPath, append(encoded, '\n'), 0o600); err != nil {
			return writeJSONOutput(exportOutput{Path: path, Out: outPath, Error: errorText(err)}, exitCodeForError(err, exitInternalFailure))
		}
		return writeJSONOutput(exportOutput{OK: true, Path: path, Out: outPath}, exitOK)
	}

	fmt.Println(string(encoded))
	return exitOK
}
