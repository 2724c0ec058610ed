package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davidahmann/ctxf/core/detect"
)

type scanFinding struct {
	Type   string `json:"type"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Masked string `json:"masked"`
}

type scanOutput struct {
	OK       bool          `json:"ok"`
	Path     string        `json:"path,omitempty"`
	Findings []scanFinding `json:"findings,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// runScan runs the detector over a file (or stdin with "-") and reports every
// finding with its masked value. Raw matched text never reaches the output.
func runScan(arguments []string) int {
	flagSet := flag.NewFlagSet("scan", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var disabledList string
	var jsonOutput bool
	var helpFlag bool
	flagSet.StringVar(&disabledList, "disable", "", "comma-separated detector types to skip")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONOutput(scanOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("usage: ctxf scan [--disable type,type] [--json] <file|->")
		return exitOK
	}
	if len(flagSet.Args()) != 1 {
		return writeJSONOutput(scanOutput{Error: "expected exactly one file argument"}, exitInvalidInput)
	}

	path := flagSet.Args()[0]
	var content []byte
	var err error
	if path == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(path) // #nosec G304 -- operator-supplied path.
	}
	if err != nil {
		return writeJSONOutput(scanOutput{Path: path, Error: err.Error()}, exitInternalFailure)
	}

	var disabled []string
	for _, name := range strings.Split(disabledList, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			disabled = append(disabled, trimmed)
		}
	}
	scanner := detect.NewScanner(detect.PatternsExcept(disabled)...)

	findings := scanner.Detect(string(content))
	output := scanOutput{OK: len(findings) == 0, Path: path}
	for _, finding := range findings {
		output.Findings = append(output.Findings, scanFinding{
			Type:   string(finding.Type),
			Start:  finding.Start,
			End:    finding.End,
			Masked: finding.Masked,
		})
	}

	exitCode := exitOK
	if len(findings) > 0 {
		exitCode = exitSecretsDetected
	}
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if len(findings) == 0 {
		fmt.Println("clean:", path)
		return exitOK
	}
	for _, finding := range output.Findings {
		fmt.Printf("%s %d-%d %s\n", finding.Type, finding.Start, finding.End, finding.Masked)
	}
	return exitCode
}
