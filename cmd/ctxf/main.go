package main

import (
	"fmt"
	"os"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	if len(arguments) < 2 {
		fmt.Println("ctxf", version)
		return exitOK
	}

	switch arguments[1] {
	case "validate":
		return runValidate(arguments[2:])
	case "fmt":
		return runFmt(arguments[2:])
	case "scan":
		return runScan(arguments[2:])
	case "export":
		return runExport(arguments[2:])
	case "append":
		return runAppend(arguments[2:])
	case "show":
		return runShow(arguments[2:])
	case "version", "--version", "-v":
		fmt.Println("ctxf", version)
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func printUsage() {
	fmt.Println("usage: ctxf <command> [flags]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  validate   parse a context file and report warnings")
	fmt.Println("  fmt        rewrite a context file in canonical form")
	fmt.Println("  scan       run the secret detector over a file")
	fmt.Println("  export     emit a context file as canonical JSON")
	fmt.Println("  append     append records through the secure writer")
	fmt.Println("  show       summarize the current session and resolved state")
	fmt.Println("  version    print the CLI version")
}
