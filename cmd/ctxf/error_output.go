package main

import (
	"encoding/json"
	"fmt"

	coreerrors "github.com/davidahmann/ctxf/core/errors"
)

const (
	exitOK              = 0
	exitInternalFailure = 1
	exitInvalidInput    = 2
	exitInvalidDocument = 3
	exitSecretsDetected = 4
)

func writeJSONOutput(output any, exitCode int) int {
	encoded, err := json.Marshal(output)
	if err != nil {
		fmt.Println(`{"ok":false,"error":"failed to encode output"}`)
		return exitInternalFailure
	}
	fmt.Println(string(encoded))
	return exitCode
}

func exitCodeForError(err error, fallbackExit int) int {
	if err == nil {
		return exitOK
	}
	switch coreerrors.CategoryOf(err) {
	case coreerrors.CategoryInvalidInput:
		return exitInvalidInput
	case coreerrors.CategoryInvalidEncoding:
		return exitInvalidDocument
	case coreerrors.CategorySecretsDetected:
		return exitSecretsDetected
	case coreerrors.CategoryIOFailure, coreerrors.CategoryInternalFailure:
		return exitInternalFailure
	}
	return fallbackExit
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	if hint := coreerrors.HintOf(err); hint != "" {
		text = text + " (" + hint + ")"
	}
	return text
}
