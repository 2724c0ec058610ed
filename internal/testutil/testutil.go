// Package testutil holds shared helpers for package tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidahmann/ctxf/core/format"
	schemacontext "github.com/davidahmann/ctxf/core/schema/v1/context"
)

func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create parent directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func MustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	content, err := os.ReadFile(path) // #nosec G304 -- test helper for controlled paths.
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return content
}

// MustParse parses document content and fails the test on a hard parse error.
// Warnings are allowed; callers that care assert on doc.Warnings themselves.
func MustParse(t *testing.T, content []byte) *schemacontext.Document {
	t.Helper()
	doc, err := format.Parse(content)
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func FormatJSON(raw []byte) string {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	encoded, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(encoded)
}
