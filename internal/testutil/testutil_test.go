package testutil

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAndMustReadFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "output.ctxf")
	WriteFile(t, target, []byte("@METADATA:\nversion=1.0\n"))
	got := MustReadFile(t, target)
	if string(got) != "@METADATA:\nversion=1.0\n" {
		t.Fatalf("unexpected file content: %q", string(got))
	}
}

func TestMustParseReturnsDocument(t *testing.T) {
	doc := MustParse(t, []byte("@METADATA:\nversion=1.0\nproject=demo\n"))
	if doc.Metadata == nil || doc.Metadata.Extra["project"] != "demo" {
		t.Fatalf("unexpected metadata: %#v", doc.Metadata)
	}
}

func TestFormatJSONPassesThroughInvalidInput(t *testing.T) {
	raw := "not json"
	if got := FormatJSON([]byte(raw)); got != raw {
		t.Fatalf("expected pass-through for invalid json, got %q", got)
	}
	formatted := FormatJSON([]byte(`{"ok":true}`))
	if !strings.Contains(formatted, "\"ok\": true") {
		t.Fatalf("expected indented json, got %q", formatted)
	}
}
