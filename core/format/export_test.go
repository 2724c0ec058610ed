package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestExportJSONCanonical(t *testing.T) {
	doc := buildDocument()
	first, err := ExportJSON(doc)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	second, err := ExportJSON(doc)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("export is not deterministic")
	}

	var decoded map[string]any
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if _, ok := decoded["conversation"]; !ok {
		t.Fatalf("missing conversation key in export: %s", string(first))
	}
	if strings.Contains(string(first), "\n") {
		t.Fatal("canonical export must be a single line")
	}
}

func TestExportDigestStable(t *testing.T) {
	doc := buildDocument()
	first, err := ExportDigest(doc)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	second, err := ExportDigest(doc)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if first != second || len(first) != 64 {
		t.Fatalf("unexpected digests: %q %q", first, second)
	}

	changed := buildDocument()
	changed.Conversation[0].Content = "different"
	other, err := ExportDigest(changed)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if other == first {
		t.Fatal("digest must change when content changes")
	}
}
