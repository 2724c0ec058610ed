package validate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davidahmann/ctxf/core/format"
	schemacontext "github.com/davidahmann/ctxf/core/schema/v1/context"
)

func exportedDocument(t *testing.T) []byte {
	t.Helper()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := &schemacontext.Document{
		Metadata: &schemacontext.Metadata{Version: "1.0", CreatedAt: ts, UpdatedAt: ts},
		Sessions: []schemacontext.Session{{
			ID: "s1", App: "demo", User: "u1",
			CreatedAt: ts, UpdatedAt: ts,
			Status: schemacontext.SessionActive, Events: 1, Tokens: 10,
		}},
		Conversation: []schemacontext.ConversationRecord{
			{ID: "c1", Timestamp: ts, Role: schemacontext.RoleUser, Content: "hello"},
		},
		State: []schemacontext.StateRecord{
			{Scope: schemacontext.ScopeUser, Key: "lang", Value: "en"},
		},
	}
	data, err := format.ExportJSON(doc)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	return data
}

func TestValidateDocumentJSON(t *testing.T) {
	if err := ValidateDocumentJSON(exportedDocument(t)); err != nil {
		t.Fatalf("expected export to validate: %v", err)
	}
}

func TestValidateDocumentJSONRejectsWrongShape(t *testing.T) {
	if err := ValidateDocumentJSON([]byte(`{"conversation":"not an array"}`)); err == nil {
		t.Fatal("expected shape error")
	}
	if err := ValidateDocumentJSON([]byte(`{"unknown_top_level":true}`)); err == nil {
		t.Fatal("expected additionalProperties rejection")
	}
}

func TestValidateJSONFileAgainstExternalSchema(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	jsonPath := filepath.Join(dir, "doc.json")
	schema := `{"type":"object","required":["id"],"properties":{"id":{"type":"string"}}}`
	if err := os.WriteFile(schemaPath, []byte(schema), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	if err := os.WriteFile(jsonPath, []byte(`{"id":"x"}`), 0o600); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := ValidateJSONFile(schemaPath, jsonPath); err != nil {
		t.Fatalf("expected valid: %v", err)
	}
	if err := ValidateJSON(schemaPath, []byte(`{}`)); err == nil {
		t.Fatal("expected missing required field to fail")
	}
}

func TestValidateJSONFileMissingInputs(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateJSONFile(filepath.Join(dir, "missing.json"), filepath.Join(dir, "also.json")); err == nil {
		t.Fatal("expected error for missing schema")
	}
}
