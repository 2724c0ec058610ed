package fsx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendLineWritesOneLinePerCall(t *testing.T) {
	workDir := t.TempDir()
	targetPath := filepath.Join(workDir, "context.ctx")
	if err := AppendLine(targetPath, []byte("@CONVERSATION:"), 0o600); err != nil {
		t.Fatalf("append header: %v", err)
	}
	if err := AppendLine(targetPath, []byte("c1|2026-01-02T03:04:05Z|user|hello"), 0o600); err != nil {
		t.Fatalf("append record: %v", err)
	}
	raw, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	expected := "@CONVERSATION:\nc1|2026-01-02T03:04:05Z|user|hello\n"
	if string(raw) != expected {
		t.Fatalf("unexpected append output:\n%s", string(raw))
	}
}

func TestAppendLinesGroupsHeaderAndRecord(t *testing.T) {
	workDir := t.TempDir()
	targetPath := filepath.Join(workDir, "nested", "context.ctx")
	lines := [][]byte{
		[]byte("@STATE:"),
		[]byte("user|lang|en"),
	}
	if err := AppendLines(targetPath, lines, 0o600); err != nil {
		t.Fatalf("append lines: %v", err)
	}
	raw, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(raw) != "@STATE:\nuser|lang|en\n" {
		t.Fatalf("unexpected append output:\n%s", string(raw))
	}
}

func TestAppendLineRejectsTraversal(t *testing.T) {
	if err := AppendLine(filepath.Join("..", "escape.ctx"), []byte("x|y|z"), 0o600); err == nil {
		t.Fatal("expected traversal path to be rejected")
	}
}

func TestAppendLineRejectsEmbeddedTerminator(t *testing.T) {
	workDir := t.TempDir()
	targetPath := filepath.Join(workDir, "context.ctx")
	if err := AppendLine(targetPath, []byte("a\nb"), 0o600); err == nil {
		t.Fatal("expected embedded newline to be rejected")
	}
	if _, err := os.Stat(targetPath); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be created, stat err=%v", err)
	}
}

func TestAppendLinesEmptyIsNoop(t *testing.T) {
	workDir := t.TempDir()
	targetPath := filepath.Join(workDir, "context.ctx")
	if err := AppendLines(targetPath, nil, 0o600); err != nil {
		t.Fatalf("append empty group: %v", err)
	}
	if _, err := os.Stat(targetPath); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be created, stat err=%v", err)
	}
}
