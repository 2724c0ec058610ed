package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
writer:
  directory: .ctxf/contexts
  secret_redaction: "ON"
  throw_on_secrets: true
  log_redactions: "off"
detect:
  disabled:
    - email
    - phoneNumber
`)
	config, err := Load(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if config.Writer.Directory != ".ctxf/contexts" {
		t.Fatalf("unexpected directory: %q", config.Writer.Directory)
	}
	if !config.Writer.SecretRedactionEnabled() {
		t.Fatal("expected redaction on")
	}
	if !config.Writer.ThrowOnSecrets {
		t.Fatal("expected throw_on_secrets true")
	}
	if config.Writer.LogRedactionsEnabled() {
		t.Fatal("expected log_redactions off")
	}
	if len(config.Detect.Disabled) != 2 || config.Detect.Disabled[0] != "email" {
		t.Fatalf("unexpected disabled detectors: %+v", config.Detect.Disabled)
	}
}

func TestLoadMissingAllowed(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !config.Writer.SecretRedactionEnabled() || !config.Writer.LogRedactionsEnabled() {
		t.Fatal("defaults must keep redaction and logging on")
	}
	if config.Writer.ThrowOnSecrets {
		t.Fatal("throw_on_secrets must default off")
	}
}

func TestLoadMissingRejected(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeConfig(t, "\n")
	config, err := Load(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if config.Writer.Directory != "" {
		t.Fatalf("unexpected directory: %q", config.Writer.Directory)
	}
}

func TestLoadInvalidToggle(t *testing.T) {
	path := writeConfig(t, "writer:\n  secret_redaction: maybe\n")
	if _, err := Load(path, false); err == nil {
		t.Fatal("expected toggle validation error")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "writer: [unclosed\n")
	if _, err := Load(path, false); err == nil {
		t.Fatal("expected parse error")
	}
}
