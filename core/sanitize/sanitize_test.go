package sanitize

import (
	"strings"
	"testing"
)

func TestSanitizeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain value",
		"a|b\nc",
		"|||",
		"\n\r\n",
		`trailing backslash \`,
		`\p literal escape text`,
		"unicode ⌘ and 日本語 mixed with | pipes",
		"@SESSION:",
		"@",
		`\a literal escape text`,
		strings.Repeat("|\\\n\r", 64),
	}
	for _, input := range cases {
		escaped := Sanitize(input)
		if strings.ContainsAny(escaped, "|\n\r") {
			t.Fatalf("sanitized output contains raw delimiter: %q -> %q", input, escaped)
		}
		restored, err := Unsanitize(escaped)
		if err != nil {
			t.Fatalf("unsanitize %q: %v", escaped, err)
		}
		if restored != input {
			t.Fatalf("round trip mismatch: %q -> %q -> %q", input, escaped, restored)
		}
	}
}

func TestSanitizeEscapesLeadingHeaderChar(t *testing.T) {
	if got := Sanitize("@SESSION:"); got != `\aSESSION:` {
		t.Fatalf("leading header char must be escaped, got %q", got)
	}
	if got := Sanitize("user@example.com"); got != "user@example.com" {
		t.Fatalf("mid-value header char must stay raw, got %q", got)
	}
	restored, err := Unsanitize(`\aSESSION:`)
	if err != nil {
		t.Fatalf("unsanitize: %v", err)
	}
	if restored != "@SESSION:" {
		t.Fatalf("unexpected restore: %q", restored)
	}
}

func TestSanitizeInjective(t *testing.T) {
	pairs := [][2]string{
		{"a|b", `a\pb`},
		{"a\\|b", "a|b"},
		{"a\nb", `a\nb`},
		{`a\nb`, "a\nb"},
		{`\\`, `\`},
		{"@a", `\aa`},
		{`\aa`, "@a"},
	}
	for _, pair := range pairs {
		if pair[0] == pair[1] {
			continue
		}
		if Sanitize(pair[0]) == Sanitize(pair[1]) {
			t.Fatalf("distinct inputs collide: %q and %q both -> %q", pair[0], pair[1], Sanitize(pair[0]))
		}
	}
}

func TestUnsanitizeMalformed(t *testing.T) {
	cases := []string{
		`dangling \`,
		`unknown \q escape`,
		`\`,
	}
	for _, input := range cases {
		if _, err := Unsanitize(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestSanitizePassthroughUnchanged(t *testing.T) {
	input := "key=value with spaces and = signs"
	if got := Sanitize(input); got != input {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
