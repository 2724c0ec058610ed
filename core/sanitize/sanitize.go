// Package sanitize escapes field values for embedding in pipe-delimited
// record lines. The scheme maps backslash, pipe, newline, and carriage return
// to backslash-prefixed sequences, so sanitized output never contains a raw
// field delimiter or line terminator. A leading '@' is escaped as well, so a
// value at the start of a line can never read back as a section header.
// Sanitize is total over UTF-8 input and injective; Unsanitize inverts it
// exactly.
package sanitize

import (
	"fmt"
	"strings"
)

const (
	escapeChar = '\\'
	// Delimiter is the field separator of the context format.
	Delimiter = '|'
	// HeaderChar opens a section header when it starts a line.
	HeaderChar = '@'
)

// Sanitize escapes the field delimiter and line terminators in value, plus a
// leading '@'. The result contains no raw '|', '\n', or '\r' bytes and never
// begins with '@'.
func Sanitize(value string) string {
	leadingHeader := len(value) > 0 && value[0] == HeaderChar
	if !leadingHeader && !strings.ContainsAny(value, "\\|\n\r") {
		return value
	}
	var out strings.Builder
	out.Grow(len(value) + 4)
	if leadingHeader {
		out.WriteString(`\a`)
		value = value[1:]
	}
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case escapeChar:
			out.WriteString(`\\`)
		case Delimiter:
			out.WriteString(`\p`)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		default:
			out.WriteByte(value[i])
		}
	}
	return out.String()
}

// Unsanitize reverses Sanitize. It returns an error for malformed escape
// sequences (a trailing backslash or an unknown escape), which the parser
// surfaces as a per-line warning rather than a failure.
func Unsanitize(value string) (string, error) {
	if !strings.ContainsRune(value, escapeChar) {
		return value, nil
	}
	var out strings.Builder
	out.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != escapeChar {
			out.WriteByte(value[i])
			continue
		}
		i++
		if i >= len(value) {
			return "", fmt.Errorf("dangling escape at end of value")
		}
		switch value[i] {
		case escapeChar:
			out.WriteByte(escapeChar)
		case 'p':
			out.WriteByte(Delimiter)
		case 'a':
			out.WriteByte(HeaderChar)
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		default:
			return "", fmt.Errorf("unknown escape sequence \\%c at offset %d", value[i], i-1)
		}
	}
	return out.String(), nil
}
