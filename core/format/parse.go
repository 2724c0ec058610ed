// Package format implements the context format grammar: a linear parser that
// degrades per-line problems to warnings, and a deterministic compiler whose
// output the parser round-trips.
package format

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/davidahmann/ctxf/core/errors"
	"github.com/davidahmann/ctxf/core/sanitize"
	schemacontext "github.com/davidahmann/ctxf/core/schema/v1/context"
)

const maxLineBytes = 10 * 1024 * 1024

// Section headers are `@NAME` or `@NAME:identifier`. Canonical output always
// carries the trailing colon; both spellings parse.
var headerPattern = regexp.MustCompile(`^@([A-Z][A-Z0-9_]*)(?::(.*))?$`)

type section struct {
	name   string
	known  bool
	kind   schemacontext.SectionKind
	opaque int // index into doc.Opaque when !known
}

// Parse decodes one context document. Per-line malformations are collected as
// warnings on the returned Document; the only hard failure is stream-level
// (input that is not valid UTF-8).
func Parse(data []byte) (*schemacontext.Document, error) {
	if !utf8.Valid(data) {
		return nil, errors.Wrap(
			fmt.Errorf("input is not valid UTF-8"),
			errors.CategoryInvalidEncoding, "INVALID_ENCODING", "re-encode the file as UTF-8", false,
		)
	}

	doc := &schemacontext.Document{}
	lines, truncatedAt := splitLines(data)
	if truncatedAt > 0 {
		doc.Warnings = append(doc.Warnings, schemacontext.Warning{
			Line:   truncatedAt,
			Reason: "discarded incomplete trailing line (no terminator)",
		})
	}

	var current *section
	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		// Only a line-initial '@' opens a section. An indented '@' is field
		// data; the compiler escapes a leading '@' in the first field, so
		// record content can never spell a header.
		if strings.HasPrefix(line, "@") {
			next, ok := openSection(doc, trimmed)
			if !ok {
				doc.Warnings = append(doc.Warnings, schemacontext.Warning{
					Line:   lineNo,
					Reason: fmt.Sprintf("malformed section header %q", trimmed),
				})
				continue
			}
			current = &next
			continue
		}
		if current == nil {
			doc.Warnings = append(doc.Warnings, schemacontext.Warning{
				Line:   lineNo,
				Reason: "record line before any section header",
			})
			continue
		}
		if !current.known {
			doc.Opaque[current.opaque].Lines = append(doc.Opaque[current.opaque].Lines, line)
			continue
		}
		if warning := decodeRecord(doc, current.kind, line); warning != "" {
			doc.Warnings = append(doc.Warnings, schemacontext.Warning{
				Line:    lineNo,
				Section: current.name,
				Reason:  warning,
			})
		}
	}
	return doc, nil
}

// ParseFile reads and parses a context file from disk.
func ParseFile(path string) (*schemacontext.Document, error) {
	// #nosec G304 -- document path is explicit local caller input.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(
			fmt.Errorf("read context file: %w", err),
			errors.CategoryIOFailure, "READ_FAILED", "check that the file exists and is readable", true,
		)
	}
	return Parse(data)
}

// Validate reports whether input parses without errors or warnings.
func Validate(data []byte) bool {
	doc, err := Parse(data)
	return err == nil && len(doc.Warnings) == 0
}

// splitLines splits input into complete lines. A final line without a
// terminator is dropped (append-only crash safety); the returned line number
// identifies the discarded line, or 0 when the input ends cleanly.
func splitLines(data []byte) ([]string, int) {
	if len(data) == 0 {
		return nil, 0
	}
	truncated := data[len(data)-1] != '\n'
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if truncated && len(lines) > 0 {
		return lines[:len(lines)-1], len(lines)
	}
	return lines, 0
}

// HeaderName reports the section name when line is a well-formed section
// header.
func HeaderName(line string) (string, bool) {
	match := headerPattern.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	return match[1], true
}

func openSection(doc *schemacontext.Document, header string) (section, bool) {
	match := headerPattern.FindStringSubmatch(header)
	if match == nil {
		return section{}, false
	}
	name, identifier := match[1], match[2]
	kind, known := schemacontext.SectionKindOf(name)
	if !known {
		doc.Opaque = append(doc.Opaque, schemacontext.OpaqueSection{Name: name, Identifier: identifier})
		return section{name: name, opaque: len(doc.Opaque) - 1}, true
	}
	if kind == schemacontext.SectionSession {
		doc.Sessions = append(doc.Sessions, schemacontext.Session{})
	}
	if kind == schemacontext.SectionMetadata && doc.Metadata == nil {
		doc.Metadata = &schemacontext.Metadata{}
	}
	return section{name: name, known: true, kind: kind}, true
}

// decodeRecord decodes one record line into the document. It returns a
// non-empty reason when the line must be skipped or partially understood.
func decodeRecord(doc *schemacontext.Document, kind schemacontext.SectionKind, line string) string {
	switch kind {
	case schemacontext.SectionMetadata:
		return decodeMetadataLine(doc.Metadata, line)
	case schemacontext.SectionSession:
		return decodeSessionLine(&doc.Sessions[len(doc.Sessions)-1], line)
	case schemacontext.SectionConversation:
		return decodeConversation(doc, line)
	case schemacontext.SectionMemory:
		return decodeMemory(doc, line)
	case schemacontext.SectionState:
		return decodeState(doc, line)
	case schemacontext.SectionInsights:
		return decodeInsight(doc, line)
	case schemacontext.SectionDecisions:
		return decodeDecision(doc, line)
	case schemacontext.SectionWork:
		return decodeWork(doc, line)
	case schemacontext.SectionLinks:
		return decodeLink(doc, line)
	}
	return fmt.Sprintf("unhandled section kind %s", kind)
}

func splitFields(line string) ([]string, error) {
	raw := strings.Split(line, string(sanitize.Delimiter))
	fields := make([]string, len(raw))
	for i, field := range raw {
		decoded, err := sanitize.Unsanitize(field)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i+1, err)
		}
		fields[i] = decoded
	}
	return fields, nil
}

func splitKeyValue(line string) (string, string, error) {
	key, rawValue, found := strings.Cut(line, "=")
	if !found {
		return "", "", fmt.Errorf("expected key=value")
	}
	decodedKey, err := sanitize.Unsanitize(strings.TrimSpace(key))
	if err != nil {
		return "", "", fmt.Errorf("key: %w", err)
	}
	if decodedKey == "" {
		return "", "", fmt.Errorf("empty key")
	}
	decodedValue, err := sanitize.Unsanitize(rawValue)
	if err != nil {
		return "", "", fmt.Errorf("value for %q: %w", decodedKey, err)
	}
	return decodedKey, decodedValue, nil
}

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not RFC 3339", value)
	}
	return ts, nil
}

func decodeMetadataLine(meta *schemacontext.Metadata, line string) string {
	key, value, err := splitKeyValue(line)
	if err != nil {
		return fmt.Sprintf("skipped metadata line: %v", err)
	}
	switch key {
	case "version":
		meta.Version = value
	case "created":
		ts, err := parseTimestamp(value)
		if err != nil {
			return fmt.Sprintf("ignored metadata created: %v", err)
		}
		meta.CreatedAt = ts
	case "updated":
		ts, err := parseTimestamp(value)
		if err != nil {
			return fmt.Sprintf("ignored metadata updated: %v", err)
		}
		meta.UpdatedAt = ts
	default:
		if meta.Extra == nil {
			meta.Extra = make(map[string]string)
		}
		meta.Extra[key] = value
	}
	return ""
}

func decodeSessionLine(session *schemacontext.Session, line string) string {
	key, value, err := splitKeyValue(line)
	if err != nil {
		return fmt.Sprintf("skipped session line: %v", err)
	}
	switch key {
	case "id":
		session.ID = value
	case "app":
		session.App = value
	case "user":
		session.User = value
	case "created":
		ts, err := parseTimestamp(value)
		if err != nil {
			return fmt.Sprintf("ignored session created: %v", err)
		}
		session.CreatedAt = ts
	case "updated":
		ts, err := parseTimestamp(value)
		if err != nil {
			return fmt.Sprintf("ignored session updated: %v", err)
		}
		session.UpdatedAt = ts
	case "status":
		session.Status = schemacontext.SessionStatus(value)
		if !session.Status.Valid() {
			return fmt.Sprintf("unknown session status %q", value)
		}
	case "events":
		count, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Sprintf("ignored session events: %q is not an integer", value)
		}
		session.Events = count
	case "tokens":
		count, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Sprintf("ignored session tokens: %q is not an integer", value)
		}
		session.Tokens = count
	default:
		if session.Extra == nil {
			session.Extra = make(map[string]string)
		}
		session.Extra[key] = value
	}
	return ""
}

func decodeConversation(doc *schemacontext.Document, line string) string {
	fields, err := splitFields(line)
	if err != nil {
		return fmt.Sprintf("skipped conversation record: %v", err)
	}
	if len(fields) != 4 {
		return fmt.Sprintf("skipped conversation record: expected 4 fields, got %d", len(fields))
	}
	ts, err := parseTimestamp(fields[1])
	if err != nil {
		return fmt.Sprintf("skipped conversation record: %v", err)
	}
	record := schemacontext.ConversationRecord{
		ID:        fields[0],
		Timestamp: ts,
		Role:      schemacontext.Role(fields[2]),
		Content:   fields[3],
	}
	doc.Conversation = append(doc.Conversation, record)
	if !record.Role.Valid() {
		return fmt.Sprintf("unknown conversation role %q", fields[2])
	}
	return ""
}

func decodeMemory(doc *schemacontext.Document, line string) string {
	fields, err := splitFields(line)
	if err != nil {
		return fmt.Sprintf("skipped memory record: %v", err)
	}
	if len(fields) < 3 || len(fields) > 4 {
		return fmt.Sprintf("skipped memory record: expected 3 or 4 fields, got %d", len(fields))
	}
	ts, err := parseTimestamp(fields[1])
	if err != nil {
		return fmt.Sprintf("skipped memory record: %v", err)
	}
	record := schemacontext.MemoryRecord{
		Kind:      schemacontext.MemoryKind(fields[0]),
		Timestamp: ts,
		Content:   fields[2],
	}
	if len(fields) == 4 {
		record.Importance = fields[3]
	}
	doc.Memory = append(doc.Memory, record)
	if !record.Kind.Valid() {
		return fmt.Sprintf("unknown memory classification %q", fields[0])
	}
	return ""
}

func decodeState(doc *schemacontext.Document, line string) string {
	fields, err := splitFields(line)
	if err != nil {
		return fmt.Sprintf("skipped state record: %v", err)
	}
	if len(fields) < 3 || len(fields) > 5 {
		return fmt.Sprintf("skipped state record: expected 3 to 5 fields, got %d", len(fields))
	}
	record := schemacontext.StateRecord{
		Scope: schemacontext.StateScope(fields[0]),
		Key:   fields[1],
		Value: fields[2],
	}
	if len(fields) >= 4 {
		record.TypeTag = fields[3]
	}
	if len(fields) == 5 {
		record.TTL = fields[4]
	}
	doc.State = append(doc.State, record)
	if !record.Scope.Valid() {
		return fmt.Sprintf("unknown state scope %q", fields[0])
	}
	return ""
}

func decodeInsight(doc *schemacontext.Document, line string) string {
	fields, err := splitFields(line)
	if err != nil {
		return fmt.Sprintf("skipped insight record: %v", err)
	}
	if len(fields) != 4 {
		return fmt.Sprintf("skipped insight record: expected 4 fields, got %d", len(fields))
	}
	doc.Insights = append(doc.Insights, schemacontext.InsightRecord{
		Content:    fields[0],
		Category:   fields[1],
		Priority:   fields[2],
		Confidence: fields[3],
	})
	return ""
}

func decodeDecision(doc *schemacontext.Document, line string) string {
	fields, err := splitFields(line)
	if err != nil {
		return fmt.Sprintf("skipped decision record: %v", err)
	}
	if len(fields) != 2 {
		return fmt.Sprintf("skipped decision record: expected 2 fields, got %d", len(fields))
	}
	doc.Decisions = append(doc.Decisions, schemacontext.DecisionRecord{
		Decision:  fields[0],
		Rationale: fields[1],
	})
	return ""
}

func decodeWork(doc *schemacontext.Document, line string) string {
	fields, err := splitFields(line)
	if err != nil {
		return fmt.Sprintf("skipped work record: %v", err)
	}
	if len(fields) < 2 || len(fields) > 3 {
		return fmt.Sprintf("skipped work record: expected 2 or 3 fields, got %d", len(fields))
	}
	record := schemacontext.WorkRecord{
		ID:     fields[0],
		Status: schemacontext.WorkStatus(fields[1]),
	}
	if len(fields) == 3 {
		record.Description = fields[2]
	}
	doc.Work = append(doc.Work, record)
	if !record.Status.Valid() {
		return fmt.Sprintf("unknown work status %q", fields[1])
	}
	return ""
}

func decodeLink(doc *schemacontext.Document, line string) string {
	fields, err := splitFields(line)
	if err != nil {
		return fmt.Sprintf("skipped link record: %v", err)
	}
	if len(fields) != 3 {
		return fmt.Sprintf("skipped link record: expected 3 fields, got %d", len(fields))
	}
	doc.Links = append(doc.Links, schemacontext.LinkRecord{
		Type:   fields[0],
		Source: fields[1],
		Target: fields[2],
	})
	return ""
}
