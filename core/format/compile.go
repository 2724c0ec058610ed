package format

import (
	"bytes"
	"sort"
	"strconv"
	"time"

	"github.com/davidahmann/ctxf/core/sanitize"
	schemacontext "github.com/davidahmann/ctxf/core/schema/v1/context"
)

// Compile renders a document in canonical form: fixed section order, stable
// field order per record kind, blank line between sections, empty sections
// omitted. The same document always compiles to byte-identical output, and
// every field value passes through the sanitizer, so no record can break the
// line grammar.
func Compile(doc *schemacontext.Document) []byte {
	var blocks [][]string
	for _, kind := range schemacontext.CanonicalSectionOrder() {
		blocks = append(blocks, compileSection(doc, kind)...)
	}
	for _, opaque := range doc.Opaque {
		blocks = append(blocks, opaqueBlock(opaque))
	}

	var out bytes.Buffer
	for i, block := range blocks {
		if i > 0 {
			out.WriteByte('\n')
		}
		for _, line := range block {
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return out.Bytes()
}

func compileSection(doc *schemacontext.Document, kind schemacontext.SectionKind) [][]string {
	switch kind {
	case schemacontext.SectionMetadata:
		if doc.Metadata == nil {
			return nil
		}
		return [][]string{MetadataBlock(*doc.Metadata)}
	case schemacontext.SectionSession:
		blocks := make([][]string, 0, len(doc.Sessions))
		for _, session := range doc.Sessions {
			blocks = append(blocks, SessionBlock(session))
		}
		return blocks
	case schemacontext.SectionConversation:
		return tabularBlock(kind, doc.Conversation, ConversationLine)
	case schemacontext.SectionMemory:
		return tabularBlock(kind, doc.Memory, MemoryLine)
	case schemacontext.SectionState:
		return tabularBlock(kind, doc.State, StateLine)
	case schemacontext.SectionInsights:
		return tabularBlock(kind, doc.Insights, InsightLine)
	case schemacontext.SectionDecisions:
		return tabularBlock(kind, doc.Decisions, DecisionLine)
	case schemacontext.SectionWork:
		return tabularBlock(kind, doc.Work, WorkLine)
	case schemacontext.SectionLinks:
		return tabularBlock(kind, doc.Links, LinkLine)
	}
	return nil
}

func tabularBlock[T any](kind schemacontext.SectionKind, records []T, render func(T) string) [][]string {
	if len(records) == 0 {
		return nil
	}
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, Header(kind))
	for _, record := range records {
		lines = append(lines, render(record))
	}
	return [][]string{lines}
}

// Header renders the canonical section header line for a kind.
func Header(kind schemacontext.SectionKind) string {
	return "@" + string(kind) + ":"
}

func opaqueBlock(section schemacontext.OpaqueSection) []string {
	lines := make([]string, 0, len(section.Lines)+1)
	lines = append(lines, "@"+section.Name+":"+section.Identifier)
	lines = append(lines, section.Lines...)
	return lines
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func keyValueLine(key, value string) string {
	return sanitize.Sanitize(key) + "=" + sanitize.Sanitize(value)
}

func sortedExtraLines(extra map[string]string) []string {
	if len(extra) == 0 {
		return nil
	}
	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, keyValueLine(key, extra[key]))
	}
	return lines
}

// MetadataBlock renders the @METADATA section for one metadata record.
func MetadataBlock(meta schemacontext.Metadata) []string {
	lines := []string{Header(schemacontext.SectionMetadata)}
	if meta.Version != "" {
		lines = append(lines, keyValueLine("version", meta.Version))
	}
	if !meta.CreatedAt.IsZero() {
		lines = append(lines, keyValueLine("created", formatTimestamp(meta.CreatedAt)))
	}
	if !meta.UpdatedAt.IsZero() {
		lines = append(lines, keyValueLine("updated", formatTimestamp(meta.UpdatedAt)))
	}
	return append(lines, sortedExtraLines(meta.Extra)...)
}

// SessionBlock renders one @SESSION section. Event and token counters are
// always emitted so appended counter updates stay diffable.
func SessionBlock(session schemacontext.Session) []string {
	lines := []string{Header(schemacontext.SectionSession)}
	if session.ID != "" {
		lines = append(lines, keyValueLine("id", session.ID))
	}
	if session.App != "" {
		lines = append(lines, keyValueLine("app", session.App))
	}
	if session.User != "" {
		lines = append(lines, keyValueLine("user", session.User))
	}
	if !session.CreatedAt.IsZero() {
		lines = append(lines, keyValueLine("created", formatTimestamp(session.CreatedAt)))
	}
	if !session.UpdatedAt.IsZero() {
		lines = append(lines, keyValueLine("updated", formatTimestamp(session.UpdatedAt)))
	}
	if session.Status != "" {
		lines = append(lines, keyValueLine("status", string(session.Status)))
	}
	lines = append(lines, keyValueLine("events", strconv.Itoa(session.Events)))
	lines = append(lines, keyValueLine("tokens", strconv.Itoa(session.Tokens)))
	return append(lines, sortedExtraLines(session.Extra)...)
}

func joinFields(fields ...string) string {
	var out bytes.Buffer
	for i, field := range fields {
		if i > 0 {
			out.WriteByte(sanitize.Delimiter)
		}
		out.WriteString(sanitize.Sanitize(field))
	}
	return out.String()
}

// ConversationLine renders one conversation record line.
func ConversationLine(record schemacontext.ConversationRecord) string {
	return joinFields(record.ID, formatTimestamp(record.Timestamp), string(record.Role), record.Content)
}

// MemoryLine renders one memory record line; the importance field is emitted
// only when set.
func MemoryLine(record schemacontext.MemoryRecord) string {
	fields := []string{string(record.Kind), formatTimestamp(record.Timestamp), record.Content}
	if record.Importance != "" {
		fields = append(fields, record.Importance)
	}
	return joinFields(fields...)
}

// StateLine renders one state record line. The TTL field forces the type tag
// position to be emitted even when empty.
func StateLine(record schemacontext.StateRecord) string {
	fields := []string{string(record.Scope), record.Key, record.Value}
	if record.TTL != "" {
		fields = append(fields, record.TypeTag, record.TTL)
	} else if record.TypeTag != "" {
		fields = append(fields, record.TypeTag)
	}
	return joinFields(fields...)
}

// InsightLine renders one insight record line.
func InsightLine(record schemacontext.InsightRecord) string {
	return joinFields(record.Content, record.Category, record.Priority, record.Confidence)
}

// DecisionLine renders one decision record line.
func DecisionLine(record schemacontext.DecisionRecord) string {
	return joinFields(record.Decision, record.Rationale)
}

// WorkLine renders one work record line; the description is emitted only when
// set.
func WorkLine(record schemacontext.WorkRecord) string {
	fields := []string{record.ID, string(record.Status)}
	if record.Description != "" {
		fields = append(fields, record.Description)
	}
	return joinFields(fields...)
}

// LinkLine renders one link record line.
func LinkLine(record schemacontext.LinkRecord) string {
	return joinFields(record.Type, record.Source, record.Target)
}
