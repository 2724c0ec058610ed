// Package writer is the security layer between application code and disk:
// every record is scanned for secret-shaped values, redacted or refused, then
// sanitized, compiled to one line, and appended to the target file.
package writer

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/davidahmann/ctxf/core/detect"
	"github.com/davidahmann/ctxf/core/errors"
	"github.com/davidahmann/ctxf/core/format"
	"github.com/davidahmann/ctxf/core/fsx"
	schemacontext "github.com/davidahmann/ctxf/core/schema/v1/context"
)

// FormatVersion is stamped into the metadata of documents this writer
// initializes.
const FormatVersion = "1.0"

const fileMode = 0o600

// Options configure the secure write pipeline.
type Options struct {
	// EnableSecretRedaction scans every field and masks findings before the
	// record is compiled.
	EnableSecretRedaction bool
	// ThrowOnSecrets fails the whole write instead of masking. No partial
	// write occurs.
	ThrowOnSecrets bool
	// LogRedactions appends one event per masked span to the redaction log.
	LogRedactions bool
	// Scanner overrides the default detector pattern table.
	Scanner *detect.Scanner
}

// SecretsDetectedError reports a write refused because ThrowOnSecrets is set
// and at least one field matched the detector.
type SecretsDetectedError struct {
	File   string
	Fields []string
	Types  []detect.FindingType
}

func (e *SecretsDetectedError) Error() string {
	types := make([]string, len(e.Types))
	for i, kind := range e.Types {
		types[i] = string(kind)
	}
	return fmt.Sprintf("write to %s refused: secrets detected in %s: %s",
		e.File, strings.Join(e.Fields, ", "), strings.Join(types, ", "))
}

// Writer appends typed records to context files under one directory. The
// writer holds no state about file content; only the redaction log
// accumulates across calls, and it belongs to the caller.
type Writer struct {
	dir     string
	options Options
	scanner *detect.Scanner
	log     *RedactionLog
	now     func() time.Time

	// sections caches the trailing section header per resolved path, so a
	// run of appends does not re-read the file tail every call. The format
	// assumes single-writer-per-file discipline, and a stale entry only
	// costs a redundant (still parseable) repeated header.
	sections map[string]string
}

// New builds a writer rooted at dir. A nil log disables redaction logging
// even when LogRedactions is set.
func New(dir string, options Options, log *RedactionLog) *Writer {
	scanner := options.Scanner
	if scanner == nil {
		scanner = detect.NewScanner()
	}
	return &Writer{
		dir:      dir,
		options:  options,
		scanner:  scanner,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		sections: make(map[string]string),
	}
}

var ulidMu sync.Mutex
var ulidEntropy = ulid.Monotonic(rand.Reader, 0)

// NewRecordID returns a sortable unique id for appended records.
func NewRecordID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// NewSessionID returns a unique session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// EnsureDocument initializes file with a metadata section if it does not
// exist or is empty.
func (w *Writer) EnsureDocument(file string) error {
	path, err := w.resolvePath(file)
	if err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return nil
	}
	now := w.now()
	meta := schemacontext.Metadata{Version: FormatVersion, CreatedAt: now, UpdatedAt: now}
	if err := w.appendLines(file, path, format.MetadataBlock(meta)); err != nil {
		return err
	}
	w.sections[path] = string(schemacontext.SectionMetadata)
	return nil
}

// WriteConversation appends one conversation record.
func (w *Writer) WriteConversation(file string, record schemacontext.ConversationRecord) error {
	if !record.Role.Valid() {
		return invalidInput(fmt.Errorf("conversation role %q is not one of user, assistant, system", record.Role))
	}
	if record.ID == "" {
		record.ID = NewRecordID()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = w.now()
	}
	if err := w.scrub(file, fields{
		{"id", &record.ID},
		{"content", &record.Content},
	}); err != nil {
		return err
	}
	return w.appendRecord(file, schemacontext.SectionConversation, format.ConversationLine(record))
}

// WriteMemory appends one memory record. The classification enum is closed:
// invalid kinds are rejected here, not masked into warnings.
func (w *Writer) WriteMemory(file string, record schemacontext.MemoryRecord) error {
	if !record.Kind.Valid() {
		return invalidInput(fmt.Errorf("memory classification %q is not one of episodic, semantic, procedural", record.Kind))
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = w.now()
	}
	if err := w.scrub(file, fields{
		{"content", &record.Content},
		{"importance", &record.Importance},
	}); err != nil {
		return err
	}
	return w.appendRecord(file, schemacontext.SectionMemory, format.MemoryLine(record))
}

// WriteState appends one scoped state record. Readers resolve duplicates
// last-write-wins; the writer never rewrites earlier records.
func (w *Writer) WriteState(file string, record schemacontext.StateRecord) error {
	if !record.Scope.Valid() {
		return invalidInput(fmt.Errorf("state scope %q is not one of session, user, app, temp", record.Scope))
	}
	if record.Key == "" {
		return invalidInput(fmt.Errorf("state key is required"))
	}
	if err := w.scrub(file, fields{
		{"key", &record.Key},
		{"value", &record.Value},
		{"type", &record.TypeTag},
		{"ttl", &record.TTL},
	}); err != nil {
		return err
	}
	return w.appendRecord(file, schemacontext.SectionState, format.StateLine(record))
}

// WriteInsight appends one insight record.
func (w *Writer) WriteInsight(file string, record schemacontext.InsightRecord) error {
	if record.Content == "" {
		return invalidInput(fmt.Errorf("insight content is required"))
	}
	if err := w.scrub(file, fields{
		{"content", &record.Content},
		{"category", &record.Category},
		{"priority", &record.Priority},
		{"confidence", &record.Confidence},
	}); err != nil {
		return err
	}
	return w.appendRecord(file, schemacontext.SectionInsights, format.InsightLine(record))
}

// WriteDecision appends one decision record.
func (w *Writer) WriteDecision(file string, record schemacontext.DecisionRecord) error {
	if record.Decision == "" {
		return invalidInput(fmt.Errorf("decision text is required"))
	}
	if err := w.scrub(file, fields{
		{"decision", &record.Decision},
		{"rationale", &record.Rationale},
	}); err != nil {
		return err
	}
	return w.appendRecord(file, schemacontext.SectionDecisions, format.DecisionLine(record))
}

// WriteWork appends one work record.
func (w *Writer) WriteWork(file string, record schemacontext.WorkRecord) error {
	if record.Status == "" {
		record.Status = schemacontext.WorkNotStarted
	}
	if !record.Status.Valid() {
		return invalidInput(fmt.Errorf("work status %q is not one of not_started, in_progress, completed, blocked", record.Status))
	}
	if record.ID == "" {
		record.ID = NewRecordID()
	}
	if err := w.scrub(file, fields{
		{"id", &record.ID},
		{"description", &record.Description},
	}); err != nil {
		return err
	}
	return w.appendRecord(file, schemacontext.SectionWork, format.WorkLine(record))
}

// WriteLink appends one link record.
func (w *Writer) WriteLink(file string, record schemacontext.LinkRecord) error {
	if record.Type == "" || record.Source == "" || record.Target == "" {
		return invalidInput(fmt.Errorf("link type, source, and target are required"))
	}
	if err := w.scrub(file, fields{
		{"type", &record.Type},
		{"source", &record.Source},
		{"target", &record.Target},
	}); err != nil {
		return err
	}
	return w.appendRecord(file, schemacontext.SectionLinks, format.LinkLine(record))
}

// WriteSession appends a full session block. A new block supersedes earlier
// sessions on read; nothing is rewritten in place.
func (w *Writer) WriteSession(file string, session schemacontext.Session) error {
	if session.Status == "" {
		session.Status = schemacontext.SessionActive
	}
	if !session.Status.Valid() {
		return invalidInput(fmt.Errorf("session status %q is not one of active, completed, archived", session.Status))
	}
	if session.ID == "" {
		session.ID = NewSessionID()
	}
	for key := range session.Extra {
		if err := validateExtraKey(key); err != nil {
			return invalidInput(err)
		}
	}
	now := w.now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}

	scrubbed := fields{
		{"id", &session.ID},
		{"app", &session.App},
		{"user", &session.User},
	}
	extraKeys := make([]string, 0, len(session.Extra))
	for key := range session.Extra {
		extraKeys = append(extraKeys, key)
	}
	values := make([]string, len(extraKeys))
	for i, key := range extraKeys {
		values[i] = session.Extra[key]
		scrubbed = append(scrubbed, fieldRef{name: key, value: &values[i]})
	}
	if err := w.scrub(file, scrubbed); err != nil {
		return err
	}
	for i, key := range extraKeys {
		session.Extra[key] = values[i]
	}

	path, err := w.resolvePath(file)
	if err != nil {
		return err
	}
	if err := w.appendLines(file, path, format.SessionBlock(session)); err != nil {
		return err
	}
	w.sections[path] = string(schemacontext.SectionSession)
	return nil
}

// AppendLine appends one raw, pre-formatted line after scanning it for
// secrets. The line must not contain a line terminator.
func (w *Writer) AppendLine(file string, line string) error {
	if strings.ContainsAny(line, "\n\r") {
		return invalidInput(fmt.Errorf("raw line must not contain a line terminator"))
	}
	if err := w.scrub(file, fields{{"line", &line}}); err != nil {
		return err
	}
	path, err := w.resolvePath(file)
	if err != nil {
		return err
	}
	if err := w.appendLines(file, path, []string{line}); err != nil {
		return err
	}
	if name, ok := format.HeaderName(line); ok {
		w.sections[path] = name
	}
	return nil
}

// Log returns the redaction log this writer records into, or nil.
func (w *Writer) Log() *RedactionLog {
	return w.log
}

type fieldRef struct {
	name  string
	value *string
}

type fields []fieldRef

// scrub runs the detector over every field. When ThrowOnSecrets is set, any
// finding fails the call before a single byte is written; otherwise findings
// are masked in place and logged.
func (w *Writer) scrub(file string, refs fields) error {
	if !w.options.EnableSecretRedaction && !w.options.ThrowOnSecrets {
		return nil
	}

	type hit struct {
		ref      fieldRef
		findings []detect.Finding
	}
	var hits []hit
	for _, ref := range refs {
		findings := w.scanner.Detect(*ref.value)
		if len(findings) > 0 {
			hits = append(hits, hit{ref: ref, findings: findings})
		}
	}
	if len(hits) == 0 {
		return nil
	}

	if w.options.ThrowOnSecrets {
		detected := &SecretsDetectedError{File: file}
		seen := make(map[detect.FindingType]bool)
		for _, h := range hits {
			detected.Fields = append(detected.Fields, h.ref.name)
			for _, finding := range h.findings {
				if !seen[finding.Type] {
					seen[finding.Type] = true
					detected.Types = append(detected.Types, finding.Type)
				}
			}
		}
		return errors.Wrap(detected, errors.CategorySecretsDetected, "SECRETS_DETECTED",
			"remove the secret from the record or disable throw_on_secrets", false)
	}

	for _, h := range hits {
		redacted, applied := w.scanner.Redact(*h.ref.value)
		*h.ref.value = redacted
		if w.options.LogRedactions && w.log != nil {
			for _, finding := range applied {
				w.log.record(Event{
					File:      file,
					Field:     h.ref.name,
					Type:      finding.Type,
					Masked:    finding.Masked,
					Timestamp: w.now(),
				})
			}
		}
	}
	return nil
}

func (w *Writer) appendRecord(file string, kind schemacontext.SectionKind, line string) error {
	path, err := w.resolvePath(file)
	if err != nil {
		return err
	}
	lines := make([]string, 0, 2)
	if w.trailingSection(path) != string(kind) {
		lines = append(lines, format.Header(kind))
	}
	lines = append(lines, line)
	if err := w.appendLines(file, path, lines); err != nil {
		return err
	}
	w.sections[path] = string(kind)
	return nil
}

func (w *Writer) appendLines(file, path string, lines []string) error {
	raw := make([][]byte, len(lines))
	for i, line := range lines {
		raw[i] = []byte(line)
	}
	if err := fsx.AppendLines(path, raw, fileMode); err != nil {
		return errors.Wrap(
			fmt.Errorf("append to %s: %w", file, err),
			errors.CategoryIOFailure, "WRITE_FAILED", "check directory permissions and disk space", true,
		)
	}
	return nil
}

func (w *Writer) resolvePath(file string) (string, error) {
	trimmed := strings.TrimSpace(file)
	if trimmed == "" {
		return "", invalidInput(fmt.Errorf("target file name is required"))
	}
	if w.dir == "" {
		return trimmed, nil
	}
	// A rooted writer only accepts local relative names, so a crafted file
	// argument cannot climb out of the writer's directory.
	if !filepath.IsLocal(trimmed) {
		return "", invalidInput(fmt.Errorf("target file %q must be a local relative path", trimmed))
	}
	return filepath.Join(w.dir, trimmed), nil
}

// trailingSection reports the name of the last section header currently in
// the file, or "" when the file is missing or has no header. Appends into the
// same section then skip the repeated header line. The answer is cached per
// path; the file is read at most once per writer.
func (w *Writer) trailingSection(path string) string {
	if kind, ok := w.sections[path]; ok {
		return kind
	}
	kind := scanTrailingSection(path)
	w.sections[path] = kind
	return kind
}

// scanTrailingSection reads the file and finds its last section header. An
// unterminated final line is ignored, matching the parser's truncation rule.
func scanTrailingSection(path string) string {
	// #nosec G304 -- path is resolved from validated writer inputs.
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if n := len(data); n > 0 && data[n-1] != '\n' {
		if cut := strings.LastIndexByte(string(data), '\n'); cut >= 0 {
			data = data[:cut+1]
		} else {
			return ""
		}
	}
	last := ""
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "@") {
			continue
		}
		if name, ok := format.HeaderName(strings.TrimSpace(line)); ok {
			last = name
		}
	}
	return last
}

var reservedSessionKeys = map[string]bool{
	"id":      true,
	"app":     true,
	"user":    true,
	"created": true,
	"updated": true,
	"status":  true,
	"events":  true,
	"tokens":  true,
}

// validateExtraKey rejects keys that would not survive a parse round trip:
// '=' splits at the first occurrence, surrounding whitespace is trimmed, and
// reserved keys decode into the typed session fields.
func validateExtraKey(key string) error {
	if key == "" {
		return fmt.Errorf("extra key must not be empty")
	}
	if strings.TrimSpace(key) != key {
		return fmt.Errorf("extra key %q must not have surrounding whitespace", key)
	}
	if strings.Contains(key, "=") {
		return fmt.Errorf("extra key %q must not contain '='", key)
	}
	if reservedSessionKeys[key] {
		return fmt.Errorf("extra key %q collides with a reserved session key", key)
	}
	return nil
}

func invalidInput(cause error) error {
	return errors.Wrap(cause, errors.CategoryInvalidInput, "INVALID_RECORD",
		"fix the record fields and retry", false)
}
