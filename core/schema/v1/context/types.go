// Package context defines the typed records of the context format: one struct
// per section kind plus the Document aggregate a parse returns.
package context

import "time"

// SectionKind is the closed set of section names the format defines. Unknown
// names round-trip through OpaqueSection instead of extending this set.
type SectionKind string

const (
	SectionMetadata     SectionKind = "METADATA"
	SectionSession      SectionKind = "SESSION"
	SectionConversation SectionKind = "CONVERSATION"
	SectionMemory       SectionKind = "MEMORY"
	SectionState        SectionKind = "STATE"
	SectionInsights     SectionKind = "INSIGHTS"
	SectionDecisions    SectionKind = "DECISIONS"
	SectionWork         SectionKind = "WORK"
	SectionLinks        SectionKind = "LINKS"
)

// CanonicalSectionOrder is the order the compiler emits sections in.
func CanonicalSectionOrder() []SectionKind {
	return []SectionKind{
		SectionMetadata,
		SectionSession,
		SectionConversation,
		SectionMemory,
		SectionState,
		SectionInsights,
		SectionDecisions,
		SectionWork,
		SectionLinks,
	}
}

// SectionKindOf resolves a header name to a known section kind.
func SectionKindOf(name string) (SectionKind, bool) {
	switch SectionKind(name) {
	case SectionMetadata, SectionSession, SectionConversation, SectionMemory,
		SectionState, SectionInsights, SectionDecisions, SectionWork, SectionLinks:
		return SectionKind(name), true
	}
	return "", false
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

type MemoryKind string

const (
	MemoryEpisodic   MemoryKind = "episodic"
	MemorySemantic   MemoryKind = "semantic"
	MemoryProcedural MemoryKind = "procedural"
)

func (k MemoryKind) Valid() bool {
	return k == MemoryEpisodic || k == MemorySemantic || k == MemoryProcedural
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionArchived  SessionStatus = "archived"
)

func (s SessionStatus) Valid() bool {
	return s == SessionActive || s == SessionCompleted || s == SessionArchived
}

type StateScope string

const (
	ScopeSession StateScope = "session"
	ScopeUser    StateScope = "user"
	ScopeApp     StateScope = "app"
	ScopeTemp    StateScope = "temp"
)

func (s StateScope) Valid() bool {
	return s == ScopeSession || s == ScopeUser || s == ScopeApp || s == ScopeTemp
}

type WorkStatus string

const (
	WorkNotStarted WorkStatus = "not_started"
	WorkInProgress WorkStatus = "in_progress"
	WorkCompleted  WorkStatus = "completed"
	WorkBlocked    WorkStatus = "blocked"
)

func (s WorkStatus) Valid() bool {
	return s == WorkNotStarted || s == WorkInProgress || s == WorkCompleted || s == WorkBlocked
}

// Metadata holds document-level key=value pairs. Later appended values shadow
// earlier ones on read.
type Metadata struct {
	Version   string            `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Session describes one owning session. Superseded sessions stay in the log;
// the last one parsed is current.
type Session struct {
	ID        string            `json:"id"`
	App       string            `json:"app"`
	User      string            `json:"user"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Status    SessionStatus     `json:"status"`
	Events    int               `json:"events"`
	Tokens    int               `json:"tokens"`
	Extra     map[string]string `json:"extra,omitempty"`
}

type ConversationRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
}

type MemoryRecord struct {
	Kind       MemoryKind `json:"kind"`
	Timestamp  time.Time  `json:"timestamp"`
	Content    string     `json:"content"`
	Importance string     `json:"importance,omitempty"`
}

// StateRecord is one scoped key/value entry. TTL is carried opaquely as a
// duration string and never enforced by reads.
type StateRecord struct {
	Scope   StateScope `json:"scope"`
	Key     string     `json:"key"`
	Value   string     `json:"value"`
	TypeTag string     `json:"type_tag,omitempty"`
	TTL     string     `json:"ttl,omitempty"`
}

type InsightRecord struct {
	Content    string `json:"content"`
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	Confidence string `json:"confidence"`
}

type DecisionRecord struct {
	Decision  string `json:"decision"`
	Rationale string `json:"rationale"`
}

type WorkRecord struct {
	ID          string     `json:"id"`
	Status      WorkStatus `json:"status"`
	Description string     `json:"description,omitempty"`
}

type LinkRecord struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// OpaqueSection preserves a section with an unknown name byte-for-byte so
// hand-extended documents survive a parse/compile round trip.
type OpaqueSection struct {
	Name       string   `json:"name"`
	Identifier string   `json:"identifier,omitempty"`
	Lines      []string `json:"lines"`
}

// Warning records a per-line decode problem the parser recovered from.
type Warning struct {
	Line    int    `json:"line"`
	Section string `json:"section,omitempty"`
	Reason  string `json:"reason"`
}

// Document is the parsed form of one context file.
type Document struct {
	Metadata     *Metadata            `json:"metadata,omitempty"`
	Sessions     []Session            `json:"sessions,omitempty"`
	Conversation []ConversationRecord `json:"conversation,omitempty"`
	Memory       []MemoryRecord       `json:"memory,omitempty"`
	State        []StateRecord        `json:"state,omitempty"`
	Insights     []InsightRecord      `json:"insights,omitempty"`
	Decisions    []DecisionRecord     `json:"decisions,omitempty"`
	Work         []WorkRecord         `json:"work,omitempty"`
	Links        []LinkRecord         `json:"links,omitempty"`
	Opaque       []OpaqueSection      `json:"opaque,omitempty"`
	Warnings     []Warning            `json:"warnings,omitempty"`
}

// CurrentSession returns the last session in document order, or nil.
func (d *Document) CurrentSession() *Session {
	if len(d.Sessions) == 0 {
		return nil
	}
	return &d.Sessions[len(d.Sessions)-1]
}

// StateValue resolves scope+key with last-write-wins semantics.
func (d *Document) StateValue(scope StateScope, key string) (string, bool) {
	for i := len(d.State) - 1; i >= 0; i-- {
		if d.State[i].Scope == scope && d.State[i].Key == key {
			return d.State[i].Value, true
		}
	}
	return "", false
}

// ResolvedState returns one record per scope+key, keeping the last write for
// each and preserving the document order of those surviving records.
func (d *Document) ResolvedState() []StateRecord {
	last := make(map[string]int, len(d.State))
	for i, record := range d.State {
		last[string(record.Scope)+"\x00"+record.Key] = i
	}
	resolved := make([]StateRecord, 0, len(last))
	for i, record := range d.State {
		if last[string(record.Scope)+"\x00"+record.Key] == i {
			resolved = append(resolved, record)
		}
	}
	return resolved
}
