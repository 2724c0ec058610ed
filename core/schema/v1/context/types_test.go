package context

import (
	"testing"
	"time"
)

func TestSectionKindOf(t *testing.T) {
	if kind, ok := SectionKindOf("CONVERSATION"); !ok || kind != SectionConversation {
		t.Fatalf("unexpected resolution: %s %v", kind, ok)
	}
	if _, ok := SectionKindOf("CUSTOM"); ok {
		t.Fatal("expected unknown section name to be rejected")
	}
	if _, ok := SectionKindOf("conversation"); ok {
		t.Fatal("section names are case-sensitive")
	}
}

func TestEnumValidity(t *testing.T) {
	if !RoleAssistant.Valid() || Role("moderator").Valid() {
		t.Fatal("role validity mismatch")
	}
	if !MemoryProcedural.Valid() || MemoryKind("emotional").Valid() {
		t.Fatal("memory kind validity mismatch")
	}
	if !SessionArchived.Valid() || SessionStatus("paused").Valid() {
		t.Fatal("session status validity mismatch")
	}
	if !ScopeTemp.Valid() || StateScope("global").Valid() {
		t.Fatal("state scope validity mismatch")
	}
	if !WorkBlocked.Valid() || WorkStatus("cancelled").Valid() {
		t.Fatal("work status validity mismatch")
	}
}

func TestCurrentSessionIsLast(t *testing.T) {
	doc := &Document{}
	if doc.CurrentSession() != nil {
		t.Fatal("expected nil current session for empty document")
	}
	doc.Sessions = []Session{
		{ID: "s1", Status: SessionCompleted},
		{ID: "s2", Status: SessionActive},
	}
	current := doc.CurrentSession()
	if current == nil || current.ID != "s2" {
		t.Fatalf("unexpected current session: %+v", current)
	}
}

func TestStateValueLastWriteWins(t *testing.T) {
	doc := &Document{State: []StateRecord{
		{Scope: ScopeUser, Key: "lang", Value: "en"},
		{Scope: ScopeApp, Key: "lang", Value: "fr"},
		{Scope: ScopeUser, Key: "lang", Value: "de"},
	}}
	value, ok := doc.StateValue(ScopeUser, "lang")
	if !ok || value != "de" {
		t.Fatalf("unexpected resolution: %q %v", value, ok)
	}
	value, ok = doc.StateValue(ScopeApp, "lang")
	if !ok || value != "fr" {
		t.Fatalf("scope leak: %q %v", value, ok)
	}
	if _, ok := doc.StateValue(ScopeTemp, "lang"); ok {
		t.Fatal("expected miss for unused scope")
	}
}

func TestResolvedStateDeduplicates(t *testing.T) {
	doc := &Document{State: []StateRecord{
		{Scope: ScopeUser, Key: "lang", Value: "en"},
		{Scope: ScopeUser, Key: "theme", Value: "dark"},
		{Scope: ScopeUser, Key: "lang", Value: "de"},
	}}
	resolved := doc.ResolvedState()
	if len(resolved) != 2 {
		t.Fatalf("unexpected resolved length: %d", len(resolved))
	}
	if resolved[0].Key != "theme" || resolved[1].Key != "lang" || resolved[1].Value != "de" {
		t.Fatalf("unexpected resolved records: %+v", resolved)
	}
}

func TestMetadataTimestampsRoundTripUTC(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	meta := Metadata{Version: "1.0", CreatedAt: created, UpdatedAt: created}
	if !meta.CreatedAt.Equal(created) {
		t.Fatal("timestamp mutated")
	}
}
