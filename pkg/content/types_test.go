package content

import "testing"

func TestMemoryHashStableForIdenticalInput(t *testing.T) {
	m1 := NewMemory("e1", "a1", "r1", Content{Text: "hello"})
	m2 := NewMemory("e1", "a1", "r1", Content{Text: "hello"})
	if m1.Hash() != m2.Hash() {
		t.Fatalf("expected identical hash for identical (text, entity, room)")
	}
}

func TestMemoryHashDiffersOnRoom(t *testing.T) {
	m1 := NewMemory("e1", "a1", "r1", Content{Text: "hello"})
	m2 := NewMemory("e1", "a1", "r2", Content{Text: "hello"})
	if m1.Hash() == m2.Hash() {
		t.Fatalf("expected different hash for different room")
	}
}

func TestEntityCanonicalName(t *testing.T) {
	e := &Entity{Names: []string{"Ada", "ada_lovelace"}}
	if e.CanonicalName() != "Ada" {
		t.Fatalf("expected first name to be canonical, got %q", e.CanonicalName())
	}
	empty := &Entity{}
	if empty.CanonicalName() != "" {
		t.Fatalf("expected empty canonical name for entity with no names")
	}
}

func TestTaskRecurringAndChoice(t *testing.T) {
	recurring := &Task{Metadata: &TaskMetadata{UpdateIntervalMs: 1000}}
	if !recurring.IsRecurring() || recurring.IsChoice() {
		t.Fatalf("expected recurring task to be recurring only")
	}

	choice := &Task{Metadata: &TaskMetadata{Options: []TaskOption{{Name: "yes"}, {Name: "no"}}}}
	if choice.IsRecurring() || !choice.IsChoice() {
		t.Fatalf("expected choice task to be choice only")
	}
}
