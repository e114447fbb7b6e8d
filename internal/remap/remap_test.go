package remap

import (
	"errors"
	"testing"
)

func TestRoomIDs_PutGet(t *testing.T) {
	m := New()
	pairs := map[int64]int64{1: 101, 2: 102, 7: 250}
	for old, nw := range pairs {
		if err := m.Put(old, nw); err != nil {
			t.Fatalf("Put(%d, %d): %v", old, nw, err)
		}
	}
	if m.Len() != len(pairs) {
		t.Errorf("Len() = %d, want %d", m.Len(), len(pairs))
	}
	for old, want := range pairs {
		got, ok := m.Get(old)
		if !ok || got != want {
			t.Errorf("Get(%d) = %d, %v; want %d, true", old, got, ok, want)
		}
	}
	if _, ok := m.Get(99); ok {
		t.Error("Get of unmapped id should report false")
	}
}

func TestRoomIDs_RejectsDuplicates(t *testing.T) {
	m := New()
	if err := m.Put(1, 10); err != nil {
		t.Fatal(err)
	}
	if err := m.Put(1, 11); err == nil {
		t.Error("expected error for duplicate source id")
	}
	if err := m.Put(2, 10); err == nil {
		t.Error("expected error for duplicate destination id")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestRoomIDs_Seal(t *testing.T) {
	m := New()
	_ = m.Put(1, 10)
	m.Seal()
	if !m.Sealed() {
		t.Error("expected sealed")
	}
	if err := m.Put(2, 20); !errors.Is(err, ErrSealed) {
		t.Errorf("expected ErrSealed, got %v", err)
	}
	if id, ok := m.Get(1); !ok || id != 10 {
		t.Error("sealed map should still answer Get")
	}
}
