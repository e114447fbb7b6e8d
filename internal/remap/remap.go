// Package remap tracks how source room ids translate to destination room ids
// during a single file's migration.
package remap

import (
	"errors"
	"fmt"
)

// ErrSealed is returned by Put once the room step has finished.
var ErrSealed = errors.New("room id map is sealed")

// RoomIDs maps source room ids onto destination room ids. Every source id
// and every destination id appears at most once.
type RoomIDs struct {
	forward map[int64]int64
	taken   map[int64]int64
	sealed  bool
}

// New creates an empty map.
func New() *RoomIDs {
	return &RoomIDs{
		forward: make(map[int64]int64),
		taken:   make(map[int64]int64),
	}
}

// Put records that the source room oldID was stored as newID.
func (m *RoomIDs) Put(oldID, newID int64) error {
	if m.sealed {
		return ErrSealed
	}
	if prev, ok := m.forward[oldID]; ok {
		return fmt.Errorf("source room %d already mapped to %d", oldID, prev)
	}
	if prev, ok := m.taken[newID]; ok {
		return fmt.Errorf("destination room %d already assigned to source room %d", newID, prev)
	}
	m.forward[oldID] = newID
	m.taken[newID] = oldID
	return nil
}

// Get returns the destination id for a source room id.
func (m *RoomIDs) Get(oldID int64) (int64, bool) {
	id, ok := m.forward[oldID]
	return id, ok
}

// Len returns the number of mapped rooms.
func (m *RoomIDs) Len() int {
	return len(m.forward)
}

// Seal freezes the map.
func (m *RoomIDs) Seal() {
	m.sealed = true
}

// Sealed reports whether Seal has been called.
func (m *RoomIDs) Sealed() bool {
	return m.sealed
}
