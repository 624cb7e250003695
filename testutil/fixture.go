// Package testutil provides the shared document fixture and assertion
// helpers used by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/arthur-debert/nanoquery/nanoquery/store"
	"github.com/arthur-debert/nanoquery/types"
)

// UniverseData provides typed access to the fixture documents
type UniverseData struct {
	// Rooms, by unread count
	Ares   types.Document // unread 0
	Eros   types.Document // unread 3, has messages
	Hermes types.Document // unread 7, has messages
	Hestia types.Document // unread 3.5, null owner
	Zeus   types.Document // no unread field

	// Tombstone for a deleted room
	Gone types.Document

	// Messages across two rooms plus one outside rooms
	M0, M1, M2, M3 types.Document

	Ana, Ben types.Document

	// All documents, tombstones included, keyed by path
	ByPath map[string]types.Document
}

// FixturePath returns the absolute path of the universe fixture
func FixturePath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata", "universe.yaml")
}

// LoadUniverse opens a copy of the fixture so tests can modify and save it
func LoadUniverse(t *testing.T) (*store.Store, *UniverseData) {
	t.Helper()

	data, err := os.ReadFile(FixturePath())
	if err != nil {
		t.Fatalf("failed to read fixture file: %v", err)
	}
	path := filepath.Join(t.TempDir(), "universe.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("failed to open fixture: %v", err)
	}

	universe := &UniverseData{ByPath: make(map[string]types.Document)}
	for _, doc := range s.Documents() {
		universe.ByPath[doc.Key().String()] = doc
	}

	named := map[string]*types.Document{
		"rooms/ares":               &universe.Ares,
		"rooms/eros":               &universe.Eros,
		"rooms/hermes":             &universe.Hermes,
		"rooms/hestia":             &universe.Hestia,
		"rooms/zeus":               &universe.Zeus,
		"rooms/gone":               &universe.Gone,
		"archive/2023/messages/m0": &universe.M0,
		"rooms/eros/messages/m1":   &universe.M1,
		"rooms/eros/messages/m2":   &universe.M2,
		"rooms/hermes/messages/m3": &universe.M3,
		"users/ana":                &universe.Ana,
		"users/ben":                &universe.Ben,
	}
	for path, field := range named {
		doc, ok := universe.ByPath[path]
		if !ok {
			t.Fatalf("fixture is missing %s", path)
		}
		*field = doc
	}

	return s, universe
}

// Documents returns every fixture document in key order
func (u *UniverseData) Documents() []types.Document {
	out := make([]types.Document, 0, len(u.ByPath))
	for _, doc := range u.ByPath {
		out = append(out, doc)
	}
	SortByKey(out)
	return out
}

// Existing returns the fixture documents that are not tombstones
func (u *UniverseData) Existing() []types.Document {
	var out []types.Document
	for _, doc := range u.Documents() {
		if doc.Exists() {
			out = append(out, doc)
		}
	}
	return out
}
