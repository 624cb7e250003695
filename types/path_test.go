package types

import (
	"testing"
)

func TestResourcePath(t *testing.T) {
	rooms := MustParseResourcePath("rooms")
	abc := MustParseResourcePath("rooms/abc")
	msgs := MustParseResourcePath("rooms/abc/msgs/1")

	t.Run("prefix", func(t *testing.T) {
		if !rooms.IsPrefixOf(abc) || !rooms.IsPrefixOf(msgs) || !rooms.IsPrefixOf(rooms) {
			t.Error("rooms should prefix itself and its descendants")
		}
		if abc.IsPrefixOf(rooms) {
			t.Error("longer path can't be a prefix")
		}
		if !(ResourcePath{}).IsPrefixOf(msgs) {
			t.Error("root prefixes everything")
		}
	})

	t.Run("immediate parent", func(t *testing.T) {
		if !rooms.IsImmediateParentOf(abc) {
			t.Error("rooms is the parent of rooms/abc")
		}
		if rooms.IsImmediateParentOf(msgs) || rooms.IsImmediateParentOf(rooms) {
			t.Error("only direct children count")
		}
	})

	t.Run("append and pop", func(t *testing.T) {
		p := abc.Append("msgs", "1")
		if !p.Equal(msgs) {
			t.Errorf("Append() = %s, want %s", p, msgs)
		}
		if !msgs.PopLast().PopLast().Equal(abc) {
			t.Error("PopLast twice should return rooms/abc")
		}
		// appending to a popped path must not clobber the original
		_ = msgs.PopLast().Append("x")
		if msgs.LastSegment() != "1" {
			t.Errorf("original path changed: %s", msgs)
		}
	})

	t.Run("compare", func(t *testing.T) {
		if rooms.Compare(abc) >= 0 || abc.Compare(rooms) <= 0 || abc.Compare(abc) != 0 {
			t.Error("shorter prefix should sort first")
		}
		if MustParseResourcePath("a/b").Compare(MustParseResourcePath("a/c")) >= 0 {
			t.Error("a/b should sort before a/c")
		}
	})

	t.Run("parse errors", func(t *testing.T) {
		if _, err := ParseResourcePath("rooms//abc"); err == nil {
			t.Error("expected error for empty segment")
		}
		p, err := ParseResourcePath("/rooms/abc/")
		if err != nil || p.Len() != 2 {
			t.Errorf("leading and trailing slashes should be trimmed: %v %v", p, err)
		}
	})
}

func TestDocumentKey(t *testing.T) {
	k := MustParseDocumentKey("rooms/abc/msgs/1")
	if k.ID() != "1" {
		t.Errorf("ID() = %s", k.ID())
	}
	if k.CollectionGroup() != "msgs" || !k.HasCollectionGroup("msgs") || k.HasCollectionGroup("rooms") {
		t.Errorf("collection group of %s", k)
	}
	if _, err := ParseDocumentKey("rooms"); err == nil {
		t.Error("odd segment count is not a document")
	}
	if IsDocumentKey(ResourcePath{}) {
		t.Error("root is not a document")
	}
}

func TestFieldPath(t *testing.T) {
	tests := []struct {
		field FieldPath
		want  string
	}{
		{MustParseFieldPath("a"), "a"},
		{MustParseFieldPath("a.b_c.d1"), "a.b_c.d1"},
		{NewFieldPath("has space"), "`has space`"},
		{NewFieldPath("1st"), "`1st`"},
		{NewFieldPath("tick`"), "`tick\\``"},
		{KeyFieldPath(), "__name__"},
	}
	for _, tt := range tests {
		if got := tt.field.CanonicalString(); got != tt.want {
			t.Errorf("CanonicalString() = %q, want %q", got, tt.want)
		}
	}

	if !KeyFieldPath().IsKeyFieldPath() || MustParseFieldPath("name").IsKeyFieldPath() {
		t.Error("key sentinel detection")
	}
	if !MustParseFieldPath("__name__").Equal(KeyFieldPath()) {
		t.Error("parsed __name__ is the key field")
	}
	if _, err := ParseFieldPath("a..b"); err == nil {
		t.Error("expected error for empty segment")
	}
}
