package types

import (
	"fmt"
	"slices"
	"strings"
)

// KeyFieldName is the reserved field name that refers to a document's own key
const KeyFieldName = "__name__"

// FieldPath addresses a (possibly nested) field inside a document's data,
// e.g. "author.name". The single segment "__name__" is the key sentinel.
type FieldPath struct {
	segments []string
}

// NewFieldPath creates a field path from segments
func NewFieldPath(segments ...string) FieldPath {
	return FieldPath{segments: slices.Clone(segments)}
}

// KeyFieldPath returns the sentinel path that orders and filters by document key
func KeyFieldPath() FieldPath {
	return FieldPath{segments: []string{KeyFieldName}}
}

// ParseFieldPath splits a dot-separated server format path. Backtick quoting
// is not supported here; use NewFieldPath for segments containing dots.
func ParseFieldPath(path string) (FieldPath, error) {
	if path == "" {
		return FieldPath{}, fmt.Errorf("invalid field path: empty")
	}
	parts := strings.Split(path, ".")
	for i, p := range parts {
		if p == "" {
			return FieldPath{}, fmt.Errorf("invalid field path %q: empty segment at position %d", path, i)
		}
	}
	return FieldPath{segments: parts}, nil
}

// MustParseFieldPath is ParseFieldPath for literals known to be valid.
func MustParseFieldPath(path string) FieldPath {
	f, err := ParseFieldPath(path)
	if err != nil {
		panic(err)
	}
	return f
}

// Len returns the number of segments
func (f FieldPath) Len() int { return len(f.segments) }

// Segment returns the i-th segment
func (f FieldPath) Segment(i int) string { return f.segments[i] }

// Segments returns a copy of the segments
func (f FieldPath) Segments() []string { return slices.Clone(f.segments) }

// IsKeyFieldPath reports whether f is the key sentinel
func (f FieldPath) IsKeyFieldPath() bool {
	return len(f.segments) == 1 && f.segments[0] == KeyFieldName
}

// Equal reports segment-wise equality
func (f FieldPath) Equal(other FieldPath) bool {
	return slices.Equal(f.segments, other.segments)
}

// CanonicalString returns the dotted form, quoting segments that aren't
// simple identifiers with backticks.
func (f FieldPath) CanonicalString() string {
	parts := make([]string, len(f.segments))
	for i, s := range f.segments {
		if isSimpleIdentifier(s) {
			parts[i] = s
			continue
		}
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, "`", "\\`")
		parts[i] = "`" + s + "`"
	}
	return strings.Join(parts, ".")
}

// String implements fmt.Stringer
func (f FieldPath) String() string {
	return f.CanonicalString()
}

func isSimpleIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
