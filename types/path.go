package types

import (
	"fmt"
	"slices"
	"strings"
)

// ResourcePath is an immutable slash-separated path into the document tree,
// e.g. "rooms/abc/messages". Collections sit at odd segment counts and
// documents at even ones.
type ResourcePath struct {
	segments []string
}

// NewResourcePath creates a path from already split segments.
func NewResourcePath(segments ...string) ResourcePath {
	return ResourcePath{segments: slices.Clone(segments)}
}

// ParseResourcePath splits a slash-separated path. Empty segments are
// rejected so "rooms//abc" can't silently collapse.
func ParseResourcePath(path string) (ResourcePath, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return ResourcePath{}, nil
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			return ResourcePath{}, fmt.Errorf("invalid path %q: empty segment at position %d", path, i)
		}
	}
	return ResourcePath{segments: parts}, nil
}

// MustParseResourcePath is ParseResourcePath for literals known to be valid.
func MustParseResourcePath(path string) ResourcePath {
	p, err := ParseResourcePath(path)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of segments
func (p ResourcePath) Len() int { return len(p.segments) }

// Empty reports whether the path is the root path
func (p ResourcePath) Empty() bool { return len(p.segments) == 0 }

// Segment returns the i-th segment
func (p ResourcePath) Segment(i int) string { return p.segments[i] }

// Segments returns a copy of the segments
func (p ResourcePath) Segments() []string { return slices.Clone(p.segments) }

// LastSegment returns the final segment, or "" for the root path
func (p ResourcePath) LastSegment() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Append returns a new path with the given segments added
func (p ResourcePath) Append(segments ...string) ResourcePath {
	out := make([]string, 0, len(p.segments)+len(segments))
	out = append(out, p.segments...)
	out = append(out, segments...)
	return ResourcePath{segments: out}
}

// PopLast returns the parent path. The root path is its own parent.
func (p ResourcePath) PopLast() ResourcePath {
	if len(p.segments) == 0 {
		return p
	}
	return ResourcePath{segments: p.segments[:len(p.segments)-1 : len(p.segments)-1]}
}

// IsPrefixOf reports whether p is equal to or an ancestor of other
func (p ResourcePath) IsPrefixOf(other ResourcePath) bool {
	if len(p.segments) > len(other.segments) {
		return false
	}
	for i, s := range p.segments {
		if other.segments[i] != s {
			return false
		}
	}
	return true
}

// IsImmediateParentOf reports whether other is exactly one segment below p
func (p ResourcePath) IsImmediateParentOf(other ResourcePath) bool {
	return len(p.segments)+1 == len(other.segments) && p.IsPrefixOf(other)
}

// Equal reports segment-wise equality
func (p ResourcePath) Equal(other ResourcePath) bool {
	return slices.Equal(p.segments, other.segments)
}

// Compare orders paths segment by segment, shorter prefixes first
func (p ResourcePath) Compare(other ResourcePath) int {
	return slices.Compare(p.segments, other.segments)
}

// CanonicalString returns the slash-joined path
func (p ResourcePath) CanonicalString() string {
	return strings.Join(p.segments, "/")
}

// String implements fmt.Stringer
func (p ResourcePath) String() string {
	return p.CanonicalString()
}
