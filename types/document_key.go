package types

import "fmt"

// DocumentKey identifies a document by its full path. The path always has an
// even number of segments.
type DocumentKey struct {
	path ResourcePath
}

// IsDocumentKey reports whether path names a document rather than a collection
func IsDocumentKey(path ResourcePath) bool {
	return path.Len() > 0 && path.Len()%2 == 0
}

// NewDocumentKey validates path and wraps it as a key
func NewDocumentKey(path ResourcePath) (DocumentKey, error) {
	if !IsDocumentKey(path) {
		return DocumentKey{}, fmt.Errorf("invalid document key %q: path must have an even, non-zero number of segments", path)
	}
	return DocumentKey{path: path}, nil
}

// ParseDocumentKey parses a slash-separated document path
func ParseDocumentKey(path string) (DocumentKey, error) {
	p, err := ParseResourcePath(path)
	if err != nil {
		return DocumentKey{}, err
	}
	return NewDocumentKey(p)
}

// MustParseDocumentKey is ParseDocumentKey for literals known to be valid.
func MustParseDocumentKey(path string) DocumentKey {
	k, err := ParseDocumentKey(path)
	if err != nil {
		panic(err)
	}
	return k
}

// Path returns the full document path
func (k DocumentKey) Path() ResourcePath { return k.path }

// ID returns the last path segment
func (k DocumentKey) ID() string { return k.path.LastSegment() }

// CollectionPath returns the path of the collection holding the document
func (k DocumentKey) CollectionPath() ResourcePath { return k.path.PopLast() }

// CollectionGroup returns the id of the immediate parent collection
func (k DocumentKey) CollectionGroup() string {
	return k.path.PopLast().LastSegment()
}

// HasCollectionGroup reports whether the document lives directly in a
// collection named group, at any depth.
func (k DocumentKey) HasCollectionGroup(group string) bool {
	return k.path.Len() >= 2 && k.path.Segment(k.path.Len()-2) == group
}

// Equal compares key paths
func (k DocumentKey) Equal(other DocumentKey) bool { return k.path.Equal(other.path) }

// Compare orders keys by path
func (k DocumentKey) Compare(other DocumentKey) int { return k.path.Compare(other.path) }

// String implements fmt.Stringer
func (k DocumentKey) String() string { return k.path.CanonicalString() }
