package testutil

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanoquery/types"
)

// Keys returns the document paths in order
func Keys(docs []types.Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.Key().String()
	}
	return out
}

// SortByKey sorts docs by document key
func SortByKey(docs []types.Document) {
	slices.SortFunc(docs, func(a, b types.Document) int {
		return a.Key().Compare(b.Key())
	})
}

// AssertKeys checks that docs hold exactly the given paths, in order
func AssertKeys(t *testing.T, docs []types.Document, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	if diff := cmp.Diff(want, Keys(docs)); diff != "" {
		t.Errorf("document keys mismatch (-want +got):\n%s", diff)
	}
}

// AssertDocumentCount checks that the slice contains the expected number of documents
func AssertDocumentCount(t *testing.T, docs []types.Document, expected int, context ...string) {
	t.Helper()
	if len(docs) != expected {
		ctx := ""
		if len(context) > 0 {
			ctx = " " + context[0]
		}
		t.Errorf("expected %d documents%s, got %d", expected, ctx, len(docs))
	}
}

// AssertDocumentExists verifies that a document with the given path is in the slice
func AssertDocumentExists(t *testing.T, docs []types.Document, path string) {
	t.Helper()
	if !slices.Contains(Keys(docs), path) {
		t.Errorf("document %s not found in results", path)
	}
}

// AssertDocumentNotExists verifies that a document with the given path is not in the slice
func AssertDocumentNotExists(t *testing.T, docs []types.Document, path string) {
	t.Helper()
	if slices.Contains(Keys(docs), path) {
		t.Errorf("document %s should not be in results", path)
	}
}
