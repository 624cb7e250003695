package view

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arthur-debert/nanoquery/nanoquery/query"
	"github.com/arthur-debert/nanoquery/types"
)

func TestRegistryListenSeedsFromDocuments(t *testing.T) {
	r := NewRegistry()
	r.Apply(roomDocs()...)

	v, reused := r.Listen(rooms().AddingFilter(filter("unread", query.GreaterThanOrEqual, 3)))
	if reused {
		t.Fatal("first listen reported reuse")
	}
	if diff := cmp.Diff([]string{"rooms/eros", "rooms/hermes"}, keys(v.Documents())); diff != "" {
		t.Errorf("Documents() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistrySharesEqualQueries(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	r := NewRegistry(WithMetrics(metrics))

	a := rooms().WithLimitToFirst(2).AddingFilter(filter("unread", query.Equal, 3))
	b := rooms().AddingFilter(filter("unread", query.Equal, 3)).WithLimitToFirst(2)

	va, _ := r.Listen(a)
	vb, reused := r.Listen(b)
	if !reused || va != vb {
		t.Fatal("equal queries should share a view")
	}
	if got := testutil.ToFloat64(metrics.ActiveViews); got != 1 {
		t.Errorf("active views = %v, want 1", got)
	}

	// first-N and last-N are different views
	r.Listen(rooms().AddingFilter(filter("unread", query.Equal, 3)).WithLimitToLast(2))
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	if r.Unlisten(a) {
		t.Error("view removed while still referenced")
	}
	if !r.Unlisten(b) {
		t.Error("view kept after last reference")
	}
	if r.Unlisten(b) {
		t.Error("unlisten of unknown query reported removal")
	}
	if got := testutil.ToFloat64(metrics.ActiveViews); got != 1 {
		t.Errorf("active views = %v, want 1", got)
	}
}

func TestRegistrySeparatesTypedOperands(t *testing.T) {
	r := NewRegistry()
	r.Apply(doc("rooms/a", map[string]interface{}{"name": 1}))

	byString, _ := r.Listen(rooms().AddingFilter(filter("name", query.Equal, "1")))
	byInt, reused := r.Listen(rooms().AddingFilter(filter("name", query.Equal, 1)))
	if reused || byString == byInt {
		t.Fatal("string and integer operands must not share a view")
	}
	if byString.Size() != 0 || byInt.Size() != 1 {
		t.Errorf("sizes: string=%d int=%d, want 0 and 1", byString.Size(), byInt.Size())
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistryApplyUnchangedDocument(t *testing.T) {
	r := NewRegistry()
	all, _ := r.Listen(rooms())

	if changed := r.Apply(doc("rooms/eros", map[string]interface{}{"unread": 3})); len(changed) != 1 {
		t.Fatalf("changed = %d views, want 1", len(changed))
	}
	if changed := r.Apply(doc("rooms/eros", map[string]interface{}{"unread": 3})); len(changed) != 0 {
		t.Errorf("re-applying the same document changed %d views", len(changed))
	}
	// 3 and 3.0 match alike but the stored contents differ
	if changed := r.Apply(doc("rooms/eros", map[string]interface{}{"unread": 3.0})); len(changed) != 1 || changed[0] != all {
		t.Errorf("changed = %v, want the collection view", changed)
	}
}

func TestRegistryApply(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	r := NewRegistry(WithMetrics(metrics))

	unread, _ := r.Listen(rooms().AddingFilter(filter("unread", query.GreaterThan, 0)))
	all, _ := r.Listen(rooms())

	changed := r.Apply(doc("rooms/eros", map[string]interface{}{"unread": 3}))
	if len(changed) != 2 {
		t.Fatalf("changed = %d views, want 2", len(changed))
	}

	// a document that stops matching leaves the view
	changed = r.Apply(doc("rooms/eros", map[string]interface{}{"unread": 0}))
	if len(changed) != 2 || unread.Size() != 0 || all.Size() != 1 {
		t.Errorf("after update: changed=%d unread=%d all=%d", len(changed), unread.Size(), all.Size())
	}

	// a document that never matched does not touch the view
	changed = r.Apply(doc("rooms/ares", map[string]interface{}{"unread": 0}))
	if len(changed) != 1 || changed[0] != all {
		t.Errorf("unexpected changed views %v", changed)
	}

	// deletes remove from every view
	r.Apply(types.NewMissingDocument(types.MustParseDocumentKey("rooms/ares")))
	if diff := cmp.Diff([]string{"rooms/eros"}, keys(all.Documents())); diff != "" {
		t.Errorf("Documents() mismatch (-want +got):\n%s", diff)
	}

	if got := testutil.ToFloat64(metrics.Evaluations); got != 8 {
		t.Errorf("evaluations = %v, want 8", got)
	}
	if got := testutil.ToFloat64(metrics.Matches); got != 4 {
		t.Errorf("matches = %v, want 4", got)
	}
}

func TestRegistryLimitToLastView(t *testing.T) {
	r := NewRegistry()
	r.Apply(roomDocs()...)

	v, _ := r.Listen(rooms().AddingOrderBy(orderBy("unread", query.Ascending)).WithLimitToLast(2))
	if diff := cmp.Diff([]string{"rooms/eros", "rooms/hermes"}, keys(v.Documents())); diff != "" {
		t.Errorf("Documents() mismatch (-want +got):\n%s", diff)
	}
	if v.Size() != 3 {
		t.Errorf("Size() = %d, want 3", v.Size())
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	v, _ := r.Listen(rooms())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Apply(doc("rooms/r"+string(rune('a'+i)), map[string]interface{}{"n": j}))
				_ = v.Documents()
			}
		}(i)
	}
	wg.Wait()

	if v.Size() != 8 {
		t.Errorf("Size() = %d, want 8", v.Size())
	}
}
