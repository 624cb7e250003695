package query

import (
	"slices"
	"strings"

	"github.com/arthur-debert/nanoquery/types"
)

// Bound is a cursor position in a query's ordering. Position i lines up with
// the query's i-th normalized order-by; a shorter position constrains only
// the leading keys. Values for the key field must be references.
type Bound struct {
	position  []types.Value
	inclusive bool
}

// NewBound creates a cursor. inclusive means documents exactly at the
// position are part of the result.
func NewBound(position []types.Value, inclusive bool) Bound {
	return Bound{position: slices.Clone(position), inclusive: inclusive}
}

// Position returns a copy of the cursor values
func (b Bound) Position() []types.Value { return slices.Clone(b.position) }

// Inclusive reports whether the cursor includes its own position
func (b Bound) Inclusive() bool { return b.inclusive }

// SortsBeforeDocument reports whether the cursor lies before doc in the given
// ordering, i.e. doc is not cut off by a start cursor.
func (b Bound) SortsBeforeDocument(orderBys []OrderBy, doc types.Document) bool {
	c := b.compareToDocument(orderBys, doc)
	if b.inclusive {
		return c <= 0
	}
	return c < 0
}

// SortsAfterDocument reports whether the cursor lies after doc in the given
// ordering, i.e. doc is not cut off by an end cursor.
func (b Bound) SortsAfterDocument(orderBys []OrderBy, doc types.Document) bool {
	c := b.compareToDocument(orderBys, doc)
	if b.inclusive {
		return c >= 0
	}
	return c > 0
}

func (b Bound) compareToDocument(orderBys []OrderBy, doc types.Document) int {
	hardAssert(len(b.position) <= len(orderBys), "Bound.compareToDocument",
		"bound has more components (%d) than the query's ordering (%d)", len(b.position), len(orderBys))

	for i, component := range b.position {
		ob := orderBys[i]
		var c int
		if ob.field.IsKeyFieldPath() {
			path, ok := component.ReferencePath()
			hardAssert(ok, "Bound.compareToDocument", "key ordering requires a reference cursor value, got %s", component.CanonicalID())
			c = path.Compare(doc.Key().Path())
		} else {
			v, ok := doc.Field(ob.field)
			hardAssert(ok, "Bound.compareToDocument", "field %s is missing from document %s", ob.field, doc.Key())
			c = types.Compare(component, v)
		}
		if ob.direction == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// PositionString joins the canonical ids of the cursor values
func (b Bound) PositionString() string {
	parts := make([]string, len(b.position))
	for i, v := range b.position {
		parts[i] = v.CanonicalID()
	}
	return strings.Join(parts, ",")
}

// Equal compares inclusivity and position values
func (b Bound) Equal(other Bound) bool {
	return b.inclusive == other.inclusive &&
		slices.EqualFunc(b.position, other.position, types.Equal)
}

// String implements fmt.Stringer
func (b Bound) String() string {
	if b.inclusive {
		return "Bound(inclusive, " + b.PositionString() + ")"
	}
	return "Bound(exclusive, " + b.PositionString() + ")"
}
