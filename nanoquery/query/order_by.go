package query

import (
	"fmt"

	"github.com/arthur-debert/nanoquery/types"
)

// Direction is the sort direction of an OrderBy
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns the form used in canonical ids
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc"/"ascending" and "desc"/"descending"
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown direction %q", s)
	}
}

// flip returns the opposite direction
func (d Direction) flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// OrderBy is one sort key of a query
type OrderBy struct {
	field     types.FieldPath
	direction Direction
}

// NewOrderBy creates a sort key
func NewOrderBy(field types.FieldPath, direction Direction) OrderBy {
	return OrderBy{field: field, direction: direction}
}

// Field returns the sorted field
func (o OrderBy) Field() types.FieldPath { return o.field }

// Direction returns the sort direction
func (o OrderBy) Direction() Direction { return o.direction }

// Equal reports whether field and direction match
func (o OrderBy) Equal(other OrderBy) bool {
	return o.direction == other.direction && o.field.Equal(other.field)
}

// Compare orders two documents by this key. Both documents must have the
// field; Query.Matches guarantees that for result sets.
func (o OrderBy) Compare(a, b types.Document) int {
	var c int
	if o.field.IsKeyFieldPath() {
		c = a.Key().Compare(b.Key())
	} else {
		av, aok := a.Field(o.field)
		bv, bok := b.Field(o.field)
		hardAssert(aok && bok, "OrderBy.Compare", "trying to compare documents on fields that don't exist: %s", o.field)
		c = types.Compare(av, bv)
	}
	if o.direction == Descending {
		c = -c
	}
	return c
}

// CanonicalID is the order-by's contribution to a target canonical id
func (o OrderBy) CanonicalID() string {
	return o.field.CanonicalString() + o.direction.String()
}

// String implements fmt.Stringer
func (o OrderBy) String() string {
	return fmt.Sprintf("OrderBy(%s, %s)", o.field, o.direction)
}
