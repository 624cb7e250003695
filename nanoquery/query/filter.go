package query

import (
	"iter"
	"strings"

	"github.com/arthur-debert/nanoquery/types"
)

// Filter is a predicate over documents. It is a closed sum: the only
// implementations are FieldFilter and CompositeFilter.
type Filter interface {
	// Matches reports whether doc satisfies the filter
	Matches(doc types.Document) bool

	// FirstInequalityField returns the field of the first inequality filter
	// met in depth-first order
	FirstInequalityField() (types.FieldPath, bool)

	// FlattenedFilters yields every leaf field filter depth-first. The
	// sequence can be ranged over any number of times.
	FlattenedFilters() iter.Seq[FieldFilter]

	// CanonicalID is the filter's contribution to a target canonical id
	CanonicalID() string

	isFilter()
}

// FieldFilter compares one document field against a constant
type FieldFilter struct {
	field types.FieldPath
	op    Operator
	value types.Value
}

// NewFieldFilter builds a leaf filter. Array operators (in, not-in,
// array-contains-any) require an array value, and filters on the key field
// require reference values.
func NewFieldFilter(field types.FieldPath, op Operator, value types.Value) FieldFilter {
	hardAssert(field.Len() > 0, "NewFieldFilter", "empty field path")
	if op.takesArray() {
		hardAssert(value.IsArray(), "NewFieldFilter", "operator %s requires an array value, got %s", op, value.CanonicalID())
	}
	if field.IsKeyFieldPath() {
		hardAssert(op != ArrayContains && op != ArrayContainsAny, "NewFieldFilter",
			"operator %s is not valid on the document key", op)
		if op.takesArray() {
			for _, v := range value.ArrayValues() {
				_, ok := v.ReferencePath()
				hardAssert(ok, "NewFieldFilter", "key filter values must be references, got %s", v.CanonicalID())
			}
		} else {
			_, ok := value.ReferencePath()
			hardAssert(ok, "NewFieldFilter", "key filter value must be a reference, got %s", value.CanonicalID())
		}
	}
	return FieldFilter{field: field, op: op, value: value}
}

// Field returns the filtered field
func (f FieldFilter) Field() types.FieldPath { return f.field }

// Op returns the operator
func (f FieldFilter) Op() Operator { return f.op }

// Value returns the constant operand
func (f FieldFilter) Value() types.Value { return f.value }

// IsInequality reports whether the filter uses an inequality operator
func (f FieldFilter) IsInequality() bool { return f.op.IsInequality() }

// Matches implements Filter
func (f FieldFilter) Matches(doc types.Document) bool {
	lhs, ok := fieldValue(doc, f.field)
	if !ok {
		return false
	}

	switch f.op {
	case ArrayContains:
		return lhs.IsArray() && lhs.Contains(f.value)
	case ArrayContainsAny:
		if !lhs.IsArray() {
			return false
		}
		for _, v := range f.value.ArrayValues() {
			if lhs.Contains(v) {
				return true
			}
		}
		return false
	case In:
		return f.value.Contains(lhs)
	case NotIn:
		if f.value.Contains(types.Null()) {
			return false
		}
		return !lhs.IsNull() && !f.value.Contains(lhs)
	case NotEqual:
		// types don't have to match, but null never satisfies !=
		return !lhs.IsNull() && types.Compare(lhs, f.value) != 0
	default:
		// ordered comparisons only match within one type order
		if lhs.TypeOrder() != f.value.TypeOrder() {
			return false
		}
		return f.matchesComparison(types.Compare(lhs, f.value))
	}
}

func (f FieldFilter) matchesComparison(c int) bool {
	switch f.op {
	case LessThan:
		return c < 0
	case LessThanOrEqual:
		return c <= 0
	case Equal:
		return c == 0
	case GreaterThan:
		return c > 0
	case GreaterThanOrEqual:
		return c >= 0
	default:
		panic(violation("FieldFilter.Matches", "unexpected comparison operator %s", f.op))
	}
}

// FirstInequalityField implements Filter
func (f FieldFilter) FirstInequalityField() (types.FieldPath, bool) {
	if f.op.IsInequality() {
		return f.field, true
	}
	return types.FieldPath{}, false
}

// FlattenedFilters implements Filter
func (f FieldFilter) FlattenedFilters() iter.Seq[FieldFilter] {
	return func(yield func(FieldFilter) bool) {
		yield(f)
	}
}

// CanonicalID implements Filter
func (f FieldFilter) CanonicalID() string {
	return f.field.CanonicalString() + f.op.String() + f.value.CanonicalID()
}

// String implements fmt.Stringer
func (f FieldFilter) String() string {
	return f.field.CanonicalString() + " " + f.op.String() + " " + f.value.CanonicalID()
}

func (FieldFilter) isFilter() {}

// CompositeKind is the boolean connective of a CompositeFilter
type CompositeKind int

const (
	And CompositeKind = iota
	Or
)

// String implements fmt.Stringer
func (k CompositeKind) String() string {
	if k == Or {
		return "or"
	}
	return "and"
}

// CompositeFilter combines child filters with AND or OR
type CompositeFilter struct {
	kind    CompositeKind
	filters []Filter
}

// NewCompositeFilter builds a composite over filters. The slice is copied and
// pointer filters are stored by value.
func NewCompositeFilter(kind CompositeKind, filters ...Filter) CompositeFilter {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		v, err := filterValue("NewCompositeFilter", f)
		if err != nil {
			panic(err)
		}
		out[i] = v
	}
	return CompositeFilter{kind: kind, filters: out}
}

// filterValue dereferences *FieldFilter and *CompositeFilter so filter trees
// only ever hold the value forms.
func filterValue(op string, f Filter) (Filter, error) {
	switch x := f.(type) {
	case FieldFilter, CompositeFilter:
		return f, nil
	case *FieldFilter:
		if x != nil {
			return *x, nil
		}
	case *CompositeFilter:
		if x != nil {
			return *x, nil
		}
	}
	return nil, violation(op, "unsupported filter %T", f)
}

// Kind returns the connective
func (c CompositeFilter) Kind() CompositeKind { return c.kind }

// Filters returns a copy of the child filters
func (c CompositeFilter) Filters() []Filter {
	out := make([]Filter, len(c.filters))
	copy(out, c.filters)
	return out
}

// Matches implements Filter. An empty AND matches everything and an empty
// OR matches nothing.
func (c CompositeFilter) Matches(doc types.Document) bool {
	if c.kind == And {
		for _, f := range c.filters {
			if !f.Matches(doc) {
				return false
			}
		}
		return true
	}
	for _, f := range c.filters {
		if f.Matches(doc) {
			return true
		}
	}
	return false
}

// FirstInequalityField implements Filter
func (c CompositeFilter) FirstInequalityField() (types.FieldPath, bool) {
	for f := range c.FlattenedFilters() {
		if f.IsInequality() {
			return f.field, true
		}
	}
	return types.FieldPath{}, false
}

// FlattenedFilters implements Filter
func (c CompositeFilter) FlattenedFilters() iter.Seq[FieldFilter] {
	return func(yield func(FieldFilter) bool) {
		c.walk(yield)
	}
}

func (c CompositeFilter) walk(yield func(FieldFilter) bool) bool {
	for _, child := range c.filters {
		switch f := child.(type) {
		case FieldFilter:
			if !yield(f) {
				return false
			}
		case CompositeFilter:
			if !f.walk(yield) {
				return false
			}
		default:
			panic(violation("CompositeFilter.FlattenedFilters", "unsupported filter %T", child))
		}
	}
	return true
}

// IsFlatConjunction reports whether c is an AND of field filters only
func (c CompositeFilter) IsFlatConjunction() bool {
	if c.kind != And {
		return false
	}
	for _, f := range c.filters {
		if _, ok := f.(FieldFilter); !ok {
			return false
		}
	}
	return true
}

// CanonicalID implements Filter. A flat conjunction canonicalizes the same as
// its children listed directly on the query.
func (c CompositeFilter) CanonicalID() string {
	var sb strings.Builder
	if !c.IsFlatConjunction() {
		sb.WriteString(c.kind.String())
		sb.WriteByte('(')
	}
	for i, f := range c.filters {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.CanonicalID())
	}
	if !c.IsFlatConjunction() {
		sb.WriteByte(')')
	}
	return sb.String()
}

// String implements fmt.Stringer
func (c CompositeFilter) String() string { return c.CanonicalID() }

func (CompositeFilter) isFilter() {}

// fieldValue resolves field on doc, mapping the key sentinel to a reference
// to the document itself.
func fieldValue(doc types.Document, field types.FieldPath) (types.Value, bool) {
	if field.IsKeyFieldPath() {
		return types.Reference(doc.Key().Path()), true
	}
	return doc.Field(field)
}
