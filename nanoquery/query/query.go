// Package query implements the in-memory representation of document queries:
// filters, orderings, cursors and limits over a path-addressed document tree.
//
// A Query is an immutable value. Builder methods (AddingFilter,
// AddingOrderBy, WithLimitToFirst, ...) return new queries and panic with a
// *ContractViolation when asked to build something inconsistent. At read
// time a query can test documents (Matches), sort them (Comparator) and be
// reduced to its canonical Target for caching and deduplication.
package query

import (
	"slices"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/arthur-debert/nanoquery/types"
)

// LimitType tells whether a limit applies to the head or the tail of the
// ordered result
type LimitType int

const (
	LimitNone LimitType = iota
	LimitFirst
	LimitLast
)

// String implements fmt.Stringer
func (l LimitType) String() string {
	switch l {
	case LimitFirst:
		return "first"
	case LimitLast:
		return "last"
	default:
		return "none"
	}
}

// Query describes which documents to read, in what order, and how many
type Query struct {
	path             types.ResourcePath
	collectionGroup  string
	filters          []Filter
	explicitOrderBys []OrderBy
	limit            int32
	limitType        LimitType
	startAt          *Bound
	endAt            *Bound

	memo *memo
}

// memo caches values derived from the immutable fields. Each slot is written
// at most once per computation; concurrent first readers may compute the
// same value redundantly, which is harmless.
type memo struct {
	normalizedOrderBys atomic.Pointer[[]OrderBy]
	target             atomic.Pointer[Target]
	aggregateTarget    atomic.Pointer[Target]
}

// NewQuery creates a query over the collection (or single document) at path
func NewQuery(path types.ResourcePath) Query {
	return Query{path: path, limit: NoLimit, memo: &memo{}}
}

// NewCollectionGroupQuery creates a query over every collection named group
// located at or below path
func NewCollectionGroupQuery(path types.ResourcePath, group string) Query {
	return Query{path: path, collectionGroup: group, limit: NoLimit, memo: &memo{}}
}

// clone copies q with fresh derived-value slots. Sub-slices are shared; the
// builders never write into them in place.
func (q Query) clone() Query {
	q.memo = &memo{}
	return q
}

// Accessors

// Path returns the query path
func (q Query) Path() types.ResourcePath { return q.path }

// CollectionGroup returns the collection group id, or "" if not set
func (q Query) CollectionGroup() string { return q.collectionGroup }

// IsCollectionGroupQuery reports whether a collection group is set
func (q Query) IsCollectionGroupQuery() bool { return q.collectionGroup != "" }

// Filters returns a copy of the top level filters
func (q Query) Filters() []Filter { return slices.Clone(q.filters) }

// ExplicitOrderBys returns a copy of the caller supplied ordering
func (q Query) ExplicitOrderBys() []OrderBy { return slices.Clone(q.explicitOrderBys) }

// LimitType returns how the limit applies
func (q Query) LimitType() LimitType { return q.limitType }

// HasLimit reports whether a limit is set
func (q Query) HasLimit() bool { return q.limitType != LimitNone }

// Limit returns the limit. It panics when no limit is set.
func (q Query) Limit() int32 {
	hardAssert(q.limitType != LimitNone, "Limit", "called Limit() when no limit was set")
	return q.limit
}

// StartAt returns the start cursor
func (q Query) StartAt() (Bound, bool) {
	if q.startAt == nil {
		return Bound{}, false
	}
	return *q.startAt, true
}

// EndAt returns the end cursor
func (q Query) EndAt() (Bound, bool) {
	if q.endAt == nil {
		return Bound{}, false
	}
	return *q.endAt, true
}

// IsDocumentQuery reports whether the query is pinned to a single document
func (q Query) IsDocumentQuery() bool {
	return types.IsDocumentKey(q.path) && q.collectionGroup == "" && len(q.filters) == 0
}

// MatchesAllDocuments reports whether the query returns every document of
// its collection: no filters, limit or cursors, and at most a key ordering.
func (q Query) MatchesAllDocuments() bool {
	return len(q.filters) == 0 && q.limitType == LimitNone && q.startAt == nil && q.endAt == nil &&
		(len(q.explicitOrderBys) == 0 ||
			(len(q.explicitOrderBys) == 1 && q.explicitOrderBys[0].field.IsKeyFieldPath()))
}

// InequalityFilterField returns the first inequality field across all
// filters, depth-first
func (q Query) InequalityFilterField() (types.FieldPath, bool) {
	for _, f := range q.filters {
		if field, ok := f.FirstInequalityField(); ok {
			return field, true
		}
	}
	return types.FieldPath{}, false
}

// FirstOrderByField returns the field of the first explicit order-by
func (q Query) FirstOrderByField() (types.FieldPath, bool) {
	if len(q.explicitOrderBys) == 0 {
		return types.FieldPath{}, false
	}
	return q.explicitOrderBys[0].field, true
}

// FindOpInsideFilters returns the first operator among ops used by any leaf
// filter
func (q Query) FindOpInsideFilters(ops ...Operator) (Operator, bool) {
	for _, f := range q.filters {
		for ff := range f.FlattenedFilters() {
			if slices.Contains(ops, ff.op) {
				return ff.op, true
			}
		}
	}
	return 0, false
}

// Builders

// CheckFilter reports the ContractViolation AddingFilter would panic with,
// or nil if filter can be added.
func (q Query) CheckFilter(filter Filter) error {
	const op = "AddingFilter"
	if q.IsDocumentQuery() {
		return violation(op, "no filter is allowed for document query")
	}
	filter, err := filterValue(op, filter)
	if err != nil {
		return err
	}

	newField, hasNew := filter.FirstInequalityField()
	if !hasNew {
		return nil
	}
	if field, ok := q.InequalityFilterField(); ok && !field.Equal(newField) {
		return violation(op, "query must only have one inequality field, found %s and %s", field, newField)
	}
	if len(q.explicitOrderBys) > 0 && !q.explicitOrderBys[0].field.Equal(newField) {
		return violation(op, "first order by %s must match inequality field %s", q.explicitOrderBys[0].field, newField)
	}
	return nil
}

// AddingFilter returns a copy of q with filter appended
func (q Query) AddingFilter(filter Filter) Query {
	if err := q.CheckFilter(filter); err != nil {
		panic(err)
	}
	filter, _ = filterValue("AddingFilter", filter)
	out := q.clone()
	out.filters = append(slices.Clip(q.filters), filter)
	return out
}

// CheckOrderBy reports the ContractViolation AddingOrderBy would panic with,
// or nil if orderBy can be added.
func (q Query) CheckOrderBy(orderBy OrderBy) error {
	const op = "AddingOrderBy"
	if q.IsDocumentQuery() {
		return violation(op, "no ordering is allowed for document query")
	}
	if len(q.explicitOrderBys) == 0 {
		if field, ok := q.InequalityFilterField(); ok && !field.Equal(orderBy.field) {
			return violation(op, "first order by %s must match inequality field %s", orderBy.field, field)
		}
	}
	return nil
}

// AddingOrderBy returns a copy of q with orderBy appended
func (q Query) AddingOrderBy(orderBy OrderBy) Query {
	if err := q.CheckOrderBy(orderBy); err != nil {
		panic(err)
	}
	out := q.clone()
	out.explicitOrderBys = append(slices.Clip(q.explicitOrderBys), orderBy)
	return out
}

// WithLimitToFirst returns a copy of q returning at most the first limit
// documents
func (q Query) WithLimitToFirst(limit int32) Query {
	out := q.clone()
	out.limit = limit
	out.limitType = LimitFirst
	return out
}

// WithLimitToLast returns a copy of q returning at most the last limit
// documents
func (q Query) WithLimitToLast(limit int32) Query {
	out := q.clone()
	out.limit = limit
	out.limitType = LimitLast
	return out
}

// StartingAt returns a copy of q with the start cursor replaced
func (q Query) StartingAt(bound Bound) Query {
	out := q.clone()
	out.startAt = &bound
	return out
}

// EndingAt returns a copy of q with the end cursor replaced
func (q Query) EndingAt(bound Bound) Query {
	out := q.clone()
	out.endAt = &bound
	return out
}

// AsCollectionQueryAtPath rebinds q to one concrete collection, dropping the
// collection group
func (q Query) AsCollectionQueryAtPath(path types.ResourcePath) Query {
	out := q.clone()
	out.path = path
	out.collectionGroup = ""
	return out
}

// Ordering

// NormalizedOrderBys returns the explicit ordering completed with the
// implicit inequality field and key tiebreak. The result always ends with a
// key ordering.
func (q Query) NormalizedOrderBys() []OrderBy {
	return slices.Clone(q.normalizedOrderBys())
}

func (q Query) normalizedOrderBys() []OrderBy {
	if q.memo != nil {
		if cached := q.memo.normalizedOrderBys.Load(); cached != nil {
			return *cached
		}
	}
	result := q.computeNormalizedOrderBys()
	if q.memo != nil {
		q.memo.normalizedOrderBys.CompareAndSwap(nil, &result)
	}
	return result
}

func (q Query) computeNormalizedOrderBys() []OrderBy {
	inequalityField, hasInequality := q.InequalityFilterField()
	firstOrderByField, hasOrderBy := q.FirstOrderByField()

	if hasInequality && !hasOrderBy {
		// the inequality field has to lead for the range scan, and the key
		// follows as tiebreak; both ascending by default
		if inequalityField.IsKeyFieldPath() {
			return []OrderBy{NewOrderBy(types.KeyFieldPath(), Ascending)}
		}
		return []OrderBy{
			NewOrderBy(inequalityField, Ascending),
			NewOrderBy(types.KeyFieldPath(), Ascending),
		}
	}

	hardAssert(!hasInequality || inequalityField.Equal(firstOrderByField), "NormalizedOrderBys",
		"first order by %s should match inequality field %s", firstOrderByField, inequalityField)

	result := make([]OrderBy, 0, len(q.explicitOrderBys)+1)
	result = append(result, q.explicitOrderBys...)

	foundKeyOrder := false
	for _, o := range q.explicitOrderBys {
		if o.field.IsKeyFieldPath() {
			foundKeyOrder = true
			break
		}
	}
	if !foundKeyOrder {
		// the implicit key order follows the direction of the last explicit one
		lastDirection := Ascending
		if n := len(q.explicitOrderBys); n > 0 {
			lastDirection = q.explicitOrderBys[n-1].direction
		}
		result = append(result, NewOrderBy(types.KeyFieldPath(), lastDirection))
	}
	return result
}

// Matching

// Matches reports whether doc belongs to the query's result set, ignoring
// the limit.
func (q Query) Matches(doc types.Document) bool {
	return doc.Exists() &&
		q.matchesPathAndCollectionGroup(doc) &&
		q.matchesOrderBy(doc) &&
		q.matchesFilters(doc) &&
		q.matchesBounds(doc)
}

func (q Query) matchesPathAndCollectionGroup(doc types.Document) bool {
	docPath := doc.Key().Path()
	switch {
	case q.collectionGroup != "":
		return doc.Key().HasCollectionGroup(q.collectionGroup) && q.path.IsPrefixOf(docPath)
	case types.IsDocumentKey(q.path):
		return q.path.Equal(docPath)
	default:
		// shallow: direct children only
		return q.path.IsImmediateParentOf(docPath)
	}
}

// matchesOrderBy requires every ordered field to be present: a document
// missing one can't be placed in the ordering and is excluded, even under
// an OR whose other branch matched.
func (q Query) matchesOrderBy(doc types.Document) bool {
	for _, o := range q.normalizedOrderBys() {
		if o.field.IsKeyFieldPath() {
			continue
		}
		if _, ok := doc.Field(o.field); !ok {
			return false
		}
	}
	return true
}

func (q Query) matchesFilters(doc types.Document) bool {
	for _, f := range q.filters {
		if !f.Matches(doc) {
			return false
		}
	}
	return true
}

func (q Query) matchesBounds(doc types.Document) bool {
	orderBys := q.normalizedOrderBys()
	if q.startAt != nil && !q.startAt.SortsBeforeDocument(orderBys, doc) {
		return false
	}
	if q.endAt != nil && !q.endAt.SortsAfterDocument(orderBys, doc) {
		return false
	}
	return true
}

// Comparator returns the total order of the query's result set. It never
// flips for limit-to-last; only the Target does.
func (q Query) Comparator() func(a, b types.Document) int {
	ordering := q.normalizedOrderBys()

	hasKeyOrdering := slices.ContainsFunc(ordering, func(o OrderBy) bool {
		return o.field.IsKeyFieldPath()
	})
	hardAssert(hasKeyOrdering, "Comparator", "query comparator needs to have a key ordering: %s", q)

	return func(a, b types.Document) int {
		for _, o := range ordering {
			if c := o.Compare(a, b); c != 0 {
				return c
			}
		}
		return 0
	}
}

// Identity

// CanonicalID returns the target canonical id, suffixed with the limit type
// when one is set since first-N and last-N return different documents.
func (q Query) CanonicalID() string {
	id := q.ToTarget().CanonicalID()
	switch q.limitType {
	case LimitLast:
		return id + "|lt:l"
	case LimitFirst:
		return id + "|lt:f"
	default:
		return id
	}
}

// Hash returns a hash of CanonicalID
func (q Query) Hash() uint64 {
	return xxhash.Sum64String(q.CanonicalID())
}

// Equal reports whether both queries have the same limit type and target
func (q Query) Equal(other Query) bool {
	return q.limitType == other.limitType && q.ToTarget().Equal(other.ToTarget())
}

// String implements fmt.Stringer
func (q Query) String() string {
	return "Query(canonical_id=" + q.CanonicalID() + ")"
}

// ToTarget returns the target for this query using the normalized ordering.
// Limit-to-last queries become first-N targets over the reversed ordering.
func (q Query) ToTarget() *Target {
	if q.memo == nil {
		return q.toTarget(q.normalizedOrderBys())
	}
	if t := q.memo.target.Load(); t != nil {
		return t
	}
	t := q.toTarget(q.normalizedOrderBys())
	if q.memo.target.CompareAndSwap(nil, t) {
		return t
	}
	return q.memo.target.Load()
}

// ToAggregateTarget returns the target using only the explicit ordering;
// aggregations don't depend on the implicit key order.
func (q Query) ToAggregateTarget() *Target {
	if q.memo == nil {
		return q.toTarget(q.explicitOrderBys)
	}
	if t := q.memo.aggregateTarget.Load(); t != nil {
		return t
	}
	t := q.toTarget(q.explicitOrderBys)
	if q.memo.aggregateTarget.CompareAndSwap(nil, t) {
		return t
	}
	return q.memo.aggregateTarget.Load()
}

func (q Query) toTarget(orderBys []OrderBy) *Target {
	if q.limitType != LimitLast {
		return newTarget(q.path, q.collectionGroup, q.filters, slices.Clone(orderBys), q.limit, q.startAt, q.endAt)
	}

	flipped := make([]OrderBy, len(orderBys))
	for i, o := range orderBys {
		flipped[i] = NewOrderBy(o.field, o.direction.flip())
	}

	// cursors swap sides along with the ordering
	var startAt, endAt *Bound
	if q.endAt != nil {
		b := NewBound(q.endAt.position, q.endAt.inclusive)
		startAt = &b
	}
	if q.startAt != nil {
		b := NewBound(q.startAt.position, q.startAt.inclusive)
		endAt = &b
	}
	return newTarget(q.path, q.collectionGroup, q.filters, flipped, q.limit, startAt, endAt)
}
