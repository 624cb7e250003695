package query

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/arthur-debert/nanoquery/types"
)

// NoLimit is the limit value of an unlimited target
const NoLimit int32 = math.MaxInt32

// Target is the normalized form of a query that a backing store executes: a
// first-N scan over a fully specified ordering. Targets are immutable and
// compare by canonical id.
type Target struct {
	path            types.ResourcePath
	collectionGroup string
	filters         []Filter
	orderBys        []OrderBy
	limit           int32
	startAt         *Bound
	endAt           *Bound
	canonicalID     string
}

func newTarget(path types.ResourcePath, collectionGroup string, filters []Filter, orderBys []OrderBy,
	limit int32, startAt, endAt *Bound) *Target {
	t := &Target{
		path:            path,
		collectionGroup: collectionGroup,
		filters:         filters,
		orderBys:        orderBys,
		limit:           limit,
		startAt:         startAt,
		endAt:           endAt,
	}
	t.canonicalID = t.canonicalize()
	return t
}

// canonicalize renders path[|cg:group]|f:filters|ob:orderbys[|l:n][|lb:..][|ub:..]
func (t *Target) canonicalize() string {
	var sb strings.Builder
	sb.WriteString(t.path.CanonicalString())

	if t.collectionGroup != "" {
		sb.WriteString("|cg:")
		sb.WriteString(t.collectionGroup)
	}

	sb.WriteString("|f:")
	for i, f := range t.filters {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.CanonicalID())
	}

	sb.WriteString("|ob:")
	for i, o := range t.orderBys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(o.CanonicalID())
	}

	if t.limit != NoLimit {
		sb.WriteString("|l:")
		sb.WriteString(strconv.FormatInt(int64(t.limit), 10))
	}

	if t.startAt != nil {
		sb.WriteString("|lb:")
		if t.startAt.inclusive {
			sb.WriteString("b:")
		} else {
			sb.WriteString("a:")
		}
		sb.WriteString(t.startAt.PositionString())
	}

	// b:/a: say whether the cut sits before or after the position, so an
	// inclusive start is b: and an inclusive end is a:
	if t.endAt != nil {
		sb.WriteString("|ub:")
		if t.endAt.inclusive {
			sb.WriteString("a:")
		} else {
			sb.WriteString("b:")
		}
		sb.WriteString(t.endAt.PositionString())
	}

	return sb.String()
}

// Path returns the collection or document path
func (t *Target) Path() types.ResourcePath { return t.path }

// CollectionGroup returns the collection group id, or "" if none
func (t *Target) CollectionGroup() string { return t.collectionGroup }

// Filters returns a copy of the filters
func (t *Target) Filters() []Filter { return slices.Clone(t.filters) }

// OrderBys returns a copy of the ordering
func (t *Target) OrderBys() []OrderBy { return slices.Clone(t.orderBys) }

// Limit returns the limit, or NoLimit
func (t *Target) Limit() int32 { return t.limit }

// HasLimit reports whether the target is limited
func (t *Target) HasLimit() bool { return t.limit != NoLimit }

// StartAt returns the lower cursor
func (t *Target) StartAt() (Bound, bool) {
	if t.startAt == nil {
		return Bound{}, false
	}
	return *t.startAt, true
}

// EndAt returns the upper cursor
func (t *Target) EndAt() (Bound, bool) {
	if t.endAt == nil {
		return Bound{}, false
	}
	return *t.endAt, true
}

// IsDocumentQuery reports whether the target reads exactly one document
func (t *Target) IsDocumentQuery() bool {
	return types.IsDocumentKey(t.path) && t.collectionGroup == "" && len(t.filters) == 0
}

// CanonicalID returns the deterministic identity string
func (t *Target) CanonicalID() string { return t.canonicalID }

// Hash returns a hash of the canonical id
func (t *Target) Hash() uint64 { return xxhash.Sum64String(t.canonicalID) }

// Equal compares canonical ids
func (t *Target) Equal(other *Target) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.canonicalID == other.canonicalID
}

// String implements fmt.Stringer
func (t *Target) String() string {
	return "Target(canonical_id=" + t.canonicalID + ")"
}
