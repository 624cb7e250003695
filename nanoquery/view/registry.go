package view

import (
	"slices"

	"github.com/arthur-debert/nanoquery/internal/logging"
	"github.com/arthur-debert/nanoquery/nanoquery/query"
	"github.com/arthur-debert/nanoquery/types"
)

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the registry logger
func WithLogger(l logging.Logger) Option {
	return func(r *Registry) { r.logger = logging.OrNop(l) }
}

// WithMetrics sets the registry metrics
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// Registry holds the local document set and the live views over it. Views
// are shared between equal queries, keyed by canonical id.
type Registry struct {
	locks   lockManager
	docs    map[string]types.Document
	views   map[string]*View
	logger  logging.Logger
	metrics *Metrics
}

// View is the live result of one query
type View struct {
	registry *Registry
	query    query.Query
	refs     int
	matches  map[string]types.Document
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		docs:   make(map[string]types.Document),
		views:  make(map[string]*View),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	return r
}

// Listen returns the live view for q, creating and seeding it from the
// current documents if no equal query is being listened to. The boolean is
// true when an existing view was reused.
func (r *Registry) Listen(q query.Query) (*View, bool) {
	id := q.CanonicalID()
	var v *View
	var reused bool

	r.locks.execute(WriteOperation, func() {
		if existing, ok := r.views[id]; ok {
			existing.refs++
			v, reused = existing, true
			return
		}

		v = &View{registry: r, query: q, refs: 1, matches: make(map[string]types.Document)}
		for key, doc := range r.docs {
			r.metrics.Evaluations.Inc()
			if q.Matches(doc) {
				r.metrics.Matches.Inc()
				v.matches[key] = doc
			}
		}
		r.views[id] = v
		r.metrics.ActiveViews.Inc()
	})

	r.logger.Debug("listen", "query", id, "reused", reused)
	return v, reused
}

// Unlisten releases one reference to the view for q. It returns true when
// the last reference was released and the view removed.
func (r *Registry) Unlisten(q query.Query) bool {
	id := q.CanonicalID()
	removed := false

	r.locks.execute(WriteOperation, func() {
		v, ok := r.views[id]
		if !ok {
			return
		}
		v.refs--
		if v.refs <= 0 {
			delete(r.views, id)
			r.metrics.ActiveViews.Dec()
			removed = true
		}
	})

	if removed {
		r.logger.Debug("view removed", "query", id)
	}
	return removed
}

// Apply records document changes and re-evaluates them against every view.
// Missing documents delete their key. It returns the views whose result set
// changed, ordered by canonical id.
func (r *Registry) Apply(docs ...types.Document) []*View {
	changed := make(map[string]*View)

	r.locks.execute(WriteOperation, func() {
		for _, doc := range docs {
			key := doc.Key().String()
			if doc.Exists() {
				r.docs[key] = doc
			} else {
				delete(r.docs, key)
			}

			for id, v := range r.views {
				r.metrics.Evaluations.Inc()
				prev, had := v.matches[key]
				if v.query.Matches(doc) {
					r.metrics.Matches.Inc()
					v.matches[key] = doc
					if !had || !sameDocument(prev, doc) {
						changed[id] = v
					}
				} else if had {
					delete(v.matches, key)
					changed[id] = v
				}
			}
		}
	})

	ids := make([]string, 0, len(changed))
	for id := range changed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*View, len(ids))
	for i, id := range ids {
		out[i] = changed[id]
	}

	r.logger.Debug("documents applied", "documents", len(docs), "views_changed", len(out))
	return out
}

// sameDocument reports whether next carries exactly prev's contents. Other
// Document implementations always count as changed.
func sameDocument(prev, next types.Document) bool {
	p, ok := prev.(*types.MutableDocument)
	n, nok := next.(*types.MutableDocument)
	return ok && nok && types.Identical(p.Data(), n.Data())
}

// Len returns the number of live views
func (r *Registry) Len() int {
	var n int
	r.locks.execute(ReadOperation, func() { n = len(r.views) })
	return n
}

// Query returns the query the view was created for
func (v *View) Query() query.Query { return v.query }

// Documents returns the view's current result in query order with the
// query's limit applied
func (v *View) Documents() []types.Document {
	var out []types.Document
	v.registry.locks.execute(ReadOperation, func() {
		out = make([]types.Document, 0, len(v.matches))
		for _, doc := range v.matches {
			out = append(out, doc)
		}
	})
	slices.SortFunc(out, v.query.Comparator())
	return applyLimit(out, v.query)
}

// Size returns the number of matching documents before the limit
func (v *View) Size() int {
	var n int
	v.registry.locks.execute(ReadOperation, func() { n = len(v.matches) })
	return n
}
