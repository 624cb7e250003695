// Package view evaluates queries against local document sets: one-shot
// execution through a Processor, and live views kept current as documents
// change through a Registry.
package view

import (
	"slices"

	"github.com/arthur-debert/nanoquery/internal/logging"
	"github.com/arthur-debert/nanoquery/nanoquery/query"
	"github.com/arthur-debert/nanoquery/types"
)

// Processor runs queries against a set of documents
type Processor interface {
	// Execute returns the documents matching q in query order, limited
	Execute(docs []types.Document, q query.Query) []types.Document
}

type processor struct {
	logger logging.Logger
}

// NewProcessor creates a new query processor. A nil logger discards output.
func NewProcessor(logger logging.Logger) Processor {
	return &processor{logger: logging.OrNop(logger)}
}

// Execute filters, sorts and limits docs
func (p *processor) Execute(docs []types.Document, q query.Query) []types.Document {
	result := make([]types.Document, 0, len(docs))
	for _, doc := range docs {
		if q.Matches(doc) {
			result = append(result, doc)
		}
	}
	matched := len(result)

	slices.SortFunc(result, q.Comparator())
	result = applyLimit(result, q)

	p.logger.Debug("query executed",
		"query", q.CanonicalID(),
		"scanned", len(docs),
		"matched", matched,
		"returned", len(result))
	return result
}

// applyLimit keeps the head of sorted for limit-to-first and the tail for
// limit-to-last. The tail stays in query order.
func applyLimit(sorted []types.Document, q query.Query) []types.Document {
	if !q.HasLimit() {
		return sorted
	}
	n := max(int(q.Limit()), 0)
	if len(sorted) <= n {
		return sorted
	}
	if q.LimitType() == query.LimitLast {
		return sorted[len(sorted)-n:]
	}
	return sorted[:n]
}
