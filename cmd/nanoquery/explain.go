package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/nanoquery/nanoquery/query"
)

func newExplainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <query-file>",
		Short: "Show how a query definition is normalized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := loadQuery(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), explain(q))
			return err
		},
	}
}

// explain renders the derived properties of q as "name: value" lines
func explain(q query.Query) string {
	var sb strings.Builder
	line := func(name string, value interface{}) {
		fmt.Fprintf(&sb, "%-20s %v\n", name+":", value)
	}

	line("canonical id", q.CanonicalID())
	line("hash", fmt.Sprintf("%016x", q.Hash()))
	line("path", q.Path().CanonicalString())
	if q.IsCollectionGroupQuery() {
		line("collection group", q.CollectionGroup())
	}
	line("document query", q.IsDocumentQuery())
	line("matches all", q.MatchesAllDocuments())

	if field, ok := q.InequalityFilterField(); ok {
		line("inequality field", field.CanonicalString())
	}
	orderBys := q.NormalizedOrderBys()
	parts := make([]string, len(orderBys))
	for i, o := range orderBys {
		parts[i] = o.Field().CanonicalString() + " " + o.Direction().String()
	}
	line("order by", strings.Join(parts, ", "))

	if q.HasLimit() {
		line("limit", fmt.Sprintf("%d (%s)", q.Limit(), q.LimitType()))
	}
	if b, ok := q.StartAt(); ok {
		line("start", b)
	}
	if b, ok := q.EndAt(); ok {
		line("end", b)
	}
	line("target", q.ToTarget().CanonicalID())
	return sb.String()
}
