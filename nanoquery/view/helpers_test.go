package view

import (
	"github.com/arthur-debert/nanoquery/nanoquery/query"
	"github.com/arthur-debert/nanoquery/types"
)

func doc(path string, fields map[string]interface{}) *types.MutableDocument {
	data := make(map[string]types.Value, len(fields))
	for k, v := range fields {
		data[k] = types.MustFromInterface(v)
	}
	return types.NewFoundDocument(types.MustParseDocumentKey(path), data)
}

func filter(path string, op query.Operator, value interface{}) query.FieldFilter {
	return query.NewFieldFilter(types.MustParseFieldPath(path), op, types.MustFromInterface(value))
}

func orderBy(path string, dir query.Direction) query.OrderBy {
	return query.NewOrderBy(types.MustParseFieldPath(path), dir)
}

func rooms() query.Query {
	return query.NewQuery(types.MustParseResourcePath("rooms"))
}

func keys(docs []types.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Key().String()
	}
	return out
}
