package query

import (
	"github.com/arthur-debert/nanoquery/types"
)

func doc(path string, fields map[string]interface{}) *types.MutableDocument {
	data := make(map[string]types.Value, len(fields))
	for k, v := range fields {
		data[k] = types.MustFromInterface(v)
	}
	return types.NewFoundDocument(types.MustParseDocumentKey(path), data)
}

func missingDoc(path string) *types.MutableDocument {
	return types.NewMissingDocument(types.MustParseDocumentKey(path))
}

func field(path string) types.FieldPath {
	return types.MustParseFieldPath(path)
}

func filter(path string, op Operator, value interface{}) FieldFilter {
	return NewFieldFilter(field(path), op, types.MustFromInterface(value))
}

func orderBy(path string, dir Direction) OrderBy {
	return NewOrderBy(field(path), dir)
}

func keyOrder(dir Direction) OrderBy {
	return NewOrderBy(types.KeyFieldPath(), dir)
}

func ref(path string) types.Value {
	return types.Reference(types.MustParseResourcePath(path))
}

func values(vs ...interface{}) []types.Value {
	out := make([]types.Value, len(vs))
	for i, v := range vs {
		out[i] = types.MustFromInterface(v)
	}
	return out
}

func testQuery(path string) Query {
	return NewQuery(types.MustParseResourcePath(path))
}
