package formats

import (
	"maps"
	"slices"
	"strings"

	"github.com/arthur-debert/nanoquery/types"
)

// fieldsOf returns a document's top level fields and their sorted names
func fieldsOf(doc types.Document) (map[string]types.Value, []string) {
	var fields map[string]types.Value
	if md, ok := doc.(*types.MutableDocument); ok {
		fields = md.Data().MapValues()
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return fields, names
}

// formatValue renders a field value for the text formats. Strings and
// references print bare, arrays and maps recurse, everything else uses its
// canonical form.
func formatValue(v types.Value) string {
	switch v.Type() {
	case types.StringType:
		return v.Interface().(string)
	case types.ReferenceType:
		path, _ := v.ReferencePath()
		return path.CanonicalString()
	case types.ArrayType:
		elems := v.ArrayValues()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case types.MapType:
		m := v.MapValues()
		keys := slices.Sorted(maps.Keys(m))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + formatValue(m[k])
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return v.CanonicalID()
	}
}
