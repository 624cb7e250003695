package formats

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/arthur-debert/nanoquery/types"
)

// Markdown renders the result as a table with one column per field seen in
// any document
var Markdown = &ResultFormat{
	Name:      "markdown",
	Extension: ".md",
	Render: func(w io.Writer, docs []types.Document) error {
		var columns []string
		rows := make([]map[string]types.Value, len(docs))
		for i, doc := range docs {
			fields, names := fieldsOf(doc)
			rows[i] = fields
			for _, name := range names {
				if !slices.Contains(columns, name) {
					columns = append(columns, name)
				}
			}
		}
		slices.Sort(columns)

		var result strings.Builder
		result.WriteString("| path |")
		for _, c := range columns {
			result.WriteString(" " + escapeCell(c) + " |")
		}
		result.WriteString("\n|---|")
		result.WriteString(strings.Repeat("---|", len(columns)))
		result.WriteString("\n")

		for i, doc := range docs {
			result.WriteString("| " + escapeCell(doc.Key().String()) + " |")
			for _, c := range columns {
				cell := ""
				if v, ok := rows[i][c]; ok {
					cell = escapeCell(formatValue(v))
				}
				result.WriteString(" " + cell + " |")
			}
			result.WriteString("\n")
		}

		_, err := fmt.Fprint(w, result.String())
		return err
	},
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func init() {
	mustRegister(Markdown)
}
