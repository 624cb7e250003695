package formats

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/nanoquery/types"
)

// PlainText renders each document as its path followed by indented
// "field: value" lines, documents separated by a blank line
var PlainText = &ResultFormat{
	Name:      "plaintext",
	Extension: ".txt",
	Render: func(w io.Writer, docs []types.Document) error {
		var result strings.Builder
		for i, doc := range docs {
			if i > 0 {
				result.WriteString("\n")
			}
			result.WriteString(doc.Key().String())
			result.WriteString("\n")

			fields, names := fieldsOf(doc)
			for _, name := range names {
				result.WriteString("  ")
				result.WriteString(name)
				result.WriteString(": ")
				result.WriteString(formatValue(fields[name]))
				result.WriteString("\n")
			}
		}
		if len(docs) == 0 {
			result.WriteString("(no documents)\n")
		}

		_, err := fmt.Fprint(w, result.String())
		return err
	},
}

func init() {
	mustRegister(PlainText)
}
