package formats

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanoquery/nanoquery/store"
	"github.com/arthur-debert/nanoquery/types"
)

// resultDocument mirrors the snapshot file layout so a rendered result can
// be loaded back as a snapshot
type resultDocument struct {
	Path   string                 `json:"path" yaml:"path"`
	Fields map[string]interface{} `json:"fields" yaml:"fields"`
}

type resultFile struct {
	Documents []resultDocument `json:"documents" yaml:"documents"`
}

func toResult(docs []types.Document) resultFile {
	out := resultFile{Documents: make([]resultDocument, 0, len(docs))}
	for _, doc := range docs {
		fields, names := fieldsOf(doc)
		encoded := make(map[string]interface{}, len(names))
		for _, name := range names {
			encoded[name] = store.EncodeValue(fields[name])
		}
		out.Documents = append(out.Documents, resultDocument{Path: doc.Key().String(), Fields: encoded})
	}
	return out
}

// JSON renders the result as an indented JSON snapshot
var JSON = &ResultFormat{
	Name:      "json",
	Extension: ".json",
	Render: func(w io.Writer, docs []types.Document) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toResult(docs))
	},
}

// YAML renders the result as a YAML snapshot
var YAML = &ResultFormat{
	Name:      "yaml",
	Extension: ".yaml",
	Render: func(w io.Writer, docs []types.Document) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toResult(docs)); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	mustRegister(JSON)
	mustRegister(YAML)
}
