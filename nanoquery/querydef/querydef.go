// Package querydef reads query definitions from YAML or JSON files and
// builds them into query.Query values.
package querydef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanoquery/nanoquery/query"
	"github.com/arthur-debert/nanoquery/nanoquery/store"
	"github.com/arthur-debert/nanoquery/types"
)

// ErrInvalidDefinition wraps every error caused by the definition's content
var ErrInvalidDefinition = errors.New("invalid query definition")

// Definition is the file form of a query
type Definition struct {
	Path            string        `json:"path" yaml:"path"`
	CollectionGroup string        `json:"collection_group,omitempty" yaml:"collection_group,omitempty"`
	Where           []Condition   `json:"where,omitempty" yaml:"where,omitempty"`
	OrderBy         []Ordering    `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	Limit           *int32        `json:"limit,omitempty" yaml:"limit,omitempty"`
	LimitToLast     bool          `json:"limit_to_last,omitempty" yaml:"limit_to_last,omitempty"`
	StartAt         []interface{} `json:"start_at,omitempty" yaml:"start_at,omitempty"`
	StartAfter      []interface{} `json:"start_after,omitempty" yaml:"start_after,omitempty"`
	EndAt           []interface{} `json:"end_at,omitempty" yaml:"end_at,omitempty"`
	EndBefore       []interface{} `json:"end_before,omitempty" yaml:"end_before,omitempty"`
}

// Condition is either a field comparison or an and/or group
type Condition struct {
	Field string      `json:"field,omitempty" yaml:"field,omitempty"`
	Op    string      `json:"op,omitempty" yaml:"op,omitempty"`
	Value interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	And   []Condition `json:"and,omitempty" yaml:"and,omitempty"`
	Or    []Condition `json:"or,omitempty" yaml:"or,omitempty"`
}

// Ordering is one order_by entry
type Ordering struct {
	Field     string `json:"field" yaml:"field"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, fmt.Sprintf(format, args...))
}

// Load reads and builds the definition at path. Files ending in .json are
// decoded as JSON, anything else as YAML.
func Load(path string) (query.Query, *Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return query.Query{}, nil, err
	}
	def, err := Decode(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return query.Query{}, nil, err
	}
	q, err := def.Build()
	if err != nil {
		return query.Query{}, nil, err
	}
	return q, def, nil
}

// Decode parses a definition without building it
func Decode(data []byte, isJSON bool) (*Definition, error) {
	var def Definition
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
		return &def, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return &def, nil
}

// Build converts the definition into a query. Builder contract violations
// come back as errors wrapping both ErrInvalidDefinition and
// query.ErrContractViolation.
func (d *Definition) Build() (query.Query, error) {
	path, err := types.ParseResourcePath(d.Path)
	if err != nil {
		return query.Query{}, invalid("path: %v", err)
	}

	var q query.Query
	if d.CollectionGroup != "" {
		if strings.Contains(d.CollectionGroup, "/") {
			return query.Query{}, invalid("collection_group %q cannot contain '/'", d.CollectionGroup)
		}
		q = query.NewCollectionGroupQuery(path, d.CollectionGroup)
	} else {
		q = query.NewQuery(path)
	}

	for i, c := range d.Where {
		f, err := c.filter(path)
		if err != nil {
			return query.Query{}, fmt.Errorf("where[%d]: %w", i, err)
		}
		if err := q.CheckFilter(f); err != nil {
			return query.Query{}, fmt.Errorf("%w: where[%d]: %w", ErrInvalidDefinition, i, err)
		}
		q = q.AddingFilter(f)
	}

	for i, o := range d.OrderBy {
		field, err := types.ParseFieldPath(o.Field)
		if err != nil {
			return query.Query{}, invalid("order_by[%d]: %v", i, err)
		}
		dir, err := query.ParseDirection(o.Direction)
		if err != nil {
			return query.Query{}, invalid("order_by[%d]: %v", i, err)
		}
		ob := query.NewOrderBy(field, dir)
		if err := q.CheckOrderBy(ob); err != nil {
			return query.Query{}, fmt.Errorf("%w: order_by[%d]: %w", ErrInvalidDefinition, i, err)
		}
		q = q.AddingOrderBy(ob)
	}

	if d.Limit != nil {
		if *d.Limit < 0 {
			return query.Query{}, invalid("limit must not be negative")
		}
		if d.LimitToLast {
			q = q.WithLimitToLast(*d.Limit)
		} else {
			q = q.WithLimitToFirst(*d.Limit)
		}
	} else if d.LimitToLast {
		return query.Query{}, invalid("limit_to_last requires limit")
	}

	if d.StartAt != nil && d.StartAfter != nil {
		return query.Query{}, invalid("start_at and start_after are exclusive")
	}
	if d.EndAt != nil && d.EndBefore != nil {
		return query.Query{}, invalid("end_at and end_before are exclusive")
	}

	orderBys := q.NormalizedOrderBys()
	if start, inclusive := pick(d.StartAt, d.StartAfter); start != nil {
		b, err := bound(start, inclusive, orderBys, path)
		if err != nil {
			return query.Query{}, fmt.Errorf("start: %w", err)
		}
		q = q.StartingAt(b)
	}
	if end, inclusive := pick(d.EndAt, d.EndBefore); end != nil {
		b, err := bound(end, inclusive, orderBys, path)
		if err != nil {
			return query.Query{}, fmt.Errorf("end: %w", err)
		}
		q = q.EndingAt(b)
	}

	return q, nil
}

// pick returns the inclusive cursor if set, else the exclusive one
func pick(inclusive, exclusive []interface{}) ([]interface{}, bool) {
	if inclusive != nil {
		return inclusive, true
	}
	return exclusive, false
}

func bound(raw []interface{}, inclusive bool, orderBys []query.OrderBy, base types.ResourcePath) (query.Bound, error) {
	if len(raw) == 0 {
		return query.Bound{}, invalid("cursor must have at least one value")
	}
	if len(raw) > len(orderBys) {
		return query.Bound{}, invalid("cursor has %d values but the query orders by %d fields", len(raw), len(orderBys))
	}

	position := make([]types.Value, len(raw))
	for i, r := range raw {
		var v types.Value
		var err error
		if orderBys[i].Field().IsKeyFieldPath() {
			v, err = keyValue(r, base)
		} else {
			v, err = store.DecodeValue(r)
		}
		if err != nil {
			return query.Bound{}, invalid("cursor[%d]: %v", i, err)
		}
		position[i] = v
	}
	return query.NewBound(position, inclusive), nil
}

// keyValue turns a document reference written in a definition into a
// reference value. A bare id is resolved against the query path.
func keyValue(raw interface{}, base types.ResourcePath) (types.Value, error) {
	s, ok := raw.(string)
	if !ok {
		v, err := store.DecodeValue(raw)
		if err != nil {
			return types.Value{}, err
		}
		if _, isRef := v.ReferencePath(); !isRef {
			return types.Value{}, fmt.Errorf("document key value must be a path, got %s", v)
		}
		return v, nil
	}

	p, err := types.ParseResourcePath(s)
	if err != nil {
		return types.Value{}, err
	}
	if p.Len() == 1 {
		p = base.Append(p.Segment(0))
	}
	if !types.IsDocumentKey(p) {
		return types.Value{}, fmt.Errorf("%q is not a document path", s)
	}
	return types.Reference(p), nil
}

func (c Condition) filter(base types.ResourcePath) (query.Filter, error) {
	group := 0
	if c.Field != "" || c.Op != "" {
		group++
	}
	if c.And != nil {
		group++
	}
	if c.Or != nil {
		group++
	}
	if group != 1 {
		return nil, invalid("condition needs exactly one of field/op, and, or")
	}

	if c.And != nil || c.Or != nil {
		kind, children := query.And, c.And
		if c.Or != nil {
			kind, children = query.Or, c.Or
		}
		filters := make([]query.Filter, len(children))
		for i, child := range children {
			f, err := child.filter(base)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", kind, i, err)
			}
			filters[i] = f
		}
		return query.NewCompositeFilter(kind, filters...), nil
	}

	field, err := types.ParseFieldPath(c.Field)
	if err != nil {
		return nil, invalid("%v", err)
	}
	op, err := query.ParseOperator(c.Op)
	if err != nil {
		return nil, invalid("%v", err)
	}

	var value types.Value
	switch {
	case field.IsKeyFieldPath():
		value, err = keyFilterValue(c.Value, base)
	default:
		value, err = store.DecodeValue(c.Value)
	}
	if err != nil {
		return nil, invalid("%s: %v", c.Field, err)
	}

	var f query.FieldFilter
	if err := query.Recover(func() { f = query.NewFieldFilter(field, op, value) }); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return f, nil
}

// keyFilterValue converts key filter operands, element-wise for arrays
func keyFilterValue(raw interface{}, base types.ResourcePath) (types.Value, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return keyValue(raw, base)
	}
	out := make([]types.Value, len(list))
	for i, e := range list {
		v, err := keyValue(e, base)
		if err != nil {
			return types.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = v
	}
	return types.Array(out...), nil
}
