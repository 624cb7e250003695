package query

import "fmt"

// Operator is the comparison applied by a FieldFilter
type Operator int

const (
	LessThan Operator = iota
	LessThanOrEqual
	Equal
	NotEqual
	GreaterThan
	GreaterThanOrEqual
	ArrayContains
	ArrayContainsAny
	In
	NotIn
)

var operatorNames = map[Operator]string{
	LessThan:           "<",
	LessThanOrEqual:    "<=",
	Equal:              "==",
	NotEqual:           "!=",
	GreaterThan:        ">",
	GreaterThanOrEqual: ">=",
	ArrayContains:      "array-contains",
	ArrayContainsAny:   "array-contains-any",
	In:                 "in",
	NotIn:              "not-in",
}

// ParseOperator converts the string form ("<", "in", ...) back to an Operator
func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// String returns the operator symbol used in canonical ids
func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// IsInequality reports whether the operator constrains a range of values.
// A query may only have one field with inequality filters.
func (o Operator) IsInequality() bool {
	switch o {
	case LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual, NotEqual, NotIn:
		return true
	default:
		return false
	}
}

// takesArray reports whether the filter value must be an array
func (o Operator) takesArray() bool {
	return o == ArrayContainsAny || o == In || o == NotIn
}
