// Package validation checks user supplied names before they reach the
// query engine or the snapshot store.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/arthur-debert/nanoquery/types"
)

// IsReservedFieldName reports whether name is reserved by the engine and
// can't be written as a document field
func IsReservedFieldName(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// ValidateFieldName checks a top level document field name
func ValidateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if IsReservedFieldName(name) {
		return fmt.Errorf("'%s' is a reserved field name", name)
	}
	if strings.Contains(name, ".") {
		return fmt.Errorf("field name '%s' cannot contain '.'", name)
	}
	return nil
}

// ValidateCollectionPath checks that path names a collection: an odd number
// of non-empty segments
func ValidateCollectionPath(path string) (types.ResourcePath, error) {
	p, err := types.ParseResourcePath(path)
	if err != nil {
		return types.ResourcePath{}, err
	}
	if p.Len()%2 != 1 {
		return types.ResourcePath{}, fmt.Errorf("'%s' is not a collection path", path)
	}
	return p, nil
}

// ValidateDocumentID checks a single document id segment
func ValidateDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("document id '%s' cannot contain '/'", id)
	}
	if IsReservedFieldName(id) {
		return fmt.Errorf("'%s' is a reserved document id", id)
	}
	return nil
}

// ValidateFieldValue ensures a value decoded from user input can be stored
// as a document field
func ValidateFieldValue(value interface{}, fieldName string) error {
	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := ValidateFieldValue(v.Index(i).Interface(), fmt.Sprintf("%s[%d]", fieldName, i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("field '%s' map keys must be strings, got %T", fieldName, value)
		}
		entries := v.MapRange()
		for entries.Next() {
			if err := ValidateFieldValue(entries.Value().Interface(), fieldName+"."+entries.Key().String()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return ValidateFieldValue(v.Elem().Interface(), fieldName)
	case reflect.Struct:
		switch value.(type) {
		case time.Time, types.Value, types.ResourcePath, types.DocumentKey:
			return nil
		}
		return fmt.Errorf("field '%s' cannot be a struct type, got %T", fieldName, value)
	default:
		return fmt.Errorf("field '%s' has unsupported type %T", fieldName, value)
	}
}
