package store

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanoquery/types"
)

// Typed values that neither YAML nor JSON can carry natively are written as
// single key maps.
const (
	refKey       = "$ref"
	bytesKey     = "$bytes"
	timestampKey = "$timestamp"
)

type snapshotFile struct {
	Documents []snapshotDocument `json:"documents" yaml:"documents"`
}

type snapshotDocument struct {
	Path    string                 `json:"path" yaml:"path"`
	Fields  map[string]interface{} `json:"fields,omitempty" yaml:"fields,omitempty"`
	Missing bool                   `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// isYAML picks the encoding from the file extension. Anything that isn't
// .yaml or .yml is JSON.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshalSnapshot(path string, data []byte) (*snapshotFile, error) {
	var snap snapshotFile
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return &snap, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(path string, snap *snapshotFile) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(snap)
	}
	return json.MarshalIndent(snap, "", "  ")
}

// DecodeValue converts decoded YAML/JSON data into a Value, resolving the
// typed single key maps written by EncodeValue
func DecodeValue(v interface{}) (types.Value, error) {
	switch x := v.(type) {
	case []interface{}:
		out := make([]types.Value, len(x))
		for i, e := range x {
			ev, err := DecodeValue(e)
			if err != nil {
				return types.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = ev
		}
		return types.Array(out...), nil
	case map[string]interface{}:
		if typed, ok, err := decodeTyped(x); ok || err != nil {
			return typed, err
		}
		out := make(map[string]types.Value, len(x))
		for k, e := range x {
			ev, err := DecodeValue(e)
			if err != nil {
				return types.Value{}, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = ev
		}
		return types.Map(out), nil
	default:
		return types.FromInterface(v)
	}
}

func decodeTyped(m map[string]interface{}) (types.Value, bool, error) {
	if len(m) != 1 {
		return types.Value{}, false, nil
	}
	for k, raw := range m {
		s, isString := raw.(string)
		switch k {
		case refKey:
			if !isString {
				return types.Value{}, true, fmt.Errorf("%s must be a string", refKey)
			}
			p, err := types.ParseResourcePath(s)
			if err != nil {
				return types.Value{}, true, err
			}
			return types.Reference(p), true, nil
		case bytesKey:
			if !isString {
				return types.Value{}, true, fmt.Errorf("%s must be a string", bytesKey)
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return types.Value{}, true, fmt.Errorf("invalid %s: %w", bytesKey, err)
			}
			return types.Bytes(b), true, nil
		case timestampKey:
			if t, ok := raw.(time.Time); ok {
				return types.Timestamp(t), true, nil
			}
			if !isString {
				return types.Value{}, true, fmt.Errorf("%s must be a string", timestampKey)
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return types.Value{}, true, fmt.Errorf("invalid %s: %w", timestampKey, err)
			}
			return types.Timestamp(t), true, nil
		}
	}
	return types.Value{}, false, nil
}

// EncodeValue converts v into plain YAML/JSON data
func EncodeValue(v types.Value) interface{} {
	switch v.Type() {
	case types.ReferenceType:
		p, _ := v.ReferencePath()
		return map[string]interface{}{refKey: p.CanonicalString()}
	case types.BytesType:
		return map[string]interface{}{bytesKey: base64.StdEncoding.EncodeToString(v.Interface().([]byte))}
	case types.TimestampType:
		return map[string]interface{}{timestampKey: v.Interface().(time.Time).Format(time.RFC3339Nano)}
	case types.ArrayType:
		elems := v.ArrayValues()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = EncodeValue(e)
		}
		return out
	case types.MapType:
		fields := v.MapValues()
		out := make(map[string]interface{}, len(fields))
		for k, e := range fields {
			out[k] = EncodeValue(e)
		}
		return out
	default:
		return v.Interface()
	}
}
