package types

import (
	"cmp"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ValueType is the concrete representation held by a Value
type ValueType int

const (
	NullType ValueType = iota
	BooleanType
	IntegerType
	DoubleType
	TimestampType
	StringType
	BytesType
	ReferenceType
	ArrayType
	MapType
)

// TypeOrder ranks value types for cross-type comparison. Integers and doubles
// share the number order and compare numerically with each other.
type TypeOrder int

const (
	TypeOrderNull TypeOrder = iota
	TypeOrderBoolean
	TypeOrderNumber
	TypeOrderTimestamp
	TypeOrderString
	TypeOrderBytes
	TypeOrderReference
	TypeOrderArray
	TypeOrderMap
)

// Value is an immutable document field value. The zero Value is null.
type Value struct {
	typ ValueType
	b   bool
	i   int64
	f   float64
	t   time.Time
	s   string // string and bytes payloads
	ref ResourcePath
	arr []Value
	m   map[string]Value
}

// Null returns the null value
func Null() Value { return Value{} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{typ: BooleanType, b: b} }

// Int wraps a 64-bit integer
func Int(i int64) Value { return Value{typ: IntegerType, i: i} }

// Double wraps a float
func Double(f float64) Value { return Value{typ: DoubleType, f: f} }

// Timestamp wraps a point in time, truncated to microseconds like the backend
func Timestamp(t time.Time) Value {
	return Value{typ: TimestampType, t: t.UTC().Truncate(time.Microsecond)}
}

// String wraps a string
func String(s string) Value { return Value{typ: StringType, s: s} }

// Bytes wraps a byte slice. The slice is copied.
func Bytes(b []byte) Value { return Value{typ: BytesType, s: string(b)} }

// Reference wraps a document path
func Reference(path ResourcePath) Value { return Value{typ: ReferenceType, ref: path} }

// Array wraps a list of values
func Array(values ...Value) Value {
	return Value{typ: ArrayType, arr: slices.Clone(values)}
}

// Map wraps a set of named values. The map is copied.
func Map(fields map[string]Value) Value {
	m := make(map[string]Value, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return Value{typ: MapType, m: m}
}

// FromInterface converts decoded YAML/JSON data (and common Go scalars) into
// a Value.
func FromInterface(v interface{}) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d overflows int64", x)
		}
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d overflows int64", x)
		}
		return Int(int64(x)), nil
	case float32:
		return Double(float64(x)), nil
	case float64:
		return Double(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return Double(f), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	case time.Time:
		return Timestamp(x), nil
	case ResourcePath:
		return Reference(x), nil
	case DocumentKey:
		return Reference(x.Path()), nil
	case []interface{}:
		out := make([]Value, len(x))
		for i, e := range x {
			ev, err := FromInterface(e)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = ev
		}
		return Value{typ: ArrayType, arr: out}, nil
	case map[string]interface{}:
		out := make(map[string]Value, len(x))
		for k, e := range x {
			ev, err := FromInterface(e)
			if err != nil {
				return Value{}, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = ev
		}
		return Value{typ: MapType, m: out}, nil
	case map[interface{}]interface{}:
		out := make(map[string]Value, len(x))
		for k, e := range x {
			ks, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("map key %v is not a string", k)
			}
			ev, err := FromInterface(e)
			if err != nil {
				return Value{}, fmt.Errorf("field %q: %w", ks, err)
			}
			out[ks] = ev
		}
		return Value{typ: MapType, m: out}, nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// MustFromInterface is FromInterface for literals known to be valid.
func MustFromInterface(v interface{}) Value {
	out, err := FromInterface(v)
	if err != nil {
		panic(err)
	}
	return out
}

// Interface converts the value back to plain Go data suitable for encoding.
// References become their path string and bytes stay []byte.
func (v Value) Interface() interface{} {
	switch v.typ {
	case BooleanType:
		return v.b
	case IntegerType:
		return v.i
	case DoubleType:
		return v.f
	case TimestampType:
		return v.t
	case StringType:
		return v.s
	case BytesType:
		return []byte(v.s)
	case ReferenceType:
		return v.ref.CanonicalString()
	case ArrayType:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case MapType:
		out := make(map[string]interface{}, len(v.m))
		for k, e := range v.m {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// Type returns the concrete value type
func (v Value) Type() ValueType { return v.typ }

// TypeOrder returns the cross-type ordering rank
func (v Value) TypeOrder() TypeOrder {
	switch v.typ {
	case NullType:
		return TypeOrderNull
	case BooleanType:
		return TypeOrderBoolean
	case IntegerType, DoubleType:
		return TypeOrderNumber
	case TimestampType:
		return TypeOrderTimestamp
	case StringType:
		return TypeOrderString
	case BytesType:
		return TypeOrderBytes
	case ReferenceType:
		return TypeOrderReference
	case ArrayType:
		return TypeOrderArray
	default:
		return TypeOrderMap
	}
}

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.typ == NullType }

// IsNaN reports whether v is a NaN double
func (v Value) IsNaN() bool { return v.typ == DoubleType && math.IsNaN(v.f) }

// IsArray reports whether v is an array
func (v Value) IsArray() bool { return v.typ == ArrayType }

// ArrayValues returns a copy of the elements of an array value
func (v Value) ArrayValues() []Value { return slices.Clone(v.arr) }

// MapValues returns a copy of the fields of a map value
func (v Value) MapValues() map[string]Value {
	out := make(map[string]Value, len(v.m))
	for k, e := range v.m {
		out[k] = e
	}
	return out
}

// ReferencePath returns the path of a reference value
func (v Value) ReferencePath() (ResourcePath, bool) {
	return v.ref, v.typ == ReferenceType
}

// Field looks up a nested field inside a map value
func (v Value) Field(path FieldPath) (Value, bool) {
	cur := v
	for _, seg := range path.segments {
		if cur.typ != MapType {
			return Value{}, false
		}
		next, ok := cur.m[seg]
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Contains reports whether an array value holds an element equal to elem
func (v Value) Contains(elem Value) bool {
	if v.typ != ArrayType {
		return false
	}
	for _, e := range v.arr {
		if Equal(e, elem) {
			return true
		}
	}
	return false
}

// Equal reports whether two values are equal under Compare, restricted to
// values of the same type order.
func Equal(a, b Value) bool {
	return a.TypeOrder() == b.TypeOrder() && Compare(a, b) == 0
}

// Identical reports whether a and b hold the same representation. Unlike
// Equal it tells 1 from 1.0 and 0.0 from -0.0.
func Identical(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case DoubleType:
		if math.IsNaN(a.f) || math.IsNaN(b.f) {
			return math.IsNaN(a.f) && math.IsNaN(b.f)
		}
		return a.f == b.f && math.Signbit(a.f) == math.Signbit(b.f)
	case ArrayType:
		return slices.EqualFunc(a.arr, b.arr, Identical)
	case MapType:
		return maps.EqualFunc(a.m, b.m, Identical)
	default:
		return Compare(a, b) == 0
	}
}

// Compare returns a total order over all values: first by type order, then
// by value within the type.
func Compare(a, b Value) int {
	ta, tb := a.TypeOrder(), b.TypeOrder()
	if ta != tb {
		return cmp.Compare(ta, tb)
	}

	switch ta {
	case TypeOrderNull:
		return 0
	case TypeOrderBoolean:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case TypeOrderNumber:
		return compareNumbers(a, b)
	case TypeOrderTimestamp:
		return a.t.Compare(b.t)
	case TypeOrderString, TypeOrderBytes:
		return strings.Compare(a.s, b.s)
	case TypeOrderReference:
		return a.ref.Compare(b.ref)
	case TypeOrderArray:
		return slices.CompareFunc(a.arr, b.arr, Compare)
	default:
		return compareMaps(a.m, b.m)
	}
}

func compareNumbers(a, b Value) int {
	switch {
	case a.typ == IntegerType && b.typ == IntegerType:
		return cmp.Compare(a.i, b.i)
	case a.typ == DoubleType && b.typ == DoubleType:
		// cmp.Compare orders NaN before every other number and equal to itself
		return cmp.Compare(a.f, b.f)
	case a.typ == IntegerType:
		return -compareDoubleToInt(b.f, a.i)
	default:
		return compareDoubleToInt(a.f, b.i)
	}
}

// twoTo63 is the first double above the int64 range
const twoTo63 = float64(1 << 63)

// compareDoubleToInt orders d against i without rounding i to a float64,
// which would lose precision above 2^53.
func compareDoubleToInt(d float64, i int64) int {
	switch {
	case math.IsNaN(d), d < -twoTo63:
		return -1
	case d >= twoTo63:
		return 1
	}
	t := math.Trunc(d)
	if c := cmp.Compare(int64(t), i); c != 0 {
		return c
	}
	return cmp.Compare(d, t)
}

func compareMaps(a, b map[string]Value) int {
	ak, bk := sortedKeys(a), sortedKeys(b)
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := Compare(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ak), len(bk))
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CanonicalID returns a deterministic string form used in query canonical ids.
// Values that compare unequal never share an id: strings are quoted, bytes
// and references are tagged, and numbers share one form so 1 and 1.0 match.
func (v Value) CanonicalID() string {
	var sb strings.Builder
	v.writeCanonical(&sb)
	return sb.String()
}

func (v Value) writeCanonical(sb *strings.Builder) {
	switch v.typ {
	case NullType:
		sb.WriteString("null")
	case BooleanType:
		sb.WriteString(strconv.FormatBool(v.b))
	case IntegerType:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case DoubleType:
		writeCanonicalDouble(sb, v.f)
	case TimestampType:
		fmt.Fprintf(sb, "time(%d,%d)", v.t.Unix(), v.t.Nanosecond())
	case StringType:
		sb.WriteString(strconv.Quote(v.s))
	case BytesType:
		writeTagged(sb, "b64", base64.StdEncoding.EncodeToString([]byte(v.s)))
	case ReferenceType:
		writeTagged(sb, "ref", v.ref.CanonicalString())
	case ArrayType:
		sb.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			e.writeCanonical(sb)
		}
		sb.WriteByte(']')
	case MapType:
		sb.WriteByte('{')
		for i, k := range sortedKeys(v.m) {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			v.m[k].writeCanonical(sb)
		}
		sb.WriteByte('}')
	}
}

// writeCanonicalDouble writes integral doubles in the int64 range the way
// integers are written, so numerically equal values canonicalize alike.
func writeCanonicalDouble(sb *strings.Builder, f float64) {
	if f == math.Trunc(f) && f >= -twoTo63 && f < twoTo63 {
		sb.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}

// writeTagged writes tag(s), escaping backslashes and closing parens in s
func writeTagged(sb *strings.Builder, tag, s string) {
	sb.WriteString(tag)
	sb.WriteByte('(')
	for _, r := range s {
		if r == '\\' || r == ')' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte(')')
}

// String implements fmt.Stringer
func (v Value) String() string {
	return v.CanonicalID()
}
