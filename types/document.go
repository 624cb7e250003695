package types

// Document is what the query engine needs from a stored document
type Document interface {
	// Key returns the document's location
	Key() DocumentKey

	// Exists is false for tombstones and documents known to be missing
	Exists() bool

	// Field looks up a possibly nested field. The key sentinel is not a
	// data field and is never found here.
	Field(path FieldPath) (Value, bool)
}

// MutableDocument is the in-memory Document implementation used by views,
// the snapshot store and tests.
type MutableDocument struct {
	key    DocumentKey
	data   Value
	exists bool
}

// NewFoundDocument creates an existing document holding data
func NewFoundDocument(key DocumentKey, data map[string]Value) *MutableDocument {
	return &MutableDocument{key: key, data: Map(data), exists: true}
}

// NewMissingDocument creates a tombstone for key
func NewMissingDocument(key DocumentKey) *MutableDocument {
	return &MutableDocument{key: key, data: Map(nil)}
}

// Key implements Document
func (d *MutableDocument) Key() DocumentKey { return d.key }

// Exists implements Document
func (d *MutableDocument) Exists() bool { return d.exists }

// Field implements Document
func (d *MutableDocument) Field(path FieldPath) (Value, bool) {
	if path.Len() == 0 {
		return Value{}, false
	}
	return d.data.Field(path)
}

// Data returns the document's top level fields as a map value
func (d *MutableDocument) Data() Value { return d.data }

// SetField returns a copy of the document with a top level field replaced
func (d *MutableDocument) SetField(name string, v Value) *MutableDocument {
	fields := make(map[string]Value, len(d.data.m)+1)
	for k, e := range d.data.m {
		fields[k] = e
	}
	fields[name] = v
	return &MutableDocument{key: d.key, data: Value{typ: MapType, m: fields}, exists: true}
}

// String implements fmt.Stringer
func (d *MutableDocument) String() string {
	if !d.exists {
		return "MissingDocument(" + d.key.String() + ")"
	}
	return "Document(" + d.key.String() + ", " + d.data.CanonicalID() + ")"
}
