// Package metadata implements the path-addressable tag tree every codec
// attaches decoded properties to (dimensions, depth, color model,
// orientation, EXIF/XMP payloads) and the XMP serialization used to copy it
// back out. The path/value model generalizes the tag-by-numeric-id idiom
// mdouchement/tiff uses internally to the string, namespace-qualified paths
// XMP needs.
package metadata

import (
	"fmt"
	"sort"
)

// ValueType tags the Go type underlying a Value.
type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeStruct // nested Metadata, for recursive enumeration
	TypeBytes  // opaque binary payload (e.g. a raw EXIF/APP1 block)
)

// Value is one tag's payload.
type Value struct {
	Type   ValueType
	Str    string
	Int    int64
	Float  float64
	Bool   bool
	Struct *Metadata
	Bytes  []byte
}

func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return v.Str
	case TypeInt:
		return fmt.Sprintf("%d", v.Int)
	case TypeFloat:
		return fmt.Sprintf("%g", v.Float)
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeBytes:
		return fmt.Sprintf("<%d bytes>", len(v.Bytes))
	default:
		return ""
	}
}

// Metadata owns an ordered map from path ("prefix:name", '/'-joined for
// nesting) to Value. Insertion order is preserved for Enumerate.
type Metadata struct {
	order []string
	tags  map[string]Value
}

// New creates an empty, mutable Metadata object.
func New() *Metadata {
	return &Metadata{tags: make(map[string]Value)}
}

// Copy creates a deep mutable copy of m.
func (m *Metadata) Copy() *Metadata {
	out := New()
	for _, path := range m.order {
		v := m.tags[path]
		if v.Type == TypeStruct && v.Struct != nil {
			v.Struct = v.Struct.Copy()
		}
		if v.Type == TypeBytes && v.Bytes != nil {
			cp := make([]byte, len(v.Bytes))
			copy(cp, v.Bytes)
			v.Bytes = cp
		}
		out.Set(path, v)
	}
	return out
}

// Set assigns path to v, appending path to the enumeration order if new.
func (m *Metadata) Set(path string, v Value) {
	if _, exists := m.tags[path]; !exists {
		m.order = append(m.order, path)
	}
	m.tags[path] = v
}

// SetString is a convenience wrapper for the common case.
func (m *Metadata) SetString(path, s string) { m.Set(path, Value{Type: TypeString, Str: s}) }

// SetInt is a convenience wrapper for the common case.
func (m *Metadata) SetInt(path string, n int64) { m.Set(path, Value{Type: TypeInt, Int: n}) }

// SetBytes stores an opaque binary payload (e.g. a raw EXIF block copied
// straight out of a container chunk, with no TIFF-tag parsing of its own).
func (m *Metadata) SetBytes(path string, b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	m.Set(path, Value{Type: TypeBytes, Bytes: cp})
}

// Get returns the value at path and whether it was present.
func (m *Metadata) Get(path string) (Value, bool) {
	v, ok := m.tags[path]
	return v, ok
}

// Remove deletes path, if present.
func (m *Metadata) Remove(path string) {
	if _, ok := m.tags[path]; !ok {
		return
	}
	delete(m.tags, path)
	for i, p := range m.order {
		if p == path {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Enumerate returns (path, Value) pairs in insertion order. If recursive is
// true, struct-valued tags are expanded with their paths prefixed by the
// parent path and '/'.
func (m *Metadata) Enumerate(recursive bool) []struct {
	Path  string
	Value Value
} {
	var out []struct {
		Path  string
		Value Value
	}
	for _, path := range m.order {
		v := m.tags[path]
		out = append(out, struct {
			Path  string
			Value Value
		}{path, v})
		if recursive && v.Type == TypeStruct && v.Struct != nil {
			for _, child := range v.Struct.Enumerate(true) {
				out = append(out, struct {
					Path  string
					Value Value
				}{path + "/" + child.Path, child.Value})
			}
		}
	}
	return out
}

// sortedPaths is used only by the XMP writer, which wants deterministic
// (not necessarily insertion) output grouped by namespace.
func (m *Metadata) sortedPaths() []string {
	paths := append([]string(nil), m.order...)
	sort.Strings(paths)
	return paths
}

