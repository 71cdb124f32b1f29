// Copyright 2026 The Cleanplate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shape defines the skeleton values produced by template inference.
//
// A shape is built from three kinds of values: objects with named fields,
// lists holding a representative element, and the empty leaf that stands for
// any scalar. Shapes serialize to JSON with object keys sorted, so that
// equal shapes always produce identical bytes.
package shape

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// A Value is one of *Object, *List or Leaf.
type Value interface {
	json.Marshaler
	value()
}

// Leaf is the placeholder for a value whose structure is not known.
// It serializes as the empty string.
type Leaf struct{}

func (Leaf) value() {}

func (Leaf) MarshalJSON() ([]byte, error) { return []byte(`""`), nil }

// An Object maps field names to shapes.
type Object struct {
	fields map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{fields: map[string]Value{}}
}

func (*Object) value() {}

// Set sets field name to v, replacing any previous value.
func (o *Object) Set(name string, v Value) {
	if o.fields == nil {
		o.fields = map[string]Value{}
	}
	o.fields[name] = v
}

// Lookup reports the value of field name.
func (o *Object) Lookup(name string) (Value, bool) {
	v, ok := o.fields[name]
	return v, ok
}

// Len reports the number of fields.
func (o *Object) Len() int { return len(o.fields) }

// Fields returns the field names in sorted order.
func (o *Object) Fields() []string {
	names := make([]string, 0, len(o.fields))
	for name := range o.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range o.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte(':')
		b, err = o.fields[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// A List is a sequence shape. Elems holds representative elements; an
// empty list means the elements are never inspected.
type List struct {
	Elems []Value
}

// NewList returns a list with the given representative elements.
func NewList(elems ...Value) *List {
	return &List{Elems: elems}
}

func (*List) value() {}

func (l *List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range l.Elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := e.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Key returns the compact canonical JSON encoding of v. Two values have
// the same key if and only if they are Equal.
func Key(v Value) string {
	if v == nil {
		return "null"
	}
	b, err := v.MarshalJSON()
	if err != nil {
		// None of the values in this package fail to marshal.
		panic(err)
	}
	return string(b)
}

// Equal reports whether a and b describe the same shape.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Leaf:
		_, ok := b.(Leaf)
		return ok
	case *Object:
		b, ok := b.(*Object)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for name, x := range a.fields {
			y, ok := b.fields[name]
			if !ok || !Equal(x, y) {
				return false
			}
		}
		return true
	case *List:
		b, ok := b.(*List)
		if !ok || len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}

// Paths returns the flattened paths of all leaves in v, in sorted order.
// Fields are joined with dots and list elements are marked with "[]",
// as in "messages[].content". Empty lists and objects below the root are
// reported as paths of their own.
func Paths(v Value) []string {
	var paths []string
	collectPaths(&paths, "", v)
	slices.Sort(paths)
	return slices.Compact(paths)
}

func collectPaths(paths *[]string, prefix string, v Value) {
	switch v := v.(type) {
	case *Object:
		if v.Len() == 0 && prefix != "" {
			*paths = append(*paths, prefix)
			return
		}
		for _, name := range v.Fields() {
			p := name
			if prefix != "" {
				p = prefix + "." + name
			}
			collectPaths(paths, p, v.fields[name])
		}
	case *List:
		p := prefix + "[]"
		if len(v.Elems) == 0 {
			*paths = append(*paths, p)
			return
		}
		for _, e := range v.Elems {
			collectPaths(paths, p, e)
		}
	case Leaf:
		if prefix != "" {
			*paths = append(*paths, prefix)
		}
	}
}

// Parse decodes a shape from its JSON form. Strings of any content decode
// as Leaf; other scalars are rejected.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, err
	}
	return fromJSON(x)
}

func fromJSON(x any) (Value, error) {
	switch x := x.(type) {
	case string:
		return Leaf{}, nil
	case map[string]any:
		o := NewObject()
		for name, f := range x {
			v, err := fromJSON(f)
			if err != nil {
				return nil, err
			}
			o.Set(name, v)
		}
		return o, nil
	case []any:
		l := &List{}
		for _, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			l.Elems = append(l.Elems, v)
		}
		return l, nil
	}
	return nil, &UnsupportedError{Value: x}
}

// An UnsupportedError is returned by Parse for JSON values that have no
// shape equivalent.
type UnsupportedError struct {
	Value any
}

func (e *UnsupportedError) Error() string {
	var b strings.Builder
	b.WriteString("shape: unsupported JSON value")
	switch e.Value.(type) {
	case nil:
		b.WriteString(" null")
	case bool:
		b.WriteString(" of type bool")
	case json.Number:
		b.WriteString(" of type number")
	}
	return b.String()
}
