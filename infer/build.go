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

package infer

import (
	"slices"

	"cleanplate.dev/go/shape"
)

// An ArrayFieldRule reports whether an attribute holds a list of objects
// even though the template never iterates over it. Such attributes are
// typically indexed or passed to filters, as in message.tool_calls[0].
type ArrayFieldRule func(attr string) bool

// DefaultArrayFields lists the attribute names treated as lists by
// [DefaultArrayFieldRule].
var DefaultArrayFields = []string{"tool_calls"}

// DefaultArrayFieldRule is the rule used when no other rule is configured.
var DefaultArrayFieldRule = FieldNames(DefaultArrayFields...)

// FieldNames returns a rule that matches the given attribute names.
func FieldNames(names ...string) ArrayFieldRule {
	names = slices.Clone(names)
	return func(attr string) bool {
		return slices.Contains(names, attr)
	}
}

// Build reconstructs the data shape from the final state of t.
// Each external variable becomes a field of the result.
// Build does not modify t.
func Build(t *Tracker, isArray ArrayFieldRule) *shape.Object {
	if isArray == nil {
		isArray = func(string) bool { return false }
	}
	b := &builder{t: t, isArray: isArray}

	result := shape.NewObject()
	for _, name := range t.ExternalVars() {
		resolved := t.Resolve(name)
		switch {
		case b.iterated(resolved):
			if t.hasAttrs(resolved) {
				result.Set(name, shape.NewList(b.object(resolved)))
			} else {
				result.Set(name, shape.NewList())
			}
		case t.hasAttrs(resolved):
			result.Set(name, b.object(resolved))
		default:
			result.Set(name, shape.Leaf{})
		}
	}
	return result
}

type builder struct {
	t       *Tracker
	isArray ArrayFieldRule
}

// iterated reports whether a loop iterates over name directly or over a
// variable that resolves to it.
func (b *builder) iterated(name string) bool {
	for _, iterable := range b.t.loopVars {
		if iterable == name || b.t.Resolve(iterable) == name {
			return true
		}
	}
	return false
}

// looped reports whether a loop iterates over exactly path.
func (b *builder) looped(path string) bool {
	for _, iterable := range b.t.loopVars {
		if iterable == path {
			return true
		}
	}
	return false
}

// object builds the object for key from its attributes. Attribute paths
// only grow, so the recursion terminates.
func (b *builder) object(key string) *shape.Object {
	obj := shape.NewObject()
	for _, attr := range b.t.Attrs(key) {
		nested := key + "." + attr
		if !b.t.hasAttrs(nested) {
			obj.Set(attr, shape.Leaf{})
			continue
		}
		v := b.object(nested)
		if b.looped(nested) || b.isArray(attr) {
			obj.Set(attr, shape.NewList(v))
		} else {
			obj.Set(attr, v)
		}
	}
	return obj
}
