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

package shape_test

import (
	"encoding/json"
	"testing"

	"github.com/go-quicktest/qt"

	"cleanplate.dev/go/shape"
)

func obj(kv ...any) *shape.Object {
	o := shape.NewObject()
	for i := 0; i < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1].(shape.Value))
	}
	return o
}

func TestMarshal(t *testing.T) {
	testCases := []struct {
		name string
		v    shape.Value
		want string
	}{{
		name: "Leaf",
		v:    shape.Leaf{},
		want: `""`,
	}, {
		name: "EmptyObject",
		v:    shape.NewObject(),
		want: `{}`,
	}, {
		name: "EmptyList",
		v:    shape.NewList(),
		want: `[]`,
	}, {
		name: "SortedKeys",
		v:    obj("zeta", shape.Leaf{}, "alpha", shape.Leaf{}, "mid", shape.NewObject()),
		want: `{"alpha":"","mid":{},"zeta":""}`,
	}, {
		name: "Nested",
		v: obj(
			"messages", shape.NewList(obj("role", shape.Leaf{}, "content", shape.Leaf{})),
			"bos_token", shape.Leaf{},
		),
		want: `{"bos_token":"","messages":[{"content":"","role":""}]}`,
	}, {
		name: "EscapedKey",
		v:    obj(`a"b`, shape.Leaf{}),
		want: `{"a\"b":""}`,
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.v)
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.Equals(string(b), tc.want))
			qt.Assert(t, qt.Equals(shape.Key(tc.v), tc.want))
		})
	}
}

func TestMarshalIndent(t *testing.T) {
	v := obj("user", obj("name", shape.Leaf{}))
	b, err := json.MarshalIndent(v, "", "  ")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(b), `{
  "user": {
    "name": ""
  }
}`))
}

func TestEqual(t *testing.T) {
	a := obj("items", shape.NewList(obj("name", shape.Leaf{})), "x", shape.Leaf{})
	b := obj("x", shape.Leaf{}, "items", shape.NewList(obj("name", shape.Leaf{})))
	qt.Assert(t, qt.IsTrue(shape.Equal(a, b)))
	qt.Assert(t, qt.Equals(shape.Key(a), shape.Key(b)))

	c := obj("x", shape.Leaf{}, "items", shape.NewList())
	qt.Assert(t, qt.IsFalse(shape.Equal(a, c)))
	qt.Assert(t, qt.IsFalse(shape.Equal(shape.Leaf{}, shape.NewObject())))
	qt.Assert(t, qt.IsFalse(shape.Equal(shape.NewList(), shape.NewObject())))
	qt.Assert(t, qt.IsFalse(shape.Equal(obj("a", shape.Leaf{}), obj("b", shape.Leaf{}))))
	qt.Assert(t, qt.IsTrue(shape.Equal(nil, nil)))
}

func TestObjectAccessors(t *testing.T) {
	o := obj("b", shape.Leaf{}, "a", shape.NewList())
	qt.Assert(t, qt.Equals(o.Len(), 2))
	qt.Assert(t, qt.DeepEquals(o.Fields(), []string{"a", "b"}))

	v, ok := o.Lookup("a")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsTrue(shape.Equal(v, shape.NewList())))

	_, ok = o.Lookup("c")
	qt.Assert(t, qt.IsFalse(ok))

	var zero shape.Object
	zero.Set("x", shape.Leaf{})
	qt.Assert(t, qt.Equals(shape.Key(&zero), `{"x":""}`))
}

func TestPaths(t *testing.T) {
	v := obj(
		"bos_token", shape.Leaf{},
		"tools", shape.NewList(),
		"messages", shape.NewList(obj(
			"role", shape.Leaf{},
			"tool_calls", shape.NewList(obj("function", obj("name", shape.Leaf{}))),
		)),
		"meta", shape.NewObject(),
	)
	qt.Assert(t, qt.DeepEquals(shape.Paths(v), []string{
		"bos_token",
		"messages[].role",
		"messages[].tool_calls[].function.name",
		"meta",
		"tools[]",
	}))
	qt.Assert(t, qt.HasLen(shape.Paths(shape.NewObject()), 0))
}

func TestParse(t *testing.T) {
	const src = `{"messages":[{"content":"","role":""}],"user":{"name":"x"}}`
	v, err := shape.Parse([]byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(shape.Key(v), `{"messages":[{"content":"","role":""}],"user":{"name":""}}`))

	_, err = shape.Parse([]byte(`{"a":1}`))
	qt.Assert(t, qt.ErrorMatches(err, `shape: unsupported JSON value of type number`))

	_, err = shape.Parse([]byte(`[null]`))
	qt.Assert(t, qt.ErrorMatches(err, `shape: unsupported JSON value null`))

	var uerr *shape.UnsupportedError
	_, err = shape.Parse([]byte(`true`))
	qt.Assert(t, qt.ErrorAs(err, &uerr))
	qt.Assert(t, qt.Equals(uerr.Value, any(true)))
}
