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

package infer_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"cleanplate.dev/go/infer"
	"cleanplate.dev/go/shape"
)

func TestTrackerIgnored(t *testing.T) {
	tr := infer.NewTracker(nil, "range")
	for _, name := range []string{"", "loop", "loop.index", "loop.cycle", "range", "range.x"} {
		tr.Record(name, infer.ReadKind())
	}
	qt.Assert(t, qt.HasLen(tr.Accesses(), 0))
	qt.Assert(t, qt.HasLen(tr.ExternalVars(), 0))

	// Only exact names and their attribute paths are ignored.
	tr.Record("looped", infer.ReadKind())
	tr.Record("ranges", infer.ReadKind())
	qt.Assert(t, qt.DeepEquals(tr.ExternalVars(), []string{"looped", "ranges"}))
}

func TestTrackerFirstAccess(t *testing.T) {
	tr := infer.NewTracker(nil)
	tr.Record("x", infer.ReadKind())
	tr.Record("x", infer.SetKind())
	tr.Record("y", infer.SetKind())
	tr.Record("y", infer.ReadKind())
	tr.Record("z", infer.AliasKind("x"))
	tr.Record("z", infer.ReadKind())

	qt.Assert(t, qt.DeepEquals(tr.ExternalVars(), []string{"x"}))
	qt.Assert(t, qt.DeepEquals(tr.InternalVars(), []string{"y", "z"}))

	k, ok := tr.FirstAccess("x")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(k, infer.ReadKind()))
	k, _ = tr.FirstAccess("z")
	qt.Assert(t, qt.Equals(k, infer.AliasKind("x")))
	_, ok = tr.FirstAccess("w")
	qt.Assert(t, qt.IsFalse(ok))

	// Later accesses are still logged.
	qt.Assert(t, qt.HasLen(tr.Accesses(), 6))
}

func TestTrackerDefinedBase(t *testing.T) {
	tr := infer.NewTracker(nil)
	tr.Record("item", infer.LoopKind("items"))
	tr.Record("item.name", infer.ReadKind())
	tr.Record("title", infer.SetKind())
	tr.Record("title.upper", infer.ReadKind())
	tr.Record("other.x", infer.ReadKind())

	// Only loop variables are exempt; a set name read through an attribute
	// is reported like any other input.
	qt.Assert(t, qt.DeepEquals(tr.ExternalVars(), []string{"other", "title"}))
	qt.Assert(t, qt.DeepEquals(tr.InternalVars(), []string{"item", "title"}))
	qt.Assert(t, qt.DeepEquals(tr.Attrs("title"), []string{"upper"}))
	qt.Assert(t, qt.DeepEquals(tr.Attrs("items"), []string{"name"}))
	qt.Assert(t, qt.HasLen(tr.Attrs("item"), 0))
	qt.Assert(t, qt.DeepEquals(tr.LoopVars(), map[string]string{"item": "items"}))
}

func TestTrackerAttrs(t *testing.T) {
	tr := infer.NewTracker(nil)
	tr.Record("a.b.c.d", infer.ReadKind())
	qt.Assert(t, qt.DeepEquals(tr.Attrs("a.b.c"), []string{"d"}))
	qt.Assert(t, qt.DeepEquals(tr.Attrs("a.b"), []string{"c"}))
	qt.Assert(t, qt.HasLen(tr.Attrs("a"), 0))

	tr.Record("a.b.e", infer.ReadKind())
	qt.Assert(t, qt.DeepEquals(tr.Attrs("a.b"), []string{"c", "e"}))
	qt.Assert(t, qt.DeepEquals(tr.Attrs("a"), []string{"b"}))

	// Only the direct parent is redirected to the iterable; the back-filled
	// level stays on the loop variable.
	tr.Record("x", infer.LoopKind("xs"))
	tr.Record("x.y.z", infer.ReadKind())
	qt.Assert(t, qt.DeepEquals(tr.Attrs("x.y"), []string{"z"}))
	qt.Assert(t, qt.DeepEquals(tr.Attrs("x"), []string{"y"}))
	qt.Assert(t, qt.HasLen(tr.Attrs("xs"), 0))

	tr.Record("x.w", infer.ReadKind())
	qt.Assert(t, qt.DeepEquals(tr.Attrs("xs"), []string{"w"}))
}

func TestTrackerResolve(t *testing.T) {
	tr := infer.NewTracker(nil)
	tr.Record("user", infer.ReadKind())
	tr.Record("u", infer.AliasKind("user"))
	tr.Record("v", infer.AliasKind("u"))

	qt.Assert(t, qt.Equals(tr.Resolve("user"), "v"))
	qt.Assert(t, qt.Equals(tr.Resolve("u"), "v"))
	qt.Assert(t, qt.Equals(tr.Resolve("v"), "v"))
	qt.Assert(t, qt.Equals(tr.Resolve("unknown"), "unknown"))
	qt.Assert(t, qt.Equals(tr.Origin("v"), "user"))
	qt.Assert(t, qt.Equals(tr.Origin("user"), "user"))

	// Cycles stop at the repeated name, so resolution is idempotent.
	tr.Record("a", infer.AliasKind("b"))
	tr.Record("b", infer.AliasKind("a"))
	tr.Record("s", infer.AliasKind("s"))
	for _, name := range []string{"a", "b", "s", "user"} {
		r := tr.Resolve(name)
		qt.Assert(t, qt.Equals(tr.Resolve(r), r), qt.Commentf("name %s", name))
	}
	qt.Assert(t, qt.Equals(tr.Resolve("a"), "a"))
	qt.Assert(t, qt.Equals(tr.Resolve("s"), "s"))
	qt.Assert(t, qt.Equals(tr.Origin("a"), "a"))
	qt.Assert(t, qt.Equals(tr.Origin("s"), "s"))
}

func TestKindString(t *testing.T) {
	qt.Assert(t, qt.Equals(infer.ReadKind().String(), "READ"))
	qt.Assert(t, qt.Equals(infer.SetKind().String(), "SET"))
	qt.Assert(t, qt.Equals(infer.AliasKind("user").String(), "SET ALIAS to user"))
	qt.Assert(t, qt.Equals(infer.LoopKind("items").String(), "LOOP VAR from items"))
}

func TestTrackerLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
	tr := infer.NewTracker(logger)
	tr.Record("user", infer.ReadKind())
	tr.Record("u", infer.AliasKind("user"))
	tr.Record("loop.index", infer.ReadKind())

	want := `level=DEBUG msg=access name=user kind=READ
level=DEBUG msg=access name=u kind="SET ALIAS to user"
`
	qt.Assert(t, qt.Equals(buf.String(), want))
}

func TestBuild(t *testing.T) {
	testCases := []struct {
		name   string
		record func(tr *infer.Tracker)
		rule   infer.ArrayFieldRule
		want   string
	}{{
		name:   "Empty",
		record: func(tr *infer.Tracker) {},
		want:   `{}`,
	}, {
		name: "IteratedWithoutAttrs",
		record: func(tr *infer.Tracker) {
			tr.Record("items", infer.ReadKind())
			tr.Record("item", infer.LoopKind("items"))
		},
		want: `{"items":[]}`,
	}, {
		name: "IteratedThroughAlias",
		record: func(tr *infer.Tracker) {
			tr.Record("src", infer.ReadKind())
			tr.Record("a", infer.AliasKind("src"))
			tr.Record("it", infer.LoopKind("src"))
		},
		want: `{"src":[]}`,
	}, {
		name: "AliasedIterable",
		record: func(tr *infer.Tracker) {
			tr.Record("messages", infer.ReadKind())
			tr.Record("msgs", infer.AliasKind("messages"))
			tr.Record("m", infer.LoopKind("msgs"))
			tr.Record("m.role", infer.ReadKind())
		},
		want: `{"messages":[{"role":""}]}`,
	}, {
		name: "LoopedAttribute",
		record: func(tr *infer.Tracker) {
			tr.Record("cfg.servers", infer.ReadKind())
			tr.Record("s", infer.LoopKind("cfg.servers"))
			tr.Record("s.host", infer.ReadKind())
		},
		want: `{"cfg":{"servers":[{"host":""}]}}`,
	}, {
		name: "DefaultArrayField",
		record: func(tr *infer.Tracker) {
			tr.Record("msg.tool_calls.id", infer.ReadKind())
		},
		rule: infer.DefaultArrayFieldRule,
		want: `{"msg":{"tool_calls":[{"id":""}]}}`,
	}, {
		name: "NilRule",
		record: func(tr *infer.Tracker) {
			tr.Record("msg.tool_calls.id", infer.ReadKind())
		},
		want: `{"msg":{"tool_calls":{"id":""}}}`,
	}, {
		name: "ArrayFieldLeaf",
		record: func(tr *infer.Tracker) {
			tr.Record("msg.tool_calls", infer.ReadKind())
		},
		rule: infer.DefaultArrayFieldRule,
		want: `{"msg":{"tool_calls":""}}`,
	}, {
		name: "AliasCycle",
		record: func(tr *infer.Tracker) {
			tr.Record("x", infer.ReadKind())
			tr.Record("a", infer.AliasKind("b"))
			tr.Record("b", infer.AliasKind("a"))
			tr.Record("a.f", infer.ReadKind())
		},
		want: `{"a":{"f":""},"x":""}`,
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := infer.NewTracker(nil)
			tc.record(tr)
			got := infer.Build(tr, tc.rule)
			qt.Assert(t, qt.Equals(shape.Key(got), tc.want))

			// Building twice gives the same result.
			qt.Assert(t, qt.IsTrue(shape.Equal(got, infer.Build(tr, tc.rule))))
		})
	}
}

func TestFieldNames(t *testing.T) {
	names := []string{"a", "b"}
	rule := infer.FieldNames(names...)
	names[0] = "z"
	qt.Assert(t, qt.IsTrue(rule("a")))
	qt.Assert(t, qt.IsTrue(rule("b")))
	qt.Assert(t, qt.IsFalse(rule("z")))
	qt.Assert(t, qt.IsFalse(infer.FieldNames()("a")))
}

func TestTrackerAccessesCopy(t *testing.T) {
	tr := infer.NewTracker(nil)
	tr.Record("a", infer.ReadKind())
	acc := tr.Accesses()
	acc[0].Name = "changed"
	want := []infer.Access{{Name: "a", Kind: infer.ReadKind()}}
	if diff := cmp.Diff(want, tr.Accesses()); diff != "" {
		t.Errorf("accesses changed (-want +got):\n%s", diff)
	}
}
