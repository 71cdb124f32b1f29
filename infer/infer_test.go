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
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/kr/pretty"

	"cleanplate.dev/go/infer"
	"cleanplate.dev/go/jinja/errors"
	"cleanplate.dev/go/jinja/parser"
	"cleanplate.dev/go/shape"
)

func TestTemplate(t *testing.T) {
	testCases := []struct {
		name     string
		in       string
		external []string
		internal []string
		loop     map[string]string
		shape    string
	}{{
		name:     "Empty",
		in:       "",
		external: []string{},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{}`,
	}, {
		name:     "Attribute",
		in:       "{{ user.name }}",
		external: []string{"user"},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{"user":{"name":""}}`,
	}, {
		name:     "SetThenRead",
		in:       "{% set title = 'Hello' %}{{ title }}",
		external: []string{},
		internal: []string{"title"},
		loop:     map[string]string{},
		shape:    `{}`,
	}, {
		name:     "ReadThenSet",
		in:       "{{ x }}{% set x = 1 %}",
		external: []string{"x"},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{"x":""}`,
	}, {
		name:     "Loop",
		in:       "{% for item in items %}{{ item.name }}{% endfor %}",
		external: []string{"items"},
		internal: []string{"item"},
		loop:     map[string]string{"item": "items"},
		shape:    `{"items":[{"name":""}]}`,
	}, {
		name:     "Alias",
		in:       "{% set u = user %}{{ u.email }}",
		external: []string{"u", "user"},
		internal: []string{"u"},
		loop:     map[string]string{},
		shape:    `{"u":{"email":""},"user":{"email":""}}`,
	}, {
		name:     "SetThenAttribute",
		in:       "{% set x = 1 %}{{ x.a }}",
		external: []string{"x"},
		internal: []string{"x"},
		loop:     map[string]string{},
		shape:    `{"x":{"a":""}}`,
	}, {
		name:     "LoopHelper",
		in:       "{% for x in xs %}{{ loop.index }}{{ loop }}{% if loop.first %}{% endif %}{% endfor %}",
		external: []string{"xs"},
		internal: []string{"x"},
		loop:     map[string]string{"x": "xs"},
		shape:    `{"xs":[]}`,
	}, {
		name:     "LoopVarAfterLoop",
		in:       "{% for x in xs %}{% endfor %}{{ x.y }}",
		external: []string{"xs"},
		internal: []string{"x"},
		loop:     map[string]string{"x": "xs"},
		shape:    `{"xs":[{"y":""}]}`,
	}, {
		name:     "LoopOverAttribute",
		in:       "{% for s in cfg.servers %}{{ s.host }}:{{ s.port }}{% endfor %}",
		external: []string{"cfg"},
		internal: []string{"s"},
		loop:     map[string]string{"s": "cfg.servers"},
		shape:    `{"cfg":{"servers":[{"host":"","port":""}]}}`,
	}, {
		name:     "TupleTarget",
		in:       "{% for k, v in data.items() %}{{ k }}{{ v.name }}{% endfor %}",
		external: []string{"data"},
		internal: []string{"k", "v"},
		loop:     map[string]string{"k": "", "v": ""},
		shape:    `{"data":{"items":""}}`,
	}, {
		name:     "LoopFilterAndElse",
		in:       "{% for m in msgs if m.visible %}{% else %}{{ empty_text }}{% endfor %}",
		external: []string{"empty_text", "msgs"},
		internal: []string{"m"},
		loop:     map[string]string{"m": "msgs"},
		shape:    `{"empty_text":"","msgs":[{"visible":""}]}`,
	}, {
		name:     "Subscripts",
		in:       "{{ cfg['key'] }}{{ cfg[0] }}{{ flags[true] }}{{ rows[i] }}",
		external: []string{"cfg", "flags", "i", "rows"},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{"cfg":{"key":""},"flags":{"true":""},"i":"","rows":""}`,
	}, {
		name:     "CallArguments",
		in:       "{{ items | join(sep) }}{{ fmt(user.name, width=opts.width) }}",
		external: []string{"fmt", "items", "opts", "sep", "user"},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{"fmt":"","items":"","opts":{"width":""},"sep":"","user":{"name":""}}`,
	}, {
		name:     "NestedArgument",
		in:       "{{ f(a + b.c) }}",
		external: []string{"a", "b", "f"},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{"a":"","b":{"c":""},"f":""}`,
	}, {
		name:     "TestArguments",
		in:       "{% if x is divisibleby(n) and y is not none %}{% endif %}",
		external: []string{"n", "x", "y"},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{"n":"","x":"","y":""}`,
	}, {
		name:     "SetBlock",
		in:       "{% set body | trim %}{{ greeting }}{% endset %}{{ body }}",
		external: []string{"greeting"},
		internal: []string{"body"},
		loop:     map[string]string{},
		shape:    `{"greeting":""}`,
	}, {
		name:     "With",
		in:       "{% with a = b.c %}{{ a.d }}{% endwith %}",
		external: []string{"a", "b"},
		internal: []string{"a"},
		loop:     map[string]string{},
		shape:    `{"a":{"d":""},"b":{"c":""}}`,
	}, {
		name:     "Namespace",
		in:       "{% set ns = namespace(found=false) %}{% set ns.found = true %}{{ ns.found }}",
		external: []string{"namespace", "ns"},
		internal: []string{"ns"},
		loop:     map[string]string{},
		shape:    `{"namespace":"","ns":{"found":""}}`,
	}, {
		name:     "Operators",
		in:       "{{ not a and -b }}{{ [c, d] }}{{ {'k': e, f: 1} }}",
		external: []string{"a", "b", "c", "d", "e", "f"},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{"a":"","b":"","c":"","d":"","e":"","f":""}`,
	}, {
		name:     "ConditionalExpression",
		in:       "{{ a if b else c }}",
		external: []string{},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{}`,
	}, {
		name:     "BlocksAndFilters",
		in:       "{% block content %}{% autoescape true %}{% filter indent(width) %}{{ text }}{% endfilter %}{% endautoescape %}{% endblock %}",
		external: []string{"text", "width"},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{"text":"","width":""}`,
	}, {
		name:     "IgnoredStatements",
		in:       "{% macro m(x) %}{{ x.y }}{% endmacro %}{% include name %}{% call m(arg) %}{{ z }}{% endcall %}{% do log(q) %}",
		external: []string{},
		internal: []string{},
		loop:     map[string]string{},
		shape:    `{}`,
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := infer.Template("test.jinja", tc.in)
			qt.Assert(t, qt.IsNil(err))
			qt.Check(t, qt.DeepEquals(a.ExternalVars, tc.external))
			qt.Check(t, qt.DeepEquals(a.InternalVars, tc.internal))
			qt.Check(t, qt.DeepEquals(a.LoopVars, tc.loop))
			qt.Check(t, qt.Equals(shape.Key(a.Shape), tc.shape))

			for _, acc := range a.Accesses() {
				qt.Check(t, qt.IsFalse(acc.Name == "loop" || strings.HasPrefix(acc.Name, "loop.")))
			}
		})
	}
}

func TestTemplateParseError(t *testing.T) {
	a, err := infer.Template("bad.jinja", "{{ a b }}")
	qt.Assert(t, qt.IsNil(a))
	qt.Assert(t, qt.ErrorMatches(err, `bad.jinja:1:6: expected '}}', found 'b'`))

	errs := errors.Errors(err)
	qt.Assert(t, qt.HasLen(errs, 1))
	qt.Assert(t, qt.Equals(errs[0].Position().Line(), 1))
}

func TestAnalyze(t *testing.T) {
	tmpl, err := parser.ParseTemplate("t.jinja", "{% for x in xs %}{% set y = x %}{% set z = 1 %}{% endfor %}")
	qt.Assert(t, qt.IsNil(err))

	a := infer.Analyze(tmpl)
	qt.Assert(t, qt.DeepEquals(a.InternalVars, []string{"x", "y", "z"}))
	qt.Assert(t, qt.DeepEquals(a.LocalVars(), []string{"y", "z"}))
	qt.Assert(t, qt.DeepEquals(a.LoopVarNames(), []string{"x"}))
	qt.Assert(t, qt.Equals(a.Origin("y"), "x"))
	qt.Assert(t, qt.Equals(a.Origin("z"), "z"))
}

func TestAccesses(t *testing.T) {
	a, err := infer.Template("t.jinja", "{% set u = user %}{{ u.email }}")
	qt.Assert(t, qt.IsNil(err))
	want := []infer.Access{
		{Name: "user", Kind: infer.ReadKind()},
		{Name: "u", Kind: infer.AliasKind("user")},
		{Name: "u.email", Kind: infer.ReadKind()},
		{Name: "u", Kind: infer.ReadKind()},
	}
	if diff := pretty.Diff(a.Accesses(), want); len(diff) > 0 {
		t.Errorf("unexpected accesses:\n%s", strings.Join(diff, "\n"))
	}
	qt.Assert(t, qt.Equals(a.Origin("u"), "user"))
}

func TestOptions(t *testing.T) {
	const src = "{% for i in range(n) %}{{ msg.tool_calls.id }}{{ cycler.next }}{% endfor %}"

	a, err := infer.Template("t.jinja", src)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(a.ExternalVars, []string{"cycler", "msg", "n", "range"}))
	qt.Assert(t, qt.Equals(shape.Key(a.Shape),
		`{"cycler":{"next":""},"msg":{"tool_calls":[{"id":""}]},"n":"","range":""}`))

	a, err = infer.Template("t.jinja", src,
		infer.Ignore("range", "cycler"),
		infer.ArrayFields())
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(a.ExternalVars, []string{"msg", "n"}))
	qt.Assert(t, qt.Equals(shape.Key(a.Shape), `{"msg":{"tool_calls":{"id":""}},"n":""}`))

	a, err = infer.Template("t.jinja", "{{ o.items.x }}",
		infer.ArrayRule(func(attr string) bool { return strings.HasSuffix(attr, "s") }))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(shape.Key(a.Shape), `{"o":{"items":[{"x":""}]}}`))
}

func TestParserOptions(t *testing.T) {
	_, err := infer.Template("t.jinja", "{{ ((((a)))) }}", infer.ParserOptions(parser.MaxDepth(2)))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestMarshalAnalysis(t *testing.T) {
	a, err := infer.Template("t.jinja", "{% for item in items %}{{ item.name }}{% endfor %}")
	qt.Assert(t, qt.IsNil(err))
	b, err := json.Marshal(a)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(b),
		`{"external_vars":["items"],"internal_vars":["item"],"loop_vars":{"item":"items"},"object_shapes_json":{"items":[{"name":""}]}}`))
}

func TestTemplateDeterministic(t *testing.T) {
	const src = `{% for m in messages %}{{ m.role }}{{ m.content }}{% for c in m.tool_calls %}{{ c.id }}{% endfor %}{% endfor %}{{ a.b.c }}{{ z }}`
	first, err := infer.Template("t.jinja", src)
	qt.Assert(t, qt.IsNil(err))
	for range 20 {
		a, err := infer.Template("t.jinja", src)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(shape.Key(a.Shape), shape.Key(first.Shape)))
	}
}
