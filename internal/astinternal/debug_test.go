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

package astinternal_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"cleanplate.dev/go/internal/astinternal"
	"cleanplate.dev/go/jinja/ast"
)

func TestDebugStr(t *testing.T) {
	testCases := []struct {
		name string
		node ast.Node
		want string
	}{{
		name: "attrChain",
		node: &ast.GetAttr{X: &ast.GetAttr{X: &ast.Var{Name: "a"}, Name: "b"}, Name: "c"},
		want: "a.b.c",
	}, {
		name: "filterWithArgs",
		node: &ast.Filter{
			X:    &ast.Var{Name: "x"},
			Name: "default",
			Args: []*ast.CallArg{{Value: &ast.Const{Kind: ast.StringConst, Value: "n/a"}}},
		},
		want: `(x|default("n/a"))`,
	}, {
		name: "singleTuple",
		node: &ast.List{Tuple: true, Elts: []ast.Expr{&ast.Var{Name: "a"}}},
		want: "(a,)",
	}, {
		name: "slice",
		node: &ast.Slice{X: &ast.Var{Name: "xs"}, Stop: &ast.Const{Kind: ast.IntConst, Value: "2"}},
		want: "xs[:2]",
	}, {
		name: "callArgs",
		node: &ast.Call{Fun: &ast.Var{Name: "f"}, Args: []*ast.CallArg{
			{Value: &ast.Var{Name: "a"}},
			{Kind: ast.KwArg, Name: "k", Value: &ast.Var{Name: "b"}},
			{Kind: ast.PosSplatArg, Value: &ast.Var{Name: "c"}},
			{Kind: ast.KwSplatArg, Value: &ast.Var{Name: "d"}},
		}},
		want: "f(a, k=b, *c, **d)",
	}, {
		name: "statements",
		node: &ast.Template{Children: []ast.Stmt{
			&ast.EmitRaw{Raw: "hi\n"},
			&ast.IfCond{
				Cond: &ast.UnaryOp{Op: ast.Not, X: &ast.Var{Name: "x"}},
				Body: []ast.Stmt{&ast.EmitExpr{X: &ast.Var{Name: "y"}}},
				Else: []ast.Stmt{&ast.Break{}},
			},
		}},
		want: `raw "hi\n"
if (not x)
  emit y
else
  break
endif`,
	}, {
		name: "macroDefaults",
		node: &ast.Macro{
			Name:     "m",
			Args:     []*ast.Var{{Name: "a"}, {Name: "b"}},
			Defaults: []ast.Expr{&ast.Const{Kind: ast.NoneConst, Value: "none"}},
		},
		want: "macro m(a, b=none)\nendmacro",
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			qt.Assert(t, qt.Equals(astinternal.DebugStr(tc.node), tc.want))
		})
	}
}
