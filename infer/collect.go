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
	"cleanplate.dev/go/jinja/ast"
)

// collector drives a Tracker over a template.
type collector struct {
	t *Tracker
}

func (c *collector) stmts(list []ast.Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *collector) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Template:
		c.stmts(s.Children)

	case *ast.Block:
		c.stmts(s.Body)

	case *ast.EmitExpr:
		c.reads(s.X)

	case *ast.ForLoop:
		c.reads(s.Iter)
		iterable := path(s.Iter)
		for _, name := range targetNames(s.Target) {
			c.t.Record(name, LoopKind(iterable))
		}
		if s.Filter != nil {
			c.reads(s.Filter)
		}
		c.stmts(s.Body)
		c.stmts(s.Else)

	case *ast.IfCond:
		c.reads(s.Cond)
		c.stmts(s.Body)
		c.stmts(s.Else)

	case *ast.WithBlock:
		for _, a := range s.Assignments {
			c.reads(a.Value)
			for _, name := range targetNames(a.Target) {
				c.t.Record(name, SetKind())
			}
		}
		c.stmts(s.Body)

	case *ast.Set:
		c.reads(s.Value)
		k := SetKind()
		if v, ok := s.Value.(*ast.Var); ok {
			k = AliasKind(v.Name)
		}
		for _, name := range targetNames(s.Target) {
			c.t.Record(name, k)
		}

	case *ast.SetBlock:
		for _, name := range targetNames(s.Target) {
			c.t.Record(name, SetKind())
		}
		c.stmts(s.Body)
		if s.Filter != nil {
			c.reads(s.Filter)
		}

	case *ast.AutoEscape:
		c.stmts(s.Body)

	case *ast.FilterBlock:
		c.reads(s.Filter)
		c.stmts(s.Body)
	}
}

// reads records the variables read by x.
func (c *collector) reads(x ast.Expr) {
	switch x := x.(type) {
	case *ast.Var:
		c.t.Record(x.Name, ReadKind())

	case *ast.GetAttr:
		c.t.Record(path(x), ReadKind())
		c.reads(x.X)

	case *ast.GetItem:
		if v, ok := x.X.(*ast.Var); ok {
			if k, ok := x.Index.(*ast.Const); ok && !k.IsNumber() {
				c.t.Record(v.Name+"."+k.Value, ReadKind())
			}
		}
		c.reads(x.X)
		c.reads(x.Index)

	case *ast.Call:
		c.reads(x.Fun)
		c.args(x.Args)

	case *ast.Filter:
		if x.X != nil {
			c.reads(x.X)
		}
		c.args(x.Args)

	case *ast.Test:
		c.reads(x.X)
		c.args(x.Args)

	case *ast.BinOp:
		c.reads(x.X)
		c.reads(x.Y)

	case *ast.UnaryOp:
		c.reads(x.X)

	case *ast.List:
		for _, e := range x.Elts {
			c.reads(e)
		}

	case *ast.Map:
		for _, e := range x.Entries {
			c.reads(e.Key)
		}
		for _, e := range x.Entries {
			c.reads(e.Value)
		}
	}
}

// args records the variables read by call arguments. Attribute chains
// are recorded from the base outwards, so that every intermediate level
// of the chain is read.
func (c *collector) args(args []*ast.CallArg) {
	for _, a := range args {
		if p := path(a.Value); p != "" {
			for i := 0; i <= len(p); i++ {
				if i == len(p) || p[i] == '.' {
					c.t.Record(p[:i], ReadKind())
				}
			}
			continue
		}
		c.reads(a.Value)
	}
}

// path returns the dotted path of a chain of attribute lookups rooted at
// a variable, or "" if x is not such a chain.
func path(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.Var:
		return x.Name
	case *ast.GetAttr:
		if base := path(x.X); base != "" {
			return base + "." + x.Name
		}
	}
	return ""
}

// targetNames returns the variable names bound by an assignment target.
// Attribute targets such as ns.found bind the root variable.
func targetNames(x ast.Expr) []string {
	var names []string
	var add func(x ast.Expr)
	add = func(x ast.Expr) {
		switch x := x.(type) {
		case *ast.Var:
			names = append(names, x.Name)
		case *ast.GetAttr:
			add(x.X)
		case *ast.List:
			for _, e := range x.Elts {
				add(e)
			}
		}
	}
	add(x)
	return names
}
