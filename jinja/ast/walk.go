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

package ast

import "fmt"

// Walk traverses an AST in depth-first order: It starts by calling
// before(node); node must not be nil. If before returns true, Walk invokes
// itself recursively for each of the non-nil children of node, followed by a
// call of after. Both functions may be nil. If before is nil, it is assumed
// to always return true.
func Walk(node Node, before func(Node) bool, after func(Node)) {
	walk(node, before, after)
}

func walkList[N Node](list []N, before func(Node) bool, after func(Node)) {
	for _, node := range list {
		walk(node, before, after)
	}
}

func walkArgs(args []*CallArg, before func(Node) bool, after func(Node)) {
	for _, a := range args {
		walk(a.Value, before, after)
	}
}

func walkOpt(node Expr, before func(Node) bool, after func(Node)) {
	if node != nil {
		walk(node, before, after)
	}
}

func walk(node Node, before func(Node) bool, after func(Node)) {
	if before != nil && !before(node) {
		return
	}

	// walk children
	// (the order of the cases matches the source order of the
	// corresponding constructs)
	switch n := node.(type) {
	// Expressions
	case *BadExpr, *Var, *Const:
		// nothing to do

	case *GetAttr:
		walk(n.X, before, after)

	case *GetItem:
		walk(n.X, before, after)
		walk(n.Index, before, after)

	case *Slice:
		walk(n.X, before, after)
		walkOpt(n.Start, before, after)
		walkOpt(n.Stop, before, after)
		walkOpt(n.Step, before, after)

	case *Call:
		walk(n.Fun, before, after)
		walkArgs(n.Args, before, after)

	case *Filter:
		walkOpt(n.X, before, after)
		walkArgs(n.Args, before, after)

	case *Test:
		walk(n.X, before, after)
		walkArgs(n.Args, before, after)

	case *BinOp:
		walk(n.X, before, after)
		walk(n.Y, before, after)

	case *UnaryOp:
		walk(n.X, before, after)

	case *IfExpr:
		walk(n.TrueExpr, before, after)
		walk(n.Test, before, after)
		walkOpt(n.FalseExpr, before, after)

	case *List:
		walkList(n.Elts, before, after)

	case *Map:
		for _, e := range n.Entries {
			walk(e.Key, before, after)
			walk(e.Value, before, after)
		}

	// Statements
	case *Template:
		walkList(n.Children, before, after)

	case *EmitRaw, *Continue, *Break:
		// nothing to do

	case *EmitExpr:
		walk(n.X, before, after)

	case *ForLoop:
		walk(n.Target, before, after)
		walk(n.Iter, before, after)
		walkOpt(n.Filter, before, after)
		walkList(n.Body, before, after)
		walkList(n.Else, before, after)

	case *IfCond:
		walk(n.Cond, before, after)
		walkList(n.Body, before, after)
		walkList(n.Else, before, after)

	case *WithBlock:
		for _, a := range n.Assignments {
			walk(a.Target, before, after)
			walk(a.Value, before, after)
		}
		walkList(n.Body, before, after)

	case *Set:
		walk(n.Target, before, after)
		walk(n.Value, before, after)

	case *SetBlock:
		walk(n.Target, before, after)
		walkOpt(n.Filter, before, after)
		walkList(n.Body, before, after)

	case *AutoEscape:
		walk(n.Enabled, before, after)
		walkList(n.Body, before, after)

	case *FilterBlock:
		walk(n.Filter, before, after)
		walkList(n.Body, before, after)

	case *Block:
		walkList(n.Body, before, after)

	case *Extends:
		walk(n.Name, before, after)

	case *Include:
		walk(n.Name, before, after)

	case *Import:
		walk(n.Name, before, after)
		walk(n.Alias, before, after)

	case *FromImport:
		walk(n.Name, before, after)
		for _, name := range n.Names {
			walk(name.Name, before, after)
			if name.Alias != nil {
				walk(name.Alias, before, after)
			}
		}

	case *Macro:
		walkList(n.Args, before, after)
		walkList(n.Defaults, before, after)
		walkList(n.Body, before, after)

	case *CallBlock:
		walk(n.Call, before, after)
		walk(n.Macro, before, after)

	case *Do:
		walk(n.Call, before, after)

	default:
		panic(fmt.Sprintf("ast.Walk: unexpected node type %T", n))
	}

	if after != nil {
		after(node)
	}
}
