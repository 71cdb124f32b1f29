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

// Package astinternal prints template syntax trees in a compact, indented
// form for tests and debugging.
package astinternal

import (
	"fmt"
	"strconv"
	"strings"

	"cleanplate.dev/go/jinja/ast"
)

// DebugStr returns a compact representation of node. Expressions are
// printed on a single line with all compound expressions parenthesized.
// Statements are printed one per line, with bodies indented by two spaces
// and closed by the matching end tag.
func DebugStr(node ast.Node) string {
	p := &debugPrinter{}
	switch x := node.(type) {
	case ast.Expr:
		p.expr(x)
	case ast.Stmt:
		p.stmt(x)
	}
	return strings.TrimSuffix(p.b.String(), "\n")
}

type debugPrinter struct {
	b     strings.Builder
	level int
}

func (p *debugPrinter) printf(format string, args ...any) {
	fmt.Fprintf(&p.b, format, args...)
}

func (p *debugPrinter) line(format string, args ...any) {
	p.b.WriteString(strings.Repeat("  ", p.level))
	p.printf(format, args...)
	p.b.WriteByte('\n')
}

func (p *debugPrinter) str(x ast.Expr) string {
	sub := &debugPrinter{}
	sub.expr(x)
	return sub.b.String()
}

func (p *debugPrinter) body(list []ast.Stmt) {
	p.level++
	for _, s := range list {
		p.stmt(s)
	}
	p.level--
}

func (p *debugPrinter) args(args []*ast.CallArg) string {
	a := make([]string, len(args))
	for i, arg := range args {
		v := p.str(arg.Value)
		switch arg.Kind {
		case ast.KwArg:
			v = arg.Name + "=" + v
		case ast.PosSplatArg:
			v = "*" + v
		case ast.KwSplatArg:
			v = "**" + v
		}
		a[i] = v
	}
	return strings.Join(a, ", ")
}

func (p *debugPrinter) exprs(list []ast.Expr) string {
	a := make([]string, len(list))
	for i, x := range list {
		a[i] = p.str(x)
	}
	return strings.Join(a, ", ")
}

func (p *debugPrinter) expr(x ast.Expr) {
	switch x := x.(type) {
	case nil:
		p.printf("<nil>")
	case *ast.BadExpr:
		p.printf("BadExpr")
	case *ast.Var:
		p.printf("%s", x.Name)
	case *ast.Const:
		if x.Kind == ast.StringConst {
			p.printf("%s", strconv.Quote(x.Value))
		} else {
			p.printf("%s", x.Value)
		}
	case *ast.GetAttr:
		p.printf("%s.%s", p.str(x.X), x.Name)
	case *ast.GetItem:
		p.printf("%s[%s]", p.str(x.X), p.str(x.Index))
	case *ast.Slice:
		part := func(e ast.Expr) string {
			if e == nil {
				return ""
			}
			return p.str(e)
		}
		p.printf("%s[%s:%s", p.str(x.X), part(x.Start), part(x.Stop))
		if x.Step != nil {
			p.printf(":%s", p.str(x.Step))
		}
		p.printf("]")
	case *ast.Call:
		p.printf("%s(%s)", p.str(x.Fun), p.args(x.Args))
	case *ast.Filter:
		operand := ""
		if x.X != nil {
			operand = p.str(x.X)
		}
		p.printf("(%s|%s", operand, x.Name)
		if len(x.Args) > 0 {
			p.printf("(%s)", p.args(x.Args))
		}
		p.printf(")")
	case *ast.Test:
		p.printf("(%s is %s", p.str(x.X), x.Name)
		if len(x.Args) > 0 {
			p.printf("(%s)", p.args(x.Args))
		}
		p.printf(")")
	case *ast.BinOp:
		p.printf("(%s %s %s)", p.str(x.X), x.Op, p.str(x.Y))
	case *ast.UnaryOp:
		if x.Op == ast.Not {
			p.printf("(not %s)", p.str(x.X))
		} else {
			p.printf("(%s%s)", x.Op, p.str(x.X))
		}
	case *ast.IfExpr:
		p.printf("(%s if %s", p.str(x.TrueExpr), p.str(x.Test))
		if x.FalseExpr != nil {
			p.printf(" else %s", p.str(x.FalseExpr))
		}
		p.printf(")")
	case *ast.List:
		switch {
		case !x.Tuple:
			p.printf("[%s]", p.exprs(x.Elts))
		case len(x.Elts) == 1:
			p.printf("(%s,)", p.exprs(x.Elts))
		default:
			p.printf("(%s)", p.exprs(x.Elts))
		}
	case *ast.Map:
		a := make([]string, len(x.Entries))
		for i, e := range x.Entries {
			a[i] = p.str(e.Key) + ": " + p.str(e.Value)
		}
		p.printf("{%s}", strings.Join(a, ", "))
	default:
		panic(fmt.Sprintf("unknown expression %T", x))
	}
}

func (p *debugPrinter) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Template:
		for _, c := range s.Children {
			p.stmt(c)
		}
	case *ast.EmitRaw:
		p.line("raw %s", strconv.Quote(s.Raw))
	case *ast.EmitExpr:
		p.line("emit %s", p.str(s.X))
	case *ast.ForLoop:
		head := fmt.Sprintf("for %s in %s", p.str(s.Target), p.str(s.Iter))
		if s.Filter != nil {
			head += " if " + p.str(s.Filter)
		}
		if s.Recursive {
			head += " recursive"
		}
		p.line("%s", head)
		p.body(s.Body)
		if len(s.Else) > 0 {
			p.line("else")
			p.body(s.Else)
		}
		p.line("endfor")
	case *ast.IfCond:
		p.line("if %s", p.str(s.Cond))
		p.body(s.Body)
		if len(s.Else) > 0 {
			p.line("else")
			p.body(s.Else)
		}
		p.line("endif")
	case *ast.WithBlock:
		a := make([]string, len(s.Assignments))
		for i, as := range s.Assignments {
			a[i] = p.str(as.Target) + " = " + p.str(as.Value)
		}
		p.line("with %s", strings.Join(a, ", "))
		p.body(s.Body)
		p.line("endwith")
	case *ast.Set:
		p.line("set %s = %s", p.str(s.Target), p.str(s.Value))
	case *ast.SetBlock:
		if s.Filter != nil {
			p.line("set %s | %s", p.str(s.Target), p.str(s.Filter))
		} else {
			p.line("set %s", p.str(s.Target))
		}
		p.body(s.Body)
		p.line("endset")
	case *ast.AutoEscape:
		p.line("autoescape %s", p.str(s.Enabled))
		p.body(s.Body)
		p.line("endautoescape")
	case *ast.FilterBlock:
		p.line("filter %s", p.str(s.Filter))
		p.body(s.Body)
		p.line("endfilter")
	case *ast.Block:
		p.line("block %s", s.Name)
		p.body(s.Body)
		p.line("endblock")
	case *ast.Extends:
		p.line("extends %s", p.str(s.Name))
	case *ast.Include:
		if s.IgnoreMissing {
			p.line("include %s ignore missing", p.str(s.Name))
		} else {
			p.line("include %s", p.str(s.Name))
		}
	case *ast.Import:
		p.line("import %s as %s", p.str(s.Name), p.str(s.Alias))
	case *ast.FromImport:
		a := make([]string, len(s.Names))
		for i, n := range s.Names {
			a[i] = n.Name.Name
			if n.Alias != nil {
				a[i] += " as " + n.Alias.Name
			}
		}
		p.line("from %s import %s", p.str(s.Name), strings.Join(a, ", "))
	case *ast.Macro:
		p.line("macro %s(%s)", s.Name, p.params(s))
		p.body(s.Body)
		p.line("endmacro")
	case *ast.CallBlock:
		p.line("call(%s) %s", p.params(s.Macro), p.str(s.Call))
		p.body(s.Macro.Body)
		p.line("endcall")
	case *ast.Do:
		p.line("do %s", p.str(s.Call))
	case *ast.Continue:
		p.line("continue")
	case *ast.Break:
		p.line("break")
	default:
		panic(fmt.Sprintf("unknown statement %T", s))
	}
}

// params prints macro parameters, attaching defaults to the trailing ones.
func (p *debugPrinter) params(m *ast.Macro) string {
	a := make([]string, len(m.Args))
	offset := len(m.Args) - len(m.Defaults)
	for i, arg := range m.Args {
		a[i] = arg.Name
		if i >= offset {
			a[i] += "=" + p.str(m.Defaults[i-offset])
		}
	}
	return strings.Join(a, ", ")
}
