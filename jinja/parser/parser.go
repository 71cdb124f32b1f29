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

package parser

import (
	"fmt"
	"slices"
	"strings"

	"cleanplate.dev/go/jinja/ast"
	"cleanplate.dev/go/jinja/errors"
	"cleanplate.dev/go/jinja/literal"
	"cleanplate.dev/go/jinja/scanner"
	"cleanplate.dev/go/jinja/token"
)

// maxErrors is the number of errors after which parsing stops in AllErrors
// mode.
const maxErrors = 10

// The parser structure holds the parser's internal state.
type parser struct {
	file    *token.File
	errors  errors.List
	scanner scanner.Scanner
	cfg     Config

	// Tracing/debugging
	trace     bool // == (mode & Trace != 0)
	panicking bool // set if we are bailing out due to errors
	indent    int  // indentation used for tracing output

	// Next token
	pos token.Pos   // token position
	tok token.Token // one token look-ahead
	lit string      // token literal

	depth int // nesting depth of statements and expressions
}

func (p *parser) init(filename string, src []byte, m scanner.Mode, opts []Option) {
	p.cfg = NewConfig(opts...)
	p.file = token.NewFile(filename, len(src))
	eh := func(pos token.Pos, msg string, args []interface{}) {
		p.errf(pos, msg, args...)
	}
	p.scanner.Init(p.file, src, eh, m)

	p.trace = p.cfg.Mode&Trace != 0 // for convenience (p.trace is used frequently)

	p.next()
}

// ----------------------------------------------------------------------------
// Parsing support

func (p *parser) printTrace(a ...interface{}) {
	const dots = ". . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . "
	const n = len(dots)
	pos := p.file.Position(p.pos)
	fmt.Printf("%5d:%3d: ", pos.Line, pos.Column)
	i := 2 * p.indent
	for i > n {
		fmt.Print(dots)
		i -= n
	}
	// i <= n
	fmt.Print(dots[0:i])
	fmt.Println(a...)
}

func trace(p *parser, msg string) *parser {
	p.printTrace(msg, "(")
	p.indent++
	return p
}

// Usage pattern: defer un(trace(p, "..."))
func un(p *parser) {
	p.indent--
	p.printTrace(")")
}

// Advance to the next token.
func (p *parser) next() {
	// Because of one-token look-ahead, print the previous token
	// when tracing as it provides a more readable output. The
	// very first token (!p.pos.IsValid()) is not initialized
	// (it is ILLEGAL), so don't print it .
	if p.trace && p.pos.IsValid() {
		s := p.tok.String()
		switch {
		case p.tok.IsLiteral():
			p.printTrace(s, p.lit)
		case p.tok.IsOperator():
			p.printTrace("\"" + s + "\"")
		default:
			p.printTrace(s)
		}
	}

	p.pos, p.tok, p.lit = p.scanner.Scan()
}

func (p *parser) errf(pos token.Pos, msg string, args ...interface{}) {
	if p.cfg.Mode&AllErrors != 0 {
		// Discard errors reported at the same position as the last
		// recorded error; they are most likely spurious.
		if n := len(p.errors); n > 0 && p.errors[n-1].Position() == pos {
			return
		}
	}

	p.errors.AddNewf(pos, msg, args...)

	if p.cfg.Mode&AllErrors == 0 || len(p.errors) > maxErrors {
		p.panicking = true
		panic("parse error")
	}
}

func (p *parser) errorExpected(pos token.Pos, obj string) {
	if pos != p.pos {
		p.errf(pos, "expected %s", obj)
		return
	}
	// the error happened at the current position;
	// make the error message more specific
	switch {
	case p.tok == token.EOF:
		p.errf(pos, "expected %s, found end of template", obj)
	case p.tok == token.TEMPLATE_DATA:
		p.errf(pos, "expected %s, found template data", obj)
	case p.tok.IsLiteral():
		p.errf(pos, "expected %s, found '%s'", obj, p.lit)
	default:
		p.errf(pos, "expected %s, found '%s'", obj, p.tok)
	}
}

func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorExpected(pos, "'"+tok.String()+"'")
		if p.tok.IsTagEnd() || p.tok == token.EOF {
			// leave the tag end to the statement
			return pos
		}
	}
	p.next() // make progress
	return pos
}

func (p *parser) isKeyword(name string) bool {
	return p.tok == token.IDENT && p.lit == name
}

func (p *parser) expectKeyword(name string) token.Pos {
	pos := p.pos
	if !p.isKeyword(name) {
		p.errorExpected(pos, "'"+name+"'")
		return pos
	}
	p.next()
	return pos
}

// expectTagEnd consumes the end of the current tag. On error it skips to
// the end of the tag.
func (p *parser) expectTagEnd(tok token.Token) {
	if p.tok == tok {
		p.next()
		return
	}
	p.errorExpected(p.pos, "'"+tok.String()+"'")
	p.syncTag()
}

// syncTag advances to the token after the end of the current tag.
func (p *parser) syncTag() {
	for !p.tok.IsTagEnd() && p.tok != token.EOF {
		p.next()
	}
	if p.tok != token.EOF {
		p.next()
	}
}

// expectEnd consumes the closing tag of a block statement. An unexpected
// end of template has already been reported by parseBody.
func (p *parser) expectEnd(keyword string) {
	if p.tok == token.EOF {
		return
	}
	p.expectKeyword(keyword)
	p.expectTagEnd(token.BLOCK_END)
}

func (p *parser) enter() {
	p.depth++
	if p.depth > p.cfg.MaxDepth {
		p.errors.AddNewf(p.pos, "template exceeds maximum nesting depth of %d", p.cfg.MaxDepth)
		p.panicking = true
		panic("nesting too deep")
	}
}

func (p *parser) leave() {
	p.depth--
}

// ----------------------------------------------------------------------------
// Statements

func (p *parser) parseTemplate() *ast.Template {
	if p.trace {
		defer un(trace(p, "Template"))
	}
	return &ast.Template{Children: p.parseBody()}
}

// parseBody parses statements up to the end of the template or up to a
// block tag starting with one of the keywords in ends. In the latter case
// the parser is left at that keyword. The last element of ends names the
// tag that closes the body.
func (p *parser) parseBody(ends ...string) []ast.Stmt {
	if p.trace {
		defer un(trace(p, "Body"))
	}
	var list []ast.Stmt
	for {
		switch p.tok {
		case token.EOF:
			if len(ends) > 0 {
				p.errf(p.pos, "unexpected end of template, missing {%% %s %%}", ends[len(ends)-1])
			}
			return list

		case token.TEMPLATE_DATA:
			list = append(list, &ast.EmitRaw{ValuePos: p.pos, Raw: p.lit})
			p.next()

		case token.VARIABLE_START:
			pos := p.pos
			p.next()
			x := p.parseTuple(true)
			p.expectTagEnd(token.VARIABLE_END)
			list = append(list, &ast.EmitExpr{Lbrace: pos, X: x})

		case token.BLOCK_START:
			p.next()
			if p.tok == token.IDENT && slices.Contains(ends, p.lit) {
				return list
			}
			if s := p.parseStmt(); s != nil {
				list = append(list, s)
			}

		default:
			p.errorExpected(p.pos, "template data or tag")
			p.next()
		}
	}
}

func (p *parser) parseStmt() ast.Stmt {
	if p.tok != token.IDENT {
		p.errorExpected(p.pos, "statement")
		p.syncTag()
		return nil
	}

	p.enter()
	defer p.leave()

	switch p.lit {
	case "for":
		return p.parseFor()
	case "if":
		return p.parseIf()
	case "with":
		return p.parseWith()
	case "set":
		return p.parseSet()
	case "autoescape":
		return p.parseAutoEscape()
	case "filter":
		return p.parseFilterBlock()
	case "block":
		return p.parseBlock()
	case "extends":
		return p.parseExtends()
	case "include":
		return p.parseInclude()
	case "import":
		return p.parseImport()
	case "from":
		return p.parseFromImport()
	case "macro":
		return p.parseMacro()
	case "call":
		return p.parseCallBlock()
	case "do":
		return p.parseDo()
	case "continue":
		s := &ast.Continue{Continue: p.pos}
		p.next()
		p.expectTagEnd(token.BLOCK_END)
		return s
	case "break":
		s := &ast.Break{Break: p.pos}
		p.next()
		p.expectTagEnd(token.BLOCK_END)
		return s
	}

	if strings.HasPrefix(p.lit, "end") || p.lit == "else" || p.lit == "elif" {
		p.errf(p.pos, "unexpected {%% %s %%}", p.lit)
	} else {
		p.errf(p.pos, "unknown statement %s", p.lit)
	}
	p.syncTag()
	return nil
}

func (p *parser) parseFor() *ast.ForLoop {
	if p.trace {
		defer un(trace(p, "For"))
	}
	s := &ast.ForLoop{For: p.pos}
	p.next()
	s.Target = p.parseAssignTarget(false)
	p.expectKeyword("in")
	s.Iter = p.parseTuple(false)
	if p.isKeyword("if") {
		p.next()
		s.Filter = p.parseExpr(false)
	}
	if p.isKeyword("recursive") {
		p.next()
		s.Recursive = true
	}
	p.expectTagEnd(token.BLOCK_END)

	s.Body = p.parseBody("else", "endfor")
	if p.isKeyword("else") {
		p.next()
		p.expectTagEnd(token.BLOCK_END)
		s.Else = p.parseBody("endfor")
	}
	p.expectEnd("endfor")
	return s
}

// parseIf parses an if or elif tag and everything up to and including the
// closing endif.
func (p *parser) parseIf() *ast.IfCond {
	if p.trace {
		defer un(trace(p, "If"))
	}
	s := &ast.IfCond{If: p.pos}
	p.next()
	s.Cond = p.parseExpr(true)
	p.expectTagEnd(token.BLOCK_END)

	s.Body = p.parseBody("elif", "else", "endif")
	switch {
	case p.isKeyword("elif"):
		s.Else = []ast.Stmt{p.parseIf()}
		return s
	case p.isKeyword("else"):
		p.next()
		p.expectTagEnd(token.BLOCK_END)
		s.Else = p.parseBody("endif")
	}
	p.expectEnd("endif")
	return s
}

func (p *parser) parseWith() *ast.WithBlock {
	if p.trace {
		defer un(trace(p, "With"))
	}
	s := &ast.WithBlock{With: p.pos}
	p.next()
	for p.tok != token.BLOCK_END && p.tok != token.EOF {
		target := p.parseAssignName(false)
		p.expect(token.ASSIGN)
		value := p.parseExpr(true)
		s.Assignments = append(s.Assignments, &ast.Assignment{Target: target, Value: value})
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	p.expectTagEnd(token.BLOCK_END)
	s.Body = p.parseBody("endwith")
	p.expectEnd("endwith")
	return s
}

func (p *parser) parseSet() ast.Stmt {
	if p.trace {
		defer un(trace(p, "Set"))
	}
	pos := p.pos
	p.next()
	target := p.parseAssignTarget(true)
	if p.tok == token.ASSIGN {
		p.next()
		s := &ast.Set{Set: pos, Target: target, Value: p.parseTuple(true)}
		p.expectTagEnd(token.BLOCK_END)
		return s
	}

	s := &ast.SetBlock{Set: pos, Target: target}
	if p.tok == token.PIPE {
		s.Filter = p.parseFilterChain(nil)
	}
	p.expectTagEnd(token.BLOCK_END)
	s.Body = p.parseBody("endset")
	p.expectEnd("endset")
	return s
}

func (p *parser) parseAutoEscape() *ast.AutoEscape {
	s := &ast.AutoEscape{AutoEscape: p.pos}
	p.next()
	s.Enabled = p.parseExpr(true)
	p.expectTagEnd(token.BLOCK_END)
	s.Body = p.parseBody("endautoescape")
	p.expectEnd("endautoescape")
	return s
}

func (p *parser) parseFilterBlock() *ast.FilterBlock {
	s := &ast.FilterBlock{FilterPos: p.pos}
	p.next()
	s.Filter = p.parseFilterChain(p.parseFilterCall(nil))
	p.expectTagEnd(token.BLOCK_END)
	s.Body = p.parseBody("endfilter")
	p.expectEnd("endfilter")
	return s
}

func (p *parser) parseBlock() *ast.Block {
	s := &ast.Block{BlockPos: p.pos}
	p.next()
	s.Name = p.lit
	p.expect(token.IDENT)
	for p.isKeyword("scoped") || p.isKeyword("required") {
		p.next()
	}
	p.expectTagEnd(token.BLOCK_END)
	s.Body = p.parseBody("endblock")
	if p.isKeyword("endblock") {
		p.next()
		if p.tok == token.IDENT {
			if p.lit != s.Name {
				p.errf(p.pos, "mismatched endblock name %s, expected %s", p.lit, s.Name)
			}
			p.next()
		}
		p.expectTagEnd(token.BLOCK_END)
	}
	return s
}

func (p *parser) parseExtends() *ast.Extends {
	s := &ast.Extends{Extends: p.pos}
	p.next()
	s.Name = p.parseExpr(true)
	p.expectTagEnd(token.BLOCK_END)
	return s
}

// skipContext skips a "with context" or "without context" modifier.
func (p *parser) skipContext() {
	if p.isKeyword("with") || p.isKeyword("without") {
		p.next()
		p.expectKeyword("context")
	}
}

func (p *parser) parseInclude() *ast.Include {
	s := &ast.Include{Include: p.pos}
	p.next()
	s.Name = p.parseExpr(true)
	if p.isKeyword("ignore") {
		p.next()
		p.expectKeyword("missing")
		s.IgnoreMissing = true
	}
	p.skipContext()
	p.expectTagEnd(token.BLOCK_END)
	return s
}

func (p *parser) parseImport() *ast.Import {
	s := &ast.Import{Import: p.pos}
	p.next()
	s.Name = p.parseExpr(true)
	p.expectKeyword("as")
	s.Alias = p.parseAssignName(false)
	p.skipContext()
	p.expectTagEnd(token.BLOCK_END)
	return s
}

func (p *parser) parseFromImport() *ast.FromImport {
	s := &ast.FromImport{From: p.pos}
	p.next()
	s.Name = p.parseExpr(true)
	p.expectKeyword("import")
	for p.tok == token.IDENT && !p.isKeyword("with") && !p.isKeyword("without") {
		n := &ast.ImportName{Name: &ast.Var{NamePos: p.pos, Name: p.lit}}
		p.next()
		if p.isKeyword("as") {
			p.next()
			n.Alias = &ast.Var{NamePos: p.pos, Name: p.lit}
			p.expect(token.IDENT)
		}
		s.Names = append(s.Names, n)
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	if len(s.Names) == 0 {
		p.errorExpected(p.pos, "name to import")
	}
	p.skipContext()
	p.expectTagEnd(token.BLOCK_END)
	return s
}

func (p *parser) parseMacroParams(m *ast.Macro) {
	p.expect(token.LPAREN)
	for p.tok == token.IDENT {
		arg := &ast.Var{NamePos: p.pos, Name: p.lit}
		p.next()
		m.Args = append(m.Args, arg)
		if p.tok == token.ASSIGN {
			p.next()
			m.Defaults = append(m.Defaults, p.parseExpr(true))
		} else if len(m.Defaults) > 0 {
			p.errf(arg.NamePos, "non-default argument %s follows default argument", arg.Name)
		}
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	p.expect(token.RPAREN)
}

func (p *parser) parseMacro() *ast.Macro {
	if p.trace {
		defer un(trace(p, "Macro"))
	}
	m := &ast.Macro{Macro: p.pos}
	p.next()
	m.Name = p.lit
	p.expect(token.IDENT)
	p.parseMacroParams(m)
	p.expectTagEnd(token.BLOCK_END)
	m.Body = p.parseBody("endmacro")
	if p.isKeyword("endmacro") {
		p.next()
		if p.tok == token.IDENT {
			p.next()
		}
		p.expectTagEnd(token.BLOCK_END)
	}
	return m
}

// parseCall parses an expression that must be a call.
func (p *parser) parseCall() *ast.Call {
	x := p.parseExpr(true)
	if c, ok := x.(*ast.Call); ok {
		return c
	}
	p.errf(x.Pos(), "expected call expression")
	return &ast.Call{Fun: x}
}

func (p *parser) parseCallBlock() *ast.CallBlock {
	if p.trace {
		defer un(trace(p, "CallBlock"))
	}
	s := &ast.CallBlock{CallPos: p.pos}
	p.next()
	s.Macro = &ast.Macro{Macro: s.CallPos, Name: "caller"}
	if p.tok == token.LPAREN {
		p.parseMacroParams(s.Macro)
	}
	s.Call = p.parseCall()
	p.expectTagEnd(token.BLOCK_END)
	s.Macro.Body = p.parseBody("endcall")
	p.expectEnd("endcall")
	return s
}

func (p *parser) parseDo() *ast.Do {
	s := &ast.Do{Do: p.pos}
	p.next()
	s.Call = p.parseCall()
	p.expectTagEnd(token.BLOCK_END)
	return s
}

// ----------------------------------------------------------------------------
// Assignment targets

// parseAssignTarget parses a name or a comma-separated tuple of names.
// If allowAttr is set, names may be followed by attribute lookups, as in
// "ns.count".
func (p *parser) parseAssignTarget(allowAttr bool) ast.Expr {
	pos := p.pos
	x := p.parseAssignName(allowAttr)
	if p.tok != token.COMMA {
		return x
	}
	elts := []ast.Expr{x}
	for p.tok == token.COMMA {
		p.next()
		if p.tok != token.IDENT && p.tok != token.LPAREN {
			break
		}
		elts = append(elts, p.parseAssignName(allowAttr))
	}
	return &ast.List{Lbrack: pos, Elts: elts, Tuple: true}
}

func (p *parser) parseAssignName(allowAttr bool) ast.Expr {
	pos := p.pos
	switch {
	case p.tok == token.IDENT && !token.IsExprKeyword(p.lit):
		var x ast.Expr = &ast.Var{NamePos: pos, Name: p.lit}
		p.next()
		for allowAttr && p.tok == token.PERIOD {
			dot := p.pos
			p.next()
			name := p.lit
			p.expect(token.IDENT)
			x = &ast.GetAttr{X: x, Dot: dot, Name: name}
		}
		return x

	case p.tok == token.LPAREN:
		p.next()
		x := p.parseAssignTarget(false)
		p.expect(token.RPAREN)
		return x
	}
	p.errorExpected(pos, "assignment target")
	return &ast.BadExpr{From: pos}
}

// ----------------------------------------------------------------------------
// Expressions

// startsExpr reports whether the current token can start an expression.
func (p *parser) startsExpr() bool {
	switch p.tok {
	case token.IDENT:
		return p.lit == "not" || !token.IsExprKeyword(p.lit)
	case token.STRING, token.INT, token.FLOAT,
		token.LPAREN, token.LBRACK, token.LBRACE,
		token.ADD, token.SUB:
		return true
	}
	return false
}

// parseTuple parses an expression or, if it is followed by a comma, a
// tuple without parentheses.
func (p *parser) parseTuple(withIf bool) ast.Expr {
	pos := p.pos
	x := p.parseExpr(withIf)
	if p.tok != token.COMMA {
		return x
	}
	elts := []ast.Expr{x}
	for p.tok == token.COMMA {
		p.next()
		if !p.startsExpr() {
			break
		}
		elts = append(elts, p.parseExpr(withIf))
	}
	return &ast.List{Lbrack: pos, Elts: elts, Tuple: true}
}

// parseExpr parses an expression. If withIf is set, the expression may be
// a conditional expression.
func (p *parser) parseExpr(withIf bool) ast.Expr {
	if p.trace {
		defer un(trace(p, "Expr"))
	}
	x := p.parseOr()
	for withIf && p.isKeyword("if") {
		ifPos := p.pos
		p.next()
		cond := p.parseOr()
		var alt ast.Expr
		if p.isKeyword("else") {
			p.next()
			alt = p.parseExpr(true)
		}
		x = &ast.IfExpr{TrueExpr: x, If: ifPos, Test: cond, FalseExpr: alt}
	}
	return x
}

func (p *parser) parseOr() ast.Expr {
	x := p.parseAnd()
	for p.isKeyword("or") {
		pos := p.pos
		p.next()
		y := p.parseAnd()
		x = &ast.BinOp{X: x, OpPos: pos, Op: ast.Or, Y: y}
	}
	return x
}

func (p *parser) parseAnd() ast.Expr {
	x := p.parseNot()
	for p.isKeyword("and") {
		pos := p.pos
		p.next()
		y := p.parseNot()
		x = &ast.BinOp{X: x, OpPos: pos, Op: ast.And, Y: y}
	}
	return x
}

func (p *parser) parseNot() ast.Expr {
	if !p.isKeyword("not") {
		return p.parseCompare()
	}
	p.enter()
	defer p.leave()

	pos := p.pos
	p.next()
	return &ast.UnaryOp{OpPos: pos, Op: ast.Not, X: p.parseNot()}
}

var compareOps = map[token.Token]ast.BinaryOp{
	token.EQL: ast.Eq,
	token.NEQ: ast.Ne,
	token.LSS: ast.Lt,
	token.LEQ: ast.Lte,
	token.GTR: ast.Gt,
	token.GEQ: ast.Gte,
}

// mathPrec is the lowest precedence handled by parseBinaryExpr; comparisons
// are handled by parseCompare.
const mathPrec = 4

func (p *parser) parseCompare() ast.Expr {
	x := p.parseBinaryExpr(mathPrec)
	for {
		pos := p.pos
		op, ok := compareOps[p.tok]
		negated := false
		switch {
		case ok:
		case p.isKeyword("in"):
			op = ast.In
		case p.isKeyword("not"):
			// "not" can only follow an operand as part of "not in".
			p.next()
			if !p.isKeyword("in") {
				p.errorExpected(p.pos, "'in'")
			}
			op, negated = ast.In, true
		default:
			return x
		}
		p.next()
		y := p.parseBinaryExpr(mathPrec)
		x = &ast.BinOp{X: x, OpPos: pos, Op: op, Y: y}
		if negated {
			x = &ast.UnaryOp{OpPos: pos, Op: ast.Not, X: x}
		}
	}
}

var mathOps = map[token.Token]ast.BinaryOp{
	token.ADD:      ast.Add,
	token.SUB:      ast.Sub,
	token.MUL:      ast.Mul,
	token.DIV:      ast.Div,
	token.FLOORDIV: ast.FloorDiv,
	token.MOD:      ast.Rem,
	token.POW:      ast.Pow,
	token.TILDE:    ast.Concat,
}

func (p *parser) parseBinaryExpr(prec1 int) ast.Expr {
	if p.trace {
		defer un(trace(p, "BinaryExpr"))
	}
	x := p.parseUnary(true)
	for {
		op, prec := p.tok, p.tok.Precedence()
		if prec < prec1 {
			return x
		}
		pos := p.pos
		p.next()
		y := p.parseBinaryExpr(prec + 1)
		x = &ast.BinOp{X: x, OpPos: pos, Op: mathOps[op], Y: y}
	}
}

func (p *parser) parseUnary(withFilter bool) ast.Expr {
	if p.trace {
		defer un(trace(p, "UnaryExpr"))
	}
	p.enter()
	defer p.leave()

	var x ast.Expr
	switch p.tok {
	case token.SUB, token.ADD:
		pos, op := p.pos, ast.Neg
		if p.tok == token.ADD {
			op = ast.Plus
		}
		p.next()
		x = &ast.UnaryOp{OpPos: pos, Op: op, X: p.parseUnary(false)}
	default:
		x = p.parsePostfix(p.parsePrimary())
	}
	if withFilter {
		x = p.parseFilterExpr(x)
	}
	return x
}

// parseFilterExpr parses the filters and tests applied to x.
func (p *parser) parseFilterExpr(x ast.Expr) ast.Expr {
	for {
		switch {
		case p.tok == token.PIPE:
			p.next()
			x = p.parseFilterCall(x)
		case p.isKeyword("is"):
			x = p.parseTest(x)
		default:
			return x
		}
	}
}

// parseFilterChain parses a sequence of "| name(args)" filters applied
// to x.
func (p *parser) parseFilterChain(x ast.Expr) ast.Expr {
	for p.tok == token.PIPE {
		p.next()
		x = p.parseFilterCall(x)
	}
	return x
}

// parseDottedName parses a possibly dotted filter or test name.
func (p *parser) parseDottedName() (token.Pos, string) {
	pos, name := p.pos, p.lit
	p.expect(token.IDENT)
	for p.tok == token.PERIOD {
		p.next()
		name += "." + p.lit
		p.expect(token.IDENT)
	}
	return pos, name
}

func (p *parser) parseFilterCall(x ast.Expr) *ast.Filter {
	pos, name := p.parseDottedName()
	f := &ast.Filter{X: x, NamePos: pos, Name: name}
	if p.tok == token.LPAREN {
		f.Args = p.parseCallArgs()
	}
	return f
}

// startsTestArg reports whether the current token starts the single
// argument of a test written without parentheses, as in
// "x is divisibleby 3".
func (p *parser) startsTestArg() bool {
	switch p.tok {
	case token.IDENT:
		return !token.IsExprKeyword(p.lit)
	case token.STRING, token.INT, token.FLOAT, token.LBRACK, token.LBRACE:
		return true
	}
	return false
}

func (p *parser) parseTest(x ast.Expr) ast.Expr {
	isPos := p.pos
	p.next()
	negated := false
	if p.isKeyword("not") {
		p.next()
		negated = true
	}
	pos, name := p.parseDottedName()
	t := &ast.Test{X: x, NamePos: pos, Name: name}
	switch {
	case p.tok == token.LPAREN:
		t.Args = p.parseCallArgs()
	case p.startsTestArg():
		arg := p.parsePostfix(p.parsePrimary())
		t.Args = []*ast.CallArg{{Value: arg}}
	}
	if negated {
		return &ast.UnaryOp{OpPos: isPos, Op: ast.Not, X: t}
	}
	return t
}

func (p *parser) parseCallArgs() []*ast.CallArg {
	p.expect(token.LPAREN)
	var args []*ast.CallArg
	for p.tok != token.RPAREN && p.tok != token.EOF && !p.tok.IsTagEnd() {
		arg := &ast.CallArg{}
		switch p.tok {
		case token.MUL:
			p.next()
			arg.Kind = ast.PosSplatArg
			arg.Value = p.parseExpr(true)
		case token.POW:
			p.next()
			arg.Kind = ast.KwSplatArg
			arg.Value = p.parseExpr(true)
		default:
			x := p.parseExpr(true)
			if v, ok := x.(*ast.Var); ok && p.tok == token.ASSIGN {
				p.next()
				arg.Kind = ast.KwArg
				arg.Name = v.Name
				x = p.parseExpr(true)
			}
			arg.Value = x
		}
		args = append(args, arg)
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	p.expect(token.RPAREN)
	return args
}

func (p *parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch p.tok {
		case token.PERIOD:
			dot := p.pos
			p.next()
			switch p.tok {
			case token.IDENT:
				x = &ast.GetAttr{X: x, Dot: dot, Name: p.lit}
				p.next()
			case token.INT:
				index := &ast.Const{ValuePos: p.pos, Kind: ast.IntConst, Value: strings.ReplaceAll(p.lit, "_", "")}
				x = &ast.GetItem{X: x, Lbrack: dot, Index: index}
				p.next()
			default:
				p.errorExpected(p.pos, "attribute name")
				return x
			}

		case token.LBRACK:
			x = p.parseSubscript(x)

		case token.LPAREN:
			lparen := p.pos
			args := p.parseCallArgs()
			x = &ast.Call{Fun: x, Lparen: lparen, Args: args}

		default:
			return x
		}
	}
}

func (p *parser) parseSubscript(x ast.Expr) ast.Expr {
	lbrack := p.pos
	p.next()
	var parts [3]ast.Expr
	ncolons := 0
	for {
		if p.tok != token.COLON && p.tok != token.RBRACK {
			parts[ncolons] = p.parseExpr(true)
		}
		if p.tok != token.COLON || ncolons == 2 {
			break
		}
		ncolons++
		p.next()
	}
	p.expect(token.RBRACK)

	if ncolons == 0 {
		if parts[0] == nil {
			p.errf(lbrack, "expected subscript")
			parts[0] = &ast.BadExpr{From: lbrack}
		}
		return &ast.GetItem{X: x, Lbrack: lbrack, Index: parts[0]}
	}
	return &ast.Slice{X: x, Lbrack: lbrack, Start: parts[0], Stop: parts[1], Step: parts[2]}
}

func (p *parser) parsePrimary() ast.Expr {
	if p.trace {
		defer un(trace(p, "Primary"))
	}
	pos := p.pos
	switch p.tok {
	case token.IDENT:
		name := p.lit
		p.next()
		switch name {
		case "true", "True":
			return &ast.Const{ValuePos: pos, Kind: ast.BoolConst, Value: "true"}
		case "false", "False":
			return &ast.Const{ValuePos: pos, Kind: ast.BoolConst, Value: "false"}
		case "none", "None":
			return &ast.Const{ValuePos: pos, Kind: ast.NoneConst, Value: "none"}
		}
		return &ast.Var{NamePos: pos, Name: name}

	case token.STRING:
		// Adjacent string literals are concatenated.
		var b strings.Builder
		for p.tok == token.STRING {
			s, err := literal.Unquote(p.lit)
			if err != nil {
				p.errf(p.pos, "invalid string literal: %v", err)
			}
			b.WriteString(s)
			p.next()
		}
		return &ast.Const{ValuePos: pos, Kind: ast.StringConst, Value: b.String()}

	case token.INT, token.FLOAT:
		kind := ast.IntConst
		if p.tok == token.FLOAT {
			kind = ast.FloatConst
		}
		value := strings.ReplaceAll(p.lit, "_", "")
		p.next()
		return &ast.Const{ValuePos: pos, Kind: kind, Value: value}

	case token.LPAREN:
		p.next()
		if p.tok == token.RPAREN {
			p.next()
			return &ast.List{Lbrack: pos, Tuple: true}
		}
		x := p.parseExpr(true)
		if p.tok == token.COMMA {
			elts := []ast.Expr{x}
			for p.tok == token.COMMA {
				p.next()
				if p.tok == token.RPAREN {
					break
				}
				elts = append(elts, p.parseExpr(true))
			}
			x = &ast.List{Lbrack: pos, Elts: elts, Tuple: true}
		}
		p.expect(token.RPAREN)
		return x

	case token.LBRACK:
		p.next()
		l := &ast.List{Lbrack: pos}
		for p.tok != token.RBRACK && p.tok != token.EOF && !p.tok.IsTagEnd() {
			l.Elts = append(l.Elts, p.parseExpr(true))
			if p.tok != token.COMMA {
				break
			}
			p.next()
		}
		p.expect(token.RBRACK)
		return l

	case token.LBRACE:
		p.next()
		m := &ast.Map{Lbrace: pos}
		for p.tok != token.RBRACE && p.tok != token.EOF && !p.tok.IsTagEnd() {
			key := p.parseExpr(true)
			p.expect(token.COLON)
			value := p.parseExpr(true)
			m.Entries = append(m.Entries, &ast.MapEntry{Key: key, Value: value})
			if p.tok != token.COMMA {
				break
			}
			p.next()
		}
		p.expect(token.RBRACE)
		return m
	}

	p.errorExpected(pos, "expression")
	if !p.tok.IsTagEnd() && p.tok != token.EOF {
		p.next() // make progress
	}
	return &ast.BadExpr{From: pos}
}
