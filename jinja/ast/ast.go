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

// Package ast declares the types used to represent syntax trees for Jinja
// templates.
package ast // import "cleanplate.dev/go/jinja/ast"

import (
	"cleanplate.dev/go/jinja/token"
)

// ----------------------------------------------------------------------------
// Interfaces
//
// There are two main classes of nodes: statements and expressions.
// Statements form the body of a template and of the blocks nested in it.
// Expressions appear inside tags.
//
// All nodes contain position information marking the beginning of the
// corresponding source text segment; it is accessible via the Pos accessor
// method.

// A Node represents any node in the abstract syntax tree.
type Node interface {
	Pos() token.Pos // position of first character belonging to the node
}

// An Expr is implemented by all expression nodes.
type Expr interface {
	Node
	exprNode()
}

func (*BadExpr) exprNode() {}
func (*Var) exprNode()     {}
func (*Const) exprNode()   {}
func (*GetAttr) exprNode() {}
func (*GetItem) exprNode() {}
func (*Slice) exprNode()   {}
func (*Call) exprNode()    {}
func (*Filter) exprNode()  {}
func (*Test) exprNode()    {}
func (*BinOp) exprNode()   {}
func (*UnaryOp) exprNode() {}
func (*IfExpr) exprNode()  {}
func (*List) exprNode()    {}
func (*Map) exprNode()     {}

// A Stmt is implemented by all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

func (*Template) stmtNode()    {}
func (*EmitRaw) stmtNode()     {}
func (*EmitExpr) stmtNode()    {}
func (*ForLoop) stmtNode()     {}
func (*IfCond) stmtNode()      {}
func (*WithBlock) stmtNode()   {}
func (*Set) stmtNode()         {}
func (*SetBlock) stmtNode()    {}
func (*AutoEscape) stmtNode()  {}
func (*FilterBlock) stmtNode() {}
func (*Block) stmtNode()       {}
func (*Extends) stmtNode()     {}
func (*Include) stmtNode()     {}
func (*Import) stmtNode()      {}
func (*FromImport) stmtNode()  {}
func (*Macro) stmtNode()       {}
func (*CallBlock) stmtNode()   {}
func (*Do) stmtNode()          {}
func (*Continue) stmtNode()    {}
func (*Break) stmtNode()       {}

// ----------------------------------------------------------------------------
// Expressions

// A BadExpr node is a placeholder for an expression containing
// syntax errors for which a correct expression node cannot be
// created.
type BadExpr struct {
	From token.Pos
}

// A Var node is a reference to a variable by name.
type Var struct {
	NamePos token.Pos
	Name    string
}

// ConstKind is the kind of a constant literal.
type ConstKind int

const (
	StringConst ConstKind = iota
	IntConst
	FloatConst
	BoolConst
	NoneConst
)

// A Const node is a literal of a basic type.
//
// Value holds the display form of the constant: the unquoted contents of a
// string, the source text of a number, "true" or "false" for booleans and
// "none" for the none constant.
type Const struct {
	ValuePos token.Pos
	Kind     ConstKind
	Value    string
}

// IsNumber reports whether c is an integer or float constant.
func (c *Const) IsNumber() bool {
	return c.Kind == IntConst || c.Kind == FloatConst
}

// A GetAttr node is an attribute lookup of the form X.Name.
type GetAttr struct {
	X    Expr
	Dot  token.Pos
	Name string
}

// A GetItem node is a subscript of the form X[Index].
type GetItem struct {
	X      Expr
	Lbrack token.Pos
	Index  Expr
}

// A Slice node is a subscript of the form X[Start:Stop:Step]. Missing
// parts are nil.
type Slice struct {
	X      Expr
	Lbrack token.Pos
	Start  Expr
	Stop   Expr
	Step   Expr
}

// ArgKind distinguishes the forms of call arguments.
type ArgKind int

const (
	PosArg      ArgKind = iota // value
	KwArg                      // name=value
	PosSplatArg                // *value
	KwSplatArg                 // **value
)

// A CallArg is a single argument of a call, filter or test.
type CallArg struct {
	Kind  ArgKind
	Name  string // for KwArg
	Value Expr
}

// A Call node represents a call of the form Fun(Args...).
type Call struct {
	Fun    Expr
	Lparen token.Pos
	Args   []*CallArg
}

// A Filter node applies the filter Name to X. X is nil for the filter of a
// filter block.
type Filter struct {
	X       Expr
	NamePos token.Pos
	Name    string
	Args    []*CallArg
}

// A Test node represents "X is Name(Args...)". A negated test is
// represented as a Not UnaryOp wrapping the Test.
type Test struct {
	X       Expr
	NamePos token.Pos
	Name    string
	Args    []*CallArg
}

// BinaryOp is a binary operator.
type BinaryOp int

const (
	Eq BinaryOp = iota
	Ne
	Lt
	Lte
	Gt
	Gte
	And
	Or
	Add
	Sub
	Mul
	Div
	FloorDiv
	Rem
	Pow
	Concat
	In
)

var binaryOps = [...]string{
	Eq:       "==",
	Ne:       "!=",
	Lt:       "<",
	Lte:      "<=",
	Gt:       ">",
	Gte:      ">=",
	And:      "and",
	Or:       "or",
	Add:      "+",
	Sub:      "-",
	Mul:      "*",
	Div:      "/",
	FloorDiv: "//",
	Rem:      "%",
	Pow:      "**",
	Concat:   "~",
	In:       "in",
}

func (op BinaryOp) String() string { return binaryOps[op] }

// A BinOp node represents a binary expression.
type BinOp struct {
	X     Expr
	OpPos token.Pos
	Op    BinaryOp
	Y     Expr
}

// UnaryOpKind is a unary operator.
type UnaryOpKind int

const (
	Not UnaryOpKind = iota
	Neg
	Plus
)

func (op UnaryOpKind) String() string {
	switch op {
	case Not:
		return "not"
	case Neg:
		return "-"
	}
	return "+"
}

// A UnaryOp node represents a unary expression.
type UnaryOp struct {
	OpPos token.Pos
	Op    UnaryOpKind
	X     Expr
}

// An IfExpr node represents "TrueExpr if Test else FalseExpr". FalseExpr
// is nil if the else branch is omitted.
type IfExpr struct {
	TrueExpr  Expr
	If        token.Pos
	Test      Expr
	FalseExpr Expr
}

// A List node represents a list literal or, if Tuple is set, a tuple.
type List struct {
	Lbrack token.Pos // position of "[" or "(", or of the first element
	Elts   []Expr
	Tuple  bool
}

// A MapEntry is a key-value pair of a map literal.
type MapEntry struct {
	Key   Expr
	Value Expr
}

// A Map node represents a map literal.
type Map struct {
	Lbrace  token.Pos
	Entries []*MapEntry
}

// ----------------------------------------------------------------------------
// Statements

// A Template node is the root of a parsed template.
type Template struct {
	Filename string
	Children []Stmt
}

// EmitRaw emits literal template data.
type EmitRaw struct {
	ValuePos token.Pos
	Raw      string
}

// EmitExpr emits the value of an expression: {{ X }}.
type EmitExpr struct {
	Lbrace token.Pos
	X      Expr
}

// A ForLoop node represents {% for Target in Iter if Filter recursive %}.
type ForLoop struct {
	For       token.Pos
	Target    Expr
	Iter      Expr
	Filter    Expr // or nil
	Recursive bool
	Body      []Stmt
	Else      []Stmt
}

// An IfCond node represents an if statement. An elif chain is represented
// as a nested IfCond forming the single element of Else.
type IfCond struct {
	If   token.Pos
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// An Assignment binds Target to Value.
type Assignment struct {
	Target Expr
	Value  Expr
}

// A WithBlock node introduces a scope with the given assignments.
type WithBlock struct {
	With        token.Pos
	Assignments []*Assignment
	Body        []Stmt
}

// A Set node represents {% set Target = Value %}.
type Set struct {
	Set    token.Pos
	Target Expr
	Value  Expr
}

// A SetBlock node represents {% set Target | Filter %}Body{% endset %}.
type SetBlock struct {
	Set    token.Pos
	Target Expr
	Filter Expr // or nil
	Body   []Stmt
}

// An AutoEscape node represents {% autoescape Enabled %}.
type AutoEscape struct {
	AutoEscape token.Pos
	Enabled    Expr
	Body       []Stmt
}

// A FilterBlock node applies a filter chain to the output of Body.
type FilterBlock struct {
	FilterPos token.Pos
	Filter    Expr
	Body      []Stmt
}

// A Block node represents an overridable {% block Name %}.
type Block struct {
	BlockPos token.Pos
	Name     string
	Body     []Stmt
}

// An Extends node represents {% extends Name %}.
type Extends struct {
	Extends token.Pos
	Name    Expr
}

// An Include node represents {% include Name ignore missing %}.
type Include struct {
	Include       token.Pos
	Name          Expr
	IgnoreMissing bool
}

// An Import node represents {% import Name as Alias %}.
type Import struct {
	Import token.Pos
	Name   Expr
	Alias  Expr
}

// An ImportName is a single name imported by a FromImport.
type ImportName struct {
	Name  *Var
	Alias *Var // or nil
}

// A FromImport node represents {% from Name import Names... %}.
type FromImport struct {
	From  token.Pos
	Name  Expr
	Names []*ImportName
}

// A Macro node defines a macro. Defaults holds the default values of the
// trailing arguments.
type Macro struct {
	Macro    token.Pos
	Name     string
	Args     []*Var
	Defaults []Expr
	Body     []Stmt
}

// A CallBlock node represents {% call(Macro.Args) Call %}Body{% endcall %}.
type CallBlock struct {
	CallPos token.Pos
	Call    *Call
	Macro   *Macro
}

// A Do node evaluates Call for its side effects.
type Do struct {
	Do   token.Pos
	Call *Call
}

// A Continue node represents {% continue %}.
type Continue struct {
	Continue token.Pos
}

// A Break node represents {% break %}.
type Break struct {
	Break token.Pos
}

// ----------------------------------------------------------------------------
// Positions

func (x *BadExpr) Pos() token.Pos { return x.From }
func (x *Var) Pos() token.Pos     { return x.NamePos }
func (x *Const) Pos() token.Pos   { return x.ValuePos }
func (x *GetAttr) Pos() token.Pos { return x.X.Pos() }
func (x *GetItem) Pos() token.Pos { return x.X.Pos() }
func (x *Slice) Pos() token.Pos   { return x.X.Pos() }
func (x *Call) Pos() token.Pos    { return x.Fun.Pos() }
func (x *Filter) Pos() token.Pos {
	if x.X != nil {
		return x.X.Pos()
	}
	return x.NamePos
}
func (x *Test) Pos() token.Pos    { return x.X.Pos() }
func (x *BinOp) Pos() token.Pos   { return x.X.Pos() }
func (x *UnaryOp) Pos() token.Pos { return x.OpPos }
func (x *IfExpr) Pos() token.Pos  { return x.TrueExpr.Pos() }
func (x *List) Pos() token.Pos    { return x.Lbrack }
func (x *Map) Pos() token.Pos     { return x.Lbrace }

func (s *Template) Pos() token.Pos {
	if len(s.Children) > 0 {
		return s.Children[0].Pos()
	}
	return token.NoPos
}
func (s *EmitRaw) Pos() token.Pos     { return s.ValuePos }
func (s *EmitExpr) Pos() token.Pos    { return s.Lbrace }
func (s *ForLoop) Pos() token.Pos     { return s.For }
func (s *IfCond) Pos() token.Pos      { return s.If }
func (s *WithBlock) Pos() token.Pos   { return s.With }
func (s *Set) Pos() token.Pos         { return s.Set }
func (s *SetBlock) Pos() token.Pos    { return s.Set }
func (s *AutoEscape) Pos() token.Pos  { return s.AutoEscape }
func (s *FilterBlock) Pos() token.Pos { return s.FilterPos }
func (s *Block) Pos() token.Pos       { return s.BlockPos }
func (s *Extends) Pos() token.Pos     { return s.Extends }
func (s *Include) Pos() token.Pos     { return s.Include }
func (s *Import) Pos() token.Pos      { return s.Import }
func (s *FromImport) Pos() token.Pos  { return s.From }
func (s *Macro) Pos() token.Pos       { return s.Macro }
func (s *CallBlock) Pos() token.Pos   { return s.CallPos }
func (s *Do) Pos() token.Pos          { return s.Do }
func (s *Continue) Pos() token.Pos    { return s.Continue }
func (s *Break) Pos() token.Pos       { return s.Break }
