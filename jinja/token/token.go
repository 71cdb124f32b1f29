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

// Package token defines constants representing the lexical tokens of the
// Jinja template language and basic operations on tokens (printing,
// predicates).
package token // import "cleanplate.dev/go/jinja/token"

import "strconv"

// Token is the set of lexical tokens of the Jinja template language.
type Token int

// The list of tokens.
const (
	// Special tokens
	ILLEGAL Token = iota
	EOF
	COMMENT

	// TEMPLATE_DATA is literal text outside of any tag.
	TEMPLATE_DATA

	VARIABLE_START // {{
	VARIABLE_END   // }}
	BLOCK_START    // {%
	BLOCK_END      // %}

	literalBeg
	// Identifiers and basic type literals
	// (these tokens stand for classes of literals)
	IDENT  // main
	INT    // 12_345
	FLOAT  // 123.45
	STRING // "abc" or 'abc'
	literalEnd

	operatorBeg
	// Operators and delimiters
	ADD      // +
	SUB      // -
	MUL      // *
	POW      // **
	DIV      // /
	FLOORDIV // //
	MOD      // %
	TILDE    // ~

	EQL    // ==
	NEQ    // !=
	LSS    // <
	LEQ    // <=
	GTR    // >
	GEQ    // >=
	ASSIGN // =

	PIPE   // |
	PERIOD // .
	COMMA  // ,
	COLON  // :

	LPAREN // (
	RPAREN // )
	LBRACK // [
	RBRACK // ]
	LBRACE // {
	RBRACE // }
	operatorEnd
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",

	EOF:     "EOF",
	COMMENT: "COMMENT",

	TEMPLATE_DATA: "TEMPLATE_DATA",

	VARIABLE_START: "{{",
	VARIABLE_END:   "}}",
	BLOCK_START:    "{%",
	BLOCK_END:      "%}",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	ADD:      "+",
	SUB:      "-",
	MUL:      "*",
	POW:      "**",
	DIV:      "/",
	FLOORDIV: "//",
	MOD:      "%",
	TILDE:    "~",

	EQL:    "==",
	NEQ:    "!=",
	LSS:    "<",
	LEQ:    "<=",
	GTR:    ">",
	GEQ:    ">=",
	ASSIGN: "=",

	PIPE:   "|",
	PERIOD: ".",
	COMMA:  ",",
	COLON:  ":",

	LPAREN: "(",
	RPAREN: ")",
	LBRACK: "[",
	RBRACK: "]",
	LBRACE: "{",
	RBRACE: "}",
}

// String returns the string corresponding to the token tok.
// For operators and delimiters, the string is the actual token
// character sequence (e.g., for the token ADD, the string is
// "+"). For all other tokens the string corresponds to the token
// constant name (e.g. for the token IDENT, the string is "IDENT").
func (tok Token) String() string {
	s := ""
	if 0 <= tok && tok < Token(len(tokens)) {
		s = tokens[tok]
	}
	if s == "" {
		s = "token(" + strconv.Itoa(int(tok)) + ")"
	}
	return s
}

// A set of constants for precedence-based expression parsing.
// Non-operators have lowest precedence, followed by operators
// starting with precedence 1 up to unary operators. The highest
// precedence serves as "catch-all" precedence for selector,
// indexing, and other operator and delimiter tokens.
const (
	LowestPrec  = 0 // non-operators
	UnaryPrec   = 7
	HighestPrec = 8
)

// Precedence returns the operator precedence of the binary operator op.
// If op is not a binary operator, the result is LowestPrec.
//
// The word operators "or", "and", "in" and "not in" are scanned as IDENT
// and are handled by the parser directly.
func (tok Token) Precedence() int {
	switch tok {
	case EQL, NEQ, LSS, LEQ, GTR, GEQ:
		return 3
	case ADD, SUB:
		return 4
	case TILDE:
		return 5
	case MUL, DIV, FLOORDIV, MOD:
		return 6
	case POW:
		return UnaryPrec
	}
	return LowestPrec
}

// Keywords that carry meaning inside expressions. Jinja keywords are
// contextual: outside of these positions they are plain identifiers.
var keywords = map[string]bool{
	"and":  true,
	"or":   true,
	"not":  true,
	"in":   true,
	"is":   true,
	"if":   true,
	"else": true,
}

// IsExprKeyword reports whether name is a word operator or a conditional
// keyword that can never start or continue an operand.
func IsExprKeyword(name string) bool {
	return keywords[name]
}

// Predicates

// IsLiteral returns true for tokens corresponding to identifiers
// and basic type literals; it returns false otherwise.
func (tok Token) IsLiteral() bool { return literalBeg < tok && tok < literalEnd }

// IsOperator returns true for tokens corresponding to operators and
// delimiters; it returns false otherwise.
func (tok Token) IsOperator() bool { return operatorBeg < tok && tok < operatorEnd }

// IsTagEnd reports whether tok closes a variable or block tag.
func (tok Token) IsTagEnd() bool { return tok == VARIABLE_END || tok == BLOCK_END }
