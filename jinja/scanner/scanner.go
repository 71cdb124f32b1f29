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

// Package scanner implements a scanner for Jinja template source. It takes
// a []byte as source which can then be tokenized through repeated calls to
// the Scan method.
//
// The scanner alternates between three states: template data, the inside
// of a variable tag ({{ ... }}) and the inside of a block tag ({% ... %}).
// Comments and raw blocks are handled while scanning template data.
package scanner // import "cleanplate.dev/go/jinja/scanner"

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"

	"cleanplate.dev/go/jinja/errors"
	"cleanplate.dev/go/jinja/token"
)

type state int

const (
	inData state = iota
	inVariable
	inBlock
)

// A Scanner holds the Scanner's internal state while processing
// a given text. It can be allocated as part of another data
// structure but must be initialized via Init before use.
type Scanner struct {
	// immutable state
	file *token.File    // source file handle
	src  []byte         // source
	err  errors.Handler // error reporting; or nil
	mode Mode           // scanning mode

	// scanning state
	ch         rune  // current character
	offset     int   // character offset
	rdOffset   int   // reading offset (position after current character)
	state      state // which kind of text is being scanned
	braces     int   // open '{' inside the current tag
	lstripNext bool  // strip leading whitespace off the next data

	// public state - ok to modify
	ErrorCount int // number of errors encountered
}

const bom = 0xFEFF // byte order mark, only permitted as very first character

// Read the next Unicode char into s.ch.
// s.ch < 0 means end-of-file.
func (s *Scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		r, w := rune(s.src[s.rdOffset]), 1
		switch {
		case r == 0:
			s.error(s.offset, "illegal character NUL")
		case r >= utf8.RuneSelf:
			// not ASCII
			r, w = utf8.DecodeRune(s.src[s.rdOffset:])
			if r == utf8.RuneError && w == 1 {
				s.error(s.offset, "illegal UTF-8 encoding")
			} else if r == bom && s.offset > 0 {
				s.error(s.offset, "illegal byte order mark")
			}
		}
		s.rdOffset += w
		s.ch = r
	} else {
		s.offset = len(s.src)
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		s.ch = -1 // eof
	}
}

// A Mode value is a set of flags (or 0).
// They control scanner behavior.
type Mode uint

// These constants are options to the Init function.
const (
	ScanComments Mode = 1 << iota // return comments as COMMENT tokens

	// ExprOnly scans the source as the inside of a variable tag that is
	// closed by the end of the source.
	ExprOnly
)

// Init prepares the scanner s to tokenize the text src by setting the
// scanner at the beginning of src. The scanner uses the file for position
// information and it adds line information for each line. Init causes a
// panic if the file size does not match the src size.
//
// Calls to Scan will invoke the error handler err if they encounter a
// syntax error and err is not nil. Also, for each error encountered,
// the Scanner field ErrorCount is incremented by one.
func (s *Scanner) Init(file *token.File, src []byte, err errors.Handler, mode Mode) {
	// Explicitly initialize all fields since a scanner may be reused.
	if file.Size() != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}
	s.file = file
	s.src = src
	s.err = err
	s.mode = mode

	s.ch = ' '
	s.offset = 0
	s.rdOffset = 0
	s.state = inData
	if mode&ExprOnly != 0 {
		s.state = inVariable
	}
	s.braces = 0
	s.lstripNext = false
	s.ErrorCount = 0

	s.next()
	if s.ch == bom {
		s.next() // ignore BOM at file beginning
	}
}

func (s *Scanner) error(offs int, msg string) {
	if s.err != nil {
		s.err(s.file.Pos(offs), msg, nil)
	}
	s.ErrorCount++
}

func (s *Scanner) errorf(offs int, format string, args ...interface{}) {
	if s.err != nil {
		s.err(s.file.Pos(offs), format, args)
	}
	s.ErrorCount++
}

// at reports whether the unread source starting at the current character
// begins with prefix.
func (s *Scanner) at(prefix string) bool {
	return s.ch >= 0 && bytes.HasPrefix(s.src[s.offset:], []byte(prefix))
}

// skipTo advances the scanner to offs, recording line starts on the way.
func (s *Scanner) skipTo(offs int) {
	for s.ch >= 0 && s.offset < offs {
		s.next()
	}
}

func (s *Scanner) peek() byte {
	if s.rdOffset < len(s.src) {
		return s.src[s.rdOffset]
	}
	return 0
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= utf8.RuneSelf && unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9' || ch >= utf8.RuneSelf && unicode.IsDigit(ch)
}

// nextTagStart returns the offset of the next "{{", "{%" or "{#" at or
// after offs, or len(s.src) if there is none.
func (s *Scanner) nextTagStart(offs int) int {
	for {
		i := bytes.IndexByte(s.src[offs:], '{')
		if i < 0 || offs+i+1 >= len(s.src) {
			return len(s.src)
		}
		offs += i
		switch s.src[offs+1] {
		case '{', '%', '#':
			return offs
		}
		offs++
	}
}

// matchTag matches a block tag consisting of the single word at offs, like
// "{%- raw +%}". It returns the offset just after the tag and whether the
// tag had whitespace control markers on either side.
func (s *Scanner) matchTag(offs int, word string) (end int, stripBefore, stripAfter, ok bool) {
	src := s.src
	if !bytes.HasPrefix(src[offs:], []byte("{%")) {
		return 0, false, false, false
	}
	i := offs + 2
	if i < len(src) && (src[i] == '-' || src[i] == '+') {
		stripBefore = src[i] == '-'
		i++
	}
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	if !bytes.HasPrefix(src[i:], []byte(word)) {
		return 0, false, false, false
	}
	i += len(word)
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	if i < len(src) && (src[i] == '-' || src[i] == '+') {
		stripAfter = src[i] == '-'
		i++
	}
	if !bytes.HasPrefix(src[i:], []byte("%}")) {
		return 0, false, false, false
	}
	return i + 2, stripBefore, stripAfter, true
}

// scanData scans template data up to the next tag or the end of the source.
// It reports false if whitespace control left nothing to return.
func (s *Scanner) scanData() (offs int, lit string, ok bool) {
	start := s.offset
	end := s.nextTagStart(start)
	text := s.src[start:end]
	if s.lstripNext {
		s.lstripNext = false
		trimmed := bytes.TrimLeft(text, " \t\r\n")
		start += len(text) - len(trimmed)
		text = trimmed
	}
	if end+2 < len(s.src) && s.src[end+2] == '-' {
		text = bytes.TrimRight(text, " \t\r\n")
	}
	s.skipTo(end)
	return start, string(text), len(text) > 0
}

// scanRaw scans a {% raw %} ... {% endraw %} section and returns its
// contents as template data.
func (s *Scanner) scanRaw(openEnd int, stripContent bool) (offs int, lit string) {
	offs = openEnd
	for i := openEnd; ; i++ {
		i = s.nextTagStart(i)
		if i >= len(s.src) {
			s.error(s.offset, "missing endraw for raw block")
			s.skipTo(len(s.src))
			return offs, string(s.src[openEnd:])
		}
		end, stripBefore, stripAfter, ok := s.matchTag(i, "endraw")
		if !ok {
			continue
		}
		text := s.src[openEnd:i]
		if stripContent {
			trimmed := bytes.TrimLeft(text, " \t\r\n")
			offs += len(text) - len(trimmed)
			text = trimmed
		}
		if stripBefore {
			text = bytes.TrimRight(text, " \t\r\n")
		}
		s.lstripNext = stripAfter
		s.skipTo(end)
		return offs, string(text)
	}
}

// scanComment skips a {# ... #} comment and returns its text.
func (s *Scanner) scanComment() string {
	offs := s.offset
	i := bytes.Index(s.src[offs+2:], []byte("#}"))
	if i < 0 {
		s.error(offs, "comment not terminated")
		s.skipTo(len(s.src))
		return string(s.src[offs:])
	}
	end := offs + 2 + i + 2
	s.lstripNext = end-3 >= offs+2 && s.src[end-3] == '-'
	s.skipTo(end)
	return string(s.src[offs:end])
}

func (s *Scanner) scanIdentifier() string {
	offs := s.offset
	for isLetter(s.ch) || isDigit(s.ch) {
		s.next()
	}
	return string(s.src[offs:s.offset])
}

func (s *Scanner) scanDigits() {
	for '0' <= s.ch && s.ch <= '9' || s.ch == '_' {
		s.next()
	}
}

func (s *Scanner) scanNumber() (token.Token, string) {
	offs := s.offset
	tok := token.INT
	s.scanDigits()
	if s.ch == '.' && '0' <= s.peek() && s.peek() <= '9' {
		tok = token.FLOAT
		s.next()
		s.scanDigits()
	}
	if s.ch == 'e' || s.ch == 'E' {
		p := s.peek()
		digitAfterSign := false
		if (p == '+' || p == '-') && s.rdOffset+1 < len(s.src) {
			c := s.src[s.rdOffset+1]
			digitAfterSign = '0' <= c && c <= '9'
		}
		if '0' <= p && p <= '9' || digitAfterSign {
			tok = token.FLOAT
			s.next()
			if s.ch == '+' || s.ch == '-' {
				s.next()
			}
			s.scanDigits()
		}
	}
	lit := string(s.src[offs:s.offset])
	if lit[len(lit)-1] == '_' {
		s.error(offs, "'_' must separate successive digits")
	}
	return tok, lit
}

func (s *Scanner) scanString(quote rune) string {
	offs := s.offset
	s.next() // opening quote
	for {
		ch := s.ch
		if ch < 0 {
			s.error(offs, "string literal not terminated")
			break
		}
		s.next()
		if ch == quote {
			break
		}
		if ch == '\\' && s.ch >= 0 {
			s.next()
		}
	}
	return string(s.src[offs:s.offset])
}

func (s *Scanner) skipWhitespace() {
	for s.ch == ' ' || s.ch == '\t' || s.ch == '\n' || s.ch == '\r' {
		s.next()
	}
}

func (s *Scanner) switch2(tok0, tok1 token.Token) token.Token {
	if s.ch == '=' {
		s.next()
		return tok1
	}
	return tok0
}

// Scan scans the next token and returns the token position, the token,
// and its literal string if applicable. The source end is indicated by
// EOF.
//
// If the returned token is TEMPLATE_DATA, the literal string is the text
// after whitespace control has been applied. If the returned token is a
// literal (IDENT, INT, FLOAT, STRING) or COMMENT, the literal string has the
// corresponding source text; strings keep their quotes. Tag delimiters
// return their source text including any whitespace control marker.
//
// If the returned token is ILLEGAL, the literal string is the
// offending character.
//
// In all other cases, Scan returns an empty literal string.
//
// For more tolerant parsing, Scan will return a valid token if
// possible even if a syntax error was encountered. Thus, even
// if the resulting token sequence contains no illegal tokens,
// a client may not assume that no error occurred. Instead it
// must check the scanner's ErrorCount or the number of calls
// of the error handler, if there was one installed.
func (s *Scanner) Scan() (pos token.Pos, tok token.Token, lit string) {
	if s.state == inData {
		return s.scanInData()
	}
	return s.scanInTag()
}

func (s *Scanner) scanInData() (pos token.Pos, tok token.Token, lit string) {
	for {
		offset := s.offset
		switch {
		case s.ch < 0:
			return s.file.Pos(offset), token.EOF, ""

		case s.at("{{"):
			s.lstripNext = false
			s.state = inVariable
			s.braces = 0
			return s.file.Pos(offset), token.VARIABLE_START, s.scanTagStart()

		case s.at("{%"):
			s.lstripNext = false
			if end, _, stripAfter, ok := s.matchTag(offset, "raw"); ok {
				offs, text := s.scanRaw(end, stripAfter)
				if text == "" {
					continue
				}
				return s.file.Pos(offs), token.TEMPLATE_DATA, text
			}
			s.state = inBlock
			s.braces = 0
			return s.file.Pos(offset), token.BLOCK_START, s.scanTagStart()

		case s.at("{#"):
			s.lstripNext = false
			text := s.scanComment()
			if s.mode&ScanComments != 0 {
				return s.file.Pos(offset), token.COMMENT, text
			}

		default:
			offs, text, ok := s.scanData()
			if ok {
				return s.file.Pos(offs), token.TEMPLATE_DATA, text
			}
		}
	}
}

// scanTagStart consumes a tag opening delimiter and an optional whitespace
// control marker.
func (s *Scanner) scanTagStart() string {
	offs := s.offset
	s.next()
	s.next()
	if s.ch == '-' || s.ch == '+' {
		s.next()
	}
	return string(s.src[offs:s.offset])
}

// scanTagEnd checks for a closing delimiter at the current position.
func (s *Scanner) scanTagEnd() (tok token.Token, lit string, ok bool) {
	var closing string
	switch s.state {
	case inVariable:
		if s.braces > 0 {
			return 0, "", false
		}
		tok, closing = token.VARIABLE_END, "}}"
	case inBlock:
		tok, closing = token.BLOCK_END, "%}"
	}
	offs := s.offset
	switch {
	case s.at(closing):
	case (s.ch == '-' || s.ch == '+') && bytes.HasPrefix(s.src[s.rdOffset:], []byte(closing)):
		s.lstripNext = s.ch == '-'
		s.next()
	default:
		return 0, "", false
	}
	s.next()
	s.next()
	s.state = inData
	return tok, string(s.src[offs:s.offset]), true
}

func (s *Scanner) scanInTag() (pos token.Pos, tok token.Token, lit string) {
	s.skipWhitespace()

	offset := s.offset
	pos = s.file.Pos(offset)

	if t, l, ok := s.scanTagEnd(); ok {
		return pos, t, l
	}

	switch ch := s.ch; {
	case isLetter(ch):
		return pos, token.IDENT, s.scanIdentifier()
	case '0' <= ch && ch <= '9':
		tok, lit = s.scanNumber()
		return pos, tok, lit
	case ch == '"' || ch == '\'':
		return pos, token.STRING, s.scanString(ch)
	}

	ch := s.ch
	s.next() // always make progress
	switch ch {
	case -1:
		if s.mode&ExprOnly == 0 {
			want := "}}"
			if s.state == inBlock {
				want = "%}"
			}
			s.errorf(offset, "unexpected end of template, expected %q", want)
			s.state = inData
		}
		tok = token.EOF
	case '+':
		tok = token.ADD
	case '-':
		tok = token.SUB
	case '*':
		tok = token.MUL
		if s.ch == '*' {
			s.next()
			tok = token.POW
		}
	case '/':
		tok = token.DIV
		if s.ch == '/' {
			s.next()
			tok = token.FLOORDIV
		}
	case '%':
		tok = token.MOD
	case '~':
		tok = token.TILDE
	case '=':
		tok = s.switch2(token.ASSIGN, token.EQL)
	case '!':
		if s.ch == '=' {
			s.next()
			tok = token.NEQ
		} else {
			s.errorf(offset, "illegal character %#U", ch)
			tok = token.ILLEGAL
			lit = "!"
		}
	case '<':
		tok = s.switch2(token.LSS, token.LEQ)
	case '>':
		tok = s.switch2(token.GTR, token.GEQ)
	case '|':
		tok = token.PIPE
	case '.':
		tok = token.PERIOD
	case ',':
		tok = token.COMMA
	case ':':
		tok = token.COLON
	case '(':
		tok = token.LPAREN
	case ')':
		tok = token.RPAREN
	case '[':
		tok = token.LBRACK
	case ']':
		tok = token.RBRACK
	case '{':
		s.braces++
		tok = token.LBRACE
	case '}':
		if s.braces > 0 {
			s.braces--
		}
		tok = token.RBRACE
	default:
		s.errorf(offset, "illegal character %#U", ch)
		tok = token.ILLEGAL
		lit = string(ch)
	}
	return pos, tok, lit
}
