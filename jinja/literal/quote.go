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

// Package literal implements conversions from Jinja literal source text.
package literal // import "cleanplate.dev/go/jinja/literal"

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	errSyntax        = errors.New("invalid syntax")
	errInvalidEscape = errors.New("invalid escape sequence")
)

// Unquote interprets s as a single or double quoted string literal,
// returning the string value that s quotes. Escape sequences follow the
// Python conventions used by Jinja: unknown escapes are kept verbatim,
// including the backslash.
func Unquote(s string) (string, error) {
	n := len(s)
	if n < 2 {
		return "", errSyntax
	}
	quote := s[0]
	if quote != '"' && quote != '\'' || s[n-1] != quote {
		return "", errSyntax
	}
	s = s[1 : n-1]
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		c := s[0]
		if c != '\\' || len(s) == 1 {
			b.WriteByte(c)
			s = s[1:]
			continue
		}
		esc := s[1]
		s = s[2:]
		switch esc {
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case '\n':
			// line continuation
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'x', 'u', 'U':
			size := 2
			switch esc {
			case 'u':
				size = 4
			case 'U':
				size = 8
			}
			if len(s) < size {
				return "", errInvalidEscape
			}
			v, err := strconv.ParseUint(s[:size], 16, 32)
			if err != nil {
				return "", errInvalidEscape
			}
			r := rune(v)
			if !utf8.ValidRune(r) {
				return "", errInvalidEscape
			}
			b.WriteRune(r)
			s = s[size:]
		default:
			b.WriteByte('\\')
			b.WriteByte(esc)
		}
	}
	return b.String(), nil
}
