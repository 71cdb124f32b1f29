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

// This file contains the exported entry points for invoking the parser.

package parser

import (
	"cleanplate.dev/go/internal/source"
	"cleanplate.dev/go/jinja/ast"
	"cleanplate.dev/go/jinja/errors"
	"cleanplate.dev/go/jinja/scanner"
	"cleanplate.dev/go/jinja/token"
)

// Option specifies a parse option.
type Option interface {
	apply(cfg *Config)
}

var _ Option = Config{}

// Config represents the end result of applying a set of options.
// The zero value is not OK to use: use [NewConfig] to construct
// a Config value before using it.
//
// Config itself implements [Option] by overwriting the
// entire configuration.
type Config struct {
	// valid is set by NewConfig and is used to check
	// that a Config has been created correctly.
	valid bool

	// Mode holds a bitmask of boolean parser options.
	Mode Mode

	// MaxDepth limits the nesting of expressions and statements.
	MaxDepth int
}

// apply implements [Option]
func (cfg Config) apply(cfg1 *Config) {
	if !cfg.valid {
		panic("zero parser.Config value used; use parser.NewConfig!")
	}
	*cfg1 = cfg
}

// DefaultMaxDepth is the nesting limit used unless [MaxDepth] is given.
const DefaultMaxDepth = 150

// NewConfig returns the configuration containing all default values
// with the given options applied.
func NewConfig(opts ...Option) Config {
	return Config{
		valid:    true,
		MaxDepth: DefaultMaxDepth,
	}.Apply(opts...)
}

// Apply applies all the given options to cfg and
// returns the resulting configuration.
func (cfg Config) Apply(opts ...Option) Config {
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return cfg
}

// IsValid reports whether cfg is valid; that
// is, it has been created with [NewConfig].
func (cfg Config) IsValid() bool {
	return cfg.valid
}

// optionFunc implements [Option] for a function.
type optionFunc func(cfg *Config)

func (f optionFunc) apply(cfg *Config) {
	f(cfg)
}

// A Mode value is a set of flags (or 0).
// It controls optional parser functionality.
//
// Mode implements [Option] by or-ing all its bits
// with [Config.Mode].
type Mode uint

const (
	// Trace causes parsing to print a trace of parsed productions.
	Trace Mode = 1 << iota

	// AllErrors causes the parser to recover from syntax errors and
	// report all of them (up to a limit), instead of stopping at the first.
	AllErrors
)

// apply implements [Option].
func (m Mode) apply(c *Config) {
	c.Mode |= m
}

// MaxDepth sets the maximum nesting depth of the parsed template.
func MaxDepth(n int) Option {
	return optionFunc(func(c *Config) {
		c.MaxDepth = n
	})
}

// ParseTemplate parses the source of a single template and returns the
// corresponding Template node. The source may be provided via the filename
// of the source file, or via the src parameter.
//
// If src != nil, ParseTemplate parses the source from src and the filename
// is only used when recording position information. The type of the
// argument for the src parameter must be string, []byte, or io.Reader.
// If src == nil, ParseTemplate parses the file specified by filename.
//
// If the source couldn't be read, the returned AST is nil and the error
// indicates the specific failure. If the source was read but syntax
// errors were found, the result is a partial AST and the errors are
// returned as an errors.List sorted by position.
func ParseTemplate(filename string, src any, opts ...Option) (t *ast.Template, err error) {
	text, err := source.ReadAll(filename, src)
	if err != nil {
		return nil, err
	}

	var p parser
	defer func() {
		if p.panicking {
			_ = recover()
		}
		if t == nil {
			t = &ast.Template{Filename: filename}
		}
		err = errors.Sanitize(p.errors.Err())
	}()

	p.init(filename, text, 0, opts)
	t = p.parseTemplate()
	t.Filename = filename
	return t, nil
}

// ParseExpr is a convenience function for parsing a single expression
// written without the surrounding {{ }} delimiters.
func ParseExpr(filename string, src any, opts ...Option) (x ast.Expr, err error) {
	text, err := source.ReadAll(filename, src)
	if err != nil {
		return nil, err
	}

	var p parser
	defer func() {
		if p.panicking {
			_ = recover()
		}
		err = errors.Sanitize(p.errors.Err())
		if err != nil {
			x = nil
		}
	}()

	p.init(filename, text, scanner.ExprOnly, opts)
	x = p.parseTuple(true)
	p.expect(token.EOF)
	return x, nil
}
