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

// Package errors defines shared types for handling template errors.
//
// Errors carry the position of the offending source text. Scanner and
// parser errors are collected in a List, which is sorted by position before
// it is returned to the caller.
package errors // import "cleanplate.dev/go/jinja/errors"

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"cleanplate.dev/go/jinja/token"
)

// New is a convenience wrapper for errors.New in the core library.
// It does not return a positioned Error.
func New(msg string) error {
	return errors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target, and if so,
// sets target to that error value and returns true.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if err's
// type contains an Unwrap method returning error. Otherwise, Unwrap returns
// nil.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// A Handler is a generic error handler used throughout the template
// packages.
//
// The position points to the beginning of the offending value.
type Handler func(pos token.Pos, msg string, args []interface{})

// Error is the common error message.
type Error interface {
	// Position returns the primary position of an error. If multiple
	// positions contribute equally, this reflects one of them.
	Position() token.Pos

	// Error reports the error message with position information.
	Error() string

	// Msg returns the unformatted error message and its arguments.
	Msg() (format string, args []interface{})
}

// Message implements the message part of an Error.
type Message struct {
	format string
	args   []interface{}
}

// NewMessagef creates an error message for human consumption. The arguments
// are for later consumption, allowing the message to be localized at a later
// time.
func NewMessagef(format string, args ...interface{}) Message {
	return Message{format: format, args: args}
}

// Msg returns a printf-style format string and its arguments for human
// consumption.
func (m *Message) Msg() (format string, args []interface{}) {
	return m.format, m.args
}

func (m *Message) Error() string {
	return fmt.Sprintf(m.format, m.args...)
}

// In a List, an error is represented by a *posError.
// The position Pos, if valid, points to the beginning of
// the offending token, and the error condition is described
// by Msg.
type posError struct {
	pos token.Pos
	Message

	// The underlying error that triggered this one, if any.
	err error
}

// Newf creates an Error with the associated position and message.
func Newf(p token.Pos, format string, args ...interface{}) Error {
	return &posError{
		pos:     p,
		Message: NewMessagef(format, args...),
	}
}

// Wrapf creates an Error with the associated position and message. The
// provided error is added for inspection context.
func Wrapf(err error, p token.Pos, format string, args ...interface{}) Error {
	return &posError{
		pos:     p,
		Message: NewMessagef(format, args...),
		err:     err,
	}
}

// Promote converts a regular Go error to an Error if it isn't already one.
func Promote(err error, msg string) Error {
	switch x := err.(type) {
	case Error:
		return x
	default:
		return Wrapf(err, token.NoPos, "%s", msg)
	}
}

func (e *posError) Position() token.Pos { return e.pos }

// Error implements the error interface.
func (e *posError) Error() string {
	var parts []string
	if msg := e.Message.Error(); msg != "" {
		parts = append(parts, msg)
	}
	if e.err != nil {
		parts = append(parts, e.err.Error())
	}
	s := strings.Join(parts, ": ")
	if e.pos.IsValid() {
		s = e.pos.String() + ": " + s
	}
	return s
}

func (e *posError) Unwrap() error { return e.err }

// List is a list of Errors.
// The zero value for a List is an empty List ready to use.
type List []Error

func (p *List) add(err Error) {
	*p = append(*p, err)
}

// AddNewf adds an Error with given position and error message to a List.
func (p *List) AddNewf(pos token.Pos, msg string, args ...interface{}) {
	p.add(&posError{pos: pos, Message: NewMessagef(msg, args...)})
}

// Add adds an Error to a List. Lists are flattened.
func (p *List) Add(err error) {
	switch x := err.(type) {
	case nil:
	case List:
		*p = append(*p, x...)
	case Error:
		p.add(x)
	default:
		p.add(Promote(err, "error"))
	}
}

// Reset resets a List to no errors.
func (p *List) Reset() { *p = (*p)[:0] }

// List implements the sort Interface.
func (p List) Len() int      { return len(p) }
func (p List) Swap(i, j int) { p[i], p[j] = p[j], p[i] }

func (p List) Less(i, j int) bool {
	return compareErrors(p[i], p[j]) < 0
}

func compareErrors(a, b Error) int {
	if c := a.Position().Compare(b.Position()); c != 0 {
		return c
	}
	return strings.Compare(a.Error(), b.Error())
}

// Sort sorts a List. *posError entries are sorted by position; entries
// without a position sort last.
func (p List) Sort() {
	slices.SortFunc(p, compareErrors)
}

// RemoveMultiples sorts a List and removes all but the first error per line.
func (p *List) RemoveMultiples() {
	p.Sort()
	var last token.Position // initial last.Line is != any legal error line
	i := 0
	for _, e := range *p {
		pos := e.Position().Position()
		if pos.Filename != last.Filename || pos.Line != last.Line || !pos.IsValid() {
			last = pos
			(*p)[i] = e
			i++
		}
	}
	*p = (*p)[:i]
}

// A List implements the error interface.
func (p List) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0], len(p)-1)
}

// Err returns an error equivalent to this error list.
// If the list is empty, Err returns nil.
func (p List) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// Position returns the position of the first error in the list.
func (p List) Position() token.Pos {
	if len(p) == 0 {
		return token.NoPos
	}
	return p[0].Position()
}

// Sanitize sorts multiple errors and removes duplicates on a best effort
// basis. If err represents a single or no error, it returns the error as is.
func Sanitize(err error) error {
	if l, ok := err.(List); ok {
		a := slices.Clone(l)
		a.RemoveMultiples()
		return a.Err()
	}
	return err
}

// Errors reports the individual errors associated with an error, which is
// the error itself if there is only one or, if the underlying type is List,
// its individual elements. If the given error is not an Error, it will be
// promoted to one.
func Errors(err error) []Error {
	switch x := err.(type) {
	case nil:
		return nil
	case List:
		return x
	case Error:
		return []Error{x}
	default:
		return []Error{Promote(err, "")}
	}
}

// A Config defines parameters for printing.
type Config struct {
	// Format formats the given string and arguments and writes it to w.
	// It is used for all printing.
	Format func(w io.Writer, format string, args ...interface{})

	// Cwd is the current working directory. Filename positions are taken
	// relative to this path.
	Cwd string

	// ToSlash sets whether to use Unix paths. Mostly used for testing.
	ToSlash bool
}

// Print is a utility function that prints a list of errors to w,
// one error per line, if the err parameter is a List. Otherwise
// it prints the err string. A nil cfg uses fmt.Fprintf and leaves
// filenames untouched.
func Print(w io.Writer, err error, cfg *Config) {
	if cfg == nil {
		cfg = &Config{}
	}
	for _, e := range Errors(err) {
		printError(w, e, cfg)
	}
}

func defaultFprintf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}

func printError(w io.Writer, err Error, cfg *Config) {
	fprintf := cfg.Format
	if fprintf == nil {
		fprintf = defaultFprintf
	}

	if p := err.Position(); p.IsValid() {
		pos := p.Position()
		name := pos.Filename
		if cfg.Cwd != "" {
			if rel, err := filepath.Rel(cfg.Cwd, name); err == nil && filepath.IsAbs(name) {
				name = rel
			}
		}
		if cfg.ToSlash {
			name = filepath.ToSlash(name)
		}
		pos.Filename = name
		fprintf(w, "%s: ", pos.String())
	}

	format, args := err.Msg()
	hasMsg := fmt.Sprintf(format, args...) != ""
	if hasMsg {
		fprintf(w, format, args...)
	}
	if u := errors.Unwrap(err); u != nil {
		if hasMsg {
			fprintf(w, ": ")
		}
		fprintf(w, "%s", u.Error())
	}
	fprintf(w, "\n")
}
