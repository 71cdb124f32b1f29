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

// Package infer infers the shape of the data a template expects.
//
// Analysis walks a parsed template once, recording every variable access
// in a [Tracker]. Each distinct name is classified by its first access:
// names read before they are defined are external and must be supplied by
// the caller, names assigned by the template are internal, and names bound
// by for loops are loop variables. The first read of a dotted name makes
// its base external unless the base is a loop variable. Attribute accesses are collected per
// name and, after the walk, [Build] turns them into a nested
// [shape.Object] that describes the expected input.
package infer

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"cleanplate.dev/go/jinja/ast"
	"cleanplate.dev/go/jinja/parser"
	"cleanplate.dev/go/shape"
)

// An Option configures an analysis.
type Option interface {
	apply(cfg *config)
}

type config struct {
	logger   *slog.Logger
	isArray  ArrayFieldRule
	ignore   []string
	parseOps []parser.Option
}

type optionFunc func(cfg *config)

func (f optionFunc) apply(cfg *config) { f(cfg) }

// Logger sets the logger that receives a debug record for each access and
// for the start and end of each analysis.
func Logger(l *slog.Logger) Option {
	return optionFunc(func(cfg *config) { cfg.logger = l })
}

// ArrayFields replaces the attribute names that are shaped as lists even
// when no loop iterates over them. The default is [DefaultArrayFields].
// Calling ArrayFields with no names disables the rule.
func ArrayFields(names ...string) Option {
	return optionFunc(func(cfg *config) { cfg.isArray = FieldNames(names...) })
}

// ArrayRule sets a custom rule for list-shaped attributes.
func ArrayRule(r ArrayFieldRule) Option {
	return optionFunc(func(cfg *config) { cfg.isArray = r })
}

// Ignore adds variable names that are never tracked, in addition to the
// loop helper "loop".
func Ignore(names ...string) Option {
	return optionFunc(func(cfg *config) { cfg.ignore = append(cfg.ignore, names...) })
}

// ParserOptions sets the options used to parse template source.
func ParserOptions(opts ...parser.Option) Option {
	return optionFunc(func(cfg *config) { cfg.parseOps = append(cfg.parseOps, opts...) })
}

func newConfig(opts []Option) *config {
	cfg := &config{isArray: DefaultArrayFieldRule}
	for _, o := range opts {
		o.apply(cfg)
	}
	return cfg
}

// An Analysis is the result of analyzing one template.
type Analysis struct {
	// ExternalVars holds the sorted names that must be supplied when
	// rendering the template.
	ExternalVars []string `json:"external_vars"`

	// InternalVars holds the sorted names the template defines,
	// loop variables included.
	InternalVars []string `json:"internal_vars"`

	// LoopVars maps each loop variable to the path of its iterable.
	LoopVars map[string]string `json:"loop_vars"`

	// Shape is the inferred structure of the external variables.
	Shape *shape.Object `json:"object_shapes_json"`

	tracker *Tracker
}

// LocalVars returns the internal variables that are not loop variables.
func (a *Analysis) LocalVars() []string {
	var vars []string
	for _, v := range a.InternalVars {
		if _, ok := a.LoopVars[v]; !ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// LoopVarNames returns the loop variables in sorted order.
func (a *Analysis) LoopVarNames() []string {
	return slices.Sorted(maps.Keys(a.LoopVars))
}

// Accesses returns every access recorded during analysis, in visiting
// order.
func (a *Analysis) Accesses() []Access {
	if a.tracker == nil {
		return nil
	}
	return a.tracker.Accesses()
}

// Origin returns the variable that name was ultimately assigned from
// through plain variable assignments, or name itself.
func (a *Analysis) Origin(name string) string {
	if a.tracker == nil {
		return name
	}
	return a.tracker.Origin(name)
}

// Template parses and analyzes a template. See [parser.ParseTemplate] for
// the accepted types of src. A parse failure is returned as an
// errors.List and no analysis is performed.
func Template(filename string, src any, opts ...Option) (*Analysis, error) {
	cfg := newConfig(opts)
	t, err := parser.ParseTemplate(filename, src, cfg.parseOps...)
	if err != nil {
		return nil, err
	}
	return analyze(t, cfg), nil
}

// Analyze analyzes a parsed template.
func Analyze(t *ast.Template, opts ...Option) *Analysis {
	return analyze(t, newConfig(opts))
}

func analyze(t *ast.Template, cfg *config) *Analysis {
	ctx := context.Background()
	if cfg.logger != nil {
		cfg.logger.DebugContext(ctx, "analysis started", "template", t.Filename)
	}

	tr := NewTracker(cfg.logger, cfg.ignore...)
	c := &collector{t: tr}
	c.stmt(t)

	a := &Analysis{
		ExternalVars: tr.ExternalVars(),
		InternalVars: tr.InternalVars(),
		LoopVars:     tr.LoopVars(),
		Shape:        Build(tr, cfg.isArray),
		tracker:      tr,
	}
	if a.ExternalVars == nil {
		a.ExternalVars = []string{}
	}
	if a.InternalVars == nil {
		a.InternalVars = []string{}
	}

	if cfg.logger != nil {
		cfg.logger.DebugContext(ctx, "analysis completed",
			"template", t.Filename,
			"external", len(a.ExternalVars),
			"internal", len(a.InternalVars),
			"loop", len(a.LoopVars))
	}
	return a
}
