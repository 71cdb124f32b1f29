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

// Package batch analyzes collections of templates and summarizes how
// many distinct data shapes they require.
package batch

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cleanplate.dev/go/infer"
)

// An Entry is a template together with the models that use it.
type Entry struct {
	Template string
	ModelIDs []string
}

// ReadEntries decodes a JSON object that maps template source to an array
// of model IDs. Values that are not arrays, and array elements that are
// not strings, are ignored. Entries are ordered by descending number of
// model IDs and then by template source.
func ReadEntries(r io.Reader) ([]Entry, error) {
	var m map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding templates: %w", err)
	}
	entries := make([]Entry, 0, len(m))
	for tmpl, raw := range m {
		e := Entry{Template: tmpl, ModelIDs: []string{}}
		var ids []any
		if json.Unmarshal(raw, &ids) == nil {
			for _, id := range ids {
				if s, ok := id.(string); ok {
					e.ModelIDs = append(e.ModelIDs, s)
				}
			}
		}
		entries = append(entries, e)
	}
	SortEntries(entries)
	return entries, nil
}

// SortEntries sorts entries by descending number of model IDs and then by
// template source.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(len(b.ModelIDs), len(a.ModelIDs)); c != 0 {
			return c
		}
		return cmp.Compare(a.Template, b.Template)
	})
}

// UniqueModelIDs reports the number of distinct model IDs in entries.
func UniqueModelIDs(entries []Entry) int {
	seen := map[string]bool{}
	for _, e := range entries {
		for _, id := range e.ModelIDs {
			seen[id] = true
		}
	}
	return len(seen)
}

// Status reports whether a template was analyzed.
type Status string

const (
	Success Status = "success"
	Failure Status = "error"
)

// A Result is the outcome of analyzing one template. Exactly one of
// Analysis and Error is set.
type Result struct {
	Template string   `json:"template"`
	ModelIDs []string `json:"model_ids"`
	Status   Status   `json:"status"`
	Error    string   `json:"error,omitempty"`

	*infer.Analysis
}

// Options configures a batch run.
type Options struct {
	// Workers bounds the number of concurrent analyses. Zero means
	// GOMAXPROCS.
	Workers int

	// Infer holds the options passed to every analysis.
	Infer []infer.Option

	// Logger receives a warning for each template that fails to parse.
	Logger *slog.Logger
}

// Run analyzes all entries concurrently. Results are returned in the
// order of entries. A template that fails to parse yields a Result with
// status Failure; Run itself only fails if ctx is done before all
// templates were analyzed.
func Run(ctx context.Context, entries []Entry, opts Options) ([]Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger != nil {
		opts.Logger = opts.Logger.With("run", uuid.NewString())
		opts.Logger.DebugContext(ctx, "batch started",
			"templates", len(entries),
			"workers", workers)
	}

	results := make([]Result, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = analyze(gctx, i, e, opts)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("batch analysis interrupted: %w", err)
	}
	return results, nil
}

func analyze(ctx context.Context, i int, e Entry, opts Options) Result {
	r := Result{
		Template: e.Template,
		ModelIDs: e.ModelIDs,
	}
	a, err := infer.Template("<string>", e.Template, opts.Infer...)
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.WarnContext(ctx, "template analysis failed",
				"index", i,
				"models", len(e.ModelIDs),
				"error", err)
		}
		r.Status = Failure
		r.Error = err.Error()
		return r
	}
	r.Status = Success
	r.Analysis = a
	return r
}

// WriteResults writes results as an indented JSON array.
func WriteResults(w io.Writer, results []Result) error {
	return writeJSON(w, results)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
