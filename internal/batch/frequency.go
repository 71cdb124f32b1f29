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

package batch

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"cleanplate.dev/go/shape"
)

// DefaultCoverage is the default share of models, in percent, that a
// coverage table accounts for.
const DefaultCoverage = 95.0

// A ShapeFrequency counts the templates that require the same shape.
type ShapeFrequency struct {
	Shape         shape.Value `json:"object_shapes_json"`
	TemplateCount int         `json:"template_count"`
	ModelIDCount  int         `json:"model_id_count"`

	// Templates is written as an empty list; the sources are not repeated
	// in the frequency file.
	Templates []string `json:"templates"`

	key string
}

// Frequencies groups the successful results by shape. The groups are
// ordered by descending number of distinct model IDs, then by descending
// number of templates, then by the canonical form of the shape.
func Frequencies(results []Result) []ShapeFrequency {
	type group struct {
		freq   ShapeFrequency
		models map[string]bool
	}
	groups := map[string]*group{}
	for _, r := range results {
		if r.Status != Success || r.Analysis == nil {
			continue
		}
		key := shape.Key(r.Shape)
		g := groups[key]
		if g == nil {
			g = &group{
				freq:   ShapeFrequency{Shape: r.Shape, Templates: []string{}, key: key},
				models: map[string]bool{},
			}
			groups[key] = g
		}
		g.freq.TemplateCount++
		for _, id := range r.ModelIDs {
			g.models[id] = true
		}
	}

	freqs := make([]ShapeFrequency, 0, len(groups))
	for _, g := range groups {
		g.freq.ModelIDCount = len(g.models)
		freqs = append(freqs, g.freq)
	}
	slices.SortFunc(freqs, func(a, b ShapeFrequency) int {
		if c := cmp.Compare(b.ModelIDCount, a.ModelIDCount); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TemplateCount, a.TemplateCount); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	return freqs
}

// WriteFrequencies writes freqs as an indented JSON array.
func WriteFrequencies(w io.Writer, freqs []ShapeFrequency) error {
	return writeJSON(w, freqs)
}

// A Summary holds the totals of a batch run.
type Summary struct {
	Templates      int
	Succeeded      int
	Failed         int
	ModelIDs       int // model IDs of successful templates
	FailedModelIDs int // model IDs of failed templates
	UniqueShapes   int
}

// Summarize computes the totals for results and their shape frequencies.
func Summarize(results []Result, freqs []ShapeFrequency) Summary {
	s := Summary{
		Templates:    len(results),
		UniqueShapes: len(freqs),
	}
	for _, r := range results {
		switch r.Status {
		case Success:
			s.Succeeded++
			s.ModelIDs += len(r.ModelIDs)
		default:
			s.Failed++
			s.FailedModelIDs += len(r.ModelIDs)
		}
	}
	return s
}

// Print writes s in human-readable form.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "Total templates: %d\n", s.Templates)
	fmt.Fprintf(w, "Successfully analyzed: %d\n", s.Succeeded)
	fmt.Fprintf(w, "Total number of model IDs: %d\n", s.ModelIDs)
	fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "Total number of model IDs of failures: %d\n", s.FailedModelIDs)
	fmt.Fprintf(w, "Unique object shapes found: %d\n", s.UniqueShapes)
}

// A CoverageRow is a line of the coverage table.
type CoverageRow struct {
	Index         int // starting at 1
	TemplateCount int
	ModelIDCount  int
	Percent       float64 // share of all models using this shape
	Covered       float64 // cumulative share up to and including this row
}

// Coverage returns the leading rows of freqs until the cumulative share
// of totalModels reaches threshold percent, or all rows if it never does.
func Coverage(freqs []ShapeFrequency, totalModels int, threshold float64) []CoverageRow {
	if totalModels <= 0 {
		return nil
	}
	var rows []CoverageRow
	covered := 0.0
	for i, f := range freqs {
		pct := float64(f.ModelIDCount) * 100 / float64(totalModels)
		covered += pct
		rows = append(rows, CoverageRow{
			Index:         i + 1,
			TemplateCount: f.TemplateCount,
			ModelIDCount:  f.ModelIDCount,
			Percent:       pct,
			Covered:       covered,
		})
		if covered >= threshold {
			break
		}
	}
	return rows
}

// PrintCoverage writes rows as a Markdown table.
func PrintCoverage(w io.Writer, rows []CoverageRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "| index | %s | %s | %s | %s |\n",
		center("template_count", 14),
		center("model_id_count", 14),
		center("Pct of models", 13),
		center("Covered", 9))
	fmt.Fprintf(w, "|%s|%s|%s|%s|%s|\n",
		strings.Repeat("-", 7),
		strings.Repeat("-", 16),
		strings.Repeat("-", 16),
		strings.Repeat("-", 15),
		strings.Repeat("-", 11))
	for _, r := range rows {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			center(fmt.Sprintf("%02d", r.Index), 5),
			center(fmt.Sprint(r.TemplateCount), 14),
			center(fmt.Sprint(r.ModelIDCount), 14),
			center(fmt.Sprintf("%.2f%%", r.Percent), 13),
			center(fmt.Sprintf("%.2f%%", r.Covered), 9))
	}
}

// center pads s with spaces to width, putting any odd space on the right.
func center(s string, width int) string {
	n := width - len(s)
	if n <= 0 {
		return s
	}
	left := n / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", n-left)
}
