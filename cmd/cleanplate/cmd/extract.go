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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cleanplate.dev/go/internal/batch"
)

func newExtractCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "analyze a corpus of templates and group them by data shape",
		Long: `extract analyzes every template of a corpus. The input is a JSON object
that maps template source to the list of model IDs using that template:

	{
		"{% for m in messages %}{{ m.content }}{% endfor %}": ["org/model-a", "org/model-b"]
	}

Two files are written. The first holds one result per template with its
status and analysis. The second groups the successful analyses by data
shape, counting the templates and models that share each shape.

extract then prints a summary and a table of the most common shapes,
stopping once the listed shapes cover the --coverage percentage of all
models.

Templates that fail to parse are reported with status "error" and do not
cause extract to fail.
`,
		Args: cobra.NoArgs,
		RunE: mkRunE(c, runExtract),
	}
	cmd.Flags().StringP(string(flagInput), "i", "chat_template_to_model_ids.json",
		"JSON file mapping templates to model IDs")
	cmd.Flags().StringP(string(flagOutput), "o", "template_analysis_results.json",
		"file to write the per-template results to")
	cmd.Flags().StringP(string(flagShapeOutput), "s", "shape_frequency_results.json",
		"file to write the shape frequencies to")
	cmd.Flags().Float64(string(flagCoverage), batch.DefaultCoverage,
		"percentage of model IDs the coverage table must reach")
	return cmd
}

func runExtract(cmd *Command, args []string) error {
	coverage := flagCoverage.Float64(cmd)
	if coverage <= 0 || coverage > 100 {
		return fmt.Errorf("--%s must be in (0, 100], got %v", flagCoverage, coverage)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)
	w := cmd.OutOrStdout()

	input := expandHome(flagInput.String(cmd))
	fmt.Fprintf(w, "Reading templates from: %s\n", input)
	entries, err := readEntries(input)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Found %d templates to analyze\n", len(entries))
	totalModels := batch.UniqueModelIDs(entries)
	fmt.Fprintf(w, "Total unique model IDs: %d\n", totalModels)
	fmt.Fprintln(w)

	opts := batch.Options{
		Infer:  inferOptions(cmd, cfg, logger),
		Logger: logger,
	}
	if cfg != nil {
		opts.Workers = cfg.Workers
	}
	results, err := batch.Run(cmd.Context(), entries, opts)
	if err != nil {
		return err
	}
	freqs := batch.Frequencies(results)

	output := expandHome(flagOutput.String(cmd))
	if err := writeFile(output, func(w io.Writer) error {
		return batch.WriteResults(w, results)
	}); err != nil {
		return err
	}
	shapeOutput := expandHome(flagShapeOutput.String(cmd))
	if err := writeFile(shapeOutput, func(w io.Writer) error {
		return batch.WriteFrequencies(w, freqs)
	}); err != nil {
		return err
	}
	fmt.Fprintf(w, "Analysis complete! Results saved to: %s\n", output)
	fmt.Fprintf(w, "Shape frequency analysis saved to: %s\n", shapeOutput)
	fmt.Fprintln(w)

	batch.Summarize(results, freqs).Print(w)
	fmt.Fprintln(w)
	batch.PrintCoverage(w, batch.Coverage(freqs, totalModels, coverage))
	return nil
}

func readEntries(path string) ([]batch.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}
	defer f.Close()
	entries, err := batch.ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
