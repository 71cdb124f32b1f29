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
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cleanplate.dev/go/infer"
	"cleanplate.dev/go/internal/source"
)

const defaultTemplate = "templates/example.jinja"

func newAnalyzeCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "report the variables and data shape of a template",
		Long: `analyze parses a single Jinja template and prints a report of the
variables it uses:

  - external variables, which must be provided when rendering,
  - internal variables, which the template defines itself,
  - loop variables and the iterables they are bound from,
  - the JSON shape of the rendering context.

The template is read from the named file, from --file, or from
templates/example.jinja if neither is given. Use "-" to read standard
input.

With --json the complete analysis is printed as a JSON object instead.
`,
		Args: cobra.MaximumNArgs(1),
		RunE: mkRunE(c, runAnalyze),
	}
	cmd.Flags().StringP(string(flagFile), "f", "", "template file to analyze")
	cmd.Flags().Bool(string(flagJSON), false, "print the analysis as JSON")
	return cmd
}

func runAnalyze(cmd *Command, args []string) error {
	filename := flagFile.String(cmd)
	if len(args) > 0 {
		if filename != "" {
			return fmt.Errorf("cannot combine --%s with a file argument", flagFile)
		}
		filename = args[0]
	}
	if filename == "" {
		filename = defaultTemplate
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	var src any
	if filename == source.Stdin {
		src = cmd.InOrStdin()
	}
	b, err := source.ReadAll(filename, src)
	if err != nil {
		return fmt.Errorf("reading template: %w", err)
	}

	a, err := infer.Template(filename, b, inferOptions(cmd, cfg, logger)...)
	exitOnErr(cmd, err, true)

	w := cmd.OutOrStdout()
	if flagJSON.Bool(cmd) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(a)
	}
	return printReport(w, a)
}

func printReport(w io.Writer, a *infer.Analysis) error {
	fmt.Fprintln(w, "\n=== Variable Analysis Report ===")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "External Variables (required context):")
	printNames(w, a.ExternalVars)

	fmt.Fprintln(w, "\nInternal Variables (defined in template):")
	printNames(w, a.LocalVars())

	fmt.Fprintln(w, "\nLoop Variables:")
	names := a.LoopVarNames()
	if len(names) == 0 {
		fmt.Fprintln(w, "  None")
	}
	for _, name := range names {
		fmt.Fprintf(w, "  %s (from %s)\n", name, a.LoopVars[name])
	}

	fmt.Fprintln(w, "\nTemplate Data Shape (JSON):")
	b, err := json.MarshalIndent(a.Shape, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func printNames(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(w, "  None")
		return
	}
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
