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
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cleanplate.dev/go/infer"
	"cleanplate.dev/go/internal/config"
	"cleanplate.dev/go/jinja/errors"
)

// inTest is set by MainTest. It makes file names in error messages use
// forward slashes.
var inTest = false

func getLang() language.Tag {
	loc := os.Getenv("LC_ALL")
	if loc == "" {
		loc = os.Getenv("LANG")
	}
	loc = strings.Split(loc, ".")[0]
	return language.Make(loc)
}

func exitOnErr(cmd *Command, err error, fatal bool) {
	if err == nil {
		return
	}

	// Link x/text as our localizer.
	p := message.NewPrinter(getLang())
	format := func(w io.Writer, format string, args ...interface{}) {
		p.Fprintf(w, format, args...)
	}

	cwd, _ := os.Getwd()

	w := &bytes.Buffer{}
	errors.Print(w, err, &errors.Config{
		Format:  format,
		Cwd:     cwd,
		ToSlash: inTest,
	})

	b := w.Bytes()
	_, _ = cmd.Stderr().Write(b)
	if fatal {
		exit()
	}
}

// newLogger returns the logger for the current invocation. Access traces
// are only shown with --verbose; otherwise only warnings are reported.
func newLogger(cmd *Command) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose.Bool(cmd) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// loadConfig reads the file named by --config. It returns nil if the
// flag was not set.
func loadConfig(cmd *Command) (*config.Config, error) {
	path := flagConfig.String(cmd)
	if path == "" {
		return nil, nil
	}
	return config.Load(expandHome(path))
}

// inferOptions combines the configuration file settings with the logger.
func inferOptions(cmd *Command, cfg *config.Config, logger *slog.Logger) []infer.Option {
	opts := cfg.InferOptions()
	if flagVerbose.Bool(cmd) {
		opts = append(opts, infer.Logger(logger))
	}
	return opts
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
