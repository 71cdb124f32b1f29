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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"

	"cleanplate.dev/go/infer"
	"cleanplate.dev/go/internal/config"
	"cleanplate.dev/go/shape"
)

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(`
arrayFields: [tool_calls, attachments]
ignore:
  - range
  - cycler
workers: 4
`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(cfg, &config.Config{
		ArrayFields: []string{"tool_calls", "attachments"},
		Ignore:      []string{"range", "cycler"},
		Workers:     4,
	}))
}

func TestParseEmpty(t *testing.T) {
	cfg, err := config.Parse(nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(cfg, &config.Config{}))
	qt.Assert(t, qt.HasLen(cfg.InferOptions(), 0))
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		in  string
		err string
	}{{
		in:  "workers: 2\nverbose: true\n",
		err: `invalid config: yaml: unmarshal errors:\n.*field verbose not found in type config.Config`,
	}, {
		in:  "workers: -1\n",
		err: `invalid config: workers must not be negative, got -1`,
	}, {
		in:  "ignore: [a.b]\n",
		err: `invalid config: ignore: "a.b" is not a plain name`,
	}, {
		in:  "arrayFields: ['']\n",
		err: `invalid config: arrayFields: "" is not a plain name`,
	}, {
		in:  "workers: [\n",
		err: `invalid config: yaml: .*`,
	}}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			_, err := config.Parse([]byte(tc.in))
			qt.Assert(t, qt.ErrorMatches(err, tc.err))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cleanplate.yaml")
	err := os.WriteFile(path, []byte("ignore: [range]\n"), 0o666)
	qt.Assert(t, qt.IsNil(err))

	cfg, err := config.Load(path)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(cfg.Ignore, []string{"range"}))

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	qt.Assert(t, qt.ErrorMatches(err, `reading config: .*missing.yaml.*`))
	qt.Assert(t, qt.ErrorIs(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.yaml")
	err = os.WriteFile(bad, []byte("workers: -3\n"), 0o666)
	qt.Assert(t, qt.IsNil(err))
	_, err = config.Load(bad)
	qt.Assert(t, qt.ErrorMatches(err, `.*bad.yaml: invalid config: workers must not be negative, got -3`))
}

func TestInferOptions(t *testing.T) {
	const src = "{% for i in range(3) %}{{ msg.tool_calls.id }}{{ msg.parts.text }}{% endfor %}"

	cfg := &config.Config{
		ArrayFields: []string{"parts"},
		Ignore:      []string{"range"},
	}
	a, err := infer.Template("t.jinja", src, cfg.InferOptions()...)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(shape.Key(a.Shape), `{"msg":{"parts":[{"text":""}],"tool_calls":{"id":""}}}`))

	var nilCfg *config.Config
	a, err = infer.Template("t.jinja", src, nilCfg.InferOptions()...)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(shape.Key(a.Shape), `{"msg":{"parts":{"text":""},"tool_calls":[{"id":""}]},"range":""}`))
}
