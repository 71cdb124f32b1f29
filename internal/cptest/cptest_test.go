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

package cptest

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestCondition(t *testing.T) {
	got, err := Condition("long")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got, Long))

	_, err = Condition("bogus")
	qt.Assert(t, qt.ErrorMatches(err, "unknown condition bogus"))
}

// TestHeaders checks that every Go file in the module starts with the
// project license header followed by a single blank line.
func TestHeaders(t *testing.T) {
	root := filepath.Join("..", "..")
	want, err := os.ReadFile("cptest.go")
	qt.Assert(t, qt.IsNil(err))
	header, _, ok := strings.Cut(string(want), "\n\n")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.StringContains(header, "The Cleanplate Authors"))

	var n int
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".") || d.Name() == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		n++
		src := string(b)
		if !strings.HasPrefix(src, header+"\n\n") || strings.HasPrefix(src, header+"\n\n\n") {
			t.Errorf("%s: missing license header or extra blank lines after it", path)
		}
		return nil
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Not(qt.Equals(n, 0)))
}
