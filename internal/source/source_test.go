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

package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestReadAll(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "t.jinja")
	qt.Assert(t, qt.IsNil(os.WriteFile(file, []byte("{{ from_file }}"), 0o666)))

	testCases := []struct {
		name     string
		filename string
		src      any
		want     string
		err      string
	}{
		{name: "string", src: "{{ a }}", want: "{{ a }}"},
		{name: "bytes", src: []byte("{{ b }}"), want: "{{ b }}"},
		{name: "buffer", src: bytes.NewBufferString("{{ c }}"), want: "{{ c }}"},
		{name: "reader", src: strings.NewReader("{{ d }}"), want: "{{ d }}"},
		{name: "file", filename: file, want: "{{ from_file }}"},
		{name: "badType", src: 42, err: "invalid source type int"},
		{name: "missingFile", filename: filepath.Join(dir, "missing"), err: ".*no such file or directory"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadAll(tc.filename, tc.src)
			if tc.err != "" {
				qt.Assert(t, qt.ErrorMatches(err, tc.err))
				return
			}
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.Equals(string(got), tc.want))
		})
	}
}
