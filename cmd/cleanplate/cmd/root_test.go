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
	"context"
	"io"
	"testing"
)

func TestHelp(t *testing.T) {
	run := func(args ...string) error {
		cmd, _ := New(args)
		cmd.SetOutput(io.Discard)
		ctx := context.Background()
		return cmd.Run(ctx)
	}
	for _, args := range [][]string{
		{"help"},
		{"--help"},
		{"-h"},
		{"help", "analyze"},
		{"analyze", "--help"},
		{"extract", "-h"},
		{"help", "version"},
	} {
		if err := run(args...); err != nil {
			t.Errorf("%v: help command failed unexpectedly: %v", args, err)
		}
	}

	if err := run("frobnicate"); err == nil {
		t.Error("unknown command succeeded unexpectedly")
	}
}
