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

// Package cptest is a helper package for test packages in the cleanplate
// project. As such it should only be imported in _test.go files.
package cptest

import (
	"fmt"
	"os"
)

// UpdateGoldenFiles determines whether golden files and testscript archives
// should be updated in the event of cmp failures. It corresponds to
// testscript.Params.UpdateScripts.
var UpdateGoldenFiles = os.Getenv("CLEANPLATE_UPDATE") != ""

// Long reports whether long-running tests were requested.
var Long = os.Getenv("CLEANPLATE_LONG") != ""

// Condition adds support for project-specific testscript conditions within
// testscript scripts. The canonical case being [long] which evaluates to
// true when CLEANPLATE_LONG is set.
func Condition(cond string) (bool, error) {
	switch cond {
	case "long":
		return Long, nil
	}
	return false, fmt.Errorf("unknown condition %v", cond)
}
