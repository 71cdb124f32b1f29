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

package infer

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Op is the operation of an access.
type Op int

const (
	// Read is a use of a value.
	Read Op = iota

	// Set is an assignment from an expression that is not a plain variable.
	Set

	// SetAlias is an assignment from another variable, named by
	// [Kind.Source].
	SetAlias

	// LoopVar binds a loop variable to the iterable named by
	// [Kind.Source].
	LoopVar
)

// Kind describes how a name was accessed.
type Kind struct {
	Op Op

	// Source is the aliased variable for SetAlias and the iterable path
	// for LoopVar. It is empty otherwise.
	Source string
}

// ReadKind, SetKind, AliasKind and LoopKind return the Kind for each Op.
func ReadKind() Kind                { return Kind{Op: Read} }
func SetKind() Kind                 { return Kind{Op: Set} }
func AliasKind(target string) Kind  { return Kind{Op: SetAlias, Source: target} }
func LoopKind(iterable string) Kind { return Kind{Op: LoopVar, Source: iterable} }

func (k Kind) String() string {
	switch k.Op {
	case Read:
		return "READ"
	case Set:
		return "SET"
	case SetAlias:
		return "SET ALIAS to " + k.Source
	case LoopVar:
		return "LOOP VAR from " + k.Source
	}
	return "UNKNOWN"
}

// An Access is a single entry of the access log.
type Access struct {
	Name string
	Kind Kind
}

// A Tracker classifies the names a template touches.
//
// Names are dotted attribute paths such as "user.profile.email". Only the
// first access of each distinct name determines its classification; later
// accesses are logged but otherwise only contribute attributes.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	logger *slog.Logger
	ignore []string

	log      []Access
	first    map[string]Kind
	external map[string]bool
	internal map[string]bool
	loopVars map[string]string          // loop variable -> iterable path
	attrs    map[string]map[string]bool // name -> attribute set
	aliases  map[string]string          // alias target -> aliasing name
}

// NewTracker returns an empty tracker. Names in ignore, and attribute paths
// rooted at them, are not tracked in addition to the loop helper "loop".
// A nil logger disables tracing.
func NewTracker(logger *slog.Logger, ignore ...string) *Tracker {
	return &Tracker{
		logger:   logger,
		ignore:   append([]string{"loop"}, ignore...),
		first:    map[string]Kind{},
		external: map[string]bool{},
		internal: map[string]bool{},
		loopVars: map[string]string{},
		attrs:    map[string]map[string]bool{},
		aliases:  map[string]string{},
	}
}

func (t *Tracker) ignored(name string) bool {
	if name == "" {
		return true
	}
	for _, x := range t.ignore {
		if name == x || strings.HasPrefix(name, x+".") {
			return true
		}
	}
	return false
}

// Record records an access of name.
func (t *Tracker) Record(name string, k Kind) {
	if t.ignored(name) {
		return
	}
	if t.logger != nil {
		t.logger.LogAttrs(context.Background(), slog.LevelDebug, "access",
			slog.String("name", name),
			slog.String("kind", k.String()))
	}
	t.log = append(t.log, Access{Name: name, Kind: k})

	if parent, attr, ok := cutLast(name); ok {
		t.addAttr(parent, attr)
		if grand, child, ok := cutLast(parent); ok {
			t.insertAttr(grand, child)
		}
	}

	if _, seen := t.first[name]; seen {
		return
	}
	t.first[name] = k

	switch k.Op {
	case Read:
		// Reads through a loop variable describe the iterable instead.
		base, _, _ := strings.Cut(name, ".")
		if _, ok := t.loopVars[base]; !ok {
			t.external[base] = true
		}
	case Set:
		t.internal[name] = true
	case SetAlias:
		t.internal[name] = true
		t.aliases[k.Source] = name
	case LoopVar:
		t.internal[name] = true
		t.loopVars[name] = k.Source
	}
}

// addAttr adds attr to the attributes of parent, or of the iterable parent
// is bound to if it is a loop variable.
func (t *Tracker) addAttr(parent, attr string) {
	if iterable, ok := t.loopVars[parent]; ok {
		parent = iterable
	}
	t.insertAttr(parent, attr)
}

func (t *Tracker) insertAttr(key, attr string) {
	set := t.attrs[key]
	if set == nil {
		set = map[string]bool{}
		t.attrs[key] = set
	}
	set[attr] = true
}

func cutLast(name string) (before, after string, ok bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, "", false
	}
	return name[:i], name[i+1:], true
}

// Accesses returns the access log in recording order.
func (t *Tracker) Accesses() []Access {
	return slices.Clone(t.log)
}

// FirstAccess reports the kind of the first access of name.
func (t *Tracker) FirstAccess(name string) (Kind, bool) {
	k, ok := t.first[name]
	return k, ok
}

// ExternalVars returns the sorted base names that must be supplied by the
// caller of the template.
func (t *Tracker) ExternalVars() []string {
	return slices.Sorted(maps.Keys(t.external))
}

// InternalVars returns the sorted names defined by the template itself.
func (t *Tracker) InternalVars() []string {
	return slices.Sorted(maps.Keys(t.internal))
}

// LoopVars returns a copy of the mapping from loop variable to iterable.
func (t *Tracker) LoopVars() map[string]string {
	return maps.Clone(t.loopVars)
}

// Attrs returns the sorted attributes accessed on name.
func (t *Tracker) Attrs(name string) []string {
	return slices.Sorted(maps.Keys(t.attrs[name]))
}

func (t *Tracker) hasAttrs(name string) bool {
	return len(t.attrs[name]) > 0
}

// Resolve follows the alias map from name until no alias remains or a
// name repeats, and returns the last name reached.
func (t *Tracker) Resolve(name string) string {
	return resolve(t.aliases, name)
}

// Origin follows alias assignments backwards from name, returning the
// variable name was ultimately assigned from. A name that is not an alias
// is its own origin.
func (t *Tracker) Origin(name string) string {
	visited := map[string]bool{}
	for !visited[name] {
		visited[name] = true
		k, ok := t.first[name]
		if !ok || k.Op != SetAlias {
			break
		}
		name = k.Source
	}
	return name
}

// resolve stops at the first name that repeats, so that resolving a
// name on a cycle yields that name.
func resolve(aliases map[string]string, name string) string {
	visited := map[string]bool{}
	for {
		next, ok := aliases[name]
		if !ok || visited[next] {
			return name
		}
		visited[next] = true
		name = next
	}
}
