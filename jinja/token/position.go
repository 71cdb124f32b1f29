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

package token

import (
	"cmp"
	"fmt"
	"sync"
)

// -----------------------------------------------------------------------------
// Positions

// Position describes an arbitrary source position
// including the file, line, and column location.
// A Position is valid if the line number is > 0.
type Position struct {
	Filename string // filename, if any
	Offset   int    // offset, starting at 0
	Line     int    // line number, starting at 1
	Column   int    // column number, starting at 1 (byte count)
}

// IsValid reports whether the position is valid.
func (pos *Position) IsValid() bool { return pos.Line > 0 }

// String returns a string in one of several forms:
//
//	file:line:column    valid position with file name
//	line:column         valid position without file name
//	file                invalid position with file name
//	-                   invalid position without file name
func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Pos is a compact encoding of a source position within a file.
// The zero value, NoPos, carries no position information.
type Pos struct {
	file  *File
	index int // offset+1, so that a zero offset differs from NoPos
}

// NoPos is the zero value for Pos; there is no file and line information
// associated with it, and NoPos.IsValid() is false.
var NoPos = Pos{}

// File returns the file that contains the position p or nil if there is no
// such file (for instance for p == NoPos).
func (p Pos) File() *File {
	if p.index == 0 {
		return nil
	}
	return p.file
}

// IsValid reports whether the position is valid.
func (p Pos) IsValid() bool {
	return p != NoPos
}

// Offset reports the byte offset relative to the file.
func (p Pos) Offset() int {
	if p.file == nil {
		return 0
	}
	return p.file.Offset(p)
}

// Line returns the position's line number, starting at 1.
func (p Pos) Line() int {
	return p.Position().Line
}

// Column returns the position's column number counting in bytes,
// starting at 1.
func (p Pos) Column() int {
	return p.Position().Column
}

// Add creates a new position relative to the p offset by n.
func (p Pos) Add(n int) Pos {
	if p.file == nil {
		return p
	}
	return p.file.Pos(p.Offset() + n)
}

// Position unpacks the position information into a flat struct.
func (p Pos) Position() Position {
	if p.file == nil {
		return Position{}
	}
	return p.file.Position(p)
}

// String returns a human-readable form of the position.
func (p Pos) String() string {
	return p.Position().String()
}

// Compare returns an integer comparing two positions. The result will be 0
// if p == p2, -1 if p < p2, and +1 if p > p2. NoPos is always larger than
// any valid position.
func (p Pos) Compare(p2 Pos) int {
	switch {
	case p == p2:
		return 0
	case p == NoPos:
		return +1
	case p2 == NoPos:
		return -1
	}
	var n1, n2 string
	if p.file != nil {
		n1 = p.file.name
	}
	if p2.file != nil {
		n2 = p2.file.name
	}
	if c := cmp.Compare(n1, n2); c != 0 {
		return c
	}
	return cmp.Compare(p.index, p2.index)
}

// -----------------------------------------------------------------------------
// File

// A File has a name, size, and line offset table.
type File struct {
	mutex sync.RWMutex
	name  string // file name as provided to NewFile
	size  int    // file size as provided to NewFile

	// lines is protected by mutex
	lines []int // lines contains the offset of the first character for each line (the first entry is always 0)
}

// NewFile returns a new file with the given file name and size.
func NewFile(filename string, size int) *File {
	return &File{
		name:  filename,
		size:  size,
		lines: []int{0},
	}
}

// Name returns the file name of file f as registered with NewFile.
func (f *File) Name() string {
	return f.name
}

// Size returns the size of file f as registered with NewFile.
func (f *File) Size() int {
	return f.size
}

// LineCount returns the number of lines in file f.
func (f *File) LineCount() int {
	f.mutex.RLock()
	n := len(f.lines)
	f.mutex.RUnlock()
	return n
}

// AddLine adds the line offset for a new line.
// The line offset must be larger than the offset for the previous line
// and smaller than the file size; otherwise the line offset is ignored.
func (f *File) AddLine(offset int) {
	f.mutex.Lock()
	if i := len(f.lines); (i == 0 || f.lines[i-1] < offset) && offset < f.size {
		f.lines = append(f.lines, offset)
	}
	f.mutex.Unlock()
}

// fixOffset fixes an out-of-bounds offset such that 0 <= offset <= f.size.
func (f *File) fixOffset(offset int) int {
	switch {
	case offset < 0:
		return 0
	case offset > f.size:
		return f.size
	default:
		return offset
	}
}

// Pos returns the Pos value for the given file offset.
// Offsets outside of the file are clamped to its start or end.
func (f *File) Pos(offset int) Pos {
	return Pos{f, 1 + f.fixOffset(offset)}
}

// Offset returns the offset for the given file position p.
func (f *File) Offset(p Pos) int {
	return f.fixOffset(p.index - 1)
}

// Line returns the line number for the given file position p;
// p must be a Pos value in that file or NoPos.
func (f *File) Line(p Pos) int {
	return f.Position(p).Line
}

// Position returns the Position value for the given file position p.
// p must be a Pos value in f or NoPos.
func (f *File) Position(p Pos) (pos Position) {
	if p == NoPos {
		return pos
	}
	offset := f.Offset(p)
	pos.Filename = f.name
	pos.Offset = offset
	f.mutex.RLock()
	if i := searchInts(f.lines, offset); i >= 0 {
		pos.Line, pos.Column = i+1, offset-f.lines[i]+1
	}
	f.mutex.RUnlock()
	return pos
}

func searchInts(a []int, x int) int {
	i, j := 0, len(a)
	for i < j {
		h := i + (j-i)/2 // avoid overflow when computing h
		// i ≤ h < j
		if a[h] <= x {
			i = h + 1
		} else {
			j = h
		}
	}
	return i - 1
}
