// Package problems records transaction planning issues: bad relocations,
// unmet requirements, conflicts and obsoletions.
package problems

import (
	"fmt"

	"github.com/emirpasic/gods/sets/linkedhashset"
)

// Kind classifies a problem
type Kind int

const (
	BadArch Kind = iota
	BadOS
	PkgInstalled
	BadRelocate
	Requires
	Conflict
	NewFileConflict
	FileConflict
	OldPackage
	DiskSpace
	DiskNodes
	Obsoletes
)

var kindNames = map[Kind]string{
	BadArch:         "BADARCH",
	BadOS:           "BADOS",
	PkgInstalled:    "PKG_INSTALLED",
	BadRelocate:     "BADRELOCATE",
	Requires:        "REQUIRES",
	Conflict:        "CONFLICT",
	NewFileConflict: "NEW_FILE_CONFLICT",
	FileConflict:    "FILE_CONFLICT",
	OldPackage:      "OLDPACKAGE",
	DiskSpace:       "DISKSPACE",
	DiskNodes:       "DISKNODES",
	Obsoletes:       "OBSOLETES",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Problem is one recorded issue. Two problems are duplicates when every
// field is equal.
type Problem struct {
	Kind Kind
	// Pkg is the NEVR of the element the problem belongs to
	Pkg string
	// Key is the retrieval key of the package, if any
	Key string
	// Alt identifies the other party (installed package, provider)
	Alt    string
	Detail string
	Number uint64
}

func (p Problem) String() string {
	switch p.Kind {
	case BadRelocate:
		return fmt.Sprintf("path %s in package %s is not relocatable", p.Detail, p.Pkg)
	case Requires:
		return fmt.Sprintf("%s is needed by %s%s", p.Detail, installed(p), p.Alt)
	case Conflict:
		return fmt.Sprintf("%s conflicts with %s%s", p.Detail, installed(p), p.Alt)
	case Obsoletes:
		return fmt.Sprintf("%s is obsoleted by %s%s", p.Detail, installed(p), p.Alt)
	case PkgInstalled:
		return fmt.Sprintf("package %s is already installed", p.Pkg)
	case BadArch:
		return fmt.Sprintf("package %s is intended for a %s architecture", p.Pkg, p.Detail)
	case BadOS:
		return fmt.Sprintf("package %s is intended for a %s operating system", p.Pkg, p.Detail)
	default:
		return fmt.Sprintf("%s: package %s: %s", p.Kind, p.Pkg, p.Detail)
	}
}

func installed(p Problem) string {
	if p.Number != 0 {
		return "(installed) "
	}
	return ""
}

// Set is an insertion ordered, duplicate free, reference counted problem set
type Set struct {
	items *linkedhashset.Set
	refs  int
}

// NewSet returns an empty set holding one reference
func NewSet() *Set {
	return &Set{items: linkedhashset.New(), refs: 1}
}

// Append adds p unless an equal problem is already present and reports
// whether it was added.
func (s *Set) Append(p Problem) bool {
	if s.items.Contains(p) {
		return false
	}
	s.items.Add(p)
	return true
}

// Merge appends every problem of other
func (s *Set) Merge(other *Set) {
	for _, p := range other.All() {
		s.Append(p)
	}
}

// Len returns the number of problems
func (s *Set) Len() int {
	if s == nil || s.items == nil {
		return 0
	}
	return s.items.Size()
}

// All returns the problems in insertion order
func (s *Set) All() []Problem {
	if s.Len() == 0 {
		return nil
	}
	values := s.items.Values()
	out := make([]Problem, 0, len(values))
	for _, v := range values {
		out = append(out, v.(Problem))
	}
	return out
}

// Link takes another reference to s
func (s *Set) Link() *Set {
	if s != nil {
		s.refs++
	}
	return s
}

// Free drops a reference and clears the set with the last one
func (s *Set) Free() *Set {
	if s == nil {
		return nil
	}
	s.refs--
	if s.refs <= 0 {
		s.refs = 0
		s.items = nil
	}
	return nil
}
