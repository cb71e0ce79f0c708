// Package ds holds dependency sets: the provides, requires, conflicts and
// obsoletes records of a package, each entry carrying a multilib color.
package ds

import (
	"strings"

	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/types"
)

// Kind is the one letter dependency class that also prefixes formatted
// descriptions and tags packed file dependency indices.
type Kind byte

const (
	KindProvides  Kind = 'P'
	KindRequires  Kind = 'R'
	KindConflicts Kind = 'C'
	KindObsoletes Kind = 'O'
)

func (k Kind) String() string {
	switch k {
	case KindProvides:
		return "Provides"
	case KindRequires:
		return "Requires"
	case KindConflicts:
		return "Conflicts"
	case KindObsoletes:
		return "Obsoletes"
	default:
		return "Unknown"
	}
}

// Sense holds the comparison bits of a versioned dependency
type Sense uint32

const (
	SenseAny     Sense = 0
	SenseLess    Sense = 1 << 1
	SenseGreater Sense = 1 << 2
	SenseEqual   Sense = 1 << 3

	senseMask = SenseLess | SenseGreater | SenseEqual
)

// Operator renders the comparison, "" for unversioned dependencies
func (s Sense) Operator() string {
	var b strings.Builder
	if s&SenseLess != 0 {
		b.WriteByte('<')
	}
	if s&SenseGreater != 0 {
		b.WriteByte('>')
	}
	if s&SenseEqual != 0 {
		b.WriteByte('=')
	}
	return b.String()
}

// Dep is one dependency record
type Dep struct {
	Name  string
	EVR   string
	Sense Sense
	Color types.Color
}

// kinds maps a name tag to its class and companion tags
var kinds = map[header.Tag]struct {
	kind    Kind
	flags   header.Tag
	version header.Tag
}{
	header.TagProvideName:  {KindProvides, header.TagProvideFlags, header.TagProvideVersion},
	header.TagRequireName:  {KindRequires, header.TagRequireFlags, header.TagRequireVersion},
	header.TagConflictName: {KindConflicts, header.TagConflictFlags, header.TagConflictVersion},
	header.TagObsoleteName: {KindObsoletes, header.TagObsoleteFlags, header.TagObsoleteVersion},
}

// Set is an ordered, reference counted dependency set
type Set struct {
	tag      header.Tag
	kind     Kind
	deps     []Dep
	instance uint32
	refs     int
}

// New builds the set stored under a name tag (TagProvideName,
// TagRequireName, TagConflictName or TagObsoleteName). A missing header or
// unknown tag yields an empty set.
func New(h *header.Header, tag header.Tag) *Set {
	info, ok := kinds[tag]
	s := &Set{tag: tag, kind: info.kind, refs: 1}
	if !ok || h == nil {
		return s
	}
	s.instance = h.Instance()

	names := h.GetStrings(tag)
	flags := h.GetUint32s(info.flags)
	versions := h.GetStrings(info.version)
	s.deps = make([]Dep, len(names))
	for i, name := range names {
		d := Dep{Name: name}
		if i < len(flags) {
			d.Sense = Sense(flags[i]) & senseMask
		}
		if i < len(versions) {
			d.EVR = versions[i]
		}
		s.deps[i] = d
	}
	return s
}

// This builds the single entry self-identity provide of a header
func This(h *header.Header, sense Sense) *Set {
	s := &Set{tag: header.TagProvideName, kind: KindProvides, refs: 1}
	if h == nil {
		return s
	}
	s.instance = h.Instance()
	evr := h.GetString(header.TagVersion) + "-" + h.GetString(header.TagRelease)
	if h.IsEntry(header.TagEpoch) {
		evr = h.GetAsString(header.TagEpoch) + ":" + evr
	}
	s.deps = []Dep{{
		Name:  h.GetString(header.TagName),
		EVR:   evr,
		Sense: sense & senseMask,
	}}
	return s
}

// Link takes another reference to s
func (s *Set) Link() *Set {
	if s != nil {
		s.refs++
	}
	return s
}

// Free drops a reference, releasing the entries with the last one
func (s *Set) Free() *Set {
	if s == nil {
		return nil
	}
	s.refs--
	if s.refs <= 0 {
		s.refs = 0
		s.deps = nil
	}
	return nil
}

// Count returns the number of entries
func (s *Set) Count() int {
	if s == nil {
		return 0
	}
	return len(s.deps)
}

// Tag returns the name tag the set was built from
func (s *Set) Tag() header.Tag { return s.tag }

// Kind returns the dependency class of the set
func (s *Set) Kind() Kind { return s.kind }

// Instance returns the database instance of the header the set came from
func (s *Set) Instance() uint32 {
	if s == nil {
		return 0
	}
	return s.instance
}

// Dep returns a copy of entry i
func (s *Set) Dep(i int) Dep {
	return s.deps[i]
}

// Color returns the color of entry i
func (s *Set) Color(i int) types.Color {
	return s.deps[i].Color
}

// SetColor replaces the color of entry i and returns the previous one
func (s *Set) SetColor(i int, c types.Color) types.Color {
	prev := s.deps[i].Color
	s.deps[i].Color = c
	return prev
}

// DNEVR formats entry i as "<kind> name [op evr]"
func (s *Set) DNEVR(i int) string {
	d := s.deps[i]
	var b strings.Builder
	b.WriteByte(byte(s.kind))
	b.WriteByte(' ')
	b.WriteString(d.Name)
	if op := d.Sense.Operator(); op != "" && d.EVR != "" {
		b.WriteByte(' ')
		b.WriteString(op)
		b.WriteByte(' ')
		b.WriteString(d.EVR)
	}
	return b.String()
}

// Find returns the index of the first entry named name, or -1
func (s *Set) Find(name string) int {
	if s == nil {
		return -1
	}
	for i, d := range s.deps {
		if d.Name == name {
			return i
		}
	}
	return -1
}
