package ts

import (
	"strings"

	"github.com/mkulik-rh/rpm/pkg/ds"
	"github.com/mkulik-rh/rpm/pkg/fi"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/te"
	"github.com/mkulik-rh/rpm/pkg/types"
)

// provider names one package satisfying a capability
type provider struct {
	nevra string
	erase bool
}

// universe indexes the capabilities and files the system will have once
// the transaction completes, by name only.
type universe struct {
	caps map[string][]provider
}

func (u *universe) add(name, nevra string, erase bool) {
	u.caps[name] = append(u.caps[name], provider{nevra: nevra, erase: erase})
}

func (u *universe) addHeader(h *header.Header, nevra string, erase bool) {
	u.add(h.GetString(header.TagName), nevra, erase)
	for _, name := range h.GetStrings(header.TagProvideName) {
		u.add(name, nevra, erase)
	}
	m := fi.New(h, fi.FlagsQuery)
	for _, f := range m.Files() {
		u.add(f.Path, nevra, erase)
	}
	m.Free()
}

// satisfied reports whether any provider of name remains
func (u *universe) satisfied(name string) bool {
	for _, p := range u.caps[name] {
		if !p.erase {
			return true
		}
	}
	return false
}

// providedBy lists the remaining providers of name other than self
func (u *universe) providedBy(name, self string) []string {
	var out []string
	for _, p := range u.caps[name] {
		if !p.erase && p.nevra != self {
			out = append(out, p.nevra)
		}
	}
	return out
}

// Check verifies requires, conflicts and obsoletes of the install elements
// by capability name and records dependency problems on the elements.
// Version ranges are not compared. It returns the number of problems
// found.
func (t *Transaction) Check() (int, error) {
	u := &universe{caps: make(map[string][]provider)}

	erasing := make(map[uint32]bool)
	for _, e := range t.Elements(types.Removed) {
		erasing[e.DBInstance()] = true
	}
	if t.db != nil {
		err := t.db.Iterate(func(h *header.Header) error {
			u.addHeader(h, h.GetString(header.TagNEVRA), erasing[h.Instance()])
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	added := t.Elements(types.Added)
	for _, e := range added {
		u.add(e.Name(), e.NEVRA(), false)
		provides := e.DS(header.TagProvideName)
		for i := 0; i < provides.Count(); i++ {
			u.add(provides.Dep(i).Name, e.NEVRA(), false)
		}
		for _, f := range e.FI().Files() {
			u.add(f.Path, e.NEVRA(), false)
		}
	}

	found := 0
	for _, e := range added {
		found += checkRequires(u, e)
		found += checkNamed(u, e, e.DS(header.TagConflictName))
		found += checkNamed(u, e, e.DS(header.TagObsoleteName))
	}

	log.Debug().Int("elements", len(added)).Int("problems", found).Msg("Checked dependencies")
	return found, nil
}

func checkRequires(u *universe, e *te.Element) int {
	set := e.DS(header.TagRequireName)
	found := 0
	for i := 0; i < set.Count(); i++ {
		name := set.Dep(i).Name
		if strings.HasPrefix(name, "rpmlib(") || u.satisfied(name) {
			continue
		}
		e.AddDepProblem(e.NEVRA(), set, i, nil)
		found++
	}
	return found
}

// checkNamed reports every conflict or obsolete naming a package that
// remains installed or is being installed.
func checkNamed(u *universe, e *te.Element, set *ds.Set) int {
	found := 0
	for i := 0; i < set.Count(); i++ {
		for _, other := range u.providedBy(set.Dep(i).Name, e.NEVRA()) {
			e.AddDepProblem(other, set, i, nil)
			found++
		}
	}
	return found
}
