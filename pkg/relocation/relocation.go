// Package relocation validates and applies user requested path remappings
// against the relocatable prefixes a package declares.
package relocation

import (
	"slices"
	"strings"
)

// Relocation maps files under OldPath to NewPath. An empty NewPath is an
// exclusion: files under OldPath are not installed.
type Relocation struct {
	OldPath string
	NewPath string
}

// IsExclusion reports whether r drops files instead of moving them
func (r Relocation) IsExclusion() bool {
	return r.NewPath == ""
}

// Table is a validated relocation table sorted by OldPath
type Table []Relocation

// Normalize strips trailing slashes, keeping the root path "/" as is
func Normalize(path string) string {
	if path == "/" {
		return path
	}
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" && path != "" {
		return "/"
	}
	return trimmed
}

// Build validates raw against the declared prefixes and returns the sorted
// table along with the normalized old paths that matched no prefix. Entries
// with an empty OldPath are ignored. Moves naming an undeclared prefix are
// reported and left out of the table. Exclusions are never validated.
func Build(prefixes []string, raw []Relocation) (Table, []string) {
	var table Table
	var bad []string
	for _, r := range raw {
		if r.OldPath == "" {
			continue
		}
		entry := Relocation{OldPath: Normalize(r.OldPath)}
		if r.NewPath != "" {
			entry.NewPath = Normalize(r.NewPath)
			if !slices.Contains(prefixes, entry.OldPath) {
				bad = append(bad, entry.OldPath)
				continue
			}
		}
		table = append(table, entry)
	}
	table.Sort()
	return table, bad
}

// Sort orders the table ascending by OldPath, keeping equal keys in input order
func (t Table) Sort() {
	slices.SortStableFunc(t, func(a, b Relocation) int {
		return strings.Compare(a.OldPath, b.OldPath)
	})
}

// IsSorted reports whether the table is in ascending OldPath order
func (t Table) IsSorted() bool {
	return slices.IsSortedFunc(t, func(a, b Relocation) int {
		return strings.Compare(a.OldPath, b.OldPath)
	})
}

// Lookup returns the entry with the longest OldPath that contains path
func (t Table) Lookup(path string) (Relocation, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if covers(t[i].OldPath, path) {
			return t[i], true
		}
	}
	return Relocation{}, false
}

// Apply relocates path. It returns the new path and false when path is
// excluded. Paths no entry covers are returned unchanged.
func (t Table) Apply(path string) (string, bool) {
	r, ok := t.Lookup(path)
	if !ok {
		return path, true
	}
	if r.IsExclusion() {
		return "", false
	}
	return join(r.NewPath, strings.TrimPrefix(path, r.OldPath), r.OldPath == "/"), true
}

func covers(prefix, path string) bool {
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func join(newPath, rest string, fromRoot bool) string {
	if fromRoot {
		rest = "/" + rest
	}
	if newPath == "/" {
		if rest == "" {
			return "/"
		}
		return rest
	}
	if rest == "/" {
		return newPath
	}
	return newPath + rest
}
