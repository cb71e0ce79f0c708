// Package fi builds per-file manifests from package headers.
package fi

import (
	"strings"

	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/types"
)

// Flags select how a manifest is going to be used
type Flags uint32

const (
	FlagsQuery   Flags = 0
	FlagsInstall Flags = 1 << 0
	FlagsErase   Flags = 1 << 1
)

// File is one manifest entry. Depends holds packed dependency indices,
// see PackDepend.
type File struct {
	Path     string
	OrigPath string
	Color    types.Color
	Depends  []uint32
}

// Manifest is the reference counted file list of a package
type Manifest struct {
	files []File
	flags Flags
	refs  int
}

// PackDepend packs a dependency class letter into the top byte of a
// dependency set index.
func PackDepend(kind byte, index uint32) uint32 {
	return uint32(kind)<<24 | index&0x00ffffff
}

// UnpackDepend splits a packed index into its class letter and set index
func UnpackDepend(packed uint32) (byte, uint32) {
	return byte(packed >> 24 & 0xff), packed & 0x00ffffff
}

// New builds the manifest of h. A header without files yields an empty
// manifest.
func New(h *header.Header, flags Flags) *Manifest {
	m := &Manifest{flags: flags, refs: 1}
	if h == nil {
		return m
	}

	paths := filePaths(h, header.TagBaseNames, header.TagDirNames, header.TagDirIndexes)
	origPaths := paths
	if h.IsEntry(header.TagOrigBaseNames) {
		origPaths = filePaths(h, header.TagOrigBaseNames, header.TagOrigDirNames, header.TagOrigDirIndexes)
	}
	colors := h.GetUint32s(header.TagFileColors)
	dependsX := h.GetUint32s(header.TagFileDependsX)
	dependsN := h.GetUint32s(header.TagFileDependsN)
	dict := h.GetUint32s(header.TagDependsDict)

	m.files = make([]File, len(paths))
	for i, p := range paths {
		f := File{Path: p, OrigPath: p}
		if i < len(origPaths) {
			f.OrigPath = origPaths[i]
		}
		if i < len(colors) {
			f.Color = types.Color(colors[i])
		}
		if i < len(dependsX) && i < len(dependsN) {
			start, n := dependsX[i], dependsN[i]
			if int(start)+int(n) <= len(dict) {
				f.Depends = append([]uint32(nil), dict[start:start+n]...)
			}
		}
		m.files[i] = f
	}
	return m
}

func filePaths(h *header.Header, baseTag, dirTag, indexTag header.Tag) []string {
	bases := h.GetStrings(baseTag)
	dirs := h.GetStrings(dirTag)
	indexes := h.GetUint32s(indexTag)

	paths := make([]string, len(bases))
	for i, base := range bases {
		dir := ""
		if i < len(indexes) && int(indexes[i]) < len(dirs) {
			dir = dirs[indexes[i]]
		}
		paths[i] = dir + base
	}
	return paths
}

// splitPath splits into a directory with a trailing slash and a base name
func splitPath(path string) (string, string) {
	i := strings.LastIndexByte(path, '/')
	return path[:i+1], path[i+1:]
}

// Count returns the number of files
func (m *Manifest) Count() int {
	if m == nil {
		return 0
	}
	return len(m.files)
}

// File returns a copy of entry i
func (m *Manifest) File(i int) File {
	return m.files[i]
}

// Files returns the manifest entries
func (m *Manifest) Files() []File {
	if m == nil {
		return nil
	}
	return m.files
}

// Flags returns the flags the manifest was built with
func (m *Manifest) Flags() Flags { return m.flags }

// Refs returns the number of live references
func (m *Manifest) Refs() int {
	if m == nil {
		return 0
	}
	return m.refs
}

// Link takes another reference to m
func (m *Manifest) Link() *Manifest {
	if m != nil {
		m.refs++
	}
	return m
}

// Free drops a reference and releases the entries with the last one
func (m *Manifest) Free() *Manifest {
	if m == nil {
		return nil
	}
	m.refs--
	if m.refs <= 0 {
		m.refs = 0
		m.files = nil
	}
	return nil
}
