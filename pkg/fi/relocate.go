package fi

import (
	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/relocation"
)

// RelocateFileList rewrites the file list of h through table. Original paths
// are saved under the Orig* tags and the relocated prefixes are written to
// InstPrefixes. Excluded files keep their path and are marked StateSkip in
// states, which must have one entry per file.
func RelocateFileList(table relocation.Table, states States, h *header.Header) error {
	if len(table) == 0 {
		return nil
	}

	paths := filePaths(h, header.TagBaseNames, header.TagDirNames, header.TagDirIndexes)
	if len(states) != len(paths) {
		return errors.Newf(errors.ErrInvalidInput,
			"file state count %d does not match file count %d", len(states), len(paths))
	}

	var (
		bases   = make([]string, len(paths))
		dirs    []string
		indexes = make([]uint32, len(paths))
		dirIdx  = make(map[string]uint32)
	)
	for i, p := range paths {
		newPath, keep := table.Apply(p)
		if !keep {
			states.Set(i, StateSkip)
			newPath = p
		}
		dir, base := splitPath(newPath)
		idx, ok := dirIdx[dir]
		if !ok {
			idx = uint32(len(dirs))
			dirs = append(dirs, dir)
			dirIdx[dir] = idx
		}
		bases[i] = base
		indexes[i] = idx
	}

	if !h.IsEntry(header.TagOrigBaseNames) {
		for _, pair := range [][2]header.Tag{
			{header.TagBaseNames, header.TagOrigBaseNames},
			{header.TagDirNames, header.TagOrigDirNames},
			{header.TagDirIndexes, header.TagOrigDirIndexes},
		} {
			if v, ok := h.Get(pair[0]); ok {
				if err := h.Put(pair[1], v); err != nil {
					return err
				}
			}
		}
	}

	if dirs == nil {
		dirs = []string{}
	}
	for tag, v := range map[header.Tag]interface{}{
		header.TagBaseNames:    bases,
		header.TagDirNames:     dirs,
		header.TagDirIndexes:   indexes,
		header.TagInstPrefixes: instPrefixes(table, h.GetStrings(header.TagPrefixes)),
	} {
		if err := h.Put(tag, v); err != nil {
			return err
		}
	}
	return nil
}

func instPrefixes(table relocation.Table, prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if newPath, keep := table.Apply(relocation.Normalize(p)); keep {
			out = append(out, newPath)
		}
	}
	return out
}
