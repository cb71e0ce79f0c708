package testutil

import (
	"path"
	"testing"

	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/stretchr/testify/require"
)

// HeaderBuilder declares a package header
type HeaderBuilder struct {
	h    *header.Header
	errs []error
}

// NewHeader starts a header for name at version 1.0-1, x86_64 linux,
// built from a source package.
func NewHeader(name string) *HeaderBuilder {
	b := &HeaderBuilder{h: header.New()}
	return b.
		Put(header.TagName, name).
		Put(header.TagVersion, "1.0").
		Put(header.TagRelease, "1").
		Put(header.TagArch, "x86_64").
		Put(header.TagOS, "linux").
		Put(header.TagSourceRPM, name+"-1.0-1.src.rpm")
}

// Put sets any tag
func (b *HeaderBuilder) Put(tag header.Tag, value interface{}) *HeaderBuilder {
	if err := b.h.Put(tag, value); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

func (b *HeaderBuilder) Version(v string) *HeaderBuilder { return b.Put(header.TagVersion, v) }
func (b *HeaderBuilder) Release(r string) *HeaderBuilder { return b.Put(header.TagRelease, r) }
func (b *HeaderBuilder) Epoch(e uint64) *HeaderBuilder   { return b.Put(header.TagEpoch, e) }
func (b *HeaderBuilder) Arch(a string) *HeaderBuilder    { return b.Put(header.TagArch, a) }

// Source marks the header as a source package
func (b *HeaderBuilder) Source() *HeaderBuilder {
	b.h.Delete(header.TagSourceRPM)
	return b
}

// Files sets the file list from absolute paths
func (b *HeaderBuilder) Files(paths ...string) *HeaderBuilder {
	var (
		dirs    []string
		bases   []string
		indexes []uint32
	)
	seen := make(map[string]uint32)
	for _, p := range paths {
		dir, base := path.Split(p)
		i, ok := seen[dir]
		if !ok {
			i = uint32(len(dirs))
			seen[dir] = i
			dirs = append(dirs, dir)
		}
		bases = append(bases, base)
		indexes = append(indexes, i)
	}
	return b.
		Put(header.TagBaseNames, bases).
		Put(header.TagDirNames, dirs).
		Put(header.TagDirIndexes, indexes)
}

// FileColors sets one color per file
func (b *HeaderBuilder) FileColors(colors ...uint32) *HeaderBuilder {
	return b.Put(header.TagFileColors, colors)
}

// Prefixes declares relocatable prefixes
func (b *HeaderBuilder) Prefixes(prefixes ...string) *HeaderBuilder {
	return b.Put(header.TagPrefixes, prefixes)
}

func (b *HeaderBuilder) deps(nameTag, flagsTag, versionTag header.Tag, names []string) *HeaderBuilder {
	return b.
		Put(nameTag, names).
		Put(flagsTag, make([]uint32, len(names))).
		Put(versionTag, make([]string, len(names)))
}

// Provides adds unversioned provides
func (b *HeaderBuilder) Provides(names ...string) *HeaderBuilder {
	return b.deps(header.TagProvideName, header.TagProvideFlags, header.TagProvideVersion, names)
}

// Requires adds unversioned requires
func (b *HeaderBuilder) Requires(names ...string) *HeaderBuilder {
	return b.deps(header.TagRequireName, header.TagRequireFlags, header.TagRequireVersion, names)
}

// Conflicts adds unversioned conflicts
func (b *HeaderBuilder) Conflicts(names ...string) *HeaderBuilder {
	return b.deps(header.TagConflictName, header.TagConflictFlags, header.TagConflictVersion, names)
}

// Obsoletes adds unversioned obsoletes
func (b *HeaderBuilder) Obsoletes(names ...string) *HeaderBuilder {
	return b.deps(header.TagObsoleteName, header.TagObsoleteFlags, header.TagObsoleteVersion, names)
}

// Script sets a scriptlet body run by /bin/sh. prog is the tag holding
// its interpreter.
func (b *HeaderBuilder) Script(body, prog header.Tag, script string) *HeaderBuilder {
	return b.Put(body, script).Put(prog, "/bin/sh")
}

// Collections sets the collections the package belongs to
func (b *HeaderBuilder) Collections(names ...string) *HeaderBuilder {
	return b.Put(header.TagCollections, names)
}

// Signature sets the signing key id
func (b *HeaderBuilder) Signature(keyID string) *HeaderBuilder {
	return b.Put(header.TagSignature, keyID)
}

// Build returns the header, failing the test on any rejected tag
func (b *HeaderBuilder) Build(t testing.TB) *header.Header {
	t.Helper()
	for _, err := range b.errs {
		require.NoError(t, err)
	}
	return b.h
}
