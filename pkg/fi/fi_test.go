package fi

import (
	"testing"

	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/relocation"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T) *header.Header {
	t.Helper()
	h := header.New()
	require.NoError(t, h.Put(header.TagName, "foo"))
	require.NoError(t, h.Put(header.TagPrefixes, []string{"/usr", "/usr/share/doc"}))
	require.NoError(t, h.Put(header.TagDirNames, []string{"/usr/bin/", "/usr/share/doc/foo/"}))
	require.NoError(t, h.Put(header.TagBaseNames, []string{"foo", "README"}))
	require.NoError(t, h.Put(header.TagDirIndexes, []uint32{0, 1}))
	require.NoError(t, h.Put(header.TagFileColors, []uint32{1, 0}))
	require.NoError(t, h.Put(header.TagFileDependsX, []uint32{0, 2}))
	require.NoError(t, h.Put(header.TagFileDependsN, []uint32{2, 0}))
	require.NoError(t, h.Put(header.TagDependsDict, []uint32{
		PackDepend('R', 5),
		PackDepend('P', 2),
	}))
	return h
}

func TestPackDepend(t *testing.T) {
	packed := PackDepend('R', 5)
	assert.Equal(t, uint32('R')<<24|5, packed)

	kind, idx := UnpackDepend(packed)
	assert.Equal(t, byte('R'), kind)
	assert.Equal(t, uint32(5), idx)

	_, idx = UnpackDepend(PackDepend('P', 0x01ffffff))
	assert.Equal(t, uint32(0x00ffffff), idx)
}

func TestNewManifest(t *testing.T) {
	m := New(fileHeader(t), FlagsInstall)
	require.Equal(t, 2, m.Count())
	assert.Equal(t, FlagsInstall, m.Flags())

	f := m.File(0)
	assert.Equal(t, "/usr/bin/foo", f.Path)
	assert.Equal(t, "/usr/bin/foo", f.OrigPath)
	assert.Equal(t, types.Color(1), f.Color)
	assert.Equal(t, []uint32{PackDepend('R', 5), PackDepend('P', 2)}, f.Depends)

	assert.Empty(t, m.File(1).Depends)
	assert.Equal(t, 0, New(nil, FlagsErase).Count())
}

func TestManifestFree(t *testing.T) {
	m := New(fileHeader(t), FlagsInstall)
	m.Link()
	assert.Nil(t, m.Free())
	assert.Equal(t, 2, m.Count())
	m.Free()
	assert.Equal(t, 0, m.Count())
}

func TestRelocateFileList(t *testing.T) {
	h := fileHeader(t)
	table, bad := relocation.Build(h.GetStrings(header.TagPrefixes), []relocation.Relocation{
		{OldPath: "/usr", NewPath: "/opt"},
		{OldPath: "/usr/share/doc"},
	})
	require.Empty(t, bad)

	states := NewStates(2)
	require.NoError(t, RelocateFileList(table, states, h))

	assert.Equal(t, StateCreate, states.Get(0))
	assert.Equal(t, StateSkip, states.Get(1))
	assert.Equal(t, []string{"/opt"}, h.GetStrings(header.TagInstPrefixes))
	assert.True(t, h.IsEntry(header.TagOrigBaseNames))

	m := New(h, FlagsInstall)
	assert.Equal(t, "/opt/bin/foo", m.File(0).Path)
	assert.Equal(t, "/usr/bin/foo", m.File(0).OrigPath)
	assert.Equal(t, "/usr/share/doc/foo/README", m.File(1).Path)
}

func TestRelocateFileListStateMismatch(t *testing.T) {
	h := fileHeader(t)
	table := relocation.Table{{OldPath: "/usr", NewPath: "/opt"}}
	assert.Error(t, RelocateFileList(table, NewStates(1), h))
	assert.NoError(t, RelocateFileList(nil, nil, h))
}

func TestStates(t *testing.T) {
	s := NewStates(1)
	s.Set(0, StateSkip)
	s.Set(5, StateSkip)
	assert.Equal(t, StateSkip, s.Get(0))
	assert.Equal(t, StateCreate, s.Get(5))
	assert.Equal(t, "skip", StateSkip.String())
}
