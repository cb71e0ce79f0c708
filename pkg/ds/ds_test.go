package ds

import (
	"testing"

	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func depHeader(t *testing.T) *header.Header {
	t.Helper()
	h := header.New()
	require.NoError(t, h.Put(header.TagName, "foo"))
	require.NoError(t, h.Put(header.TagVersion, "1.0"))
	require.NoError(t, h.Put(header.TagRelease, "1"))
	require.NoError(t, h.Put(header.TagRequireName, []string{"libc.so.6", "bar"}))
	require.NoError(t, h.Put(header.TagRequireFlags, []uint32{0, uint32(SenseGreater | SenseEqual)}))
	require.NoError(t, h.Put(header.TagRequireVersion, []string{"", "2.0"}))
	require.NoError(t, h.Put(header.TagConflictName, []string{"baz"}))
	h.SetInstance(9)
	return h
}

func TestNewFromHeader(t *testing.T) {
	h := depHeader(t)

	reqs := New(h, header.TagRequireName)
	require.Equal(t, 2, reqs.Count())
	assert.Equal(t, KindRequires, reqs.Kind())
	assert.Equal(t, uint32(9), reqs.Instance())
	assert.Equal(t, "R libc.so.6", reqs.DNEVR(0))
	assert.Equal(t, "R bar >= 2.0", reqs.DNEVR(1))

	conflicts := New(h, header.TagConflictName)
	assert.Equal(t, "C baz", conflicts.DNEVR(0))

	obsoletes := New(h, header.TagObsoleteName)
	assert.Equal(t, 0, obsoletes.Count())
	assert.Equal(t, KindObsoletes, obsoletes.Kind())
}

func TestThis(t *testing.T) {
	h := depHeader(t)
	self := This(h, SenseEqual)
	require.Equal(t, 1, self.Count())
	assert.Equal(t, "P foo = 1.0-1", self.DNEVR(0))

	require.NoError(t, h.Put(header.TagEpoch, uint64(2)))
	assert.Equal(t, "P foo = 2:1.0-1", This(h, SenseEqual).DNEVR(0))
}

func TestColors(t *testing.T) {
	s := New(depHeader(t), header.TagRequireName)

	assert.Equal(t, uint32(0), uint32(s.SetColor(1, 2)))
	assert.Equal(t, uint32(2), uint32(s.Color(1)))
	assert.Equal(t, uint32(2), uint32(s.SetColor(1, 3)))
	assert.Equal(t, uint32(0), uint32(s.Color(0)))
}

func TestFindAndFree(t *testing.T) {
	s := New(depHeader(t), header.TagRequireName)
	assert.Equal(t, 1, s.Find("bar"))
	assert.Equal(t, -1, s.Find("nope"))

	s.Link()
	assert.Nil(t, s.Free())
	assert.Equal(t, 2, s.Count())
	s.Free()
	assert.Equal(t, 0, s.Count())

	var nilSet *Set
	assert.Equal(t, 0, nilSet.Count())
	assert.Nil(t, nilSet.Free())
}
