package te

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/mkulik-rh/rpm/pkg/collections"
	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/stretchr/testify/require"
)

type notification struct {
	nevra string
	what  types.CallbackType
}

type execution struct {
	nevra     string
	goal      types.Goal
	hadHeader bool
}

// fakeTS is an in-memory transaction
type fakeTS struct {
	flags      types.TransFlags
	elements   []*Element
	packages   map[string][]byte
	db         map[uint32]*header.Header
	keyring    header.Keyring
	dispatcher *collections.Dispatcher
	execErr    map[types.Goal]error

	refs          int
	notifications []notification
	executions    []execution
	hooks         []string
}

func newFakeTS() *fakeTS {
	return &fakeTS{
		packages: make(map[string][]byte),
		db:       make(map[uint32]*header.Header),
		execErr:  make(map[types.Goal]error),
	}
}

func (f *fakeTS) Flags() types.TransFlags { return f.flags }

func (f *fakeTS) Notify(e *Element, what types.CallbackType, amount, total uint64) io.ReadCloser {
	f.notifications = append(f.notifications, notification{e.NEVRA(), what})
	if what != types.CallbackInstOpenFile {
		return nil
	}
	data, ok := f.packages[e.Key()]
	if !ok {
		return nil
	}
	return io.NopCloser(bytes.NewReader(data))
}

func (f *fakeTS) ReadPackage(r io.Reader) (*header.Header, types.RC, error) {
	return header.ReadPackage(r, f.keyring)
}

func (f *fakeTS) DBHeader(instance uint32) (*header.Header, error) {
	h, ok := f.db[instance]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "no instance %d", instance)
	}
	c := h.Copy()
	c.SetInstance(instance)
	return c, nil
}

func (f *fakeTS) Elements(mask types.ElementType) []*Element {
	var out []*Element
	for _, e := range f.elements {
		if e.Type()&mask != 0 {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTS) Execute(ctx context.Context, e *Element, goal types.Goal) error {
	h := e.Header()
	f.executions = append(f.executions, execution{e.NEVRA(), goal, h != nil})
	h.Free()
	return f.execErr[goal]
}

func (f *fakeTS) Collections() *collections.Dispatcher { return f.dispatcher }
func (f *fakeTS) Link()                                { f.refs++ }
func (f *fakeTS) Unlink()                              { f.refs-- }

func (f *fakeTS) add(t *testing.T, h *header.Header, typ types.ElementType, key string) *Element {
	t.Helper()
	e, err := New(f, h, typ, key, nil)
	require.NoError(t, err)
	f.elements = append(f.elements, e)
	return e
}

// install stores a package file under key
func (f *fakeTS) install(t *testing.T, key string, h *header.Header, payload []byte) {
	t.Helper()
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var buf bytes.Buffer
	require.NoError(t, header.WritePackage(&buf, h, &compressed))
	f.packages[key] = buf.Bytes()
}

func pkgHeader(t *testing.T, name string) *header.Header {
	t.Helper()
	h := header.New()
	require.NoError(t, h.Put(header.TagName, name))
	require.NoError(t, h.Put(header.TagVersion, "1.0"))
	require.NoError(t, h.Put(header.TagRelease, "1"))
	require.NoError(t, h.Put(header.TagArch, "x86_64"))
	require.NoError(t, h.Put(header.TagOS, "linux"))
	require.NoError(t, h.Put(header.TagSourceRPM, name+"-1.0-1.src.rpm"))
	return h
}
