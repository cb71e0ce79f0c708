package ts

import (
	"bytes"
	"io"
	"testing"

	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/problems"
	"github.com/mkulik-rh/rpm/pkg/te"
	"github.com/mkulik-rh/rpm/pkg/testutil"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransaction(env *testutil.TestEnvironment, flags types.TransFlags) *Transaction {
	return New(Options{Flags: flags, Root: env.Root, DB: env.DB})
}

func TestElementsFilterAndOrder(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	old := env.Installed(testutil.NewHeader("old").Build(t))

	tr := newTransaction(env, types.TransNone)
	defer tr.Free()

	a, err := tr.AddInstall(testutil.NewHeader("a").Build(t), "a.rpm", false, nil)
	require.NoError(t, err)
	erase, err := tr.AddErase(old, nil)
	require.NoError(t, err)
	b, err := tr.AddInstall(testutil.NewHeader("b").Build(t), "b.rpm", false, nil)
	require.NoError(t, err)

	assert.Equal(t, []*te.Element{a, b}, tr.Elements(types.Added))
	assert.Equal(t, []*te.Element{erase}, tr.Elements(types.Removed))
	assert.Equal(t, []*te.Element{a, erase, b}, tr.Elements(types.AnyElement))
	assert.Equal(t, []*te.Element{a, b, erase}, tr.processingOrder())
	assert.Equal(t, old, erase.DBInstance())
	assert.Equal(t, 4, tr.Refs())
}

func TestAddEraseUnknownInstance(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	tr := newTransaction(env, types.TransNone)
	defer tr.Free()

	_, err := tr.AddErase(42, nil)
	assert.Error(t, err)
	assert.Empty(t, tr.Elements(types.AnyElement))
}

func TestUpgradePairsErasures(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	v1 := env.Installed(testutil.NewHeader("a").Version("0.9").Build(t))
	env.Installed(testutil.NewHeader("other").Build(t))

	tr := newTransaction(env, types.TransNone)
	defer tr.Free()

	e, err := tr.AddInstall(testutil.NewHeader("a").Build(t), "a.rpm", true, nil)
	require.NoError(t, err)

	erases := tr.Elements(types.Removed)
	require.Len(t, erases, 1)
	assert.Equal(t, v1, erases[0].DBInstance())
	assert.Same(t, e, erases[0].DependsOn())
	assert.Equal(t, "a-0.9-1.x86_64", erases[0].NEVRA())
}

func TestUpgradeToInstalledVersion(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.Installed(testutil.NewHeader("a").Build(t))

	tr := newTransaction(env, types.TransNone)
	defer tr.Free()

	e, err := tr.AddInstall(testutil.NewHeader("a").Build(t), "a.rpm", true, nil)
	require.NoError(t, err)
	assert.Empty(t, tr.Elements(types.Removed))

	probs := e.Problems()
	require.NotNil(t, probs)
	defer probs.Free()
	assert.Equal(t, problems.PkgInstalled, probs.All()[0].Kind)
}

func TestProblemsMerged(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	tr := newTransaction(env, types.TransNone)
	defer tr.Free()

	assert.Nil(t, tr.Problems())

	_, err := tr.AddInstall(testutil.NewHeader("a").Requires("liba").Build(t), "a.rpm", false, nil)
	require.NoError(t, err)
	_, err = tr.AddInstall(testutil.NewHeader("b").Requires("libb").Build(t), "b.rpm", false, nil)
	require.NoError(t, err)

	n, err := tr.Check()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	probs := tr.Problems()
	require.NotNil(t, probs)
	defer probs.Free()
	all := probs.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a-1.0-1.x86_64", all[0].Pkg)
	assert.Equal(t, "liba", all[0].Detail)
	assert.Equal(t, "b-1.0-1.x86_64", all[1].Pkg)
}

func TestCheck(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.Installed(testutil.NewHeader("glibc").Provides("libc.so.6").Files("/usr/lib64/libc.so.6").Build(t))
	doomed := env.Installed(testutil.NewHeader("legacy").Provides("libold").Build(t))
	env.Installed(testutil.NewHeader("editor").Build(t))

	tr := newTransaction(env, types.TransNone)
	defer tr.Free()

	_, err := tr.AddErase(doomed, nil)
	require.NoError(t, err)

	e, err := tr.AddInstall(testutil.NewHeader("app").
		Requires("libc.so.6", "/usr/lib64/libc.so.6", "rpmlib(PayloadIsZstd)", "libself", "libold", "helper").
		Provides("libself").
		Conflicts("editor", "legacy").
		Obsoletes("helper").
		Build(t), "app.rpm", false, nil)
	require.NoError(t, err)
	_, err = tr.AddInstall(testutil.NewHeader("helper").Build(t), "helper.rpm", false, nil)
	require.NoError(t, err)

	n, err := tr.Check()
	require.NoError(t, err)

	probs := e.Problems()
	require.NotNil(t, probs)
	defer probs.Free()

	var got []string
	for _, p := range probs.All() {
		got = append(got, p.Kind.String()+" "+p.Detail+" "+p.Alt)
	}
	assert.Equal(t, []string{
		problems.Requires.String() + " libold app-1.0-1.x86_64",
		problems.Conflict.String() + " editor editor-1.0-1.x86_64",
		problems.Obsoletes.String() + " helper helper-1.0-1.x86_64",
	}, got)
	assert.Equal(t, 3, n)
}

func TestDefaultNotifyOpensKeyOnRoot(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	h := testutil.NewHeader("a").Build(t)
	key := env.Package(h, nil)

	tr := newTransaction(env, types.TransNone)
	defer tr.Free()
	e, err := tr.AddInstall(h, key, false, nil)
	require.NoError(t, err)

	rc := tr.Notify(e, types.CallbackInstOpenFile, 0, 0)
	require.NotNil(t, rc)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, testutil.PackageFile(t, h, nil), data)

	assert.Nil(t, tr.Notify(e, types.CallbackInstCloseFile, 0, 0))

	missing, err := tr.AddInstall(testutil.NewHeader("b").Build(t), "/nowhere/b.rpm", false, nil)
	require.NoError(t, err)
	assert.Nil(t, tr.Notify(missing, types.CallbackInstOpenFile, 0, 0))
}

func TestCustomNotify(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	h := testutil.NewHeader("a").Build(t)
	pkg := testutil.PackageFile(t, h, nil)

	var events []types.CallbackType
	tr := New(Options{
		Root: env.Root,
		DB:   env.DB,
		Notify: func(e *te.Element, what types.CallbackType, amount, total uint64) io.ReadCloser {
			events = append(events, what)
			if what == types.CallbackInstOpenFile {
				return io.NopCloser(bytes.NewReader(pkg))
			}
			return nil
		},
	})
	defer tr.Free()

	e, err := tr.AddInstall(h, "in-memory", false, nil)
	require.NoError(t, err)
	require.NoError(t, e.Open(false))
	got := e.Header()
	assert.Equal(t, "a", got.GetString(header.TagName))
	got.Free()
	e.Close(false)

	assert.Equal(t, []types.CallbackType{types.CallbackInstOpenFile, types.CallbackInstCloseFile}, events)
}

func TestFreeReleasesElements(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	tr := newTransaction(env, types.TransNone)

	_, err := tr.AddInstall(testutil.NewHeader("a").Build(t), "a.rpm", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Refs())

	assert.Nil(t, tr.Free())
	assert.Equal(t, 0, tr.Refs())
	assert.Empty(t, tr.Elements(types.AnyElement))
}

func TestSetFlags(t *testing.T) {
	tr := New(Options{Flags: types.TransTest})
	defer tr.Free()

	assert.Equal(t, types.TransTest, tr.SetFlags(types.TransJustDB))
	assert.Equal(t, types.TransJustDB, tr.Flags())
}
