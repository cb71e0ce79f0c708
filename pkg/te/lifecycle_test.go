package te

import (
	"context"
	"io"
	"testing"

	stderrors "errors"

	"github.com/mkulik-rh/rpm/pkg/collections"
	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/macro"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkFailedPropagatesToDependents(t *testing.T) {
	ts := newFakeTS()
	a := ts.add(t, pkgHeader(t, "a"), types.Added, "a.rpm")
	b := ts.add(t, pkgHeader(t, "b"), types.Removed, "")
	c := ts.add(t, pkgHeader(t, "c"), types.Removed, "")
	d := ts.add(t, pkgHeader(t, "d"), types.Added, "d.rpm")
	b.SetDependsOn(a)
	d.SetDependsOn(a)

	assert.Equal(t, 1, a.markFailed())
	assert.Equal(t, 1, a.Failed())
	assert.Equal(t, 1, b.Failed())
	assert.Equal(t, 0, c.Failed())
	assert.Equal(t, 0, d.Failed(), "only erase elements inherit failures")
}

func TestCloseIsIdempotent(t *testing.T) {
	ts := newFakeTS()
	e := ts.add(t, pkgHeader(t, "a"), types.Added, "a.rpm")

	e.Close(false)
	assert.NotNil(t, e.FI())

	e.Close(true)
	e.Close(true)
	assert.Nil(t, e.Header())
	assert.Nil(t, e.FI())
	assert.Empty(t, ts.notifications)

	var none *Element
	none.Close(true)
}

func TestOpenInstallFromPackage(t *testing.T) {
	ts := newFakeTS()
	h := pkgHeader(t, "a")
	ts.install(t, "a.rpm", h, []byte("payload bytes"))
	e := ts.add(t, h, types.Added, "a.rpm")

	require.NoError(t, e.Open(true))
	got := e.Header()
	require.NotNil(t, got)
	assert.Equal(t, "a", got.GetString(header.TagName))
	got.Free()

	payload, err := e.Payload()
	require.NoError(t, err)
	data, err := io.ReadAll(payload)
	require.NoError(t, err)
	assert.Equal(t, "payload bytes", string(data))
	require.NoError(t, payload.Close())

	e.Close(true)
	assert.Nil(t, e.Header())
	assert.Equal(t, []notification{
		{"a-1.0-1.x86_64", types.CallbackInstOpenFile},
		{"a-1.0-1.x86_64", types.CallbackInstCloseFile},
	}, ts.notifications)

	_, err = e.Payload()
	assert.True(t, errors.IsErrorCode(err, errors.ErrPayload))
}

func TestOpenFailures(t *testing.T) {
	t.Run("no stream", func(t *testing.T) {
		ts := newFakeTS()
		e := ts.add(t, pkgHeader(t, "a"), types.Added, "missing.rpm")
		err := e.Open(true)
		assert.True(t, errors.IsErrorCode(err, errors.ErrPackageOpen))
	})

	t.Run("corrupt package closes element", func(t *testing.T) {
		ts := newFakeTS()
		ts.packages["bad.rpm"] = []byte("garbage")
		e := ts.add(t, pkgHeader(t, "a"), types.Added, "bad.rpm")

		err := e.Open(true)
		assert.True(t, errors.IsErrorCode(err, errors.ErrHeaderRead))
		assert.Nil(t, e.Header())
		assert.Nil(t, e.FI())
		assert.Equal(t, types.CallbackInstCloseFile, ts.notifications[len(ts.notifications)-1].what)
	})

	t.Run("no transaction", func(t *testing.T) {
		e, err := New(nil, pkgHeader(t, "a"), types.Added, "a.rpm", nil)
		require.NoError(t, err)
		assert.True(t, errors.IsErrorCode(e.Open(true), errors.ErrNoTransaction))
		e.Close(true)
	})

	t.Run("already failed", func(t *testing.T) {
		ts := newFakeTS()
		e := ts.add(t, pkgHeader(t, "a"), types.Added, "a.rpm")
		e.markFailed()
		assert.True(t, errors.IsErrorCode(e.Open(true), errors.ErrElementFailed))
	})
}

func TestUntrustedPackageStillOpens(t *testing.T) {
	ts := newFakeTS()
	ts.keyring = header.NewKeyring("trusted")
	h := pkgHeader(t, "a")
	require.NoError(t, h.Put(header.TagSignature, "stranger"))
	ts.install(t, "a.rpm", h, nil)

	e := ts.add(t, h, types.Added, "a.rpm")
	require.NoError(t, e.Open(false))
	e.Close(false)
}

func TestOpenEraseFromDatabase(t *testing.T) {
	ts := newFakeTS()
	h := pkgHeader(t, "old")
	ts.db[3] = h
	h.SetInstance(3)

	e := ts.add(t, h, types.Removed, "")
	require.NoError(t, e.Open(true))
	got := e.Header()
	assert.Equal(t, uint32(3), got.Instance())
	got.Free()
	e.Close(true)
	assert.Empty(t, ts.notifications)
}

func TestOpenInstallWithInstanceUsesDatabase(t *testing.T) {
	ts := newFakeTS()
	h := pkgHeader(t, "a")
	ts.db[9] = h
	e := ts.add(t, h, types.Added, "a.rpm")
	e.SetDBInstance(9)

	require.NoError(t, e.Open(false))
	e.Close(false)
	assert.Empty(t, ts.notifications)
}

func TestProcessInstall(t *testing.T) {
	ts := newFakeTS()
	h := pkgHeader(t, "a")
	ts.install(t, "a.rpm", h, nil)
	e := ts.add(t, h, types.Added, "a.rpm")

	require.NoError(t, e.Process(context.Background(), types.GoalInstall))
	assert.Equal(t, []execution{{"a-1.0-1.x86_64", types.GoalInstall, true}}, ts.executions)
	assert.Nil(t, e.Header())
	assert.Nil(t, e.FI(), "install resets the manifest")
	assert.Equal(t, 0, e.Failed())
}

func TestProcessFailurePropagates(t *testing.T) {
	ts := newFakeTS()
	h := pkgHeader(t, "a")
	ts.install(t, "a.rpm", h, nil)
	a := ts.add(t, h, types.Added, "a.rpm")
	old := ts.add(t, pkgHeader(t, "a"), types.Removed, "")
	old.SetDependsOn(a)

	boom := stderrors.New("payload write failed")
	ts.execErr[types.GoalInstall] = boom

	err := a.Process(context.Background(), types.GoalInstall)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrElementFailed))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, errors.GetErrorDetails(err)["failures"])
	assert.Equal(t, 1, a.Failed())
	assert.Equal(t, 1, old.Failed())
}

func TestProcessOpenFailureMarksFailed(t *testing.T) {
	ts := newFakeTS()
	e := ts.add(t, pkgHeader(t, "a"), types.Added, "missing.rpm")

	err := e.Process(context.Background(), types.GoalInstall)
	assert.True(t, errors.IsErrorCode(err, errors.ErrElementFailed))
	assert.Equal(t, 1, e.Failed())
	assert.Empty(t, ts.executions)
}

func TestProcessSkipsStagesWithoutScripts(t *testing.T) {
	ts := newFakeTS()
	e := ts.add(t, pkgHeader(t, "a"), types.Added, "a.rpm")

	reg := collections.NewRegistry()
	record := collections.HookFunc(func(_ collections.Transaction, name, _ string) error {
		ts.hooks = append(ts.hooks, name)
		return nil
	})
	require.NoError(t, reg.RegisterSymbols("/p/sql.so", collections.Symbols{
		collections.SymbolHooks:     collections.HookPostAdd | collections.HookPostAny | collections.HookPreRemove,
		collections.SymbolPostAdd:   record,
		collections.SymbolPostAny:   record,
		collections.SymbolPreRemove: record,
	}))
	macros := macro.NewContext()
	macros.Define("__collection_sql", "/p/sql.so")
	ts.dispatcher = collections.NewDispatcher(reg, macros)

	e.AddToFirstInCollectionRemove("sql")
	e.AddToLastInCollectionAdd("sql")
	e.AddToLastInCollectionAny("sql")

	for _, goal := range []types.Goal{types.GoalPreTrans, types.GoalPostTrans} {
		require.NoError(t, e.Process(context.Background(), goal))
	}
	assert.Empty(t, ts.hooks)
	assert.Empty(t, ts.notifications)
	assert.Empty(t, ts.executions)
}

func TestProcessScriptStageFailureDoesNotFailPackage(t *testing.T) {
	ts := newFakeTS()
	h := pkgHeader(t, "a")
	require.NoError(t, h.Put(header.TagPreTrans, "exit 1"))
	require.NoError(t, h.Put(header.TagPreTransProg, "/bin/sh"))
	ts.install(t, "a.rpm", h, nil)
	e := ts.add(t, h, types.Added, "a.rpm")

	boom := stderrors.New("pretrans failed")
	ts.execErr[types.GoalPreTrans] = boom

	err := e.Process(context.Background(), types.GoalPreTrans)
	assert.Same(t, boom, err)
	assert.Equal(t, 0, e.Failed())
	assert.NotNil(t, e.FI(), "script stages keep the manifest")
}

func TestProcessRunsCollectionHooksInOrder(t *testing.T) {
	ts := newFakeTS()
	h := pkgHeader(t, "a")
	ts.install(t, "a.rpm", h, nil)
	e := ts.add(t, h, types.Added, "a.rpm")

	reg := collections.NewRegistry()
	record := func(label string) collections.HookFunc {
		return func(_ collections.Transaction, name, options string) error {
			ts.hooks = append(ts.hooks, label+":"+name+":"+options)
			return nil
		}
	}
	require.NoError(t, reg.RegisterSymbols("/p/sql.so", collections.Symbols{
		collections.SymbolHooks:     collections.HookPostAdd | collections.HookPostAny | collections.HookPreRemove,
		collections.SymbolPostAdd:   record("add"),
		collections.SymbolPostAny:   record("any"),
		collections.SymbolPreRemove: record("rem"),
	}))
	macros := macro.NewContext()
	macros.Define("__collection_sql", "/p/sql.so -v")
	macros.Define("__collection_broken", "/p/missing.so")
	ts.dispatcher = collections.NewDispatcher(reg, macros)

	e.AddToFirstInCollectionRemove("sql")
	e.AddToLastInCollectionAdd("broken")
	e.AddToLastInCollectionAdd("sql")
	e.AddToLastInCollectionAny("sql")
	ts.execErr[types.GoalInstall] = stderrors.New("boom")

	err := e.Process(context.Background(), types.GoalInstall)
	assert.Error(t, err)
	assert.Equal(t, []string{"rem:sql:-v", "add:sql:-v", "any:sql:-v"}, ts.hooks,
		"hooks run after a failed execution and past a broken collection")
	assert.Equal(t, []string{"broken", "sql"}, e.CollectionsFor(collections.HookPostAdd))
}

func TestCollectionsFromHeader(t *testing.T) {
	ts := newFakeTS()
	h := pkgHeader(t, "a")
	require.NoError(t, h.Put(header.TagCollections, []string{"sql", "fonts"}))
	e := ts.add(t, h, types.Added, "a.rpm")
	assert.Equal(t, []string{"sql", "fonts"}, e.Collections())
	assert.Nil(t, e.CollectionsFor(collections.Hook(0)))
}

func TestPayloadCompressors(t *testing.T) {
	ts := newFakeTS()
	h := pkgHeader(t, "a")
	require.NoError(t, h.Put(header.TagPayloadCompressor, "lzma"))
	ts.install(t, "a.rpm", h, nil)
	e := ts.add(t, h, types.Added, "a.rpm")

	require.NoError(t, e.Open(false))
	defer e.Close(false)
	_, err := e.Payload()
	assert.True(t, errors.IsErrorCode(err, errors.ErrPayload))
}
