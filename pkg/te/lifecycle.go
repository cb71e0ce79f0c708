package te

import (
	"context"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/mkulik-rh/rpm/pkg/collections"
	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/fi"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/logging"
	"github.com/mkulik-rh/rpm/pkg/types"
)

// Open acquires the header for processing. Install elements read it from
// the package stream the transaction hands out, unless they already carry
// a database instance; erase elements always load it from the database.
// With reload set the file manifest is rebuilt from the fresh header,
// relocating it first. Open fails without a transaction and for elements
// already marked failed.
func (e *Element) Open(reload bool) error {
	if e == nil || e.ts == nil {
		return errors.New(errors.ErrNoTransaction, "element has no transaction")
	}
	if e.failed > 0 {
		return errors.Newf(errors.ErrElementFailed, "%s already failed", e.nevra).
			WithDetail("failures", e.failed)
	}

	e.SetHeader(nil)

	var (
		h   *header.Header
		err error
	)
	switch {
	case e.typ == types.Added && e.dbInstance == 0:
		h, err = e.fdHeader()
	default:
		h, err = e.ts.DBHeader(e.dbInstance)
	}
	if err != nil {
		return err
	}

	if reload {
		e.fi = e.fi.Free()
		if n := h.Count(header.TagBaseNames); n != len(e.fs) {
			e.fs = fi.NewStates(n)
		}
		e.fi = e.loadManifest(h, true)
	}

	e.SetHeader(h)
	h.Free()
	return nil
}

func (e *Element) fdHeader() (*header.Header, error) {
	e.fd = e.ts.Notify(e, types.CallbackInstOpenFile, 0, 0)
	if e.fd == nil {
		return nil, errors.Newf(errors.ErrPackageOpen, "no package stream for %s", e.nevra).
			WithDetail("key", e.key)
	}

	h, rc, err := e.ts.ReadPackage(e.fd)
	switch rc {
	case types.RCOK:
	case types.RCNotTrusted, types.RCNoKey:
		log.Warn().Str("nevra", e.nevra).Stringer("rc", rc).Msg("Package signature not verified")
	default:
		e.Close(true)
		if err == nil {
			err = errors.Newf(errors.ErrHeaderRead, "failed to read header of %s", e.nevra)
		}
		return nil, errors.Wrapf(err, errors.ErrHeaderRead, "reading %s", e.key).WithDetail("rc", rc.String())
	}
	if h == nil {
		e.Close(true)
		return nil, errors.Newf(errors.ErrHeaderRead, "no header in %s", e.key)
	}
	return h, nil
}

// Close drops the package stream and the header, and the file manifest
// when reset is set. It is safe on elements that were never opened.
func (e *Element) Close(reset bool) {
	if e == nil || e.ts == nil {
		return
	}

	if e.typ == types.Added && e.fd != nil {
		e.ts.Notify(e, types.CallbackInstCloseFile, 0, 0)
		if err := e.fd.Close(); err != nil {
			log.Debug().Err(err).Str("nevra", e.nevra).Msg("Failed to close package stream")
		}
		e.fd = nil
	}
	e.SetHeader(nil)
	if reset {
		e.SetFI(nil)
	}
}

// Process runs one transaction stage for the element. Pre and post
// transaction stages are skipped for packages without the scriptlet.
// A failed install or erase marks the element and its dependent erase
// elements failed and returns ErrElementFailed; a failed scriptlet stage
// returns the raw error and does not fail the package.
func (e *Element) Process(ctx context.Context, goal types.Goal) error {
	scriptStage := goal.IsScriptStage()
	reset := !scriptStage

	if (goal == types.GoalPreTrans || goal == types.GoalPostTrans) && !e.HasTransScript(goal) {
		return nil
	}

	logger := logging.ForElement("te", e.nevra, e.typ).With().Stringer("goal", goal).Logger()
	logger.Debug().Msg("Processing element")

	e.runAllCollections(collections.HookPreRemove)

	err := e.Open(reset)
	if err == nil {
		err = e.ts.Execute(ctx, e, goal)
		e.Close(reset)
	}

	e.runAllCollections(collections.HookPostAdd)
	e.runAllCollections(collections.HookPostAny)

	if err != nil && !scriptStage {
		failures := e.markFailed()
		logger.Warn().Err(err).Int("failures", failures).Msg("Element failed")
		return errors.Wrapf(err, errors.ErrElementFailed, "%s of %s failed", goal, e.nevra).
			WithDetail("failures", failures)
	}
	return err
}

// markFailed bumps the failure count of the element and of every erase
// element paired with it, returning the element's new count.
func (e *Element) markFailed() int {
	e.failed++
	if e.ts != nil {
		for _, p := range e.ts.Elements(types.Removed) {
			if p.dependsOn == e {
				p.failed++
			}
		}
	}
	return e.failed
}

// Payload opens the decompressed payload of an open install element using
// the compressor named in the header, gzip by default. Closing the returned
// reader leaves the package stream open.
func (e *Element) Payload() (io.ReadCloser, error) {
	if e.fd == nil || e.h == nil {
		return nil, errors.Newf(errors.ErrPayload, "%s has no open package stream", e.nevra)
	}

	compressor := e.h.GetString(header.TagPayloadCompressor)
	switch compressor {
	case "", "gzip":
		r, err := gzip.NewReader(e.fd)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPayload, "failed to open gzip payload")
		}
		return r, nil
	case "zstd":
		d, err := zstd.NewReader(e.fd)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPayload, "failed to open zstd payload")
		}
		return d.IOReadCloser(), nil
	case "identity":
		return io.NopCloser(e.fd), nil
	default:
		return nil, errors.Newf(errors.ErrPayload, "unsupported payload compressor %q", compressor)
	}
}
