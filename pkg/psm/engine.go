package psm

import (
	"context"
	"io"
	"os"
	"slices"

	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/logging"
	"github.com/mkulik-rh/rpm/pkg/rpmdb"
	"github.com/mkulik-rh/rpm/pkg/te"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/spf13/afero"
)

var log = logging.GetLogger("psm")

// Transaction is what the engine needs from the running transaction
type Transaction interface {
	Flags() types.TransFlags
	DB() *rpmdb.DB
	Root() afero.Fs
}

// Options configures an Engine
type Options struct {
	// Stdout and Stderr receive scriptlet output. Nil means the process
	// streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Engine executes element stages
type Engine struct {
	stdout io.Writer
	stderr io.Writer
}

// New creates an engine
func New(opts Options) *Engine {
	e := &Engine{stdout: opts.Stdout, stderr: opts.Stderr}
	if e.stdout == nil {
		e.stdout = os.Stdout
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}
	return e
}

// Run carries out goal for an opened element. A test transaction does
// nothing; a database only transaction updates the database and neither
// touches files nor runs scriptlets.
func (e *Engine) Run(ctx context.Context, ts Transaction, el *te.Element, goal types.Goal) error {
	flags := ts.Flags()
	logger := logging.ForElement("psm", el.NEVRA(), el.Type()).With().Stringer("goal", goal).Logger()

	if flags.Has(types.TransTest) {
		logger.Debug().Msg("Test transaction, nothing to do")
		return nil
	}

	h := el.Header()
	if h == nil {
		return errors.Newf(errors.ErrInvalidInput, "%s is not open", el.NEVRA())
	}
	defer h.Free()

	db := ts.DB()
	if db == nil {
		return errors.New(errors.ErrDBAccess, "transaction has no package database")
	}

	done := logging.LogOperationStart(logger, goal.String())
	defer done()

	switch goal {
	case types.GoalPreTrans:
		return e.runScript(ctx, ts, el, h, preTrans, goal)
	case types.GoalPostTrans:
		return e.runScript(ctx, ts, el, h, postTrans, goal)
	case types.GoalInstall:
		return e.install(ctx, ts, el, h)
	case types.GoalErase:
		return e.erase(ctx, ts, el, h)
	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown goal %d", goal)
	}
}

func (e *Engine) install(ctx context.Context, ts Transaction, el *te.Element, h *header.Header) error {
	if err := e.runScript(ctx, ts, el, h, preIn, types.GoalInstall); err != nil {
		return err
	}

	if !ts.Flags().Has(types.TransJustDB) {
		if err := extract(ts.Root(), el); err != nil {
			return err
		}
	}

	instance, err := ts.DB().Add(h)
	if err != nil {
		return err
	}
	el.SetDBInstance(instance)
	log.Info().Str("nevra", el.NEVRA()).Uint32("instance", instance).Msg("Installed package")

	if err := e.runScript(ctx, ts, el, h, postIn, types.GoalInstall); err != nil {
		log.Warn().Err(err).Str("nevra", el.NEVRA()).Msg("Post-install scriptlet failed")
	}
	return nil
}

func (e *Engine) erase(ctx context.Context, ts Transaction, el *te.Element, h *header.Header) error {
	if err := e.runScript(ctx, ts, el, h, preUn, types.GoalErase); err != nil {
		return err
	}

	if !ts.Flags().Has(types.TransJustDB) {
		if err := removeFiles(ts.Root(), ts.DB(), el); err != nil {
			return err
		}
	}

	if err := ts.DB().Remove(el.DBInstance()); err != nil {
		return err
	}
	log.Info().Str("nevra", el.NEVRA()).Uint32("instance", el.DBInstance()).Msg("Erased package")

	if err := e.runScript(ctx, ts, el, h, postUn, types.GoalErase); err != nil {
		log.Warn().Err(err).Str("nevra", el.NEVRA()).Msg("Post-uninstall scriptlet failed")
	}
	return nil
}

// instanceCount is the number of installed instances of the package once
// the stage has completed, the first scriptlet argument.
func instanceCount(db *rpmdb.DB, el *te.Element, goal types.Goal) (int, error) {
	ids, err := db.FindByName(el.Name())
	if err != nil {
		return 0, err
	}
	n := len(ids)
	switch goal {
	case types.GoalErase:
		if slices.Contains(ids, el.DBInstance()) {
			n--
		}
	case types.GoalPostTrans:
	default:
		if el.DBInstance() == 0 {
			n++
		}
	}
	return n, nil
}
