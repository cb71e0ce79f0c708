package collections

import (
	stderrors "errors"
	"strings"
	"unicode"

	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/logging"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/rs/zerolog"
)

// Dispatcher resolves collection names to modules and runs their hooks
type Dispatcher struct {
	loader Loader
	macros Expander
	logger zerolog.Logger
}

// NewDispatcher returns a dispatcher resolving names through macros and
// opening modules with loader.
func NewDispatcher(loader Loader, macros Expander) *Dispatcher {
	return &Dispatcher{
		loader: loader,
		macros: macros,
		logger: logging.GetLogger("collections"),
	}
}

// Resolve returns the module path and options configured for a collection
func (d *Dispatcher) Resolve(collection string) (string, string, error) {
	line, err := d.macros.Expand("%{?__collection_" + collection + "}")
	if err != nil {
		return "", "", errors.Wrapf(err, errors.ErrPluginResolve, "failed to expand handler of collection %s", collection)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", errors.Newf(errors.ErrPluginResolve, "no handler configured for collection %s", collection).
			WithDetail("collection", collection)
	}

	path, options := splitCommand(line)
	return path, options, nil
}

// splitCommand splits at the first run of whitespace
func splitCommand(line string) (string, string) {
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeftFunc(line[i:], unicode.IsSpace)
}

// Run runs one hook of one collection. The module is released before Run
// returns. Modules that do not implement the hook succeed without a call,
// and test or database only transactions never call into modules.
// Transactions with collections disabled do not even load the module.
func (d *Dispatcher) Run(ts Transaction, collection string, hook Hook) error {
	if ts.Flags().Has(types.TransNoCollections) {
		return nil
	}

	path, options, err := d.Resolve(collection)
	if err != nil {
		return err
	}

	mod, err := d.loader.Open(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrPluginLoad, "failed to load module %s for collection %s", path, collection).
			WithDetail("path", path)
	}
	if mod == nil {
		return errors.Newf(errors.ErrPluginLoad, "loader returned no module %s for collection %s", path, collection).
			WithDetail("path", path)
	}
	defer func() {
		if cerr := mod.Close(); cerr != nil {
			d.logger.Warn().Err(cerr).Str("path", path).Msg("Failed to unload collection module")
		}
	}()

	sym, err := mod.Lookup(SymbolHooks)
	if err != nil {
		return errors.Wrapf(err, errors.ErrPluginSymbol, "module %s has no %s symbol", path, SymbolHooks)
	}
	hooks, ok := asHooks(sym)
	if !ok {
		return errors.Newf(errors.ErrPluginSymbol, "symbol %s of module %s has type %T", SymbolHooks, path, sym)
	}
	if hooks&hook == 0 {
		return nil
	}

	sym, err = mod.Lookup(hook.Symbol())
	if err != nil {
		return errors.Wrapf(err, errors.ErrPluginSymbol, "module %s has no %s symbol", path, hook.Symbol())
	}
	fn, ok := asHookFunc(sym)
	if !ok {
		return errors.Newf(errors.ErrPluginSymbol, "symbol %s of module %s has type %T", hook.Symbol(), path, sym)
	}

	if ts.Flags().Any(types.TransTest | types.TransJustDB) {
		d.logger.Debug().Str("collection", collection).Stringer("hook", hook).Msg("Skipping collection hook in test mode")
		return nil
	}

	d.logger.Debug().
		Str("collection", collection).
		Stringer("hook", hook).
		Str("path", path).
		Str("options", options).
		Msg("Running collection hook")
	if err := fn(ts, collection, options); err != nil {
		return errors.Wrapf(err, errors.ErrPluginHook, "collection %s hook %s failed", collection, hook).
			WithDetail("collection", collection)
	}
	return nil
}

// RunAll runs hook for every collection in order. One failing collection
// does not stop the others; all failures are returned joined.
func (d *Dispatcher) RunAll(ts Transaction, collections []string, hook Hook) error {
	if len(collections) == 0 || ts.Flags().Has(types.TransNoCollections) {
		return nil
	}

	var errs []error
	for _, name := range collections {
		if err := d.Run(ts, name, hook); err != nil {
			d.logger.Error().Err(err).Str("collection", name).Stringer("hook", hook).Msg("Collection hook failed")
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func asHooks(sym interface{}) (Hook, bool) {
	switch v := sym.(type) {
	case Hook:
		return v, true
	case *Hook:
		if v == nil {
			return 0, false
		}
		return *v, true
	case uint32:
		return Hook(v), true
	case *uint32:
		if v == nil {
			return 0, false
		}
		return Hook(*v), true
	}
	return 0, false
}

func asHookFunc(sym interface{}) (HookFunc, bool) {
	switch v := sym.(type) {
	case HookFunc:
		return v, v != nil
	case func(Transaction, string, string) error:
		return v, v != nil
	case *HookFunc:
		if v == nil {
			return nil, false
		}
		return *v, *v != nil
	}
	return nil, false
}
