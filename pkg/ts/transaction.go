package ts

import (
	"context"
	"io"

	"github.com/mkulik-rh/rpm/pkg/collections"
	"github.com/mkulik-rh/rpm/pkg/errors"
	"github.com/mkulik-rh/rpm/pkg/filesystem"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/logging"
	"github.com/mkulik-rh/rpm/pkg/problems"
	"github.com/mkulik-rh/rpm/pkg/psm"
	"github.com/mkulik-rh/rpm/pkg/relocation"
	"github.com/mkulik-rh/rpm/pkg/rpmdb"
	"github.com/mkulik-rh/rpm/pkg/te"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/spf13/afero"
)

var log = logging.GetLogger("ts")

// NotifyFunc receives transaction callbacks. For CallbackInstOpenFile it
// returns the package stream of the element; the element closes it.
type NotifyFunc func(e *te.Element, what types.CallbackType, amount, total uint64) io.ReadCloser

// Options configures a transaction
type Options struct {
	Flags types.TransFlags
	// Root is the filesystem packages are installed into and package
	// files are opened from. Nil means the host filesystem.
	Root afero.Fs
	// DB is the package database. The transaction does not close it.
	DB          *rpmdb.DB
	Keyring     header.Keyring
	Collections *collections.Dispatcher
	// Engine executes the stages. Nil means a default engine.
	Engine *psm.Engine
	// Notify overrides the default callback, which opens the file named by
	// the element key on Root.
	Notify NotifyFunc
}

// Transaction is a set of install and erase elements
type Transaction struct {
	flags       types.TransFlags
	root        afero.Fs
	db          *rpmdb.DB
	keyring     header.Keyring
	collections *collections.Dispatcher
	engine      *psm.Engine
	notify      NotifyFunc

	elements []*te.Element
	refs     int
}

// New creates an empty transaction
func New(opts Options) *Transaction {
	t := &Transaction{
		flags:       opts.Flags,
		root:        opts.Root,
		db:          opts.DB,
		keyring:     opts.Keyring,
		collections: opts.Collections,
		engine:      opts.Engine,
		notify:      opts.Notify,
		refs:        1,
	}
	if t.root == nil {
		t.root = filesystem.NewRoot("/")
	}
	if t.engine == nil {
		t.engine = psm.New(psm.Options{})
	}
	return t
}

func (t *Transaction) Flags() types.TransFlags { return t.flags }

// SetFlags replaces the transaction flags and returns the previous ones
func (t *Transaction) SetFlags(flags types.TransFlags) types.TransFlags {
	prev := t.flags
	t.flags = flags
	return prev
}

func (t *Transaction) Root() afero.Fs                        { return t.root }
func (t *Transaction) DB() *rpmdb.DB                         { return t.db }
func (t *Transaction) Collections() *collections.Dispatcher { return t.collections }

func (t *Transaction) Link()   { t.refs++ }
func (t *Transaction) Unlink() { t.refs-- }

// Refs returns the number of references held on the transaction
func (t *Transaction) Refs() int { return t.refs }

// Notify reports an event, see NotifyFunc
func (t *Transaction) Notify(e *te.Element, what types.CallbackType, amount, total uint64) io.ReadCloser {
	if t.notify != nil {
		return t.notify(e, what, amount, total)
	}
	if what != types.CallbackInstOpenFile {
		return nil
	}
	f, err := t.root.Open(e.Key())
	if err != nil {
		log.Error().Err(err).Str("key", e.Key()).Msg("Failed to open package file")
		return nil
	}
	return f
}

// ReadPackage reads and verifies a package header against the keyring
func (t *Transaction) ReadPackage(r io.Reader) (*header.Header, types.RC, error) {
	return header.ReadPackage(r, t.keyring)
}

// DBHeader loads an installed header
func (t *Transaction) DBHeader(instance uint32) (*header.Header, error) {
	if t.db == nil {
		return nil, errors.New(errors.ErrDBAccess, "transaction has no package database")
	}
	return t.db.Get(instance)
}

// Execute runs goal for an opened element
func (t *Transaction) Execute(ctx context.Context, e *te.Element, goal types.Goal) error {
	return t.engine.Run(ctx, t, e, goal)
}

// Elements returns the elements matching mask in insertion order
func (t *Transaction) Elements(mask types.ElementType) []*te.Element {
	var out []*te.Element
	for _, e := range t.elements {
		if e.Type()&mask != 0 {
			out = append(out, e)
		}
	}
	return out
}

// processingOrder lists installs then erases
func (t *Transaction) processingOrder() []*te.Element {
	return append(t.Elements(types.Added), t.Elements(types.Removed)...)
}

// AddInstall adds an install element for h. With upgrade set every
// installed package of the same name gets an erase element depending on
// the new one; an identical installed package is reported instead.
func (t *Transaction) AddInstall(h *header.Header, key string, upgrade bool, relocs []relocation.Relocation) (*te.Element, error) {
	e, err := te.New(t, h, types.Added, key, relocs)
	if err != nil {
		return nil, err
	}
	t.elements = append(t.elements, e)
	log.Debug().Str("nevra", e.NEVRA()).Str("key", key).Bool("upgrade", upgrade).Msg("Added install element")

	if !upgrade || t.db == nil {
		return e, nil
	}

	ids, err := t.db.FindByName(e.Name())
	if err != nil {
		return e, err
	}
	for _, id := range ids {
		old, err := t.db.Get(id)
		if err != nil {
			return e, err
		}
		same := old.GetString(header.TagNEVRA) == e.NEVRA()
		old.Free()
		if same {
			e.AddProblem(problems.PkgInstalled, "", "", 0)
			continue
		}
		if _, err := t.AddErase(id, e); err != nil {
			return e, err
		}
	}
	return e, nil
}

// AddErase adds an erase element for an installed package. dependsOn, when
// set, is the install element replacing it.
func (t *Transaction) AddErase(instance uint32, dependsOn *te.Element) (*te.Element, error) {
	h, err := t.DBHeader(instance)
	if err != nil {
		return nil, err
	}
	defer h.Free()

	e, err := te.New(t, h, types.Removed, "", nil)
	if err != nil {
		return nil, err
	}
	e.SetDependsOn(dependsOn)
	t.elements = append(t.elements, e)
	log.Debug().Str("nevra", e.NEVRA()).Uint32("instance", instance).Msg("Added erase element")
	return e, nil
}

// Problems returns the problems of every element merged in element
// order, nil when there are none. The caller must Free the set.
func (t *Transaction) Problems() *problems.Set {
	var out *problems.Set
	for _, e := range t.elements {
		p := e.Problems()
		if p == nil {
			continue
		}
		if out == nil {
			out = problems.NewSet()
		}
		out.Merge(p)
		p.Free()
	}
	return out
}

// Free releases every element. The database stays open.
func (t *Transaction) Free() *Transaction {
	if t == nil {
		return nil
	}
	for _, e := range t.elements {
		e.Free()
	}
	t.elements = nil
	t.refs--
	return nil
}
