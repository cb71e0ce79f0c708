package te

import (
	"context"
	"io"

	"github.com/mkulik-rh/rpm/pkg/collections"
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/types"
)

// Transaction is the owning transaction as seen by its elements
type Transaction interface {
	// Flags returns the global transaction flags
	Flags() types.TransFlags

	// Notify reports progress for an element. For CallbackInstOpenFile it
	// returns the package file stream, nil when unavailable.
	Notify(e *Element, what types.CallbackType, amount, total uint64) io.ReadCloser

	// ReadPackage reads and verifies a package header from r
	ReadPackage(r io.Reader) (*header.Header, types.RC, error)

	// DBHeader loads an installed header by database instance
	DBHeader(instance uint32) (*header.Header, error)

	// Elements returns the elements matching mask in transaction order
	Elements(mask types.ElementType) []*Element

	// Execute performs the scriptlet or payload work of one stage
	Execute(ctx context.Context, e *Element, goal types.Goal) error

	// Collections returns the hook dispatcher, nil when none is configured
	Collections() *collections.Dispatcher

	Link()
	Unlink()
}
