package collections

import (
	"strings"

	"github.com/mkulik-rh/rpm/pkg/types"
)

// Hook is a collection hook point. Modules advertise the hooks they
// implement as a bitmask.
type Hook uint32

const (
	HookPostAdd   Hook = 1 << 0
	HookPostAny   Hook = 1 << 1
	HookPreRemove Hook = 1 << 2
)

// Well known module symbols
const (
	SymbolHooks     = "CollectionHooks"
	SymbolPostAdd   = "CollHookPostAdd"
	SymbolPostAny   = "CollHookPostAny"
	SymbolPreRemove = "CollHookPreRemove"
)

// Symbol returns the entry point symbol of the hook, "" for combined masks
func (h Hook) Symbol() string {
	switch h {
	case HookPostAdd:
		return SymbolPostAdd
	case HookPostAny:
		return SymbolPostAny
	case HookPreRemove:
		return SymbolPreRemove
	default:
		return ""
	}
}

func (h Hook) String() string {
	var names []string
	for _, hk := range []struct {
		bit  Hook
		name string
	}{
		{HookPostAdd, "post_add"},
		{HookPostAny, "post_any"},
		{HookPreRemove, "pre_remove"},
	} {
		if h&hk.bit != 0 {
			names = append(names, hk.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Transaction is what a hook entry point sees of the running transaction
type Transaction interface {
	Flags() types.TransFlags
}

// HookFunc is the signature of a hook entry point
type HookFunc func(ts Transaction, collection, options string) error

// Module is a loaded handler module
type Module interface {
	Lookup(symbol string) (interface{}, error)
	Close() error
}

// Loader opens handler modules by path
type Loader interface {
	Open(path string) (Module, error)
}

// Expander expands configuration macros
type Expander interface {
	Expand(s string) (string, error)
}
