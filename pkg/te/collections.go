package te

import (
	"github.com/mkulik-rh/rpm/pkg/collections"
)

// Collections returns the collections the package belongs to
func (e *Element) Collections() []string { return e.collections }

// AddToLastInCollectionAdd makes the element fire the post add hook of
// collection: it is the last install element in it.
func (e *Element) AddToLastInCollectionAdd(collection string) {
	e.lastInCollectionAdd = append(e.lastInCollectionAdd, collection)
}

// AddToLastInCollectionAny makes the element fire the post any hook
func (e *Element) AddToLastInCollectionAny(collection string) {
	e.lastInCollectionAny = append(e.lastInCollectionAny, collection)
}

// AddToFirstInCollectionRemove makes the element fire the pre remove hook
func (e *Element) AddToFirstInCollectionRemove(collection string) {
	e.firstInCollectionRem = append(e.firstInCollectionRem, collection)
}

// CollectionsFor returns the collections whose hook fires at this element
func (e *Element) CollectionsFor(hook collections.Hook) []string {
	switch hook {
	case collections.HookPostAdd:
		return e.lastInCollectionAdd
	case collections.HookPostAny:
		return e.lastInCollectionAny
	case collections.HookPreRemove:
		return e.firstInCollectionRem
	default:
		return nil
	}
}

// runAllCollections runs one hook for every collection registered at it.
// Failures are logged by the dispatcher and never fail the element.
func (e *Element) runAllCollections(hook collections.Hook) {
	names := e.CollectionsFor(hook)
	if len(names) == 0 || e.ts == nil {
		return
	}
	d := e.ts.Collections()
	if d == nil {
		return
	}
	if err := d.RunAll(e.ts, names, hook); err != nil {
		log.Debug().Err(err).Str("nevra", e.nevra).Stringer("hook", hook).Msg("Collection hooks reported failures")
	}
}
