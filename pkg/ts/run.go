package ts

import (
	"context"

	"github.com/mkulik-rh/rpm/pkg/logging"
	"github.com/mkulik-rh/rpm/pkg/te"
	"github.com/mkulik-rh/rpm/pkg/types"
)

// assignCollections decides where collection hooks fire: post add at the
// last install element of a collection, post any at its last element and
// pre remove at its first erase element, in processing order.
func (t *Transaction) assignCollections() {
	lastAdd := make(map[string]*te.Element)
	lastAny := make(map[string]*te.Element)
	firstRemove := make(map[string]*te.Element)
	var order []string

	for _, e := range t.processingOrder() {
		for _, name := range e.Collections() {
			if _, seen := lastAny[name]; !seen {
				order = append(order, name)
			}
			lastAny[name] = e
			switch e.Type() {
			case types.Added:
				lastAdd[name] = e
			case types.Removed:
				if _, ok := firstRemove[name]; !ok {
					firstRemove[name] = e
				}
			}
		}
	}

	for _, name := range order {
		if e, ok := lastAdd[name]; ok {
			e.AddToLastInCollectionAdd(name)
		}
		lastAny[name].AddToLastInCollectionAny(name)
		if e, ok := firstRemove[name]; ok {
			e.AddToFirstInCollectionRemove(name)
		}
	}
}

func (t *Transaction) notifyOnly(e *te.Element, what types.CallbackType) {
	if rc := t.Notify(e, what, 0, 0); rc != nil {
		_ = rc.Close()
	}
}

// Run processes every element: the pre transaction scriptlets, then
// installs and erases, then the post transaction scriptlets. Elements
// already marked failed are skipped. Run returns the number of failed
// elements; the error is only set when the context is cancelled.
func (t *Transaction) Run(ctx context.Context) (int, error) {
	t.assignCollections()

	added := t.Elements(types.Added)
	removed := t.Elements(types.Removed)
	logger := logging.ForTransaction("ts", t.flags, len(added), len(removed))
	logger.Info().Msg("Running transaction")

	for _, e := range added {
		if err := e.Process(ctx, types.GoalPreTrans); err != nil {
			log.Warn().Err(err).Str("nevra", e.NEVRA()).Msg("Pre-transaction scriptlet failed")
		}
	}

	for _, e := range t.processingOrder() {
		if err := ctx.Err(); err != nil {
			return t.failures(), err
		}
		if e.Failed() > 0 {
			log.Info().Str("nevra", e.NEVRA()).Msg("Skipping failed element")
			continue
		}

		goal := types.GoalInstall
		start, stop := types.CallbackInstStart, types.CallbackType(0)
		if e.Type() == types.Removed {
			goal = types.GoalErase
			start, stop = types.CallbackUninstStart, types.CallbackUninstStop
		}

		t.notifyOnly(e, start)
		if err := e.Process(ctx, goal); err != nil {
			log.Error().Err(err).Str("nevra", e.NEVRA()).Stringer("goal", goal).Msg("Element failed")
		}
		if stop != 0 {
			t.notifyOnly(e, stop)
		}
	}

	for _, e := range added {
		if e.Failed() > 0 {
			continue
		}
		if err := e.Process(ctx, types.GoalPostTrans); err != nil {
			log.Warn().Err(err).Str("nevra", e.NEVRA()).Msg("Post-transaction scriptlet failed")
		}
	}

	failed := t.failures()
	logger.Info().Int("failed", failed).Msg("Transaction finished")
	return failed, nil
}

func (t *Transaction) failures() int {
	n := 0
	for _, e := range t.elements {
		if e.Failed() > 0 {
			n++
		}
	}
	return n
}
