package te

import (
	"github.com/mkulik-rh/rpm/pkg/ds"
	"github.com/mkulik-rh/rpm/pkg/problems"
)

func (e *Element) appendProblem(kind problems.Kind, key, alt, detail string, number uint64) {
	p := problems.Problem{
		Kind:   kind,
		Pkg:    e.nevra,
		Key:    key,
		Alt:    alt,
		Detail: detail,
		Number: number,
	}
	if e.probs == nil {
		e.probs = problems.NewSet()
	}
	if e.probs.Append(p) {
		log.Debug().Str("nevra", e.nevra).Stringer("kind", kind).Str("detail", detail).Msg("Recorded problem")
	}
}

// AddProblem records a problem against the element unless an identical
// one is already recorded.
func (e *Element) AddProblem(kind problems.Kind, alt, detail string, number uint64) {
	if e == nil {
		return
	}
	e.appendProblem(kind, e.key, alt, detail, number)
}

// AddDepProblem records a dependency problem for entry i of set. The kind
// follows the class letter of the entry, the detail is the entry without
// it and the number is the database instance of the set. The key is the
// first suggested package, if any.
func (e *Element) AddDepProblem(alt string, set *ds.Set, i int, suggested []string) {
	if e == nil {
		return
	}
	dnevr := set.DNEVR(i)

	var kind problems.Kind
	switch dnevr[0] {
	case byte(ds.KindObsoletes):
		kind = problems.Obsoletes
	case byte(ds.KindConflicts):
		kind = problems.Conflict
	default:
		kind = problems.Requires
	}

	key := ""
	if len(suggested) > 0 {
		key = suggested[0]
	}
	e.appendProblem(kind, key, alt, dnevr[2:], uint64(set.Instance()))
}

// Problems returns a new reference to the problem set, nil when nothing
// was recorded. The caller must Free it.
func (e *Element) Problems() *problems.Set {
	if e == nil || e.probs == nil {
		return nil
	}
	return e.probs.Link()
}

// CleanProblems discards the recorded problems
func (e *Element) CleanProblems() {
	if e != nil && e.probs != nil {
		e.probs = e.probs.Free()
	}
}
