package fi

// State is the action planned for one file
type State int

const (
	StateCreate State = iota
	StateSkip
)

func (s State) String() string {
	switch s {
	case StateCreate:
		return "create"
	case StateSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// States holds one planned action per manifest entry
type States []State

// NewStates returns n entries set to StateCreate
func NewStates(n int) States {
	return make(States, n)
}

// Get returns the state of file i, StateCreate when out of range
func (s States) Get(i int) State {
	if i < 0 || i >= len(s) {
		return StateCreate
	}
	return s[i]
}

// Set changes the state of file i, ignoring out of range indices
func (s States) Set(i int, st State) {
	if i >= 0 && i < len(s) {
		s[i] = st
	}
}
