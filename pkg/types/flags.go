package types

import "strings"

// TransFlags are the global options a transaction runs with.
type TransFlags uint32

const (
	TransNone TransFlags = 0

	// TransTest runs the transaction without any effect on the system
	TransTest TransFlags = 1 << 0

	// TransJustDB only updates the package database
	TransJustDB TransFlags = 1 << 1

	// TransNoScripts skips all package scriptlets
	TransNoScripts TransFlags = 1 << 2

	// TransNoCollections disables collection plugins
	TransNoCollections TransFlags = 1 << 3
)

// Has reports whether every bit of mask is set
func (f TransFlags) Has(mask TransFlags) bool {
	return f&mask == mask
}

// Any reports whether at least one bit of mask is set
func (f TransFlags) Any(mask TransFlags) bool {
	return f&mask != 0
}

func (f TransFlags) String() string {
	if f == TransNone {
		return "none"
	}
	var names []string
	for _, fl := range []struct {
		bit  TransFlags
		name string
	}{
		{TransTest, "test"},
		{TransJustDB, "justdb"},
		{TransNoScripts, "noscripts"},
		{TransNoCollections, "nocollections"},
	} {
		if f&fl.bit != 0 {
			names = append(names, fl.name)
		}
	}
	return strings.Join(names, "|")
}
