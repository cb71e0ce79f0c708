package types

// Color is the multilib bitmask attached to files, dependencies and elements.
type Color uint32
