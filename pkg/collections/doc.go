// Package collections dispatches collection hooks. A collection names a
// handler module through the __collection_<name> macro; the module exports
// a capability bitmask and one entry point per supported hook. Modules are
// loaded for a single hook call and released right after it.
package collections
