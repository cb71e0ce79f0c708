// Package filesystem provides the root filesystems transactions install
// into and the few helpers the execution engine needs on top of afero.
package filesystem
