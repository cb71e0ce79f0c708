// Package testutil provides builders for package headers and package
// files and an isolated test environment with a package database.
//
// Usage guidelines:
//   - Most tests should use EnvMemoryOnly: an in-memory root with a
//     database in a temporary directory
//   - EnvIsolated gives a real root under a temporary directory, for
//     tests that need the host filesystem
//   - Define test packages inline with NewHeader
package testutil
