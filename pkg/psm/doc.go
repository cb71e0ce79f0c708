// Package psm is the package state machine: it carries out the install,
// erase and transaction scriptlet stages of an opened element against the
// root filesystem and the package database.
//
// Scriptlets run in an embedded POSIX shell (mvdan.cc/sh). Redirections
// and file tests inside a scriptlet resolve against the transaction root,
// so scripts see the same tree the payload is unpacked into. External
// commands are only available when the root is the host filesystem.
package psm
