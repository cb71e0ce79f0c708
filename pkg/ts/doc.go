// Package ts is the transaction set: it owns the elements of one
// transaction, hands them the collaborators they need (package streams,
// the package database, collection handlers, the execution engine) and
// drives them through the transaction stages.
//
// Elements are processed in insertion order, installs before erases.
// There is no dependency ordering.
package ts
