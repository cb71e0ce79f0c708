// Package te implements transaction elements: one package being installed
// or erased within a transaction.
//
// An element is built from a header, colors its dependency sets from the
// file manifest and validates requested relocations. During the run the
// transaction calls Process once per stage; Process opens the package,
// runs collection hooks, hands the element to the execution engine and
// closes it again. A failed install marks the erase elements paired with
// it as failed too.
package te
