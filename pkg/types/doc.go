// Package types holds the small value types shared by the transaction
// element engine: element dispositions, lifecycle goals, transaction flags,
// notification events and package read outcomes.
package types
