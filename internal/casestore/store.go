// Package casestore holds per-case pipeline state. Each document-review run
// owns one isolated state scope keyed by case id; stages write their output
// under stable keys and later stages read them. The store is swappable: the
// orchestrator never assumes durability beyond the current process lifetime.
package casestore

import "errors"

// ErrNotFound is returned when a case id has no state scope
var ErrNotFound = errors.New("case not found")

// Store is the persistence boundary for case state
type Store interface {
	// Create establishes a fresh state scope for a case. It fails if a
	// scope already exists; callers wanting a fresh run delete first.
	Create(caseID string, initial map[string]any) error

	// Get returns a copy of the case's full state
	Get(caseID string) (map[string]any, error)

	// Set writes one stage output under its key. Overwrites are explicit:
	// callers own the merge policy, the store never merges silently.
	Set(caseID, key string, value any) error

	// Value reads one stage output
	Value(caseID, key string) (any, bool)

	// Delete tears down a case's state scope. Deleting a missing case is a no-op.
	Delete(caseID string) error
}
