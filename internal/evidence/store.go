package evidence

import (
	"context"
	"errors"
)

// ErrUnavailable signals that the evidence store could not be reached.
// Callers treat it as a soft condition: triage proceeds with a thinner
// context instead of failing.
var ErrUnavailable = errors.New("evidence store unavailable")

// Store is the persistence interface for case records and history fragments.
// Both collections are append-only; concurrent writers need no coordination
// because records are independent and never updated in place.
type Store interface {
	// Search returns the case records most relevant to the query terms,
	// ranked by keyword overlap, at most limit results.
	Search(ctx context.Context, terms []string, limit int) ([]*CaseRecord, error)

	// FetchFragments returns up to limit history fragments for the patient
	// identifier. Zero fragments is a normal outcome for unseen patients.
	FetchFragments(ctx context.Context, patientID string, limit int) ([]*HistoryFragment, error)

	AppendCase(ctx context.Context, c *CaseRecord) error
	AppendFragment(ctx context.Context, f *HistoryFragment) error

	Count(ctx context.Context) (*Counts, error)
}
