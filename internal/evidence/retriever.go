package evidence

import (
	"context"
	"time"
)

const (
	// DefaultFragmentLimit bounds how many fragments one merge will fetch.
	DefaultFragmentLimit = 100

	defaultTimeout = 3 * time.Second
)

// Retriever performs bounded, read-only lookups against the evidence store.
// Store failures are absorbed: callers get empty results plus ErrUnavailable
// so they can degrade instead of aborting.
type Retriever struct {
	store   Store
	timeout time.Duration
}

// NewRetriever wraps a store with per-call timeouts. A non-positive timeout
// falls back to the default.
func NewRetriever(store Store, timeout time.Duration) *Retriever {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Retriever{store: store, timeout: timeout}
}

// SimilarCases returns up to limit historical cases relevant to the given
// condition names. An empty condition set returns no cases and no error.
// Store failures return (nil, ErrUnavailable).
func (r *Retriever) SimilarCases(ctx context.Context, conditions []string, limit int) ([]*CaseRecord, error) {
	terms := make([]string, 0, len(conditions))
	for _, c := range conditions {
		if c != "" {
			terms = append(terms, c)
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cases, err := r.store.Search(ctx, terms, limit)
	if err != nil {
		return nil, ErrUnavailable
	}
	return cases, nil
}

// PatientProfile fetches all history fragments for the identifier and merges
// them. Returns (nil, nil) for unseen patients and (nil, ErrUnavailable) when
// the store cannot be reached.
func (r *Retriever) PatientProfile(ctx context.Context, patientID string) (*Profile, error) {
	if patientID == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fragments, err := r.store.FetchFragments(ctx, patientID, DefaultFragmentLimit)
	if err != nil {
		return nil, ErrUnavailable
	}
	return Merge(fragments), nil
}
