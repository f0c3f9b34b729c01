// Package memstore provides an in-memory implementation of evidence.Store.
// Suitable for dev and testing; search uses the same term-overlap ranking
// contract as the Typesense backend.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/linnemanlabs/vital/internal/evidence"
)

// Store holds case records and history fragments in memory.
type Store struct {
	mu        sync.RWMutex
	cases     []*evidence.CaseRecord
	fragments map[string][]*evidence.HistoryFragment // patient identifier -> fragments
}

// New initializes an empty in-memory Store.
func New() *Store {
	return &Store{fragments: make(map[string][]*evidence.HistoryFragment)}
}

// Search ranks cases by how many query terms appear in their searchable
// content, most-recent first among equal scores. Zero-overlap cases are
// excluded.
func (s *Store) Search(_ context.Context, terms []string, limit int) ([]*evidence.CaseRecord, error) {
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		rec   *evidence.CaseRecord
		score int
	}

	var hits []scored
	for _, c := range s.cases {
		score := termOverlap(c.Content, terms)
		if score > 0 {
			hits = append(hits, scored{rec: c, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].rec.RecordedAt.After(hits[j].rec.RecordedAt)
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]*evidence.CaseRecord, 0, len(hits))
	for _, h := range hits {
		cp := *h.rec
		out = append(out, &cp)
	}
	return out, nil
}

// FetchFragments returns copies of up to limit fragments for the identifier.
func (s *Store) FetchFragments(_ context.Context, patientID string, limit int) ([]*evidence.HistoryFragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frags := s.fragments[patientID]
	if limit > 0 && len(frags) > limit {
		frags = frags[:limit]
	}
	out := make([]*evidence.HistoryFragment, 0, len(frags))
	for _, f := range frags {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

// AppendCase stores a copy of the case record.
func (s *Store) AppendCase(_ context.Context, c *evidence.CaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.cases = append(s.cases, &cp)
	return nil
}

// AppendFragment stores a copy of the history fragment.
func (s *Store) AppendFragment(_ context.Context, f *evidence.HistoryFragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.fragments[f.PatientIdentifier] = append(s.fragments[f.PatientIdentifier], &cp)
	return nil
}

// Count returns totals for both collections.
func (s *Store) Count(_ context.Context) (*evidence.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, frags := range s.fragments {
		n += len(frags)
	}
	return &evidence.Counts{Cases: len(s.cases), Fragments: n}, nil
}

// termOverlap counts how many distinct query terms occur in the content,
// case-insensitively.
func termOverlap(content string, terms []string) int {
	lc := strings.ToLower(content)
	score := 0
	counted := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.ToLower(t)
		if t == "" || counted[t] {
			continue
		}
		counted[t] = true
		if strings.Contains(lc, t) {
			score++
		}
	}
	return score
}
