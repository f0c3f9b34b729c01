package evidence

import (
	"fmt"
	"sort"
)

// Merge folds all history fragments for one patient into a single profile.
//
// Combining rule, order-independent by construction:
//   - scan-history entries concatenate in fragment RecordedAt order
//   - demographics come from the fragment with the latest RecordedAt
//   - risk factors union as a set, sorted
//   - previous-scan count is the maximum across fragments, which guards
//     against undercounting when fragments were written out of order
//
// Identical fragment sets always merge to the identical profile regardless of
// fetch order. Returns nil for an empty fragment set.
func Merge(fragments []*HistoryFragment) *Profile {
	if len(fragments) == 0 {
		return nil
	}

	ordered := make([]*HistoryFragment, len(fragments))
	copy(ordered, fragments)
	// Stores truncate RecordedAt to whole seconds, so fragments written in
	// the same second collide. Equal timestamps fall back to a content key
	// so the ordering never depends on fetch order.
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].RecordedAt.Equal(ordered[j].RecordedAt) {
			return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
		}
		return fragmentKey(ordered[i]) < fragmentKey(ordered[j])
	})

	p := &Profile{PatientIdentifier: ordered[0].PatientIdentifier}
	seen := make(map[string]bool)

	for _, f := range ordered {
		p.ScanHistory = append(p.ScanHistory, f.ScanHistory...)

		// Later fragments win on demographics; zero values never overwrite.
		if f.Age > 0 {
			p.Age = f.Age
		}
		if f.Gender != "" {
			p.Gender = f.Gender
		}

		for _, r := range f.RiskFactors {
			if r != "" {
				seen[r] = true
			}
		}

		if f.PreviousScans > p.PreviousScans {
			p.PreviousScans = f.PreviousScans
		}
	}

	for r := range seen {
		p.RiskFactors = append(p.RiskFactors, r)
	}
	sort.Strings(p.RiskFactors)

	return p
}

// fragmentKey is a deterministic total order over a fragment's content, used
// only to break RecordedAt ties.
func fragmentKey(f *HistoryFragment) string {
	return fmt.Sprintf("%d|%s|%v|%v|%d", f.Age, f.Gender, f.RiskFactors, f.ScanHistory, f.PreviousScans)
}
