package scan

import "sort"

// Rank orders pending scans for presentation: highest urgency first, and
// among equal urgency the longest-waiting scan first. The sort is stable so
// equal keys keep their input order. Pure, no I/O.
func Rank(scans []*Scan) []*Scan {
	out := make([]*Scan, len(scans))
	copy(out, scans)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Urgency != out[j].Urgency {
			return out[i].Urgency > out[j].Urgency
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
