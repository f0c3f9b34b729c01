package scan

import (
	"testing"
	"time"
)

func TestRank_UrgencyDescThenOldestFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	scans := []*Scan{
		{ID: "a", Urgency: 4, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "b", Urgency: 9, CreatedAt: base.Add(5 * time.Minute)},
		{ID: "c", Urgency: 4, CreatedAt: base},
		{ID: "d", Urgency: 7, CreatedAt: base.Add(time.Minute)},
	}

	got := Rank(scans)

	want := []string{"b", "d", "c", "a"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("rank[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	scans := []*Scan{
		{ID: "low", Urgency: 1},
		{ID: "high", Urgency: 10},
	}
	Rank(scans)

	if scans[0].ID != "low" || scans[1].ID != "high" {
		t.Errorf("input reordered: %s, %s", scans[0].ID, scans[1].ID)
	}
}

func TestRank_Empty(t *testing.T) {
	t.Parallel()

	if got := Rank(nil); len(got) != 0 {
		t.Errorf("Rank(nil) = %v", got)
	}
}

func TestValidTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusReviewed, true},
		{StatusReviewed, StatusPending, false},
		{StatusReviewed, StatusReviewed, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		if got := ValidTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("ValidTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestUrgencyBand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		urgency int
		want    string
	}{
		{10, "critical"},
		{8, "critical"},
		{7, "urgent"},
		{4, "urgent"},
		{3, "routine"},
		{1, "routine"},
	}
	for _, tc := range cases {
		if got := UrgencyBand(tc.urgency); got != tc.want {
			t.Errorf("UrgencyBand(%d) = %s, want %s", tc.urgency, got, tc.want)
		}
	}
}

func TestConditionNames(t *testing.T) {
	t.Parallel()

	s := &Scan{Findings: []Finding{
		{Condition: "Mass", Confidence: 0.5},
		{Condition: "Nodule", Confidence: 0.4},
	}}
	names := s.ConditionNames()
	if len(names) != 2 || names[0] != "Mass" || names[1] != "Nodule" {
		t.Errorf("ConditionNames() = %v", names)
	}

	if names := (&Scan{}).ConditionNames(); names != nil {
		t.Errorf("ConditionNames() on empty scan = %v, want nil", names)
	}
}
