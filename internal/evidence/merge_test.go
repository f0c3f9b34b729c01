package evidence

import (
	"reflect"
	"testing"
	"time"
)

func copdFragments() []*HistoryFragment {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	return []*HistoryFragment{
		{
			PatientIdentifier: "PAT-1",
			Age:               66,
			Gender:            "M",
			RiskFactors:       []string{"COPD", "smoker"},
			ScanHistory:       []ScanNote{{Conditions: []string{"Atelectasis"}, Urgency: 3, RecommendedAction: "routine"}},
			PreviousScans:     1,
			RecordedAt:        base,
		},
		{
			PatientIdentifier: "PAT-1",
			Age:               67,
			RiskFactors:       []string{"COPD", "CHF"},
			ScanHistory:       []ScanNote{{Conditions: []string{"Edema"}, Urgency: 8, RecommendedAction: "urgent"}},
			PreviousScans:     2,
			RecordedAt:        base.AddDate(0, 6, 0),
		},
	}
}

func TestMerge_CombinesFragments(t *testing.T) {
	t.Parallel()

	p := Merge(copdFragments())

	if p.PatientIdentifier != "PAT-1" {
		t.Errorf("identifier = %q", p.PatientIdentifier)
	}
	if p.Age != 67 {
		t.Errorf("age = %d, want latest 67", p.Age)
	}
	if p.Gender != "M" {
		t.Errorf("gender = %q, want M carried from earlier fragment", p.Gender)
	}
	if want := []string{"CHF", "COPD", "smoker"}; !reflect.DeepEqual(p.RiskFactors, want) {
		t.Errorf("risk factors = %v, want %v", p.RiskFactors, want)
	}
	if len(p.ScanHistory) != 2 {
		t.Fatalf("scan history = %d entries, want 2", len(p.ScanHistory))
	}
	if p.ScanHistory[0].Urgency != 3 || p.ScanHistory[1].Urgency != 8 {
		t.Errorf("scan history out of timestamp order: %+v", p.ScanHistory)
	}
	if p.PreviousScans != 2 {
		t.Errorf("previous scans = %d, want max 2", p.PreviousScans)
	}
}

func TestMerge_OrderIndependent(t *testing.T) {
	t.Parallel()

	frags := copdFragments()
	forward := Merge([]*HistoryFragment{frags[0], frags[1]})
	reversed := Merge([]*HistoryFragment{frags[1], frags[0]})

	if !reflect.DeepEqual(forward, reversed) {
		t.Errorf("merge depends on input order:\nforward:  %+v\nreversed: %+v", forward, reversed)
	}
}

func TestMerge_OrderIndependentWithEqualTimestamps(t *testing.T) {
	t.Parallel()

	// Stores round RecordedAt to whole seconds, so two fragments written in
	// the same second carry identical timestamps.
	ts := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	a := &HistoryFragment{
		PatientIdentifier: "PAT-4",
		Age:               70,
		Gender:            "F",
		ScanHistory:       []ScanNote{{Conditions: []string{"Effusion"}, Urgency: 7}},
		RecordedAt:        ts,
	}
	b := &HistoryFragment{
		PatientIdentifier: "PAT-4",
		Age:               40,
		Gender:            "M",
		ScanHistory:       []ScanNote{{Conditions: []string{"Nodule"}, Urgency: 4}},
		RecordedAt:        ts,
	}

	forward := Merge([]*HistoryFragment{a, b})
	reversed := Merge([]*HistoryFragment{b, a})

	if !reflect.DeepEqual(forward, reversed) {
		t.Errorf("merge depends on input order for equal timestamps:\nforward:  %+v\nreversed: %+v", forward, reversed)
	}
	if len(forward.ScanHistory) != 2 {
		t.Errorf("scan history = %d entries, want 2", len(forward.ScanHistory))
	}
}

func TestMerge_Empty(t *testing.T) {
	t.Parallel()

	if p := Merge(nil); p != nil {
		t.Errorf("Merge(nil) = %+v, want nil", p)
	}
}

func TestMerge_SingleFragment(t *testing.T) {
	t.Parallel()

	f := &HistoryFragment{
		PatientIdentifier: "PAT-2",
		Age:               45,
		RiskFactors:       []string{"diabetes"},
		PreviousScans:     1,
		RecordedAt:        time.Now(),
	}
	p := Merge([]*HistoryFragment{f})

	if p.Age != 45 || p.PreviousScans != 1 || len(p.RiskFactors) != 1 {
		t.Errorf("profile = %+v", p)
	}
}

func TestMerge_ZeroValuesNeverOverwrite(t *testing.T) {
	t.Parallel()

	base := time.Now()
	p := Merge([]*HistoryFragment{
		{PatientIdentifier: "PAT-3", Age: 52, Gender: "F", RecordedAt: base},
		{PatientIdentifier: "PAT-3", RecordedAt: base.Add(time.Hour)},
	})

	if p.Age != 52 || p.Gender != "F" {
		t.Errorf("later empty fragment erased demographics: %+v", p)
	}
}
