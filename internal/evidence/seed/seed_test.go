package seed

import (
	"context"
	"testing"

	"github.com/linnemanlabs/vital/internal/evidence"
	"github.com/linnemanlabs/vital/internal/evidence/memstore"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	cases, fragments, err := Load(context.Background(), store)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cases != len(Cases()) {
		t.Errorf("cases loaded = %d, want %d", cases, len(Cases()))
	}
	if fragments != len(Fragments()) {
		t.Errorf("fragments loaded = %d, want %d", fragments, len(Fragments()))
	}

	counts, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if counts.Cases != cases || counts.Fragments != fragments {
		t.Errorf("store counts = %+v", counts)
	}

	// seeded cases must be retrievable by condition keyword
	hits, err := store.Search(context.Background(), []string{"Pneumothorax"}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("pneumothorax hits = %d, want 3", len(hits))
	}
}

func TestCases_WellFormed(t *testing.T) {
	t.Parallel()

	ids := make(map[string]bool)
	for _, c := range Cases() {
		if c.CaseID == "" {
			t.Error("case with empty ID")
		}
		if ids[c.CaseID] {
			t.Errorf("duplicate case ID %s", c.CaseID)
		}
		ids[c.CaseID] = true
		if c.Urgency < 1 || c.Urgency > 10 {
			t.Errorf("%s: urgency %d out of range", c.CaseID, c.Urgency)
		}
		if c.Content == "" {
			t.Errorf("%s: empty content", c.CaseID)
		}
		if c.Outcome == "" {
			t.Errorf("%s: empty outcome", c.CaseID)
		}
		if c.RecordedAt.IsZero() {
			t.Errorf("%s: zero timestamp", c.CaseID)
		}
	}
}

func TestFragments_MergeCleanly(t *testing.T) {
	t.Parallel()

	byPatient := make(map[string][]*evidence.HistoryFragment)
	for _, f := range Fragments() {
		if f.PatientIdentifier == "" {
			t.Fatal("fragment with empty patient identifier")
		}
		byPatient[f.PatientIdentifier] = append(byPatient[f.PatientIdentifier], f)
	}

	copd := evidence.Merge(byPatient["PAT-COPD-001"])
	if copd == nil {
		t.Fatal("no profile for PAT-COPD-001")
	}
	if copd.PreviousScans != 2 {
		t.Errorf("previous scans = %d, want 2", copd.PreviousScans)
	}
	if len(copd.RiskFactors) != 3 {
		t.Errorf("risk factors = %v, want union of 3", copd.RiskFactors)
	}
	if len(copd.ScanHistory) != 2 {
		t.Errorf("scan history = %d entries, want 2", len(copd.ScanHistory))
	}
}
