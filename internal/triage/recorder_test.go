package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/vital/internal/scan"
)

func TestRecorder_WritesCaseAndFragment(t *testing.T) {
	t.Parallel()

	store := newMockEvidenceStore()
	rec := NewRecorder(store, log.Nop(), nil)

	sc := &scan.Scan{
		ID:                "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		PatientIdentifier: "PAT-1",
		Findings: []scan.Finding{
			{Condition: "Pneumothorax", Confidence: 0.9},
			{Condition: "Effusion", Confidence: 0.5},
		},
	}
	pat := &scan.Patient{Identifier: "PAT-1", Age: 71, Gender: "F", TotalScans: 4}
	as := &Assessment{
		Urgency:           9,
		Reasoning:         "Tension physiology suspected.",
		RecommendedAction: ActionImmediate,
		RiskFactors:       []string{"pneumothorax"},
	}

	rec.Record(context.Background(), sc, pat, as)

	if len(store.appendedCases) != 1 {
		t.Fatalf("cases written = %d, want 1", len(store.appendedCases))
	}
	c := store.appendedCases[0]
	if c.CaseID != "scan-"+sc.ID {
		t.Errorf("case id = %q", c.CaseID)
	}
	if c.Urgency != 9 || c.Outcome != "immediate" {
		t.Errorf("case = %+v", c)
	}
	if len(c.Conditions) != 2 {
		t.Errorf("conditions = %v", c.Conditions)
	}
	if c.Content == "" {
		t.Errorf("content must be populated for keyword search")
	}

	if len(store.appendedFragments) != 1 {
		t.Fatalf("fragments written = %d, want 1", len(store.appendedFragments))
	}
	f := store.appendedFragments[0]
	if f.PatientIdentifier != "PAT-1" || f.Age != 71 || f.Gender != "F" {
		t.Errorf("fragment = %+v", f)
	}
	if f.PreviousScans != 4 {
		t.Errorf("previous scans = %d, want 4", f.PreviousScans)
	}
	if len(f.ScanHistory) != 1 || f.ScanHistory[0].Urgency != 9 {
		t.Errorf("scan history = %+v", f.ScanHistory)
	}
	if f.RecordedAt.IsZero() || time.Since(f.RecordedAt) > time.Minute {
		t.Errorf("recorded at = %v", f.RecordedAt)
	}
}

func TestRecorder_AnonymousScanSkipsFragment(t *testing.T) {
	t.Parallel()

	store := newMockEvidenceStore()
	rec := NewRecorder(store, log.Nop(), nil)

	rec.Record(context.Background(), &scan.Scan{ID: "x"}, nil, &Assessment{
		Urgency: 1, Reasoning: "clear", RecommendedAction: ActionRoutine,
	})

	if len(store.appendedCases) != 1 {
		t.Errorf("cases written = %d, want 1", len(store.appendedCases))
	}
	if len(store.appendedFragments) != 0 {
		t.Errorf("fragments written = %d, want 0", len(store.appendedFragments))
	}
}

func TestRecorder_StoreFailureIsAbsorbed(t *testing.T) {
	t.Parallel()

	store := newMockEvidenceStore()
	store.appendErr = errors.New("store down")
	rec := NewRecorder(store, log.Nop(), nil)

	// must not panic or propagate
	rec.Record(context.Background(), &scan.Scan{ID: "x", PatientIdentifier: "PAT-1"}, nil, &Assessment{
		Urgency: 5, Reasoning: "r", RecommendedAction: ActionRoutine,
	})
}

func TestRecorder_NilStoreIsNoop(t *testing.T) {
	t.Parallel()

	rec := NewRecorder(nil, log.Nop(), nil)
	rec.Record(context.Background(), &scan.Scan{ID: "x"}, nil, &Assessment{})
}
