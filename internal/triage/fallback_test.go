package triage

import (
	"reflect"
	"testing"

	"github.com/linnemanlabs/vital/internal/scan"
)

func TestFallbackScore_NoFindings(t *testing.T) {
	t.Parallel()

	as := FallbackScore(nil)

	if as.Urgency != noFindingsUrgency {
		t.Errorf("urgency = %d, want %d", as.Urgency, noFindingsUrgency)
	}
	if as.RecommendedAction != ActionRoutine {
		t.Errorf("action = %s, want %s", as.RecommendedAction, ActionRoutine)
	}
	if as.Provenance != ProvenanceFallback {
		t.Errorf("provenance = %s, want %s", as.Provenance, ProvenanceFallback)
	}
	if len(as.RiskFactors) != 0 {
		t.Errorf("risk factors = %v, want none", as.RiskFactors)
	}
}

func TestFallbackScore_TakesMaxSeverity(t *testing.T) {
	t.Parallel()

	as := FallbackScore([]scan.Finding{
		{Condition: "Atelectasis", Confidence: 0.95},
		{Condition: "Pneumothorax", Confidence: 0.42},
		{Condition: "Nodule", Confidence: 0.80},
	})

	if as.Urgency != 10 {
		t.Errorf("urgency = %d, want 10 (pneumothorax dominates)", as.Urgency)
	}
	if as.RecommendedAction != ActionImmediate {
		t.Errorf("action = %s, want %s", as.RecommendedAction, ActionImmediate)
	}
	if as.Confidence != ConfidenceMedium {
		t.Errorf("confidence = %d, want %d", as.Confidence, ConfidenceMedium)
	}
}

func TestFallbackScore_UnknownCondition(t *testing.T) {
	t.Parallel()

	as := FallbackScore([]scan.Finding{{Condition: "Support Devices", Confidence: 0.7}})

	if as.Urgency != defaultConditionWeight {
		t.Errorf("urgency = %d, want default %d", as.Urgency, defaultConditionWeight)
	}
}

func TestFallbackScore_Deterministic(t *testing.T) {
	t.Parallel()

	findings := []scan.Finding{
		{Condition: "Effusion", Confidence: 0.6},
		{Condition: "Cardiomegaly", Confidence: 0.7},
	}

	first := FallbackScore(findings)
	for i := 0; i < 10; i++ {
		if got := FallbackScore(findings); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed: %+v vs %+v", i, got, first)
		}
	}
}

func TestFallbackScore_SeverityTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		condition string
		want      int
	}{
		{"Pneumothorax", 10},
		{"Edema", 8},
		{"Effusion", 7},
		{"Pleural_Effusion", 7},
		{"Pneumonia", 6},
		{"Infiltration", 6},
		{"Consolidation", 6},
		{"Lung Opacity", 6},
		{"Mass", 5},
		{"Cardiomegaly", 4},
		{"Nodule", 4},
		{"Atelectasis", 3},
	}
	for _, tc := range cases {
		as := FallbackScore([]scan.Finding{{Condition: tc.condition, Confidence: 0.9}})
		if as.Urgency != tc.want {
			t.Errorf("%s: urgency = %d, want %d", tc.condition, as.Urgency, tc.want)
		}
	}
}
