package triage

import (
	"strings"
	"testing"

	"github.com/linnemanlabs/vital/internal/evidence"
	"github.com/linnemanlabs/vital/internal/scan"
)

func TestBuildUserPrompt_FullPackage(t *testing.T) {
	t.Parallel()

	pkg := &EvidencePackage{
		Findings: []scan.Finding{
			{Condition: "Pneumothorax", Confidence: 0.91},
			{Condition: "Effusion", Confidence: 0.55},
		},
		Cases: []*evidence.CaseRecord{
			{Conditions: []string{"Pneumothorax"}, Urgency: 10, Outcome: "immediate", ClinicalNotes: "Needle decompression performed."},
		},
		Profile: &evidence.Profile{
			Age:         67,
			Gender:      "M",
			RiskFactors: []string{"COPD", "smoker"},
			ScanHistory: []evidence.ScanNote{
				{Conditions: []string{"Atelectasis"}, Urgency: 3, RecommendedAction: "routine"},
			},
		},
		FacilityName: "Rural General",
		QueueLength:  4,
	}

	prompt := buildUserPrompt(pkg)

	for _, want := range []string{
		"Pneumothorax: 0.91 confidence",
		"Effusion: 0.55 confidence",
		"Facility: Rural General",
		"Current queue: 4 scans waiting",
		"HISTORICAL CASES WITH SIMILAR FINDINGS",
		"Needle decompression performed.",
		"PATIENT RISK PROFILE",
		"COPD, smoker",
		"Atelectasis (urgency 3, routine)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}
	if !strings.HasSuffix(prompt, "JSON response:") {
		t.Errorf("prompt does not end with JSON cue")
	}
}

func TestBuildUserPrompt_EmptyFindingsAndNewPatient(t *testing.T) {
	t.Parallel()

	prompt := buildUserPrompt(&EvidencePackage{FacilityName: "Clinic A"})

	if !strings.Contains(prompt, "appears normal") {
		t.Errorf("prompt missing normal-appearance line")
	}
	if !strings.Contains(prompt, "New patient, no previous history available.") {
		t.Errorf("prompt missing new-patient line")
	}
	if strings.Contains(prompt, "HISTORICAL CASES") {
		t.Errorf("prompt should omit historical cases section when none retrieved")
	}
}

func TestBuildUserPrompt_CapsHistoryEntries(t *testing.T) {
	t.Parallel()

	var notes []evidence.ScanNote
	for i := 0; i < 6; i++ {
		notes = append(notes, evidence.ScanNote{Conditions: []string{"Nodule"}, Urgency: 4, RecommendedAction: "routine"})
	}
	prompt := buildUserPrompt(&EvidencePackage{
		Profile: &evidence.Profile{ScanHistory: notes},
	})

	if got := strings.Count(prompt, "Nodule (urgency 4"); got != maxHistoryEntries {
		t.Errorf("history entries rendered = %d, want %d", got, maxHistoryEntries)
	}
	if !strings.Contains(prompt, "Previous scans (6 total)") {
		t.Errorf("prompt should state total scan count")
	}
}

func TestBuildSystemPrompt_DemandsJSON(t *testing.T) {
	t.Parallel()

	sys := buildSystemPrompt()
	for _, want := range []string{`"urgency"`, `"recommended_action"`, "1-10", "ONLY with valid JSON"} {
		if !strings.Contains(sys, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}
