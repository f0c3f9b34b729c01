// Package evidence defines the retrieval store consumed by triage: historical
// case records searched by keyword relevance, and per-patient history
// fragments merged on demand into a single profile.
package evidence

import "time"

// CaseRecord is one summarized historical study used as retrieval evidence
// for new scans with similar findings. Records are append-only; duplicates
// from retried writes are acceptable and simply reinforce a pattern.
type CaseRecord struct {
	CaseID        string    `json:"case_id"`
	Conditions    []string  `json:"conditions"`
	Urgency       int       `json:"urgency"`
	Outcome       string    `json:"outcome"`
	ClinicalNotes string    `json:"clinical_notes,omitempty"`
	Content       string    `json:"content"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// HistoryFragment is one snapshot of a patient's demographics and history
// contributed by a single scan. Fragments are never updated in place; the
// patient's history is reconstructed by merging all fragments on retrieval.
type HistoryFragment struct {
	PatientIdentifier string     `json:"patient_id"`
	Age               int        `json:"age,omitempty"`
	Gender            string     `json:"gender,omitempty"`
	RiskFactors       []string   `json:"risk_factors,omitempty"`
	ScanHistory       []ScanNote `json:"scan_history,omitempty"`
	PreviousScans     int        `json:"previous_scans"`
	RecordedAt        time.Time  `json:"recorded_at"`
}

// ScanNote is one scan-history entry inside a fragment.
type ScanNote struct {
	Conditions        []string `json:"conditions"`
	Urgency           int      `json:"urgency"`
	RecommendedAction string   `json:"recommended_action,omitempty"`
}

// Profile is the merged view of all history fragments for one patient.
// Ephemeral: derived on demand, never persisted.
type Profile struct {
	PatientIdentifier string     `json:"patient_id"`
	Age               int        `json:"age,omitempty"`
	Gender            string     `json:"gender,omitempty"`
	RiskFactors       []string   `json:"risk_factors,omitempty"`
	ScanHistory       []ScanNote `json:"scan_history,omitempty"`
	PreviousScans     int        `json:"previous_scans"`
}

// Counts reports per-collection totals for the store.
type Counts struct {
	Cases     int `json:"cases"`
	Fragments int `json:"fragments"`
}
