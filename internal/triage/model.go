package triage

import (
	"github.com/linnemanlabs/vital/internal/evidence"
	"github.com/linnemanlabs/vital/internal/scan"
)

// Provenance records whether an assessment came from the reasoning service
// or the deterministic fallback scorer.
type Provenance string

const (
	// ProvenanceReasoned means the external reasoning service produced the
	// assessment with full retrieval context.
	ProvenanceReasoned Provenance = "reasoned"

	// ProvenanceFallback means the rule-based scorer produced the assessment
	// because reasoning was unavailable or returned an invalid response.
	ProvenanceFallback Provenance = "fallback"
)

// Action is the recommended next step for a scan.
type Action string

const (
	ActionImmediate Action = "immediate"
	ActionUrgent    Action = "urgent"
	ActionRoutine   Action = "routine"
)

// Confidence buckets for an assessment, as a coarse percentage score.
const (
	ConfidenceHigh   = 90
	ConfidenceMedium = 70
	ConfidenceLow    = 50
)

// Urgency bounds for any assessment.
const (
	MinUrgency = 1
	MaxUrgency = 10
)

// Assessment is the outcome of triaging one scan. Urgency is always within
// [MinUrgency, MaxUrgency] whatever path produced it.
type Assessment struct {
	Urgency           int        `json:"urgency"`
	Reasoning         string     `json:"reasoning"`
	RecommendedAction Action     `json:"recommended_action"`
	RiskFactors       []string   `json:"risk_factors,omitempty"`
	Confidence        int        `json:"confidence_score"`
	Provenance        Provenance `json:"provenance"`
	CasesUsed         int        `json:"cases_used"`
	HistoryFound      bool       `json:"history_found"`
}

// EvidencePackage is the bounded context handed to the reasoner: the current
// findings plus whatever retrieval produced. Missing retrieval results shrink
// the package; it is never empty when findings are present.
type EvidencePackage struct {
	Findings     []scan.Finding
	Cases        []*evidence.CaseRecord
	Profile      *evidence.Profile
	FacilityName string
	QueueLength  int
}
