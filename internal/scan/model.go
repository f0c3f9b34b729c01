package scan

import "time"

// Status tracks where a scan is in its review lifecycle.
type Status string

const (
	// StatusPending means triaged and waiting for radiologist review.
	StatusPending Status = "pending"

	// StatusReviewed means a radiologist has signed off on the scan.
	StatusReviewed Status = "reviewed"
)

// ValidTransition reports whether a scan may move from one status to another.
// The lifecycle is monotonic: pending -> reviewed, never back.
func ValidTransition(from, to Status) bool {
	return from == StatusPending && to == StatusReviewed
}

// Finding is one condition detected on a scan by the upstream imaging model,
// with its confidence in [0,1]. Findings are immutable once recorded.
type Finding struct {
	Condition  string  `json:"condition"`
	Confidence float64 `json:"confidence"`
}

// Scan is one imaging study moving through triage.
//
// The urgency, reasoning, action, risk factor, and confidence fields are set
// exactly once by the triage pipeline before the scan is persisted; a scan is
// never visible to queue consumers without a populated urgency.
type Scan struct {
	ID                string    `json:"id"`
	FacilityID        string    `json:"facility_id"`
	PatientIdentifier string    `json:"patient_id,omitempty"`
	Findings          []Finding `json:"findings"`
	Urgency           int       `json:"urgency"`
	Reasoning         string    `json:"reasoning"`
	RecommendedAction string    `json:"recommended_action"`
	RiskFactors       []string  `json:"risk_factors,omitempty"`
	Confidence        int       `json:"confidence_score"`
	Provenance        string    `json:"provenance"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	ImageRef          string    `json:"image_ref,omitempty"`
}

// ConditionNames returns the condition name of every finding, in order.
func (s *Scan) ConditionNames() []string {
	if len(s.Findings) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.Findings))
	for _, f := range s.Findings {
		names = append(names, f.Condition)
	}
	return names
}

// Patient is the registry row for one patient identifier. Demographic fields
// are overwritten (not merged) by later scans that supply a value; TotalScans
// and LastSeen only move forward.
type Patient struct {
	Identifier   string    `json:"identifier"`
	Name         string    `json:"name,omitempty"`
	Age          int       `json:"age,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	BloodType    string    `json:"blood_type,omitempty"`
	MedicalNotes string    `json:"medical_notes,omitempty"`
	TotalScans   int       `json:"total_scans"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// PatientUpdate carries optional demographic fields supplied with an intake.
// Nil fields leave the stored value untouched.
type PatientUpdate struct {
	Name         *string
	Age          *int
	Gender       *string
	BloodType    *string
	MedicalNotes *string
}

// Facility is one hospital or imaging site submitting scans.
type Facility struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// UrgencyBand maps an urgency score to its dashboard band.
func UrgencyBand(urgency int) string {
	switch {
	case urgency >= 8:
		return "critical"
	case urgency >= 4:
		return "urgent"
	default:
		return "routine"
	}
}

// Stats summarizes the scan table for the dashboard.
type Stats struct {
	TotalScans           int            `json:"total_scans"`
	AvgUrgency           float64        `json:"avg_urgency"`
	EstimatedMonthlyCost float64        `json:"estimated_monthly_cost"`
	ScansByUrgency       map[string]int `json:"scans_by_urgency"`
}
