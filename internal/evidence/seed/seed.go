// Package seed provides curated historical cases and patient history
// fragments for bootstrapping an empty evidence store.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/vital/internal/evidence"
)

// Load appends every seed case and fragment to the store. Returns how many
// of each were written; stops on the first error.
func Load(ctx context.Context, store evidence.Store) (cases, fragments int, err error) {
	for _, c := range Cases() {
		if err := store.AppendCase(ctx, c); err != nil {
			return cases, fragments, fmt.Errorf("seed case %s: %w", c.CaseID, err)
		}
		cases++
	}
	for _, f := range Fragments() {
		if err := store.AppendFragment(ctx, f); err != nil {
			return cases, fragments, fmt.Errorf("seed fragment %s: %w", f.PatientIdentifier, err)
		}
		fragments++
	}
	return cases, fragments, nil
}

// Cases returns the curated historical case records.
func Cases() []*evidence.CaseRecord {
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	specs := []struct {
		id         string
		conditions []string
		urgency    int
		outcome    string
		notes      string
	}{
		{"PTX001", []string{"Pneumothorax"}, 10,
			"Emergency chest tube placement within 15 minutes. Patient stabilized.",
			"Rapid deterioration prevented by immediate intervention"},
		{"PTX002", []string{"Pneumothorax"}, 8,
			"Moderate pneumothorax. Observation then chest tube at 45 min.",
			"Stable on presentation, intervention when oxygen requirement increased"},
		{"PTX003", []string{"Pneumothorax"}, 6,
			"Small apical pneumothorax. Discharged with follow-up. Resolved spontaneously.",
			"Young healthy patient, minimal symptoms"},
		{"EFF001", []string{"Effusion"}, 8,
			"Large pleural effusion. Thoracentesis performed. 800ml drained.",
			"Significant symptomatic relief after drainage"},
		{"EFF002", []string{"Effusion"}, 6,
			"Moderate effusion. Diuretics started. Admitted for CHF exacerbation.",
			"Known CHF, responded to diuresis"},
		{"EFF003", []string{"Effusion"}, 4,
			"Small effusion. Outpatient follow-up. Resolved on repeat imaging.",
			"Incidental finding, asymptomatic"},
		{"PNA001", []string{"Pneumonia", "Infiltration"}, 8,
			"Severe pneumonia. ICU admission. Intubated within 4 hours.",
			"Rapid progression, required transfer to tertiary center"},
		{"PNA002", []string{"Infiltration"}, 6,
			"Lobar pneumonia. Admitted for IV antibiotics. Discharged day 5.",
			"Stable on admission, good response to therapy"},
		{"PNA003", []string{"Pneumonia"}, 4,
			"Mild pneumonia. Oral antibiotics, outpatient management.",
			"Low-risk presentation, reliable follow-up"},
		{"EDM001", []string{"Edema", "Cardiomegaly"}, 9,
			"Flash pulmonary edema. BiPAP and IV diuresis in the ED.",
			"Hypoxic on arrival, stabilized within the hour"},
		{"CMG001", []string{"Cardiomegaly"}, 4,
			"Enlarged cardiac silhouette. Outpatient echo arranged.",
			"Chronic finding, no acute symptoms"},
		{"ATL001", []string{"Atelectasis"}, 3,
			"Basilar atelectasis. Incentive spirometry, routine review.",
			"Post-operative patient, expected finding"},
		{"MAS001", []string{"Mass"}, 5,
			"Suspicious mass. Urgent CT and oncology referral within the week.",
			"Not immediately life threatening but time-sensitive workup"},
		{"NOD001", []string{"Nodule"}, 4,
			"Solitary pulmonary nodule. Interval CT per Fleischner criteria.",
			"Low-risk nodule, surveillance appropriate"},
		{"NRM001", []string{}, 1,
			"No acute cardiopulmonary findings. Routine review.",
			"Normal study"},
	}

	out := make([]*evidence.CaseRecord, 0, len(specs))
	for i, sp := range specs {
		rec := &evidence.CaseRecord{
			CaseID:        sp.id,
			Conditions:    sp.conditions,
			Urgency:       sp.urgency,
			Outcome:       sp.outcome,
			ClinicalNotes: sp.notes,
			RecordedAt:    base.Add(time.Duration(i) * 24 * time.Hour),
		}
		rec.Content = evidence.CaseContent(rec.Conditions, rec.Urgency, rec.Outcome, rec.ClinicalNotes)
		out = append(out, rec)
	}
	return out
}

// Fragments returns history fragments for a handful of returning patients.
func Fragments() []*evidence.HistoryFragment {
	base := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	return []*evidence.HistoryFragment{
		{
			PatientIdentifier: "PAT-COPD-001",
			Age:               72,
			Gender:            "male",
			RiskFactors:       []string{"COPD", "smoker"},
			ScanHistory: []evidence.ScanNote{{
				Conditions:        []string{"Infiltration"},
				Urgency:           6,
				RecommendedAction: "urgent",
			}},
			PreviousScans: 1,
			RecordedAt:    base,
		},
		{
			PatientIdentifier: "PAT-COPD-001",
			Age:               72,
			Gender:            "male",
			RiskFactors:       []string{"COPD", "CHF"},
			ScanHistory: []evidence.ScanNote{{
				Conditions:        []string{"Edema", "Effusion"},
				Urgency:           8,
				RecommendedAction: "urgent",
			}},
			PreviousScans: 2,
			RecordedAt:    base.Add(30 * 24 * time.Hour),
		},
		{
			PatientIdentifier: "PAT-DM-002",
			Age:               58,
			Gender:            "female",
			RiskFactors:       []string{"diabetes"},
			ScanHistory: []evidence.ScanNote{{
				Conditions:        []string{"Pneumonia"},
				Urgency:           6,
				RecommendedAction: "urgent",
			}},
			PreviousScans: 1,
			RecordedAt:    base.Add(10 * 24 * time.Hour),
		},
	}
}
