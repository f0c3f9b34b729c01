package triage

import (
	"fmt"
	"sort"

	"github.com/linnemanlabs/vital/internal/scan"
)

// severityWeights maps detected conditions to rule-based urgency. Conditions
// absent from the table score defaultConditionWeight.
var severityWeights = map[string]int{
	"Pneumothorax":     10,
	"Edema":            8,
	"Effusion":         7,
	"Pleural_Effusion": 7,
	"Infiltration":     6,
	"Pneumonia":        6,
	"Consolidation":    6,
	"Lung Opacity":     6,
	"Mass":             5,
	"Cardiomegaly":     4,
	"Nodule":           4,
	"Atelectasis":      3,
}

const (
	defaultConditionWeight = 3
	noFindingsUrgency      = 1
)

// FallbackScore produces a deterministic rule-based assessment from findings
// alone. Total: it never fails and returns a fully populated assessment for
// any finding list, including an empty one.
func FallbackScore(findings []scan.Finding) *Assessment {
	if len(findings) == 0 {
		return &Assessment{
			Urgency:           noFindingsUrgency,
			Reasoning:         "No significant findings detected. Routine review.",
			RecommendedAction: ActionRoutine,
			RiskFactors:       nil,
			Confidence:        ConfidenceMedium,
			Provenance:        ProvenanceFallback,
		}
	}

	urgency := 0
	top := findings[0]
	for _, f := range findings {
		w := conditionWeight(f.Condition)
		if w > urgency {
			urgency = w
			top = f
		}
	}

	risks := make([]string, 0, len(findings))
	for _, f := range findings {
		if f.Condition != "" {
			risks = append(risks, f.Condition)
		}
	}
	sort.Strings(risks)

	return &Assessment{
		Urgency: urgency,
		Reasoning: fmt.Sprintf(
			"Detected %s with %.2f confidence. Rule-based urgency assigned without contextual reasoning.",
			top.Condition, top.Confidence),
		RecommendedAction: actionForUrgency(urgency),
		RiskFactors:       risks,
		Confidence:        ConfidenceMedium,
		Provenance:        ProvenanceFallback,
	}
}

func conditionWeight(condition string) int {
	if w, ok := severityWeights[condition]; ok {
		return w
	}
	return defaultConditionWeight
}

func actionForUrgency(urgency int) Action {
	switch {
	case urgency >= 9:
		return ActionImmediate
	case urgency >= 7:
		return ActionUrgent
	default:
		return ActionRoutine
	}
}
