package triage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawAssessment mirrors the JSON shape the reasoning service is asked to
// return. The response is untrusted input: every field is validated before
// it becomes an Assessment.
type rawAssessment struct {
	Urgency           *float64 `json:"urgency"`
	Reasoning         string   `json:"reasoning"`
	RecommendedAction string   `json:"recommended_action"`
	RiskFactors       []string `json:"risk_factors"`
	Confidence        string   `json:"confidence"`
}

// parseAssessment decodes and validates a reasoning-service response.
// Tolerates a markdown code fence around the JSON body; anything else that
// deviates from the schema is an error and triggers fallback in the caller.
func parseAssessment(text string) (*Assessment, error) {
	cleaned := stripCodeFence(strings.TrimSpace(text))
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	var raw rawAssessment
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if raw.Urgency == nil {
		return nil, fmt.Errorf("missing urgency")
	}
	urgency := int(*raw.Urgency)
	if urgency < MinUrgency || urgency > MaxUrgency {
		return nil, fmt.Errorf("urgency %d out of range [%d,%d]", urgency, MinUrgency, MaxUrgency)
	}
	if strings.TrimSpace(raw.Reasoning) == "" {
		return nil, fmt.Errorf("missing reasoning")
	}

	action, err := parseAction(raw.RecommendedAction)
	if err != nil {
		return nil, err
	}

	return &Assessment{
		Urgency:           urgency,
		Reasoning:         strings.TrimSpace(raw.Reasoning),
		RecommendedAction: action,
		RiskFactors:       raw.RiskFactors,
		Confidence:        parseConfidence(raw.Confidence),
		Provenance:        ProvenanceReasoned,
	}, nil
}

func parseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionImmediate:
		return ActionImmediate, nil
	case ActionUrgent:
		return ActionUrgent, nil
	case ActionRoutine:
		return ActionRoutine, nil
	default:
		return "", fmt.Errorf("invalid recommended_action %q", s)
	}
}

// parseConfidence buckets the verbal confidence; unknown values land on
// medium rather than failing the whole response.
func parseConfidence(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

// stripCodeFence removes a surrounding ``` or ```json fence if present.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && strings.EqualFold(strings.TrimSpace(s[:idx]), "json") {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
