package triage

import (
	"fmt"
	"strings"
)

// maxHistoryEntries bounds how many prior scans the prompt lists.
const maxHistoryEntries = 3

func buildSystemPrompt() string {
	return `You are an expert radiologist assistant evaluating chest X-ray findings for emergency triage in a rural hospital setting with limited ICU and specialist resources.

Assess the clinical urgency of the case on a scale of 1-10:
- 9-10: immediate life threat, see within 5-10 minutes
- 7-8: urgent findings requiring rapid intervention, see within 30-60 minutes
- 5-6: moderate findings needing attention, see within 2-4 hours
- 3-4: minor findings, routine follow-up sufficient
- 1-2: no significant or incidental findings only, routine review

Weigh life-threatening potential, time-sensitivity of treatment, combination
effects of multiple findings, current queue load, and the patient's individual
risk profile when history is available. Comorbidities, advanced age, and prior
complications raise urgency; a young healthy patient with no history lowers it.

Respond ONLY with valid JSON in this exact format, no markdown and no code fences:
{
  "urgency": <integer between 1 and 10>,
  "reasoning": "<2-3 sentence clinical explanation>",
  "recommended_action": "<one of: immediate | urgent | routine>",
  "risk_factors": ["<factor>", ...],
  "confidence": "<one of: high | medium | low>"
}`
}

// buildUserPrompt renders the evidence package as the reasoning request:
// current findings, clinical context, up to three historical cases, and the
// merged patient profile when present.
func buildUserPrompt(pkg *EvidencePackage) string {
	var b strings.Builder

	b.WriteString("DETECTED FINDINGS FROM AI ANALYSIS:\n")
	if len(pkg.Findings) == 0 {
		b.WriteString("- No significant findings detected (appears normal)\n")
	} else {
		for _, f := range pkg.Findings {
			fmt.Fprintf(&b, "- %s: %.2f confidence\n", f.Condition, f.Confidence)
		}
	}

	b.WriteString("\nCLINICAL CONTEXT:\n")
	fmt.Fprintf(&b, "Facility: %s\n", pkg.FacilityName)
	fmt.Fprintf(&b, "Current queue: %d scans waiting\n", pkg.QueueLength)

	if len(pkg.Cases) > 0 {
		b.WriteString("\nHISTORICAL CASES WITH SIMILAR FINDINGS:\n")
		for i, c := range pkg.Cases {
			fmt.Fprintf(&b, "\nCase %d:\n", i+1)
			fmt.Fprintf(&b, "  Conditions: %s\n", strings.Join(c.Conditions, ", "))
			fmt.Fprintf(&b, "  Urgency: %d/10\n", c.Urgency)
			fmt.Fprintf(&b, "  Outcome: %s\n", c.Outcome)
			if c.ClinicalNotes != "" {
				fmt.Fprintf(&b, "  Notes: %s\n", c.ClinicalNotes)
			}
		}
	}

	if p := pkg.Profile; p != nil {
		b.WriteString("\nPATIENT RISK PROFILE:\n")
		if p.Age > 0 {
			fmt.Fprintf(&b, "  Age: %d\n", p.Age)
		}
		if p.Gender != "" {
			fmt.Fprintf(&b, "  Gender: %s\n", p.Gender)
		}
		if len(p.RiskFactors) > 0 {
			fmt.Fprintf(&b, "  Risk factors: %s\n", strings.Join(p.RiskFactors, ", "))
		}
		if len(p.ScanHistory) > 0 {
			fmt.Fprintf(&b, "  Previous scans (%d total):\n", len(p.ScanHistory))
			for i, note := range p.ScanHistory {
				if i >= maxHistoryEntries {
					break
				}
				fmt.Fprintf(&b, "  - %s (urgency %d, %s)\n",
					strings.Join(note.Conditions, ", "), note.Urgency, note.RecommendedAction)
			}
		}
	} else {
		b.WriteString("\nPATIENT CONTEXT: New patient, no previous history available.\n")
	}

	b.WriteString("\nJSON response:")
	return b.String()
}
