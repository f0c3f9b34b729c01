package evidence

import (
	"fmt"
	"strings"
)

// CaseContent builds the searchable content string for a case record. Every
// writer uses this so keyword relevance behaves the same for seeded and
// live-recorded cases.
func CaseContent(conditions []string, urgency int, outcome, notes string) string {
	joined := strings.Join(conditions, ", ")
	if joined == "" {
		joined = "No significant findings"
	}
	content := fmt.Sprintf("Conditions: %s. Urgency: %d. Outcome: %s.", joined, urgency, outcome)
	if notes != "" {
		content += " " + notes
	}
	return content
}
