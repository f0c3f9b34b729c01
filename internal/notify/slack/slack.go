// Package slack delivers critical triage results to Slack via incoming
// webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/vital/internal/scan"
	"github.com/linnemanlabs/vital/internal/triage"
)

const (
	maxReasoningLen = 3000
	httpTimeout     = 10 * time.Second
)

// Notifier sends critical scan results to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Send posts a critical scan result to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, sc *scan.Scan, as *triage.Assessment) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(sc, as)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "critical result notification sent", "scan_id", sc.ID, "urgency", sc.Urgency)
	return nil
}

func buildMessage(sc *scan.Scan, as *triage.Assessment) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(sc),
			{"type": "divider"},
			fieldsBlock(sc, as),
			{"type": "divider"},
			reasoningBlock(as),
			{"type": "divider"},
			contextBlock(sc),
		},
	}
}

func headerBlock(sc *scan.Scan) map[string]any {
	conditions := strings.Join(sc.ConditionNames(), ", ")
	if conditions == "" {
		conditions = "No findings"
	}
	text := fmt.Sprintf("%s Critical Scan %d/10: %s", urgencyEmoji(sc.Urgency), sc.Urgency, conditions)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(sc *scan.Scan, as *triage.Assessment) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Urgency:* %d/10", sc.Urgency),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Action:* %s", sc.RecommendedAction),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Facility:* %s", sc.FacilityID),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Assessment:* %s", sc.Provenance),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Confidence:* %d%%", sc.Confidence),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Evidence:* %d cases", as.CasesUsed),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func reasoningBlock(as *triage.Assessment) map[string]any {
	text := truncate(as.Reasoning, maxReasoningLen)
	if text == "" {
		text = "_No reasoning available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Clinical reasoning*\n\n%s", text),
		},
	}
}

func contextBlock(sc *scan.Scan) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("vital • scan %s • %s", sc.ID, sc.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func urgencyEmoji(urgency int) string {
	switch {
	case urgency >= 9:
		return "\U0001f534" // red circle
	case urgency >= 7:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
