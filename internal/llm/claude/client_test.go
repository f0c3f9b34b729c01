package claude

import (
	"context"
	"os"
	"testing"

	"github.com/linnemanlabs/vital/internal/triage"
)

func TestNew_SetsModel(t *testing.T) {
	t.Parallel()

	c := New("test-key", "claude-sonnet-4-20250514")
	if string(c.model) != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", c.model)
	}
}

// TestSend_Live exercises the real API when credentials are supplied.
func TestSend_Live(t *testing.T) {
	apiKey := os.Getenv("VITAL_TEST_CLAUDE_API_KEY")
	if apiKey == "" {
		t.Skip("VITAL_TEST_CLAUDE_API_KEY not set, skipping integration test")
	}

	c := New(apiKey, "claude-sonnet-4-20250514")
	resp, err := c.Send(context.Background(), &triage.LLMRequest{
		MaxTokens: 64,
		Prompt:    "Reply with the single word: pong",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.Text == "" {
		t.Error("empty response text")
	}
	if resp.Usage.OutputTokens == 0 {
		t.Error("missing usage")
	}
}
