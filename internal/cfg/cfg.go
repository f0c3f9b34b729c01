package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config holds all runtime configuration for the service. Fields fill from
// flags first and then from VITAL_-prefixed environment variables.
type Config struct {
	DrainSeconds            int
	ShutdownBudgetSeconds   int
	APIPort                 int
	DatabaseURL             string
	TypesenseURL            string
	TypesenseAPIKey         string
	ClaudeAPIKey            string
	ClaudeModel             string
	ReasoningTimeoutSeconds int
	RetrievalTimeoutSeconds int
	AdminToken              string
	SlackWebhookURL         string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.TypesenseURL, "typesense-url", "", "Typesense server URL for evidence retrieval (empty = in-memory store)")
	fs.StringVar(&c.TypesenseAPIKey, "typesense-api-key", "", "Typesense API key")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude reasoning provider (empty = fallback scoring only)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.IntVar(&c.ReasoningTimeoutSeconds, "reasoning-timeout-seconds", 30, "per-call reasoning timeout (1..120)")
	fs.IntVar(&c.RetrievalTimeoutSeconds, "retrieval-timeout-seconds", 3, "per-call evidence retrieval timeout (1..30)")
	fs.StringVar(&c.AdminToken, "admin-token", "", "bearer token for the evidence admin endpoints (empty = admin disabled)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for critical result notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.ReasoningTimeoutSeconds <= 0 || c.ReasoningTimeoutSeconds > 120 {
		errs = append(errs, fmt.Errorf("invalid REASONING_TIMEOUT_SECONDS %d (must be 1..120)", c.ReasoningTimeoutSeconds))
	}
	if c.RetrievalTimeoutSeconds <= 0 || c.RetrievalTimeoutSeconds > 30 {
		errs = append(errs, fmt.Errorf("invalid RETRIEVAL_TIMEOUT_SECONDS %d (must be 1..30)", c.RetrievalTimeoutSeconds))
	}

	// A Claude key without a model is a misconfiguration; a missing key is
	// not, the engine degrades to fallback scoring.
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}

	// Typesense needs both halves
	if c.TypesenseURL != "" && c.TypesenseAPIKey == "" {
		errs = append(errs, errors.New("TYPESENSE_API_KEY is required when TYPESENSE_URL is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
