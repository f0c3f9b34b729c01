package triage

import (
	"context"
	"errors"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// ResponseTokens bounds the reasoning response. Assessments are small
	// JSON objects; anything larger is the model rambling.
	ResponseTokens = 1024

	DefaultReasoningTimeout = 30 * time.Second
)

// Engine produces an assessment for a set of findings. It asks the reasoning
// provider first and substitutes the deterministic fallback score whenever the
// provider is unavailable, times out, or returns something unparseable. An
// engine call never fails: every scan leaves with an urgency.
type Engine struct {
	provider Provider
	timeout  time.Duration
	logger   log.Logger
	metrics  *Metrics
}

// NewEngine creates a triage engine. A nil provider is allowed and forces
// fallback scoring for every assessment.
func NewEngine(provider Provider, timeout time.Duration, logger log.Logger, metrics *Metrics) *Engine {
	if timeout <= 0 {
		timeout = DefaultReasoningTimeout
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Assess evaluates the evidence package and returns an assessment, reasoned
// when possible and fallback-scored otherwise.
func (e *Engine) Assess(ctx context.Context, pkg *EvidencePackage) *Assessment {
	ctx, span := otel.Tracer("triage").Start(ctx, "triage.Assess")
	defer span.End()

	as := e.assess(ctx, pkg)
	as.CasesUsed = len(pkg.Cases)
	as.HistoryFound = pkg.Profile != nil

	span.SetAttributes(
		attribute.Int("vital.triage.urgency", as.Urgency),
		attribute.String("vital.triage.provenance", string(as.Provenance)),
	)
	if e.metrics != nil {
		e.metrics.TriagesTotal.WithLabelValues(string(as.Provenance)).Inc()
		e.metrics.UrgencyAssigned.Observe(float64(as.Urgency))
	}
	return as
}

func (e *Engine) assess(ctx context.Context, pkg *EvidencePackage) *Assessment {
	// Nothing detected means nothing to reason about: skip the provider call.
	if e.provider == nil || len(pkg.Findings) == 0 {
		return FallbackScore(pkg.Findings)
	}

	L := e.logger.With("conditions", len(pkg.Findings))

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.provider.Send(cctx, &LLMRequest{
		MaxTokens: ResponseTokens,
		System:    buildSystemPrompt(),
		Prompt:    buildUserPrompt(pkg),
	})
	if e.metrics != nil {
		e.metrics.ReasoningDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		kind := "provider_error"
		if errors.Is(err, context.DeadlineExceeded) {
			kind = "timeout"
		}
		L.Warn(ctx, "reasoning call failed, using fallback score", "kind", kind, "error", err)
		e.countReasoningFailure(kind)
		return FallbackScore(pkg.Findings)
	}

	as, err := parseAssessment(resp.Text)
	if err != nil {
		L.Warn(ctx, "unusable reasoning response, using fallback score",
			"error", err,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
		)
		e.countReasoningFailure("bad_response")
		return FallbackScore(pkg.Findings)
	}

	L.Info(ctx, "reasoned assessment",
		"urgency", as.Urgency,
		"action", string(as.RecommendedAction),
		"cases_used", len(pkg.Cases),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return as
}

func (e *Engine) countReasoningFailure(kind string) {
	if e.metrics != nil {
		e.metrics.ReasoningFailures.WithLabelValues(kind).Inc()
	}
}
