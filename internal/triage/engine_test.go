package triage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/linnemanlabs/vital/internal/evidence"
	"github.com/linnemanlabs/vital/internal/scan"
)

// mockProvider returns preconfigured responses in sequence.
type mockProvider struct {
	mu        sync.Mutex
	responses []*LLMResponse
	errs      []error
	callIdx   int
	lastReq   *LLMRequest
}

func (m *mockProvider) Send(_ context.Context, req *LLMRequest) (*LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastReq = req
	idx := m.callIdx
	m.callIdx++

	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return &LLMResponse{
		Text:  `{"urgency": 5, "reasoning": "default", "recommended_action": "routine", "confidence": "medium"}`,
		Usage: Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

func pneumothoraxPackage() *EvidencePackage {
	return &EvidencePackage{
		Findings: []scan.Finding{{Condition: "Pneumothorax", Confidence: 0.9}},
		Cases: []*evidence.CaseRecord{
			{Conditions: []string{"Pneumothorax"}, Urgency: 10, Outcome: "immediate"},
		},
		FacilityName: "Rural General",
	}
}

func TestEngine_ReasonedPath(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{responses: []*LLMResponse{{
		Text: `{"urgency": 9, "reasoning": "Pneumothorax near a shifted mediastinum.", "recommended_action": "immediate", "risk_factors": ["pneumothorax"], "confidence": "high"}`,
	}}}
	eng := NewEngine(provider, time.Second, log.Nop(), nil)

	as := eng.Assess(context.Background(), pneumothoraxPackage())

	if as.Provenance != ProvenanceReasoned {
		t.Fatalf("provenance = %s, want reasoned", as.Provenance)
	}
	if as.Urgency != 9 {
		t.Errorf("urgency = %d, want 9", as.Urgency)
	}
	if as.CasesUsed != 1 {
		t.Errorf("cases used = %d, want 1", as.CasesUsed)
	}
	if as.HistoryFound {
		t.Errorf("history found = true, want false")
	}
	if provider.lastReq.MaxTokens != ResponseTokens {
		t.Errorf("max tokens = %d, want %d", provider.lastReq.MaxTokens, ResponseTokens)
	}
	if !strings.Contains(provider.lastReq.Prompt, "Pneumothorax") {
		t.Errorf("prompt missing findings")
	}
}

func TestEngine_ProviderErrorFallsBack(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{errs: []error{errors.New("api down")}}
	eng := NewEngine(provider, time.Second, log.Nop(), nil)

	as := eng.Assess(context.Background(), pneumothoraxPackage())

	if as.Provenance != ProvenanceFallback {
		t.Fatalf("provenance = %s, want fallback", as.Provenance)
	}
	if as.Urgency != 10 {
		t.Errorf("urgency = %d, want rule-based 10", as.Urgency)
	}
}

func TestEngine_BadResponseFallsBack(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{responses: []*LLMResponse{{Text: "I think this looks serious."}}}
	eng := NewEngine(provider, time.Second, log.Nop(), nil)

	as := eng.Assess(context.Background(), pneumothoraxPackage())

	if as.Provenance != ProvenanceFallback {
		t.Fatalf("provenance = %s, want fallback", as.Provenance)
	}
}

func TestEngine_NilProviderFallsBack(t *testing.T) {
	t.Parallel()

	eng := NewEngine(nil, time.Second, log.Nop(), nil)

	as := eng.Assess(context.Background(), &EvidencePackage{})

	if as.Provenance != ProvenanceFallback {
		t.Fatalf("provenance = %s, want fallback", as.Provenance)
	}
	if as.Urgency != 1 {
		t.Errorf("urgency = %d, want 1 for no findings", as.Urgency)
	}
}

func TestEngine_NoFindingsSkipsProvider(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{}
	eng := NewEngine(provider, time.Second, log.Nop(), nil)

	as := eng.Assess(context.Background(), &EvidencePackage{})

	if provider.callIdx != 0 {
		t.Errorf("provider called %d times, want 0", provider.callIdx)
	}
	if as.Provenance != ProvenanceFallback {
		t.Fatalf("provenance = %s, want fallback", as.Provenance)
	}
	if as.Urgency != 1 {
		t.Errorf("urgency = %d, want 1", as.Urgency)
	}
}

// slowProvider blocks until its context is cancelled.
type slowProvider struct{}

func (slowProvider) Send(ctx context.Context, _ *LLMRequest) (*LLMResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestEngine_TimeoutFallsBack(t *testing.T) {
	t.Parallel()

	eng := NewEngine(slowProvider{}, 10*time.Millisecond, log.Nop(), nil)

	start := time.Now()
	as := eng.Assess(context.Background(), pneumothoraxPackage())

	if as.Provenance != ProvenanceFallback {
		t.Fatalf("provenance = %s, want fallback", as.Provenance)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("assess took %v, timeout not applied", elapsed)
	}
}

func TestAssess_CreatesSpan(t *testing.T) {
	// Not parallel: swaps the global OTel tracer provider.

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	eng := NewEngine(nil, time.Second, log.Nop(), nil)
	as := eng.Assess(context.Background(), pneumothoraxPackage())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	s := spans[0]
	if s.Name != "triage.Assess" {
		t.Errorf("span name = %q, want triage.Assess", s.Name)
	}

	attrs := make(map[string]any)
	for _, a := range s.Attributes {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}
	if v, ok := attrs["vital.triage.urgency"]; !ok || v != int64(as.Urgency) {
		t.Errorf("vital.triage.urgency = %v, want %d", v, as.Urgency)
	}
	if v, ok := attrs["vital.triage.provenance"]; !ok || v != string(ProvenanceFallback) {
		t.Errorf("vital.triage.provenance = %v, want %s", v, ProvenanceFallback)
	}
}
