package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/vital/internal/evidence"
	"github.com/linnemanlabs/vital/internal/evidence/seed"
	"github.com/linnemanlabs/vital/internal/scan"
	"github.com/oklog/ulid/v2"
)

// CriticalUrgency is the threshold at or above which a completed triage
// triggers an operator notification.
const CriticalUrgency = 8

// Notifier delivers critical triage results to an external channel.
type Notifier interface {
	Send(ctx context.Context, sc *scan.Scan, as *Assessment) error
}

// ValidationError reports a rejected intake request. Handlers map it to a
// 4xx response instead of a server error.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IntakeRequest is a scan submitted for triage.
type IntakeRequest struct {
	FacilityID        string
	PatientIdentifier string
	Findings          []scan.Finding
	ImageRef          string
	Patient           scan.PatientUpdate
}

// Service is the business boundary for triage operations. It owns the full
// scan lifecycle: intake and assessment, queue reads, review transitions,
// facility management, and the best-effort evidence write-back.
type Service struct {
	store     scan.Store
	assembler *Assembler
	engine    *Engine
	recorder  *Recorder
	evidence  evidence.Store
	notifier  Notifier
	logger    log.Logger
	metrics   *Metrics
}

// NewService creates a new triage service. Store, assembler, and engine are
// required; recorder, evidence store, and notifier may be nil.
func NewService(store scan.Store, assembler *Assembler, engine *Engine, recorder *Recorder, ev evidence.Store, notifier Notifier, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:     store,
		assembler: assembler,
		engine:    engine,
		recorder:  recorder,
		evidence:  ev,
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics,
	}
}

// Process triages an incoming scan: validate, update the patient registry,
// assemble evidence, assess, and persist. The returned scan always carries an
// urgency; reasoning failures degrade to fallback scoring, never to an error.
func (s *Service) Process(ctx context.Context, req *IntakeRequest) (*scan.Scan, error) {
	start := time.Now()

	facility, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	L := s.logger.With("facility_id", req.FacilityID, "patient", req.PatientIdentifier)

	var patient *scan.Patient
	if req.PatientIdentifier != "" {
		patient, err = s.store.UpsertPatient(ctx, req.PatientIdentifier, req.Patient)
		if err != nil {
			return nil, fmt.Errorf("upsert patient: %w", err)
		}
	}

	queueLen, err := s.store.PendingCount(ctx, req.FacilityID)
	if err != nil {
		L.Warn(ctx, "pending count unavailable, assembling without queue context", "error", err)
		queueLen = 0
	}

	pkg := s.assembler.Assemble(ctx, req.Findings, facility, queueLen, req.PatientIdentifier)
	as := s.engine.Assess(ctx, pkg)

	sc := &scan.Scan{
		ID:                ulid.Make().String(),
		FacilityID:        req.FacilityID,
		PatientIdentifier: req.PatientIdentifier,
		Findings:          req.Findings,
		Urgency:           as.Urgency,
		Reasoning:         as.Reasoning,
		RecommendedAction: string(as.RecommendedAction),
		RiskFactors:       as.RiskFactors,
		Confidence:        as.Confidence,
		Provenance:        string(as.Provenance),
		Status:            scan.StatusPending,
		CreatedAt:         time.Now().UTC(),
		ImageRef:          req.ImageRef,
	}

	if err := s.store.PutScan(ctx, sc); err != nil {
		return nil, fmt.Errorf("persist scan: %w", err)
	}

	if req.PatientIdentifier != "" {
		if err := s.store.RecordPatientScan(ctx, req.PatientIdentifier); err != nil {
			L.Warn(ctx, "patient scan count update failed", "error", err)
		}
	}

	// write-back and notification happen off the request path
	go s.afterTriage(context.WithoutCancel(ctx), sc, patient, as)

	if s.metrics != nil {
		s.metrics.TriageDuration.WithLabelValues(string(as.Provenance)).Observe(time.Since(start).Seconds())
	}
	L.Info(ctx, "scan triaged",
		"scan_id", sc.ID,
		"urgency", sc.Urgency,
		"provenance", sc.Provenance,
		"cases_used", as.CasesUsed,
		"history_found", as.HistoryFound,
	)
	return sc, nil
}

// Queue returns the facility's pending scans, most urgent first and oldest
// first within an urgency level.
func (s *Service) Queue(ctx context.Context, facilityID string) ([]*scan.Scan, error) {
	if _, ok, err := s.store.GetFacility(ctx, facilityID); err != nil {
		return nil, err
	} else if !ok {
		return nil, validationErrorf("unknown facility %q", facilityID)
	}
	scans, err := s.store.PendingScans(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	return scan.Rank(scans), nil
}

// Get retrieves a scan by ID.
func (s *Service) Get(ctx context.Context, id string) (*scan.Scan, bool, error) {
	return s.store.GetScan(ctx, id)
}

// Review transitions a scan to the given status. Only pending scans can be
// reviewed; anything else is a validation error.
func (s *Service) Review(ctx context.Context, id string, to scan.Status) (*scan.Scan, error) {
	sc, ok, err := s.store.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, validationErrorf("unknown scan %q", id)
	}
	if !scan.ValidTransition(sc.Status, to) {
		return nil, validationErrorf("cannot move scan from %s to %s", sc.Status, to)
	}
	ok, err = s.store.SetScanStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, validationErrorf("unknown scan %q", id)
	}
	sc.Status = to
	return sc, nil
}

// GetPatient retrieves a patient from the registry.
func (s *Service) GetPatient(ctx context.Context, identifier string) (*scan.Patient, bool, error) {
	return s.store.GetPatient(ctx, identifier)
}

// Facilities lists all registered facilities.
func (s *Service) Facilities(ctx context.Context) ([]*scan.Facility, error) {
	return s.store.ListFacilities(ctx)
}

// AddFacility registers a facility. Name is required; an empty ID gets a
// generated one.
func (s *Service) AddFacility(ctx context.Context, f *scan.Facility) (*scan.Facility, error) {
	if f.Name == "" {
		return nil, validationErrorf("facility name is required")
	}
	if f.ID == "" {
		f.ID = ulid.Make().String()
	}
	if err := s.store.AddFacility(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Stats aggregates scan volume, urgency distribution, and cost estimates.
func (s *Service) Stats(ctx context.Context) (*scan.Stats, error) {
	return s.store.Stats(ctx)
}

// SeedEvidence loads the bundled reference corpus into the evidence store.
func (s *Service) SeedEvidence(ctx context.Context) (cases, fragments int, err error) {
	if s.evidence == nil {
		return 0, 0, validationErrorf("no evidence store configured")
	}
	return seed.Load(ctx, s.evidence)
}

// EvidenceCounts reports document counts in the evidence store.
func (s *Service) EvidenceCounts(ctx context.Context) (*evidence.Counts, error) {
	if s.evidence == nil {
		return nil, validationErrorf("no evidence store configured")
	}
	return s.evidence.Count(ctx)
}

func (s *Service) validate(ctx context.Context, req *IntakeRequest) (*scan.Facility, error) {
	if req.FacilityID == "" {
		return nil, validationErrorf("facility_id is required")
	}
	for _, f := range req.Findings {
		if f.Condition == "" {
			return nil, validationErrorf("finding with empty condition")
		}
		if f.Confidence < 0 || f.Confidence > 1 {
			return nil, validationErrorf("finding %q confidence %v outside [0, 1]", f.Condition, f.Confidence)
		}
	}
	facility, ok, err := s.store.GetFacility(ctx, req.FacilityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, validationErrorf("unknown facility %q", req.FacilityID)
	}
	return facility, nil
}

func (s *Service) afterTriage(ctx context.Context, sc *scan.Scan, pat *scan.Patient, as *Assessment) {
	if s.recorder != nil {
		s.recorder.Record(ctx, sc, pat, as)
	}
	if s.notifier != nil && sc.Urgency >= CriticalUrgency {
		if err := s.notifier.Send(ctx, sc, as); err != nil {
			s.logger.Warn(ctx, "critical result notification failed", "scan_id", sc.ID, "error", err)
		}
	}
}
