package triage

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/vital/internal/evidence"
	"github.com/linnemanlabs/vital/internal/scan"
)

// Recorder writes completed assessments back into the evidence store so
// future retrievals can cite them. Writes are best effort: a failure is
// logged and counted, never surfaced to the caller.
type Recorder struct {
	store   evidence.Store
	logger  log.Logger
	metrics *Metrics
}

// NewRecorder creates an evidence recorder. A nil store disables recording.
func NewRecorder(store evidence.Store, logger log.Logger, metrics *Metrics) *Recorder {
	if logger == nil {
		logger = log.Nop()
	}
	return &Recorder{store: store, logger: logger, metrics: metrics}
}

// Record persists the scan's assessment as a case record and, when the scan
// names a patient, a history fragment. Callers typically invoke this on a
// detached context after the triage response has been returned.
func (r *Recorder) Record(ctx context.Context, sc *scan.Scan, pat *scan.Patient, as *Assessment) {
	if r.store == nil {
		return
	}

	L := r.logger.With("scan_id", sc.ID)
	now := time.Now().UTC()

	conditions := sc.ConditionNames()
	rec := &evidence.CaseRecord{
		CaseID:        "scan-" + sc.ID,
		Conditions:    conditions,
		Urgency:       as.Urgency,
		Outcome:       string(as.RecommendedAction),
		ClinicalNotes: as.Reasoning,
		Content:       evidence.CaseContent(conditions, as.Urgency, string(as.RecommendedAction), as.Reasoning),
		RecordedAt:    now,
	}
	if err := r.store.AppendCase(ctx, rec); err != nil {
		L.Warn(ctx, "case record write failed", "error", err)
		r.countWrite("error")
	} else {
		r.countWrite("ok")
	}

	if sc.PatientIdentifier == "" {
		return
	}

	frag := &evidence.HistoryFragment{
		PatientIdentifier: sc.PatientIdentifier,
		RiskFactors:       as.RiskFactors,
		ScanHistory: []evidence.ScanNote{{
			Conditions:        conditions,
			Urgency:           as.Urgency,
			RecommendedAction: string(as.RecommendedAction),
		}},
		PreviousScans: 1,
		RecordedAt:    now,
	}
	if pat != nil {
		frag.Age = pat.Age
		frag.Gender = pat.Gender
		frag.PreviousScans = pat.TotalScans
	}
	if err := r.store.AppendFragment(ctx, frag); err != nil {
		L.Warn(ctx, "history fragment write failed", "error", err)
		r.countWrite("error")
	} else {
		r.countWrite("ok")
	}
}

func (r *Recorder) countWrite(outcome string) {
	if r.metrics != nil {
		r.metrics.EvidenceWrites.WithLabelValues(outcome).Inc()
	}
}
