package triage

import (
	"context"
	"errors"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/vital/internal/evidence"
	"github.com/linnemanlabs/vital/internal/scan"
)

// MaxRetrievedCases bounds how many historical cases one package carries.
const MaxRetrievedCases = 3

// Assembler builds the evidence package for the reasoner: similar historical
// cases, the merged patient profile when an identifier is present, and the
// facility's current load.
//
// No store failure here is ever fatal. Unreachable retrieval shrinks the
// package and is counted; the package always carries the current findings.
type Assembler struct {
	retriever *evidence.Retriever
	logger    log.Logger
	metrics   *Metrics
}

// NewAssembler creates an assembler over the given retriever.
func NewAssembler(retriever *evidence.Retriever, logger log.Logger, metrics *Metrics) *Assembler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Assembler{retriever: retriever, logger: logger, metrics: metrics}
}

// Assemble gathers evidence for the findings. patientID may be empty.
func (a *Assembler) Assemble(ctx context.Context, findings []scan.Finding, facility *scan.Facility, queueLength int, patientID string) *EvidencePackage {
	pkg := &EvidencePackage{
		Findings:    findings,
		QueueLength: queueLength,
	}
	if facility != nil {
		pkg.FacilityName = facility.Name
	}

	conditions := make([]string, 0, len(findings))
	for _, f := range findings {
		if f.Condition != "" {
			conditions = append(conditions, f.Condition)
		}
	}

	cases, err := a.retriever.SimilarCases(ctx, conditions, MaxRetrievedCases)
	if err != nil {
		if errors.Is(err, evidence.ErrUnavailable) {
			a.logger.Warn(ctx, "case retrieval unavailable, proceeding without historical cases")
			if a.metrics != nil {
				a.metrics.RetrievalFailures.WithLabelValues("cases").Inc()
			}
		}
	} else {
		pkg.Cases = cases
	}

	if patientID != "" {
		profile, err := a.retriever.PatientProfile(ctx, patientID)
		if err != nil {
			if errors.Is(err, evidence.ErrUnavailable) {
				a.logger.Warn(ctx, "history retrieval unavailable, proceeding without patient profile",
					"patient_id", patientID)
				if a.metrics != nil {
					a.metrics.RetrievalFailures.WithLabelValues("history").Inc()
				}
			}
		} else {
			pkg.Profile = profile
		}
	}

	return pkg
}
