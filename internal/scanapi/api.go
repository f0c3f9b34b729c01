// Package scanapi exposes the triage service over HTTP: scan intake, the
// ranked review queue, scan review, facility management, dashboard stats, and
// the token-guarded evidence admin surface.
package scanapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/vital/internal/authmw"
	"github.com/linnemanlabs/vital/internal/evidence"
	"github.com/linnemanlabs/vital/internal/scan"
	"github.com/linnemanlabs/vital/internal/triage"
)

// TriageService defines the business operations scanapi needs.
type TriageService interface {
	Process(ctx context.Context, req *triage.IntakeRequest) (*scan.Scan, error)
	Queue(ctx context.Context, facilityID string) ([]*scan.Scan, error)
	Get(ctx context.Context, id string) (*scan.Scan, bool, error)
	Review(ctx context.Context, id string, to scan.Status) (*scan.Scan, error)
	Facilities(ctx context.Context) ([]*scan.Facility, error)
	AddFacility(ctx context.Context, f *scan.Facility) (*scan.Facility, error)
	Stats(ctx context.Context) (*scan.Stats, error)
	SeedEvidence(ctx context.Context) (cases, fragments int, err error)
	EvidenceCounts(ctx context.Context) (*evidence.Counts, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger     log.Logger
	svc        TriageService
	adminToken string
}

// New creates a new API handler. An empty adminToken disables the admin
// routes entirely.
func New(logger log.Logger, svc TriageService, adminToken string) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger:     logger,
		svc:        svc,
		adminToken: adminToken,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scans", a.handleIntake)
		r.Get("/scans/{id}", a.handleGetScan)
		r.Patch("/scans/{id}/status", a.handleReview)
		r.Get("/queue", a.handleQueue)
		r.Get("/facilities", a.handleListFacilities)
		r.Post("/facilities", a.handleAddFacility)
		r.Get("/stats", a.handleStats)

		if a.adminToken != "" {
			r.Route("/admin", func(r chi.Router) {
				r.Use(authmw.BearerToken(a.adminToken))
				r.Post("/evidence/seed", a.handleSeedEvidence)
				r.Get("/evidence/stats", a.handleEvidenceStats)
			})
		}
	})
}

func (a *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error(ctx, err, "failed to encode response")
	}
}

// writeError maps service errors onto HTTP statuses: validation failures are
// the client's fault, everything else is ours.
func (a *API) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	var ve *triage.ValidationError
	if errors.As(err, &ve) {
		a.writeJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
		return
	}
	a.logger.Error(ctx, err, msg)
	a.writeJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
