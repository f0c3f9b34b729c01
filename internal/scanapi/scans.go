package scanapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/vital/internal/scan"
	"github.com/linnemanlabs/vital/internal/triage"
)

// intakeRequest is the wire form of a scan submission.
type intakeRequest struct {
	FacilityID string         `json:"facility_id"`
	PatientID  string         `json:"patient_id"`
	ImageRef   string         `json:"image_ref"`
	Findings   []scan.Finding `json:"findings"`
	Patient    *patientInfo   `json:"patient"`
}

// patientInfo carries optional demographics; absent fields leave the
// registry untouched.
type patientInfo struct {
	Name         *string `json:"name"`
	Age          *int    `json:"age"`
	Gender       *string `json:"gender"`
	BloodType    *string `json:"blood_type"`
	MedicalNotes *string `json:"medical_notes"`
}

type reviewRequest struct {
	Status string `json:"status"`
}

func (a *API) handleIntake(w http.ResponseWriter, r *http.Request) {
	var in intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.writeJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	req := &triage.IntakeRequest{
		FacilityID:        in.FacilityID,
		PatientIdentifier: in.PatientID,
		Findings:          in.Findings,
		ImageRef:          in.ImageRef,
	}
	if in.Patient != nil {
		req.Patient = scan.PatientUpdate{
			Name:         in.Patient.Name,
			Age:          in.Patient.Age,
			Gender:       in.Patient.Gender,
			BloodType:    in.Patient.BloodType,
			MedicalNotes: in.Patient.MedicalNotes,
		}
	}

	sc, err := a.svc.Process(r.Context(), req)
	if err != nil {
		a.writeError(r.Context(), w, err, "scan intake failed")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("vital.scan.id", sc.ID),
		attribute.Int("vital.scan.urgency", sc.Urgency),
		attribute.String("vital.scan.provenance", sc.Provenance),
	)

	a.writeJSON(r.Context(), w, http.StatusCreated, sc)
}

func (a *API) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("vital.scan.id", id))

	sc, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.writeError(r.Context(), w, err, "failed to get scan")
		return
	}
	if !ok {
		a.writeJSON(r.Context(), w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	a.writeJSON(r.Context(), w, http.StatusOK, sc)
}

func (a *API) handleReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.writeJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	sc, err := a.svc.Review(r.Context(), id, scan.Status(in.Status))
	if err != nil {
		a.writeError(r.Context(), w, err, "scan review failed")
		return
	}

	a.writeJSON(r.Context(), w, http.StatusOK, sc)
}

// queueEntry is a pending scan plus how long it has been waiting.
type queueEntry struct {
	*scan.Scan
	WaitMinutes int `json:"wait_minutes"`
}

func (a *API) handleQueue(w http.ResponseWriter, r *http.Request) {
	facilityID := r.URL.Query().Get("facility_id")

	queue, err := a.svc.Queue(r.Context(), facilityID)
	if err != nil {
		a.writeError(r.Context(), w, err, "queue read failed")
		return
	}

	now := time.Now().UTC()
	entries := make([]queueEntry, 0, len(queue))
	for _, sc := range queue {
		entries = append(entries, queueEntry{
			Scan:        sc,
			WaitMinutes: int(now.Sub(sc.CreatedAt).Minutes()),
		})
	}

	a.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"queue": entries,
		"count": len(entries),
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.Stats(r.Context())
	if err != nil {
		a.writeError(r.Context(), w, err, "stats read failed")
		return
	}
	a.writeJSON(r.Context(), w, http.StatusOK, st)
}
