package scanapi

import "net/http"

func (a *API) handleSeedEvidence(w http.ResponseWriter, r *http.Request) {
	cases, fragments, err := a.svc.SeedEvidence(r.Context())
	if err != nil {
		a.writeError(r.Context(), w, err, "evidence seed failed")
		return
	}

	a.logger.Info(r.Context(), "evidence store seeded", "cases", cases, "fragments", fragments)
	a.writeJSON(r.Context(), w, http.StatusOK, map[string]int{
		"cases":     cases,
		"fragments": fragments,
	})
}

func (a *API) handleEvidenceStats(w http.ResponseWriter, r *http.Request) {
	counts, err := a.svc.EvidenceCounts(r.Context())
	if err != nil {
		a.writeError(r.Context(), w, err, "evidence stats failed")
		return
	}
	a.writeJSON(r.Context(), w, http.StatusOK, counts)
}
