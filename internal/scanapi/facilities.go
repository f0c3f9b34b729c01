package scanapi

import (
	"encoding/json"
	"net/http"

	"github.com/linnemanlabs/vital/internal/scan"
)

func (a *API) handleListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := a.svc.Facilities(r.Context())
	if err != nil {
		a.writeError(r.Context(), w, err, "facility list failed")
		return
	}
	if facilities == nil {
		facilities = []*scan.Facility{}
	}
	a.writeJSON(r.Context(), w, http.StatusOK, facilities)
}

func (a *API) handleAddFacility(w http.ResponseWriter, r *http.Request) {
	var in scan.Facility
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.writeJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	f, err := a.svc.AddFacility(r.Context(), &in)
	if err != nil {
		a.writeError(r.Context(), w, err, "facility create failed")
		return
	}
	a.writeJSON(r.Context(), w, http.StatusCreated, f)
}
