// Package memstore provides an in-memory implementation of scan.Store.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/linnemanlabs/vital/internal/scan"
)

// costPerScan approximates the per-scan cost of a manual radiologist read,
// used for the dashboard's monthly savings estimate.
const costPerScan = 12.0

// Store holds scans, patients, and facilities in memory. Suitable for
// dev/testing; every read and write works on copies.
type Store struct {
	mu         sync.RWMutex
	scans      map[string]*scan.Scan     // scan ID -> scan
	patients   map[string]*scan.Patient  // patient identifier -> patient
	facilities map[string]*scan.Facility // facility ID -> facility
	order      []string                  // scan IDs in insertion order
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		scans:      make(map[string]*scan.Scan),
		patients:   make(map[string]*scan.Patient),
		facilities: make(map[string]*scan.Facility),
	}
}

// PutScan stores a copy of the scan.
func (s *Store) PutScan(_ context.Context, sc *scan.Scan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scans[sc.ID]; !ok {
		s.order = append(s.order, sc.ID)
	}
	cp := copyScan(sc)
	s.scans[sc.ID] = cp
	return nil
}

// GetScan retrieves a scan by its ID. Returns a copy.
func (s *Store) GetScan(_ context.Context, id string) (*scan.Scan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scans[id]
	if !ok {
		return nil, false, nil
	}
	return copyScan(sc), true, nil
}

// PendingScans returns copies of the facility's pending scans in insertion
// order. Ranking is the caller's concern.
func (s *Store) PendingScans(_ context.Context, facilityID string) ([]*scan.Scan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*scan.Scan
	for _, id := range s.order {
		sc := s.scans[id]
		if sc.FacilityID == facilityID && sc.Status == scan.StatusPending {
			out = append(out, copyScan(sc))
		}
	}
	return out, nil
}

// PendingCount returns the number of pending scans for the facility.
func (s *Store) PendingCount(_ context.Context, facilityID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sc := range s.scans {
		if sc.FacilityID == facilityID && sc.Status == scan.StatusPending {
			n++
		}
	}
	return n, nil
}

// SetScanStatus updates a scan's status. Returns false if the scan is unknown.
func (s *Store) SetScanStatus(_ context.Context, id string, status scan.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scans[id]
	if !ok {
		return false, nil
	}
	sc.Status = status
	return true, nil
}

// UpsertPatient creates or updates the patient row for the identifier,
// applying only the update's non-nil fields. Atomic per identifier: the whole
// read-modify-write happens under the store lock.
func (s *Store) UpsertPatient(_ context.Context, identifier string, upd scan.PatientUpdate) (*scan.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p, ok := s.patients[identifier]
	if !ok {
		p = &scan.Patient{Identifier: identifier, FirstSeen: now, LastSeen: now}
		s.patients[identifier] = p
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Age != nil {
		p.Age = *upd.Age
	}
	if upd.Gender != nil {
		p.Gender = *upd.Gender
	}
	if upd.BloodType != nil {
		p.BloodType = *upd.BloodType
	}
	if upd.MedicalNotes != nil {
		p.MedicalNotes = *upd.MedicalNotes
	}
	cp := *p
	return &cp, nil
}

// GetPatient retrieves a patient by identifier. Returns a copy.
func (s *Store) GetPatient(_ context.Context, identifier string) (*scan.Patient, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[identifier]
	if !ok {
		return nil, false, nil
	}
	cp := *p
	return &cp, true, nil
}

// RecordPatientScan bumps the patient's scan count and last-seen timestamp.
// Unknown identifiers are created so the count is never lost.
func (s *Store) RecordPatientScan(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p, ok := s.patients[identifier]
	if !ok {
		p = &scan.Patient{Identifier: identifier, FirstSeen: now}
		s.patients[identifier] = p
	}
	p.TotalScans++
	p.LastSeen = now
	return nil
}

// GetFacility retrieves a facility by ID. Returns a copy.
func (s *Store) GetFacility(_ context.Context, id string) (*scan.Facility, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.facilities[id]
	if !ok {
		return nil, false, nil
	}
	cp := *f
	return &cp, true, nil
}

// ListFacilities returns copies of all facilities in unspecified order.
func (s *Store) ListFacilities(_ context.Context) ([]*scan.Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*scan.Facility, 0, len(s.facilities))
	for _, f := range s.facilities {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

// AddFacility stores a copy of the facility.
func (s *Store) AddFacility(_ context.Context, f *scan.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.facilities[f.ID] = &cp
	return nil
}

// Stats aggregates over all scans.
func (s *Store) Stats(_ context.Context) (*scan.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &scan.Stats{
		ScansByUrgency: map[string]int{"critical": 0, "urgent": 0, "routine": 0},
	}
	total := 0
	for _, sc := range s.scans {
		st.TotalScans++
		total += sc.Urgency
		st.ScansByUrgency[scan.UrgencyBand(sc.Urgency)]++
	}
	if st.TotalScans > 0 {
		st.AvgUrgency = float64(total) / float64(st.TotalScans)
	}
	st.EstimatedMonthlyCost = float64(st.TotalScans) * costPerScan
	return st, nil
}

func copyScan(sc *scan.Scan) *scan.Scan {
	cp := *sc
	cp.Findings = append([]scan.Finding(nil), sc.Findings...)
	cp.RiskFactors = append([]string(nil), sc.RiskFactors...)
	return &cp
}
