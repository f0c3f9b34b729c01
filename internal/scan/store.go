package scan

import "context"

// Store is the persistence interface for scans, patients, and facilities.
//
// UpsertPatient must be atomic per identifier: two concurrent intakes for the
// same new identifier result in exactly one patient row.
type Store interface {
	PutScan(ctx context.Context, s *Scan) error
	GetScan(ctx context.Context, id string) (*Scan, bool, error)
	PendingScans(ctx context.Context, facilityID string) ([]*Scan, error)
	PendingCount(ctx context.Context, facilityID string) (int, error)
	SetScanStatus(ctx context.Context, id string, status Status) (bool, error)

	UpsertPatient(ctx context.Context, identifier string, upd PatientUpdate) (*Patient, error)
	GetPatient(ctx context.Context, identifier string) (*Patient, bool, error)
	RecordPatientScan(ctx context.Context, identifier string) error

	GetFacility(ctx context.Context, id string) (*Facility, bool, error)
	ListFacilities(ctx context.Context) ([]*Facility, error)
	AddFacility(ctx context.Context, f *Facility) error

	Stats(ctx context.Context) (*Stats, error)
}
