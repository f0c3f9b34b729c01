// Package pgstore provides a PostgreSQL implementation of scan.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/vital/internal/scan"
)

var tracer = otel.Tracer("github.com/linnemanlabs/vital/internal/scan/pgstore")

//go:embed schema.sql
var schema string

// costPerScan approximates the per-scan cost of a manual radiologist read.
const costPerScan = 12.0

// Store persists scans, patients, and facilities in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store. The
// pool's lifecycle stays with the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const scanColumns = `id, facility_id, patient_identifier, findings, urgency, reasoning,
	recommended_action, risk_factors, confidence, provenance, status, created_at, image_ref`

// PutScan inserts or updates a scan row.
func (s *Store) PutScan(ctx context.Context, sc *scan.Scan) error {
	ctx, span := startSpan(ctx, "pgstore.PutScan", "UPSERT")
	defer span.End()

	findingsJSON, err := json.Marshal(sc.Findings)
	if err != nil {
		return spanErr(span, fmt.Errorf("marshal findings: %w", err))
	}
	risksJSON, err := json.Marshal(sc.RiskFactors)
	if err != nil {
		return spanErr(span, fmt.Errorf("marshal risk factors: %w", err))
	}

	query := `INSERT INTO scans (` + scanColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	ON CONFLICT (id) DO UPDATE SET
		facility_id        = EXCLUDED.facility_id,
		patient_identifier = EXCLUDED.patient_identifier,
		findings           = EXCLUDED.findings,
		urgency            = EXCLUDED.urgency,
		reasoning          = EXCLUDED.reasoning,
		recommended_action = EXCLUDED.recommended_action,
		risk_factors       = EXCLUDED.risk_factors,
		confidence         = EXCLUDED.confidence,
		provenance         = EXCLUDED.provenance,
		status             = EXCLUDED.status,
		image_ref          = EXCLUDED.image_ref`

	_, err = s.pool.Exec(ctx, query,
		sc.ID, sc.FacilityID, sc.PatientIdentifier, findingsJSON, sc.Urgency, sc.Reasoning,
		sc.RecommendedAction, risksJSON, sc.Confidence, sc.Provenance, string(sc.Status),
		sc.CreatedAt, sc.ImageRef,
	)
	if err != nil {
		return spanErr(span, fmt.Errorf("upsert scan: %w", err))
	}
	return nil
}

// GetScan retrieves a scan by ID.
func (s *Store) GetScan(ctx context.Context, id string) (*scan.Scan, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.GetScan", "SELECT")
	defer span.End()

	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = $1`
	sc, err := scanScanRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, false, spanErr(span, err)
	}
	if sc == nil {
		return nil, false, nil
	}
	return sc, true, nil
}

// PendingScans returns the facility's pending scans in submission order.
func (s *Store) PendingScans(ctx context.Context, facilityID string) ([]*scan.Scan, error) {
	ctx, span := startSpan(ctx, "pgstore.PendingScans", "SELECT")
	defer span.End()

	query := `SELECT ` + scanColumns + ` FROM scans
		WHERE facility_id = $1 AND status = $2 ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query, facilityID, string(scan.StatusPending))
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("query pending: %w", err))
	}
	defer rows.Close()

	var out []*scan.Scan
	for rows.Next() {
		sc, err := scanScanRow(rows)
		if err != nil {
			return nil, spanErr(span, err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, spanErr(span, fmt.Errorf("iterate pending: %w", err))
	}
	return out, nil
}

// PendingCount returns the number of pending scans for the facility.
func (s *Store) PendingCount(ctx context.Context, facilityID string) (int, error) {
	ctx, span := startSpan(ctx, "pgstore.PendingCount", "SELECT")
	defer span.End()

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM scans WHERE facility_id = $1 AND status = $2`,
		facilityID, string(scan.StatusPending),
	).Scan(&n)
	if err != nil {
		return 0, spanErr(span, fmt.Errorf("count pending: %w", err))
	}
	return n, nil
}

// SetScanStatus updates a scan's status. Returns false if the scan is unknown.
func (s *Store) SetScanStatus(ctx context.Context, id string, status scan.Status) (bool, error) {
	ctx, span := startSpan(ctx, "pgstore.SetScanStatus", "UPDATE")
	defer span.End()

	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return false, spanErr(span, fmt.Errorf("update status: %w", err))
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertPatient creates or updates the patient row for the identifier in a
// single statement, so concurrent intakes for the same new identifier cannot
// race into duplicate rows. Nil update fields keep the stored value.
func (s *Store) UpsertPatient(ctx context.Context, identifier string, upd scan.PatientUpdate) (*scan.Patient, error) {
	ctx, span := startSpan(ctx, "pgstore.UpsertPatient", "UPSERT")
	defer span.End()

	query := `INSERT INTO patients (identifier, name, age, gender, blood_type, medical_notes)
	VALUES ($1, COALESCE($2, ''), COALESCE($3, 0), COALESCE($4, ''), COALESCE($5, ''), COALESCE($6, ''))
	ON CONFLICT (identifier) DO UPDATE SET
		name          = COALESCE($2, patients.name),
		age           = COALESCE($3, patients.age),
		gender        = COALESCE($4, patients.gender),
		blood_type    = COALESCE($5, patients.blood_type),
		medical_notes = COALESCE($6, patients.medical_notes)
	RETURNING identifier, name, age, gender, blood_type, medical_notes, total_scans, first_seen, last_seen`

	var p scan.Patient
	err := s.pool.QueryRow(ctx, query,
		identifier, upd.Name, upd.Age, upd.Gender, upd.BloodType, upd.MedicalNotes,
	).Scan(&p.Identifier, &p.Name, &p.Age, &p.Gender, &p.BloodType, &p.MedicalNotes,
		&p.TotalScans, &p.FirstSeen, &p.LastSeen)
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("upsert patient: %w", err))
	}
	return &p, nil
}

// GetPatient retrieves a patient by identifier.
func (s *Store) GetPatient(ctx context.Context, identifier string) (*scan.Patient, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.GetPatient", "SELECT")
	defer span.End()

	var p scan.Patient
	err := s.pool.QueryRow(ctx,
		`SELECT identifier, name, age, gender, blood_type, medical_notes, total_scans, first_seen, last_seen
		 FROM patients WHERE identifier = $1`, identifier,
	).Scan(&p.Identifier, &p.Name, &p.Age, &p.Gender, &p.BloodType, &p.MedicalNotes,
		&p.TotalScans, &p.FirstSeen, &p.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, spanErr(span, fmt.Errorf("get patient: %w", err))
	}
	return &p, true, nil
}

// RecordPatientScan bumps the patient's scan count and last-seen timestamp,
// creating the row if needed.
func (s *Store) RecordPatientScan(ctx context.Context, identifier string) error {
	ctx, span := startSpan(ctx, "pgstore.RecordPatientScan", "UPSERT")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO patients (identifier, total_scans) VALUES ($1, 1)
		 ON CONFLICT (identifier) DO UPDATE SET
			total_scans = patients.total_scans + 1,
			last_seen   = now()`, identifier)
	if err != nil {
		return spanErr(span, fmt.Errorf("record patient scan: %w", err))
	}
	return nil
}

// GetFacility retrieves a facility by ID.
func (s *Store) GetFacility(ctx context.Context, id string) (*scan.Facility, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.GetFacility", "SELECT")
	defer span.End()

	var f scan.Facility
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, location FROM facilities WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, spanErr(span, fmt.Errorf("get facility: %w", err))
	}
	return &f, true, nil
}

// ListFacilities returns all facilities ordered by name.
func (s *Store) ListFacilities(ctx context.Context) ([]*scan.Facility, error) {
	ctx, span := startSpan(ctx, "pgstore.ListFacilities", "SELECT")
	defer span.End()

	rows, err := s.pool.Query(ctx, `SELECT id, name, location FROM facilities ORDER BY name`)
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("query facilities: %w", err))
	}
	defer rows.Close()

	var out []*scan.Facility
	for rows.Next() {
		var f scan.Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.Location); err != nil {
			return nil, spanErr(span, fmt.Errorf("scan facility: %w", err))
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, spanErr(span, fmt.Errorf("iterate facilities: %w", err))
	}
	return out, nil
}

// AddFacility inserts or updates a facility row.
func (s *Store) AddFacility(ctx context.Context, f *scan.Facility) error {
	ctx, span := startSpan(ctx, "pgstore.AddFacility", "UPSERT")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO facilities (id, name, location) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, location = EXCLUDED.location`,
		f.ID, f.Name, f.Location)
	if err != nil {
		return spanErr(span, fmt.Errorf("upsert facility: %w", err))
	}
	return nil
}

// Stats aggregates over all scans in one query.
func (s *Store) Stats(ctx context.Context) (*scan.Stats, error) {
	ctx, span := startSpan(ctx, "pgstore.Stats", "SELECT")
	defer span.End()

	st := &scan.Stats{ScansByUrgency: map[string]int{"critical": 0, "urgent": 0, "routine": 0}}
	var critical, urgent, routine int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*),
			COALESCE(avg(urgency), 0),
			count(*) FILTER (WHERE urgency >= 8),
			count(*) FILTER (WHERE urgency BETWEEN 4 AND 7),
			count(*) FILTER (WHERE urgency < 4)
		 FROM scans`,
	).Scan(&st.TotalScans, &st.AvgUrgency, &critical, &urgent, &routine)
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("aggregate stats: %w", err))
	}
	st.ScansByUrgency["critical"] = critical
	st.ScansByUrgency["urgent"] = urgent
	st.ScansByUrgency["routine"] = routine
	st.EstimatedMonthlyCost = float64(st.TotalScans) * costPerScan
	return st, nil
}

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// scanScanRow scans one scans row. Returns (nil, nil) when no row is found.
func scanScanRow(row pgx.Row) (*scan.Scan, error) {
	var (
		sc           scan.Scan
		status       string
		findingsJSON []byte
		risksJSON    []byte
	)
	err := row.Scan(
		&sc.ID, &sc.FacilityID, &sc.PatientIdentifier, &findingsJSON, &sc.Urgency, &sc.Reasoning,
		&sc.RecommendedAction, &risksJSON, &sc.Confidence, &sc.Provenance, &status,
		&sc.CreatedAt, &sc.ImageRef,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}

	sc.Status = scan.Status(status)
	if err := json.Unmarshal(findingsJSON, &sc.Findings); err != nil {
		return nil, fmt.Errorf("unmarshal findings: %w", err)
	}
	if err := json.Unmarshal(risksJSON, &sc.RiskFactors); err != nil {
		return nil, fmt.Errorf("unmarshal risk factors: %w", err)
	}
	return &sc, nil
}
