// Package tsstore provides a Typesense implementation of evidence.Store.
// Case records are ranked by keyword relevance over their searchable content;
// history fragments are filtered by patient identifier.
package tsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/linnemanlabs/vital/internal/evidence"
)

const (
	casesCollection     = "triage_cases"
	fragmentsCollection = "patient_fragments"

	connectTimeout = 5 * time.Second
)

// Store persists evidence in two Typesense collections.
type Store struct {
	client *typesense.Client
}

// New connects to Typesense, verifies health, and ensures both collections
// exist.
func New(ctx context.Context, serverURL, apiKey string) (*Store, error) {
	client := typesense.NewClient(
		typesense.WithServer(serverURL),
		typesense.WithAPIKey(apiKey),
		typesense.WithConnectionTimeout(connectTimeout),
	)

	if _, err := client.Health(ctx, connectTimeout); err != nil {
		return nil, fmt.Errorf("typesense health: %w", err)
	}

	s := &Store{client: client}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	existing, err := s.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieve collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, col := range existing {
		have[col.Name] = true
	}

	if !have[casesCollection] {
		schema := &api.CollectionSchema{
			Name: casesCollection,
			Fields: []api.Field{
				{Name: "case_id", Type: "string"},
				{Name: "conditions", Type: "string[]"},
				{Name: "urgency", Type: "int32"},
				{Name: "outcome", Type: "string", Optional: pointer.True()},
				{Name: "clinical_notes", Type: "string", Optional: pointer.True()},
				{Name: "content", Type: "string"},
				{Name: "recorded_at", Type: "int64"},
			},
			DefaultSortingField: pointer.String("recorded_at"),
		}
		if _, err := s.client.Collections().Create(ctx, schema); err != nil {
			return fmt.Errorf("create %s: %w", casesCollection, err)
		}
	}

	if !have[fragmentsCollection] {
		schema := &api.CollectionSchema{
			Name: fragmentsCollection,
			Fields: []api.Field{
				{Name: "patient_id", Type: "string"},
				{Name: "age", Type: "int32", Optional: pointer.True()},
				{Name: "gender", Type: "string", Optional: pointer.True()},
				{Name: "risk_factors", Type: "string[]", Optional: pointer.True()},
				{Name: "scan_history", Type: "string", Optional: pointer.True()},
				{Name: "previous_scans", Type: "int32"},
				{Name: "recorded_at", Type: "int64"},
			},
			DefaultSortingField: pointer.String("recorded_at"),
		}
		if _, err := s.client.Collections().Create(ctx, schema); err != nil {
			return fmt.Errorf("create %s: %w", fragmentsCollection, err)
		}
	}

	return nil
}

// Search finds the case records most relevant to the query terms, ranked by
// text match over the content field with most-recent first among ties.
func (s *Store) Search(ctx context.Context, terms []string, limit int) ([]*evidence.CaseRecord, error) {
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(strings.Join(terms, " ")),
		QueryBy: pointer.String("content,conditions"),
		SortBy:  pointer.String("_text_match:desc,recorded_at:desc"),
		PerPage: pointer.Int(limit),
	}
	result, err := s.client.Collection(casesCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search cases: %w", err)
	}
	if result.Hits == nil {
		return nil, nil
	}

	out := make([]*evidence.CaseRecord, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		out = append(out, caseFromDocument(*hit.Document))
	}
	return out, nil
}

// FetchFragments returns up to limit history fragments for the patient
// identifier, oldest first.
func (s *Store) FetchFragments(ctx context.Context, patientID string, limit int) ([]*evidence.HistoryFragment, error) {
	if patientID == "" || limit <= 0 {
		return nil, nil
	}

	params := &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		QueryBy:  pointer.String("patient_id"),
		FilterBy: pointer.String(fmt.Sprintf("patient_id:=%s", patientID)),
		SortBy:   pointer.String("recorded_at:asc"),
		PerPage:  pointer.Int(limit),
	}
	result, err := s.client.Collection(fragmentsCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch fragments: %w", err)
	}
	if result.Hits == nil {
		return nil, nil
	}

	out := make([]*evidence.HistoryFragment, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		out = append(out, fragmentFromDocument(*hit.Document))
	}
	return out, nil
}

// AppendCase indexes one case record. The case ID doubles as the document ID
// so a retried write replaces the same document instead of duplicating it.
func (s *Store) AppendCase(ctx context.Context, c *evidence.CaseRecord) error {
	if _, err := s.client.Collection(casesCollection).Documents().Upsert(ctx, caseDocument(c)); err != nil {
		return fmt.Errorf("append case %s: %w", c.CaseID, err)
	}
	return nil
}

func caseDocument(c *evidence.CaseRecord) map[string]interface{} {
	doc := map[string]interface{}{
		"case_id":        c.CaseID,
		"conditions":     c.Conditions,
		"urgency":        c.Urgency,
		"outcome":        c.Outcome,
		"clinical_notes": c.ClinicalNotes,
		"content":        c.Content,
		"recorded_at":    c.RecordedAt.Unix(),
	}
	if c.CaseID != "" {
		doc["id"] = c.CaseID
	}
	return doc
}

// AppendFragment indexes one history fragment. Scan history is stored as a
// JSON string, matching the flat field model of the collection.
func (s *Store) AppendFragment(ctx context.Context, f *evidence.HistoryFragment) error {
	history, err := json.Marshal(f.ScanHistory)
	if err != nil {
		return fmt.Errorf("marshal scan history: %w", err)
	}
	doc := map[string]interface{}{
		"patient_id":     f.PatientIdentifier,
		"age":            f.Age,
		"gender":         f.Gender,
		"risk_factors":   f.RiskFactors,
		"scan_history":   string(history),
		"previous_scans": f.PreviousScans,
		"recorded_at":    f.RecordedAt.Unix(),
	}
	if _, err := s.client.Collection(fragmentsCollection).Documents().Upsert(ctx, doc); err != nil {
		return fmt.Errorf("append fragment for %s: %w", f.PatientIdentifier, err)
	}
	return nil
}

// Count returns per-collection document totals.
func (s *Store) Count(ctx context.Context) (*evidence.Counts, error) {
	counts := &evidence.Counts{}

	cases, err := s.client.Collection(casesCollection).Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", casesCollection, err)
	}
	if cases.NumDocuments != nil {
		counts.Cases = int(*cases.NumDocuments)
	}

	frags, err := s.client.Collection(fragmentsCollection).Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", fragmentsCollection, err)
	}
	if frags.NumDocuments != nil {
		counts.Fragments = int(*frags.NumDocuments)
	}

	return counts, nil
}

// caseFromDocument rebuilds a CaseRecord from a Typesense document map.
func caseFromDocument(doc map[string]interface{}) *evidence.CaseRecord {
	c := &evidence.CaseRecord{
		CaseID:        asString(doc["case_id"]),
		Outcome:       asString(doc["outcome"]),
		ClinicalNotes: asString(doc["clinical_notes"]),
		Content:       asString(doc["content"]),
		Conditions:    asStrings(doc["conditions"]),
		Urgency:       asInt(doc["urgency"]),
	}
	if ts := asInt64(doc["recorded_at"]); ts > 0 {
		c.RecordedAt = time.Unix(ts, 0).UTC()
	}
	return c
}

// fragmentFromDocument rebuilds a HistoryFragment from a Typesense document
// map. Unparseable scan history is dropped rather than failing the fetch.
func fragmentFromDocument(doc map[string]interface{}) *evidence.HistoryFragment {
	f := &evidence.HistoryFragment{
		PatientIdentifier: asString(doc["patient_id"]),
		Age:               asInt(doc["age"]),
		Gender:            asString(doc["gender"]),
		RiskFactors:       asStrings(doc["risk_factors"]),
		PreviousScans:     asInt(doc["previous_scans"]),
	}
	if ts := asInt64(doc["recorded_at"]); ts > 0 {
		f.RecordedAt = time.Unix(ts, 0).UTC()
	}
	if raw := asString(doc["scan_history"]); raw != "" {
		var notes []evidence.ScanNote
		if err := json.Unmarshal([]byte(raw), &notes); err == nil {
			f.ScanHistory = notes
		}
	}
	return f
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asStrings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asInt(v interface{}) int {
	return int(asInt64(v))
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
