package store

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "zonegate.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedDocument(t *testing.T, s *Store, jurisdiction string) int64 {
	t.Helper()
	id, err := s.InsertDocument(&Document{
		Jurisdiction: jurisdiction,
		Filename:     "dcr.txt",
		ContentHash:  "hash-" + jurisdiction,
		ClauseCount:  2,
	})
	if err != nil {
		t.Fatalf("insert document: %v", err)
	}
	return id
}

func TestDocumentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seedDocument(t, s, "Mumbai")

	doc, err := s.DocumentByHash("Mumbai", "hash-Mumbai")
	if err != nil {
		t.Fatalf("document by hash: %v", err)
	}
	if doc == nil {
		t.Fatal("expected document, got nil")
	}
	if doc.ClauseCount != 2 || doc.Filename != "dcr.txt" {
		t.Errorf("unexpected document: %+v", doc)
	}

	missing, err := s.DocumentByHash("Mumbai", "other-hash")
	if err != nil {
		t.Fatalf("document by hash: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown hash, got %+v", missing)
	}
}

func TestDuplicateDocumentRejected(t *testing.T) {
	s := newTestStore(t)
	seedDocument(t, s, "Pune")

	_, err := s.InsertDocument(&Document{Jurisdiction: "Pune", ContentHash: "hash-Pune"})
	if err == nil {
		t.Error("expected unique constraint violation for duplicate content hash")
	}
}

func TestRulesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	docID := seedDocument(t, s, "Mumbai")

	rules := []*Rule{
		{DocumentID: docID, Jurisdiction: "Mumbai", ClauseNo: "4.1", Text: "Height limit 24 m"},
		{DocumentID: docID, Jurisdiction: "Mumbai", ClauseNo: "4.2", Text: "FSI 2.5"},
	}
	if err := s.InsertRules(rules); err != nil {
		t.Fatalf("insert rules: %v", err)
	}
	for i, r := range rules {
		if r.ID == 0 {
			t.Errorf("rule %d: id not backfilled", i)
		}
	}

	got, err := s.RulesByJurisdiction("Mumbai", 10)
	if err != nil {
		t.Fatalf("rules by jurisdiction: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(got))
	}
	if got[0].ClauseNo != "4.1" || got[1].ClauseNo != "4.2" {
		t.Errorf("rules out of order: %v %v", got[0].ClauseNo, got[1].ClauseNo)
	}

	byDoc, err := s.RulesByDocument(docID)
	if err != nil {
		t.Fatalf("rules by document: %v", err)
	}
	if len(byDoc) != 2 {
		t.Errorf("expected 2 rules by document, got %d", len(byDoc))
	}
}

func TestClassifiedRulesRoundTrip(t *testing.T) {
	s := newTestStore(t)

	rules := []*ClassifiedRule{
		{
			Jurisdiction: "Mumbai",
			ClauseNo:     "4.1",
			Category:     "height",
			Details:      map[string]any{"height_m": 24.0},
			OriginalText: "Maximum building height shall be 24 m",
		},
		{
			Jurisdiction: "Mumbai",
			Category:     "other",
			Details:      map[string]any{},
			OriginalText: "General provisions apply",
		},
		{
			Jurisdiction: "Nashik",
			Category:     "fsi",
			Details:      map[string]any{"fsi": 1.8},
			OriginalText: "FSI of 1.8 permitted",
		},
	}
	if err := s.InsertClassifiedRules(rules); err != nil {
		t.Fatalf("insert classified rules: %v", err)
	}

	mumbai, err := s.ClassifiedRulesByJurisdiction("Mumbai")
	if err != nil {
		t.Fatalf("classified by jurisdiction: %v", err)
	}
	if len(mumbai) != 2 {
		t.Fatalf("expected 2 Mumbai rules, got %d", len(mumbai))
	}
	if v, ok := mumbai[0].Details["height_m"].(float64); !ok || v != 24.0 {
		t.Errorf("details round trip failed: %v", mumbai[0].Details)
	}

	found, err := s.SearchClassifiedRules("height", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].Category != "height" {
		t.Errorf("search results: %v", found)
	}

	deleted, err := s.DeleteClassifiedRule(mumbai[0].ID)
	if err != nil || !deleted {
		t.Fatalf("delete classified rule: deleted=%v err=%v", deleted, err)
	}
	deleted, err = s.DeleteClassifiedRule(mumbai[0].ID)
	if err != nil || deleted {
		t.Errorf("second delete should be a no-op, deleted=%v err=%v", deleted, err)
	}
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestStore(t)

	p := &Project{
		Name:         "Sunrise Residency",
		Jurisdiction: "Mumbai",
		Parameters:   map[string]any{"height_m": 21.0, "fsi": "1.9"},
	}
	id, err := s.InsertProject(p)
	if err != nil {
		t.Fatalf("insert project: %v", err)
	}

	got, err := s.ProjectByID(id)
	if err != nil {
		t.Fatalf("project by id: %v", err)
	}
	if got == nil {
		t.Fatal("expected project, got nil")
	}
	if got.Status != ProjectPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.Parameters["fsi"] != "1.9" {
		t.Errorf("parameters round trip failed: %v", got.Parameters)
	}

	pending, err := s.Projects(ProjectPending, "Mumbai", 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending project, got %d", len(pending))
	}

	if err := s.MarkProjectEvaluated(id, time.Now()); err != nil {
		t.Fatalf("mark evaluated: %v", err)
	}

	pending, err = s.Projects(ProjectPending, "", 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending projects after evaluation, got %d", len(pending))
	}

	got, _ = s.ProjectByID(id)
	if got.Status != ProjectEvaluated || got.LastEvaluated.IsZero() {
		t.Errorf("project not marked evaluated: %+v", got)
	}

	none, err := s.ProjectByID(9999)
	if err != nil || none != nil {
		t.Errorf("unknown project should be (nil, nil), got (%v, %v)", none, err)
	}
}

func TestEvaluationRoundTrip(t *testing.T) {
	s := newTestStore(t)

	projectID, err := s.InsertProject(&Project{
		Name:         "Test",
		Jurisdiction: "Mumbai",
		Parameters:   map[string]any{},
	})
	if err != nil {
		t.Fatalf("insert project: %v", err)
	}

	rec := &EvaluationRecord{
		ProjectID:       projectID,
		Jurisdiction:    "Mumbai",
		ApplicableRules: 3,
		OverallScore:    0.5,
		OverallStatus:   "PARTIALLY_COMPLIANT",
		Results:         []byte(`[{"category":"height","status":"PARTIAL"}]`),
		EvaluatedAt:     time.Now(),
	}
	if _, err := s.InsertEvaluation(rec); err != nil {
		t.Fatalf("insert evaluation: %v", err)
	}

	evals, err := s.EvaluationsByProject(projectID, 10)
	if err != nil {
		t.Fatalf("evaluations by project: %v", err)
	}
	if len(evals) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(evals))
	}
	if evals[0].OverallScore != 0.5 || evals[0].OverallStatus != "PARTIALLY_COMPLIANT" {
		t.Errorf("unexpected evaluation: %+v", evals[0])
	}
	if len(evals[0].Results) == 0 {
		t.Error("results payload missing")
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats on empty store: %v", err)
	}
	if stats.Documents != 0 || stats.Projects != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}

	docID := seedDocument(t, s, "Mumbai")
	s.InsertRules([]*Rule{{DocumentID: docID, Jurisdiction: "Mumbai", Text: "some text"}})
	s.InsertProject(&Project{Name: "P", Jurisdiction: "Mumbai", Parameters: map[string]any{}})

	stats, err = s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Documents != 1 || stats.Rules != 1 || stats.Projects != 1 || stats.PendingProjects != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.LastIngestedAt.IsZero() {
		t.Error("expected last ingested timestamp")
	}
}
