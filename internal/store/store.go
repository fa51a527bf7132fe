package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the persistence layer for documents, rules, projects and
// evaluations, backed by a single sqlite database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := GetSchema()

	lines := strings.Split(schema, "\n")
	var cleanLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	cleanSchema := strings.Join(cleanLines, "\n")

	if _, err := s.db.Exec(cleanSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	_, _ = s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, GetSchemaVersion())
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertDocument(doc *Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	result, err := s.db.Exec(`
		INSERT INTO documents (jurisdiction, filename, content_hash, clause_count, ingested_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.Jurisdiction, doc.Filename, doc.ContentHash, doc.ClauseCount, now)

	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}

	return result.LastInsertId()
}

// DocumentByHash reports whether a document with the same content was
// already ingested for the jurisdiction; used for at-most-once ingest.
func (s *Store) DocumentByHash(jurisdiction, contentHash string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &Document{}
	var ingestedAt sql.NullTime

	err := s.db.QueryRow(`
		SELECT id, jurisdiction, filename, content_hash, clause_count, ingested_at
		FROM documents WHERE jurisdiction = ? AND content_hash = ?
	`, jurisdiction, contentHash).Scan(
		&doc.ID, &doc.Jurisdiction, &doc.Filename, &doc.ContentHash, &doc.ClauseCount, &ingestedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("document by hash: %w", err)
	}

	if ingestedAt.Valid {
		doc.IngestedAt = ingestedAt.Time
	}

	return doc, nil
}

func (s *Store) InsertRules(rules []*Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO rules (document_id, jurisdiction, clause_no, text, inserted_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range rules {
		result, err := stmt.Exec(r.DocumentID, r.Jurisdiction, r.ClauseNo, r.Text, now)
		if err != nil {
			return fmt.Errorf("insert rule: %w", err)
		}
		r.ID, _ = result.LastInsertId()
		r.InsertedAt = now
	}

	return tx.Commit()
}

func (s *Store) RulesByJurisdiction(jurisdiction string, limit int) ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, document_id, jurisdiction, clause_no, text, inserted_at
		FROM rules WHERE jurisdiction = ? ORDER BY id ASC LIMIT ?
	`, jurisdiction, limit)

	if err != nil {
		return nil, fmt.Errorf("rules by jurisdiction: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

func (s *Store) RulesByDocument(documentID int64) ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, document_id, jurisdiction, clause_no, text, inserted_at
		FROM rules WHERE document_id = ? ORDER BY id ASC
	`, documentID)

	if err != nil {
		return nil, fmt.Errorf("rules by document: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

func scanRules(rows *sql.Rows) ([]*Rule, error) {
	var rules []*Rule

	for rows.Next() {
		r := &Rule{}
		var clauseNo sql.NullString
		var insertedAt sql.NullTime

		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Jurisdiction, &clauseNo, &r.Text, &insertedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}

		if clauseNo.Valid {
			r.ClauseNo = clauseNo.String
		}
		if insertedAt.Valid {
			r.InsertedAt = insertedAt.Time
		}

		rules = append(rules, r)
	}

	return rules, rows.Err()
}

func (s *Store) InsertClassifiedRules(rules []*ClassifiedRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO classified_rules (rule_id, jurisdiction, clause_no, category, details, original_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range rules {
		detailsJSON, err := json.Marshal(r.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}

		var ruleID any
		if r.RuleID > 0 {
			ruleID = r.RuleID
		}

		result, err := stmt.Exec(ruleID, r.Jurisdiction, r.ClauseNo, r.Category, string(detailsJSON), r.OriginalText, now)
		if err != nil {
			return fmt.Errorf("insert classified rule: %w", err)
		}
		r.ID, _ = result.LastInsertId()
		r.CreatedAt = now
	}

	return tx.Commit()
}

func (s *Store) ClassifiedRulesByJurisdiction(jurisdiction string) ([]*ClassifiedRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, rule_id, jurisdiction, clause_no, category, details, original_text, created_at
		FROM classified_rules WHERE jurisdiction = ? ORDER BY id ASC
	`, jurisdiction)

	if err != nil {
		return nil, fmt.Errorf("classified rules by jurisdiction: %w", err)
	}
	defer rows.Close()

	return scanClassifiedRules(rows)
}

func (s *Store) SearchClassifiedRules(query string, limit int) ([]*ClassifiedRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT c.id, c.rule_id, c.jurisdiction, c.clause_no, c.category, c.details, c.original_text, c.created_at
		FROM classified_rules c
		INNER JOIN classified_rules_fts fts ON c.id = fts.rowid
		WHERE classified_rules_fts MATCH ? LIMIT ?
	`, query, limit)

	if err != nil {
		return nil, fmt.Errorf("search classified rules: %w", err)
	}
	defer rows.Close()

	return scanClassifiedRules(rows)
}

func (s *Store) DeleteClassifiedRule(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM classified_rules WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete classified rule: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func scanClassifiedRules(rows *sql.Rows) ([]*ClassifiedRule, error) {
	var rules []*ClassifiedRule

	for rows.Next() {
		r := &ClassifiedRule{}
		var ruleID sql.NullInt64
		var clauseNo, detailsJSON, originalText sql.NullString
		var createdAt sql.NullTime

		err := rows.Scan(&r.ID, &ruleID, &r.Jurisdiction, &clauseNo, &r.Category, &detailsJSON, &originalText, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan classified rule: %w", err)
		}

		if ruleID.Valid {
			r.RuleID = ruleID.Int64
		}
		if clauseNo.Valid {
			r.ClauseNo = clauseNo.String
		}
		if originalText.Valid {
			r.OriginalText = originalText.String
		}
		if createdAt.Valid {
			r.CreatedAt = createdAt.Time
		}

		r.Details = map[string]any{}
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &r.Details); err != nil {
				r.Details = map[string]any{}
			}
		}

		rules = append(rules, r)
	}

	return rules, rows.Err()
}

func (s *Store) InsertProject(p *Project) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paramsJSON, err := json.Marshal(p.Parameters)
	if err != nil {
		return 0, fmt.Errorf("marshal parameters: %w", err)
	}

	if p.Status == "" {
		p.Status = ProjectPending
	}

	now := time.Now().UTC()
	result, err := s.db.Exec(`
		INSERT INTO projects (name, jurisdiction, parameters, status, submitted_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, p.Jurisdiction, string(paramsJSON), p.Status, now)

	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}

	p.SubmittedAt = now
	return result.LastInsertId()
}

func (s *Store) ProjectByID(id int64) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, name, jurisdiction, parameters, status, submitted_at, last_evaluated
		FROM projects WHERE id = ?
	`, id)

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("project by id: %w", err)
	}

	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	p := &Project{}
	var paramsJSON string
	var submittedAt, lastEvaluated sql.NullTime

	err := row.Scan(&p.ID, &p.Name, &p.Jurisdiction, &paramsJSON, &p.Status, &submittedAt, &lastEvaluated)
	if err != nil {
		return nil, err
	}

	if submittedAt.Valid {
		p.SubmittedAt = submittedAt.Time
	}
	if lastEvaluated.Valid {
		p.LastEvaluated = lastEvaluated.Time
	}

	p.Parameters = map[string]any{}
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &p.Parameters); err != nil {
			p.Parameters = map[string]any{}
		}
	}

	return p, nil
}

// Projects lists projects, optionally filtered by status and jurisdiction
// (empty filters match everything).
func (s *Store) Projects(status ProjectStatus, jurisdiction string, limit int) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, jurisdiction, parameters, status, submitted_at, last_evaluated
		FROM projects WHERE 1=1`
	args := []any{}

	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	if jurisdiction != "" {
		query += " AND jurisdiction = ?"
		args = append(args, jurisdiction)
	}
	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

func (s *Store) MarkProjectEvaluated(id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE projects SET status = ?, last_evaluated = ? WHERE id = ?
	`, ProjectEvaluated, at.UTC(), id)

	if err != nil {
		return fmt.Errorf("mark project evaluated: %w", err)
	}

	return nil
}

func (s *Store) InsertEvaluation(rec *EvaluationRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		INSERT INTO evaluations (project_id, jurisdiction, applicable_rules, overall_score, overall_status, results, evaluated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ProjectID, rec.Jurisdiction, rec.ApplicableRules, rec.OverallScore, rec.OverallStatus, string(rec.Results), rec.EvaluatedAt.UTC())

	if err != nil {
		return 0, fmt.Errorf("insert evaluation: %w", err)
	}

	return result.LastInsertId()
}

func (s *Store) EvaluationsByProject(projectID int64, limit int) ([]*EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, project_id, jurisdiction, applicable_rules, overall_score, overall_status, results, evaluated_at
		FROM evaluations WHERE project_id = ? ORDER BY id DESC LIMIT ?
	`, projectID, limit)

	if err != nil {
		return nil, fmt.Errorf("evaluations by project: %w", err)
	}
	defer rows.Close()

	var recs []*EvaluationRecord
	for rows.Next() {
		rec := &EvaluationRecord{}
		var results string
		var evaluatedAt sql.NullTime

		err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.Jurisdiction, &rec.ApplicableRules,
			&rec.OverallScore, &rec.OverallStatus, &results, &evaluatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}

		rec.Results = []byte(results)
		if evaluatedAt.Valid {
			rec.EvaluatedAt = evaluatedAt.Time
		}

		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (s *Store) Stats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{}
	var lastIngested sql.NullTime

	err := s.db.QueryRow(`
		SELECT COUNT(*), MAX(ingested_at) FROM documents
	`).Scan(&stats.Documents, &lastIngested)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	if lastIngested.Valid {
		stats.LastIngestedAt = lastIngested.Time
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM rules", &stats.Rules},
		{"SELECT COUNT(*) FROM classified_rules", &stats.ClassifiedRules},
		{"SELECT COUNT(*) FROM projects", &stats.Projects},
		{"SELECT COUNT(*) FROM projects WHERE status = 'pending'", &stats.PendingProjects},
		{"SELECT COUNT(*) FROM evaluations", &stats.Evaluations},
	}

	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("get stats: %w", err)
		}
	}

	return stats, nil
}
