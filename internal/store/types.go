package store

import "time"

type ProjectStatus string

const (
	ProjectPending   ProjectStatus = "pending"
	ProjectEvaluated ProjectStatus = "evaluated"
)

type Document struct {
	ID           int64     `json:"id"`
	Jurisdiction string    `json:"jurisdiction"`
	Filename     string    `json:"filename,omitempty"`
	ContentHash  string    `json:"content_hash,omitempty"`
	ClauseCount  int       `json:"clause_count"`
	IngestedAt   time.Time `json:"ingested_at"`
}

type Rule struct {
	ID           int64     `json:"id"`
	DocumentID   int64     `json:"document_id"`
	Jurisdiction string    `json:"jurisdiction"`
	ClauseNo     string    `json:"clause_no,omitempty"`
	Text         string    `json:"text"`
	InsertedAt   time.Time `json:"inserted_at"`
}

type ClassifiedRule struct {
	ID           int64          `json:"id"`
	RuleID       int64          `json:"rule_id,omitempty"`
	Jurisdiction string         `json:"jurisdiction"`
	ClauseNo     string         `json:"clause_no,omitempty"`
	Category     string         `json:"category"`
	Details      map[string]any `json:"details"`
	OriginalText string         `json:"original_text,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Project struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Jurisdiction  string         `json:"jurisdiction"`
	Parameters    map[string]any `json:"parameters"`
	Status        ProjectStatus  `json:"status"`
	SubmittedAt   time.Time      `json:"submitted_at"`
	LastEvaluated time.Time      `json:"last_evaluated,omitempty"`
}

type EvaluationRecord struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"project_id"`
	Jurisdiction    string    `json:"jurisdiction"`
	ApplicableRules int       `json:"applicable_rules_count"`
	OverallScore    float64   `json:"overall_score"`
	OverallStatus   string    `json:"overall_status"`
	Results         []byte    `json:"results"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

type Stats struct {
	Documents       int       `json:"documents"`
	Rules           int       `json:"rules"`
	ClassifiedRules int       `json:"classified_rules"`
	Projects        int       `json:"projects"`
	PendingProjects int       `json:"pending_projects"`
	Evaluations     int       `json:"evaluations"`
	LastIngestedAt  time.Time `json:"last_ingested_at,omitempty"`
}
