package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/urbanmesh/zonegate/internal/classify"
	"github.com/urbanmesh/zonegate/internal/evaluate"
	"github.com/urbanmesh/zonegate/internal/logger"
	"github.com/urbanmesh/zonegate/internal/store"
	"github.com/urbanmesh/zonegate/internal/tools"
)

var log = logger.ForComponent("compliance")

func GetTools(st *store.Store, evaluator *evaluate.Evaluator) []tools.Tool {
	runner := &Runner{store: st, evaluator: evaluator}

	return []tools.Tool{
		NewEvaluateProjectTool(runner),
		NewEvaluatePendingTool(runner),
		NewEvaluationGetTool(st),
	}
}

// Runner wires the evaluator to stored projects and rules. Each run
// loads the jurisdiction's classified rules, scores the proposal,
// persists the verdict, and flips the project to evaluated.
type Runner struct {
	store     *store.Store
	evaluator *evaluate.Evaluator
}

func NewRunner(st *store.Store, evaluator *evaluate.Evaluator) *Runner {
	return &Runner{store: st, evaluator: evaluator}
}

func (r *Runner) EvaluateProject(project *store.Project) (*evaluate.Evaluation, error) {
	classified, err := r.store.ClassifiedRulesByJurisdiction(project.Jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for %s: %w", project.Jurisdiction, err)
	}

	rules := make([]evaluate.Rule, 0, len(classified))
	for _, cr := range classified {
		rules = append(rules, evaluate.Rule{
			ID:       strconv.FormatInt(cr.ID, 10),
			ClauseNo: cr.ClauseNo,
			Category: classify.Category(cr.Category),
			Details:  cr.Details,
			Text:     cr.OriginalText,
		})
	}

	proposal := evaluate.Proposal{
		Name:         project.Name,
		Jurisdiction: project.Jurisdiction,
		Parameters:   project.Parameters,
	}

	eval := r.evaluator.Evaluate(proposal, rules)

	resultsJSON, err := json.Marshal(eval.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize results: %w", err)
	}

	rec := &store.EvaluationRecord{
		ProjectID:       project.ID,
		Jurisdiction:    project.Jurisdiction,
		ApplicableRules: eval.ApplicableRules,
		OverallScore:    eval.OverallScore,
		OverallStatus:   string(eval.OverallStatus),
		Results:         resultsJSON,
		EvaluatedAt:     eval.EvaluatedAt,
	}

	if _, err := r.store.InsertEvaluation(rec); err != nil {
		return nil, fmt.Errorf("failed to store evaluation: %w", err)
	}

	if err := r.store.MarkProjectEvaluated(project.ID, eval.EvaluatedAt); err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}

	log.Info("project evaluated",
		"project_id", project.ID,
		"jurisdiction", project.Jurisdiction,
		"rules", len(rules),
		"applicable", eval.ApplicableRules,
		"score", eval.OverallScore,
		"status", eval.OverallStatus)

	return eval, nil
}

type EvaluateProjectTool struct {
	runner *Runner
}

func NewEvaluateProjectTool(runner *Runner) *EvaluateProjectTool {
	return &EvaluateProjectTool{runner: runner}
}

func (t *EvaluateProjectTool) Name() string {
	return "evaluate_project"
}

func (t *EvaluateProjectTool) Description() string {
	return `Evaluate one submitted project against its jurisdiction's classified rules.

Every rule is scored (compliant, partial within tolerance, non-compliant,
not applicable, informational, or invalid for malformed data). The overall
score is the mean over applicable rules; the verdict and per-rule results
are stored and returned. A project may be re-evaluated after new rules
are ingested.`
}

func (t *EvaluateProjectTool) Title() string {
	return "Evaluate Project"
}

func (t *EvaluateProjectTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *EvaluateProjectTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {
				"type": "integer",
				"description": "Project id to evaluate"
			}
		},
		"required": ["id"]
	}`)
}

func (t *EvaluateProjectTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if req.ID <= 0 {
		return nil, fmt.Errorf("id is required")
	}

	project, err := t.runner.store.ProjectByID(req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project not found: %d", req.ID)
	}

	return t.runner.EvaluateProject(project)
}

type EvaluatePendingTool struct {
	runner *Runner
}

func NewEvaluatePendingTool(runner *Runner) *EvaluatePendingTool {
	return &EvaluatePendingTool{runner: runner}
}

func (t *EvaluatePendingTool) Name() string {
	return "evaluate_pending"
}

func (t *EvaluatePendingTool) Description() string {
	return "Evaluate all pending projects, optionally restricted to one jurisdiction. Failures on individual projects are reported without aborting the batch."
}

func (t *EvaluatePendingTool) Title() string {
	return "Evaluate Pending Projects"
}

func (t *EvaluatePendingTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *EvaluatePendingTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"jurisdiction": {
				"type": "string",
				"description": "Only evaluate pending projects in this jurisdiction"
			},
			"limit": {
				"type": "integer",
				"description": "Maximum projects to evaluate in one call (default 50)"
			}
		},
		"required": []
	}`)
}

func (t *EvaluatePendingTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		Jurisdiction string `json:"jurisdiction"`
		Limit        int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if req.Limit <= 0 {
		req.Limit = 50
	}

	pending, err := t.runner.store.Projects(store.ProjectPending, req.Jurisdiction, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending projects: %w", err)
	}

	evaluated := make([]*evaluate.Evaluation, 0, len(pending))
	failures := make([]map[string]interface{}, 0)

	for _, project := range pending {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		eval, err := t.runner.EvaluateProject(project)
		if err != nil {
			log.Warn("pending evaluation failed", "project_id", project.ID, "error", err)
			failures = append(failures, map[string]interface{}{
				"project_id": project.ID,
				"error":      err.Error(),
			})
			continue
		}

		evaluated = append(evaluated, eval)
	}

	return map[string]interface{}{
		"pending":     len(pending),
		"evaluated":   len(evaluated),
		"failures":    failures,
		"evaluations": evaluated,
	}, nil
}

type EvaluationGetTool struct {
	store *store.Store
}

func NewEvaluationGetTool(st *store.Store) *EvaluationGetTool {
	return &EvaluationGetTool{store: st}
}

func (t *EvaluationGetTool) Name() string {
	return "evaluation_get"
}

func (t *EvaluationGetTool) Description() string {
	return "Get stored evaluations for a project, newest first, with per-rule results"
}

func (t *EvaluationGetTool) Title() string {
	return "Get Evaluations"
}

func (t *EvaluationGetTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *EvaluationGetTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"project_id": {
				"type": "integer",
				"description": "Project id"
			},
			"limit": {
				"type": "integer",
				"description": "Maximum evaluations to return (default 10)"
			}
		},
		"required": ["project_id"]
	}`)
}

func (t *EvaluationGetTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		ProjectID int64 `json:"project_id"`
		Limit     int   `json:"limit"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if req.ProjectID <= 0 {
		return nil, fmt.Errorf("project_id is required")
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	records, err := t.store.EvaluationsByProject(req.ProjectID, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluations: %w", err)
	}

	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		var results []evaluate.RuleResult
		if len(rec.Results) > 0 {
			if err := json.Unmarshal(rec.Results, &results); err != nil {
				log.Warn("stored results unreadable", "evaluation_id", rec.ID, "error", err)
			}
		}

		out = append(out, map[string]interface{}{
			"id":                     rec.ID,
			"project_id":             rec.ProjectID,
			"jurisdiction":           rec.Jurisdiction,
			"applicable_rules_count": rec.ApplicableRules,
			"overall_score":          rec.OverallScore,
			"overall_status":         rec.OverallStatus,
			"results":                results,
			"evaluated_at":           rec.EvaluatedAt.Format(time.RFC3339),
		})
	}

	return map[string]interface{}{
		"project_id":  req.ProjectID,
		"count":       len(out),
		"evaluations": out,
	}, nil
}
