package projects

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urbanmesh/zonegate/internal/store"
	"github.com/urbanmesh/zonegate/internal/tools"
)

func GetTools(st *store.Store) []tools.Tool {
	return []tools.Tool{
		NewSubmitTool(st),
		NewListTool(st),
		NewGetTool(st),
	}
}

type SubmitTool struct {
	store *store.Store
}

func NewSubmitTool(st *store.Store) *SubmitTool {
	return &SubmitTool{store: st}
}

func (t *SubmitTool) Name() string {
	return "project_submit"
}

func (t *SubmitTool) Description() string {
	return `Submit a building project proposal for later compliance evaluation.

Parameters is a free-form map of design values. Recognized numeric keys
are height_m, fsi, setback_m, floors, parking_spaces (or parking) and
coverage_percent (or coverage); unrecognized keys are stored but not
checked. The project starts in status "pending".`
}

func (t *SubmitTool) Title() string {
	return "Submit Project"
}

func (t *SubmitTool) Annotations() map[string]bool {
	return tools.NonIdempotentWriteAnnotations()
}

func (t *SubmitTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {
				"type": "string",
				"description": "Project name"
			},
			"jurisdiction": {
				"type": "string",
				"description": "Jurisdiction whose rules apply"
			},
			"parameters": {
				"type": "object",
				"description": "Design parameters (height_m, fsi, setback_m, floors, parking_spaces, coverage_percent, ...)"
			}
		},
		"required": ["name", "jurisdiction", "parameters"]
	}`)
}

func (t *SubmitTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		Name         string         `json:"name"`
		Jurisdiction string         `json:"jurisdiction"`
		Parameters   map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if req.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if req.Jurisdiction == "" {
		return nil, fmt.Errorf("jurisdiction is required")
	}
	if req.Parameters == nil {
		return nil, fmt.Errorf("parameters are required")
	}

	project := &store.Project{
		Name:         req.Name,
		Jurisdiction: req.Jurisdiction,
		Parameters:   req.Parameters,
		Status:       store.ProjectPending,
	}

	id, err := t.store.InsertProject(project)
	if err != nil {
		return nil, fmt.Errorf("failed to store project: %w", err)
	}

	return map[string]interface{}{
		"id":           id,
		"name":         req.Name,
		"jurisdiction": req.Jurisdiction,
		"status":       store.ProjectPending,
	}, nil
}

type ListTool struct {
	store *store.Store
}

func NewListTool(st *store.Store) *ListTool {
	return &ListTool{store: st}
}

func (t *ListTool) Name() string {
	return "project_list"
}

func (t *ListTool) Description() string {
	return "List submitted projects, optionally filtered by status (pending, evaluated) and jurisdiction"
}

func (t *ListTool) Title() string {
	return "List Projects"
}

func (t *ListTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *ListTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"status": {
				"type": "string",
				"enum": ["pending", "evaluated"],
				"description": "Filter by project status"
			},
			"jurisdiction": {
				"type": "string",
				"description": "Filter by jurisdiction"
			},
			"limit": {
				"type": "integer",
				"description": "Maximum projects to return (default 50)"
			}
		},
		"required": []
	}`)
}

func (t *ListTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		Status       string `json:"status"`
		Jurisdiction string `json:"jurisdiction"`
		Limit        int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if req.Limit <= 0 {
		req.Limit = 50
	}

	switch req.Status {
	case "", string(store.ProjectPending), string(store.ProjectEvaluated):
	default:
		return nil, fmt.Errorf("unknown status: %s", req.Status)
	}

	projects, err := t.store.Projects(store.ProjectStatus(req.Status), req.Jurisdiction, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return map[string]interface{}{
		"count":    len(projects),
		"projects": projects,
	}, nil
}

type GetTool struct {
	store *store.Store
}

func NewGetTool(st *store.Store) *GetTool {
	return &GetTool{store: st}
}

func (t *GetTool) Name() string {
	return "project_get"
}

func (t *GetTool) Description() string {
	return "Get a submitted project by id, including its design parameters and status"
}

func (t *GetTool) Title() string {
	return "Get Project"
}

func (t *GetTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *GetTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {
				"type": "integer",
				"description": "Project id"
			}
		},
		"required": ["id"]
	}`)
}

func (t *GetTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
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

	project, err := t.store.ProjectByID(req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project not found: %d", req.ID)
	}

	return project, nil
}
