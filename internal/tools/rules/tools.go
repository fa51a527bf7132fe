package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urbanmesh/zonegate/internal/classify"
	"github.com/urbanmesh/zonegate/internal/ingest"
	"github.com/urbanmesh/zonegate/internal/store"
	"github.com/urbanmesh/zonegate/internal/tools"
)

const defaultListLimit = 100

func GetTools(st *store.Store) []tools.Tool {
	ingestor := ingest.NewIngestor(st)

	return []tools.Tool{
		NewIngestTool(st, ingestor),
		NewClassifyTool(),
		NewListTool(st),
		NewSearchTool(st),
		NewDeleteTool(st),
	}
}

type ClassifyTool struct{}

func NewClassifyTool() *ClassifyTool {
	return &ClassifyTool{}
}

func (t *ClassifyTool) Name() string {
	return "rules_classify"
}

func (t *ClassifyTool) Description() string {
	return "Classify a single clause text into a rule category with extracted numeric details, without storing anything. Useful for previewing how a clause would be interpreted."
}

func (t *ClassifyTool) Title() string {
	return "Classify Clause"
}

func (t *ClassifyTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *ClassifyTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"text": {
				"type": "string",
				"description": "Clause text to classify"
			}
		},
		"required": ["text"]
	}`)
}

func (t *ClassifyTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if req.Text == "" {
		return nil, fmt.Errorf("text is required")
	}

	category, details := classify.Classify(req.Text)

	return map[string]interface{}{
		"category": category,
		"details":  details,
	}, nil
}

type IngestTool struct {
	store    *store.Store
	ingestor *ingest.Ingestor
}

func NewIngestTool(st *store.Store, ingestor *ingest.Ingestor) *IngestTool {
	return &IngestTool{store: st, ingestor: ingestor}
}

func (t *IngestTool) Name() string {
	return "rules_ingest"
}

func (t *IngestTool) Description() string {
	return `Ingest a zoning regulation document for a jurisdiction.

The document text is segmented into clauses, each clause is classified
into a rule category (height, fsi, setback, floors, parking, land_use,
density, coverage, entitlement, other) with extracted numeric limits,
and the results are persisted. Re-submitting identical text for the
same jurisdiction is rejected as a duplicate.`
}

func (t *IngestTool) Title() string {
	return "Ingest Regulation Document"
}

func (t *IngestTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *IngestTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"text": {
				"type": "string",
				"description": "Full regulation document text"
			},
			"jurisdiction": {
				"type": "string",
				"description": "Jurisdiction the document belongs to"
			},
			"filename": {
				"type": "string",
				"description": "Optional source filename for provenance"
			}
		},
		"required": ["text", "jurisdiction"]
	}`)
}

func (t *IngestTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		Text         string `json:"text"`
		Jurisdiction string `json:"jurisdiction"`
		Filename     string `json:"filename"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if req.Text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if req.Jurisdiction == "" {
		return nil, fmt.Errorf("jurisdiction is required")
	}

	result, err := t.ingestor.IngestText(req.Text, req.Filename, req.Jurisdiction)
	if err != nil {
		return nil, err
	}

	return result, nil
}

type ListTool struct {
	store *store.Store
}

func NewListTool(st *store.Store) *ListTool {
	return &ListTool{store: st}
}

func (t *ListTool) Name() string {
	return "rules_list"
}

func (t *ListTool) Description() string {
	return "List classified zoning rules for a jurisdiction with their categories and extracted limits"
}

func (t *ListTool) Title() string {
	return "List Classified Rules"
}

func (t *ListTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *ListTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"jurisdiction": {
				"type": "string",
				"description": "Jurisdiction to list rules for"
			},
			"limit": {
				"type": "integer",
				"description": "Maximum rules to return (default 100)"
			}
		},
		"required": ["jurisdiction"]
	}`)
}

func (t *ListTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
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

	if req.Jurisdiction == "" {
		return nil, fmt.Errorf("jurisdiction is required")
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}

	rules, err := t.store.ClassifiedRulesByJurisdiction(req.Jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	if len(rules) > req.Limit {
		rules = rules[:req.Limit]
	}

	return map[string]interface{}{
		"jurisdiction": req.Jurisdiction,
		"count":        len(rules),
		"rules":        rules,
	}, nil
}

type SearchTool struct {
	store *store.Store
}

func NewSearchTool(st *store.Store) *SearchTool {
	return &SearchTool{store: st}
}

func (t *SearchTool) Name() string {
	return "rules_search"
}

func (t *SearchTool) Description() string {
	return "Full-text search over ingested zoning rules (clause numbers and original clause text)"
}

func (t *SearchTool) Title() string {
	return "Search Rules"
}

func (t *SearchTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "Full-text search query"
			},
			"limit": {
				"type": "integer",
				"description": "Maximum results (default 20)"
			}
		},
		"required": ["query"]
	}`)
}

func (t *SearchTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}

	rules, err := t.store.SearchClassifiedRules(req.Query, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return map[string]interface{}{
		"query": req.Query,
		"count": len(rules),
		"rules": rules,
	}, nil
}

type DeleteTool struct {
	store *store.Store
}

func NewDeleteTool(st *store.Store) *DeleteTool {
	return &DeleteTool{store: st}
}

func (t *DeleteTool) Name() string {
	return "rules_delete"
}

func (t *DeleteTool) Description() string {
	return "Delete a classified rule by id. Future evaluations no longer consider the rule."
}

func (t *DeleteTool) Title() string {
	return "Delete Rule"
}

func (t *DeleteTool) Annotations() map[string]bool {
	return tools.DestructiveAnnotations()
}

func (t *DeleteTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {
				"type": "integer",
				"description": "Classified rule id"
			}
		},
		"required": ["id"]
	}`)
}

func (t *DeleteTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
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

	deleted, err := t.store.DeleteClassifiedRule(req.ID)
	if err != nil {
		return nil, fmt.Errorf("delete failed: %w", err)
	}

	return map[string]interface{}{
		"id":      req.ID,
		"deleted": deleted,
	}, nil
}
