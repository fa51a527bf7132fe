package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/urbanmesh/zonegate/internal/store"
	"github.com/urbanmesh/zonegate/pkg/version"
)

type HealthTool struct {
	store     *store.Store
	startTime time.Time
}

func NewHealthTool(st *store.Store) *HealthTool {
	return &HealthTool{
		store:     st,
		startTime: time.Now(),
	}
}

func (t *HealthTool) Name() string {
	return "zoning_health"
}

func (t *HealthTool) Description() string {
	return "Report server health, uptime, and corpus counts (documents, rules, projects, evaluations)"
}

func (t *HealthTool) Title() string {
	return "Server Health"
}

func (t *HealthTool) Annotations() map[string]bool {
	return ReadOnlyAnnotations()
}

func (t *HealthTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

func (t *HealthTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := map[string]interface{}{
		"status":  "healthy",
		"version": version.Version,
		"uptime":  time.Since(t.startTime).Round(time.Second).String(),
	}

	stats, err := t.store.Stats()
	if err != nil {
		result["status"] = "degraded"
		result["error"] = err.Error()
		return result, nil
	}

	result["stats"] = stats
	return result, nil
}
