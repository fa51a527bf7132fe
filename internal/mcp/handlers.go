package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/urbanmesh/zonegate/internal/logger"
	"github.com/urbanmesh/zonegate/internal/tools"
	"github.com/urbanmesh/zonegate/pkg/protocol"
	"github.com/urbanmesh/zonegate/pkg/version"
)

var log = logger.ForComponent("mcp")

const toolCallTimeout = 4 * time.Minute

type Handler struct {
	registry    *tools.Registry
	startTime   time.Time
	initialized bool
	clientInfo  protocol.ClientInfo
}

func NewHandler(registry *tools.Registry) *Handler {
	return &Handler{
		registry:  registry,
		startTime: time.Now(),
	}
}

func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(req)
	case "ping":
		return map[string]interface{}{}, nil
	case "tools/list":
		return h.handleListTools(), nil
	case "tools/call":
		return h.handleCallTool(ctx, req)
	case "notifications/initialized":
		h.initialized = true
		return nil, nil
	default:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}
}

func (h *Handler) handleInitialize(req *jsonrpc2.Request) (interface{}, error) {
	var params InitializeParams
	if req.Params != nil {
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, fmt.Errorf("failed to parse initialize request: %w", err)
		}
	}

	h.clientInfo = params.ClientInfo

	log.Info("client connected",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"requested_protocol", params.ProtocolVersion)

	return &InitializeResult{
		ProtocolVersion: negotiateProtocolVersion(params.ProtocolVersion),
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
		ServerInfo: protocol.ServerInfo{
			Name:    "Zonegate MCP Server",
			Version: version.Version,
		},
	}, nil
}

func negotiateProtocolVersion(clientVersion string) string {
	for _, v := range version.SupportedProtocolVersions {
		if clientVersion == v {
			return v
		}
	}

	return version.ProtocolVersion
}

func (h *Handler) handleListTools() *ListToolsResult {
	toolsList := h.registry.List()
	descriptors := make([]ToolDescriptor, len(toolsList))

	for i, t := range toolsList {
		desc := ToolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		}

		if annotated, ok := t.(tools.AnnotatedTool); ok {
			desc.Title = annotated.Title()
			desc.Annotations = annotated.Annotations()
		}

		descriptors[i] = desc
	}

	return &ListToolsResult{Tools: descriptors}
}

func (h *Handler) handleCallTool(ctx context.Context, req *jsonrpc2.Request) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool execution panicked: %v", r)
			log.Error("tool panic recovered",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	var params CallToolParams
	if req.Params == nil {
		return nil, fmt.Errorf("tool call params are required")
	}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, fmt.Errorf("failed to parse tool call request: %w", err)
	}

	if params.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}

	args := params.Arguments
	if args == nil {
		args = json.RawMessage(`{}`)
	}

	output, err := h.registry.ExecuteWithTimeout(ctx, params.Name, args, toolCallTimeout)
	if err != nil {
		return nil, err
	}

	outputJSON, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &CallToolResult{
		Content: []TextContent{
			{Type: "text", Text: string(outputJSON)},
		},
	}, nil
}
