package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/urbanmesh/zonegate/internal/tools"
	"github.com/urbanmesh/zonegate/pkg/version"
)

type stubTool struct {
	name    string
	execute func(ctx context.Context, input json.RawMessage) (interface{}, error)
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{},"required":[]}`)
}
func (t *stubTool) Title() string                { return "Stub" }
func (t *stubTool) Annotations() map[string]bool { return tools.ReadOnlyAnnotations() }
func (t *stubTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	return t.execute(ctx, input)
}

func newRequest(t *testing.T, method string, params interface{}) *jsonrpc2.Request {
	t.Helper()

	req := &jsonrpc2.Request{Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("failed to marshal params: %v", err)
		}
		raw := json.RawMessage(data)
		req.Params = &raw
	}
	return req
}

func TestHandleInitialize(t *testing.T) {
	h := NewHandler(tools.NewRegistry())

	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"supported version echoed", version.ProtocolVersion, version.ProtocolVersion},
		{"unknown version falls back", "1999-01-01", version.ProtocolVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(t, "initialize", map[string]interface{}{
				"protocolVersion": tt.requested,
				"clientInfo":      map[string]string{"name": "test-client", "version": "1.0"},
			})

			result, err := h.Handle(context.Background(), nil, req)
			if err != nil {
				t.Fatalf("initialize failed: %v", err)
			}

			init, ok := result.(*InitializeResult)
			if !ok {
				t.Fatalf("unexpected result type %T", result)
			}
			if init.ProtocolVersion != tt.want {
				t.Errorf("negotiated %s, want %s", init.ProtocolVersion, tt.want)
			}
			if init.ServerInfo.Version != version.Version {
				t.Errorf("server version mismatch: %s", init.ServerInfo.Version)
			}
		})
	}
}

func TestHandleListTools(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&stubTool{
		name: "zoning_stub",
		execute: func(ctx context.Context, input json.RawMessage) (interface{}, error) {
			return nil, nil
		},
	})

	h := NewHandler(registry)

	result, err := h.Handle(context.Background(), nil, newRequest(t, "tools/list", nil))
	if err != nil {
		t.Fatalf("tools/list failed: %v", err)
	}

	list, ok := result.(*ListToolsResult)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if len(list.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(list.Tools))
	}

	desc := list.Tools[0]
	if desc.Name != "zoning_stub" {
		t.Errorf("unexpected tool name %s", desc.Name)
	}
	if desc.Title != "Stub" {
		t.Errorf("annotated title missing, got %q", desc.Title)
	}
	if !desc.Annotations["readOnlyHint"] {
		t.Error("readOnlyHint annotation missing")
	}
}

func TestHandleCallTool(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&stubTool{
		name: "echo",
		execute: func(ctx context.Context, input json.RawMessage) (interface{}, error) {
			var req struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(input, &req); err != nil {
				return nil, err
			}
			return map[string]string{"echo": req.Message}, nil
		},
	})

	h := NewHandler(registry)

	req := newRequest(t, "tools/call", map[string]interface{}{
		"name":      "echo",
		"arguments": map[string]string{"message": "setback check"},
	})

	result, err := h.Handle(context.Background(), nil, req)
	if err != nil {
		t.Fatalf("tools/call failed: %v", err)
	}

	call, ok := result.(*CallToolResult)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if len(call.Content) != 1 || call.Content[0].Type != "text" {
		t.Fatalf("unexpected content shape: %+v", call.Content)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(call.Content[0].Text), &payload); err != nil {
		t.Fatalf("content is not JSON: %v", err)
	}
	if payload["echo"] != "setback check" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestHandleCallToolErrors(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&stubTool{
		name: "broken",
		execute: func(ctx context.Context, input json.RawMessage) (interface{}, error) {
			return nil, errors.New("store unavailable")
		},
	})
	registry.Register(&stubTool{
		name: "panicky",
		execute: func(ctx context.Context, input json.RawMessage) (interface{}, error) {
			panic("unexpected state")
		},
	})

	h := NewHandler(registry)

	t.Run("unknown tool", func(t *testing.T) {
		req := newRequest(t, "tools/call", map[string]interface{}{"name": "missing"})
		if _, err := h.Handle(context.Background(), nil, req); err == nil {
			t.Error("expected error for unknown tool")
		}
	})

	t.Run("tool failure propagates", func(t *testing.T) {
		req := newRequest(t, "tools/call", map[string]interface{}{"name": "broken"})
		if _, err := h.Handle(context.Background(), nil, req); err == nil {
			t.Error("expected tool error")
		}
	})

	t.Run("panic recovered", func(t *testing.T) {
		req := newRequest(t, "tools/call", map[string]interface{}{"name": "panicky"})
		_, err := h.Handle(context.Background(), nil, req)
		if err == nil {
			t.Fatal("expected error from panicking tool")
		}
	})
}

func TestHandleUnknownMethod(t *testing.T) {
	h := NewHandler(tools.NewRegistry())

	_, err := h.Handle(context.Background(), nil, newRequest(t, "resources/list", nil))
	if err == nil {
		t.Fatal("expected method not found error")
	}

	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected jsonrpc2 error, got %T", err)
	}
	if rpcErr.Code != jsonrpc2.CodeMethodNotFound {
		t.Errorf("expected CodeMethodNotFound, got %d", rpcErr.Code)
	}
}

func TestHandlePing(t *testing.T) {
	h := NewHandler(tools.NewRegistry())

	result, err := h.Handle(context.Background(), nil, newRequest(t, "ping", nil))
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if result == nil {
		t.Error("ping must return an empty object, not nil")
	}
}
