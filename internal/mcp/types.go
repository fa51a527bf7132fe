package mcp

import "github.com/urbanmesh/zonegate/pkg/protocol"

type InitializeParams = protocol.InitializeParams
type InitializeResult = protocol.InitializeResult
type ListToolsResult = protocol.ListToolsResult
type CallToolParams = protocol.CallToolParams
type CallToolResult = protocol.CallToolResult
type TextContent = protocol.TextContent
type ToolDescriptor = protocol.ToolDescriptor
