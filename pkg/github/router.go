package github

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolCallRequest holds the fields of a tools/call request needed for routing.
type toolCallRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Method  string `json:"method"`
	Params  struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

func parseToolCall(raw json.RawMessage) (toolCallRequest, bool) {
	var req toolCallRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, false
	}
	if req.JSONRPC != mcp.JSONRPC_VERSION || req.ID == nil || req.Method != string(mcp.MethodToolsCall) {
		return req, false
	}
	return req, true
}

// IsToolCall reports whether raw is a tools/call request the Router answers
// itself. Malformed calls are left to the MCP server, which reports them.
func IsToolCall(raw json.RawMessage) bool {
	_, ok := parseToolCall(raw)
	return ok
}

// Router sends every tools/call request to the Dispatcher, so names that are
// not in the catalog still get a text result, and passes all other messages
// to the MCP server.
type Router struct {
	server     *server.MCPServer
	dispatcher *Dispatcher
}

func NewRouter(s *server.MCPServer, d *Dispatcher) *Router {
	return &Router{server: s, dispatcher: d}
}

// Server returns the MCP server handling everything but tool calls.
func (r *Router) Server() *server.MCPServer {
	return r.server
}

// Dispatcher returns the dispatcher answering tool calls.
func (r *Router) Dispatcher() *Dispatcher {
	return r.dispatcher
}

// HandleMessage answers one JSON-RPC message. It returns nil for
// notifications.
func (r *Router) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	req, ok := parseToolCall(raw)
	if !ok {
		return r.server.HandleMessage(ctx, raw)
	}
	return mcp.JSONRPCResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(req.ID),
		Result:  r.dispatcher.Invoke(ctx, req.Params.Name, req.Params.Arguments),
	}
}
