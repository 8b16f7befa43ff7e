package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ghErrors "github.com/github/github-connector/pkg/errors"
	"github.com/github/github-connector/pkg/toolsets"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NotInitializedMessage is returned for gated calls made without a session.
const NotInitializedMessage = "Error: GitHub client not initialized. Please set GITHUB_TOKEN environment variable."

// Dispatcher routes tool invocations to handlers. It never returns an error:
// every failure becomes a text result.
type Dispatcher struct {
	tsg    *toolsets.ToolsetGroup
	tools  []toolsets.ServerTool
	byName map[string]toolsets.ServerTool
	deps   ToolDependencies
	strict bool
	logger *slog.Logger
}

type DispatcherOption func(*Dispatcher)

// WithStrictSessionGate controls whether a missing session rejects every tool
// (true, the default) or only tools that talk to the remote API.
func WithStrictSessionGate(strict bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.strict = strict
	}
}

func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher serves the active tools of tsg.
func NewDispatcher(tsg *toolsets.ToolsetGroup, deps ToolDependencies, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		tsg:    tsg,
		tools:  tsg.ActiveTools(),
		byName: make(map[string]toolsets.ServerTool),
		deps:   deps,
		strict: true,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, tool := range d.tools {
		d.byName[tool.Tool.Name] = tool
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tools returns the catalog in registration order.
func (d *Dispatcher) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(d.tools))
	for _, tool := range d.tools {
		out = append(out, tool.Tool)
	}
	return out
}

// Invoke runs the named tool. Gate order: session, lookup, arguments, handler.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) (result *mcp.CallToolResult) {
	start := time.Now()
	ready := IsReady(d.deps.Session())

	if !ready && d.strict {
		return mcp.NewToolResultText(NotInitializedMessage)
	}

	tool, ok := d.byName[name]
	if !ok {
		d.logUnknownTool(name)
		return mcp.NewToolResultText(fmt.Sprintf("Unknown tool: %s", name))
	}

	if !ready && tool.RequiresSession {
		return mcp.NewToolResultText(NotInitializedMessage)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("tool panicked", "tool", name, "panic", r)
			result = executionError(name, fmt.Errorf("%v", r))
		}
	}()

	ctx = ghErrors.ContextWithGitHubErrors(ctx)
	result, err := tool.Handler(ctx, d.deps, args)
	d.logger.Debug("tool invoked", "tool", name, "duration", time.Since(start), "error", err)
	d.logAPIErrors(ctx, name)

	var schemaErr *SchemaError
	switch {
	case errors.As(err, &schemaErr):
		d.logger.Warn("invalid tool arguments", "tool", name, "error", schemaErr)
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments for %s: %s", name, schemaErr.Error()))
	case err != nil:
		return executionError(name, err)
	case result == nil || len(result.Content) == 0:
		return executionError(name, errors.New("no content returned"))
	}
	return result
}

// logUnknownTool records why a tool the server knows is missing from the
// catalog: its toolset is disabled or it writes in read-only mode.
func (d *Dispatcher) logUnknownTool(name string) {
	tool, toolset, err := d.tsg.FindToolByName(name)
	if err != nil {
		d.logger.Debug("unknown tool", "tool", name)
		return
	}
	d.logger.Debug("tool not in catalog", "tool", name, "toolset", toolset,
		"toolset_enabled", d.tsg.IsEnabled(toolset), "write", !tool.IsReadOnly())
}

// logAPIErrors logs the GitHub API failures the handler rendered as text.
func (d *Dispatcher) logAPIErrors(ctx context.Context, name string) {
	apiErrors, err := ghErrors.GetGitHubAPIErrors(ctx)
	if err != nil {
		return
	}
	for _, apiErr := range apiErrors {
		status, _ := ghErrors.StatusCode(apiErr.Err)
		d.logger.Debug("GitHub API error", "tool", name, "status", status, "message", apiErr.Message, "error", apiErr.Err)
	}
}

func executionError(name string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Error executing %s: %s", name, err.Error()))
}

// RegisterTools adds every catalog entry to s, routed through Invoke.
func (d *Dispatcher) RegisterTools(s *server.MCPServer) {
	for _, tool := range d.tools {
		s.AddTool(tool.Tool, d.handle)
	}
}

func (d *Dispatcher) handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return d.Invoke(ctx, request.Params.Name, request.GetArguments()), nil
}

// NewServer creates the MCP server that hosts the dispatcher's tools.
func NewServer(version string, opts ...server.ServerOption) *server.MCPServer {
	defaultOpts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithLogging(),
	}
	opts = append(defaultOpts, opts...)
	return server.NewMCPServer("github-connector", version, opts...)
}
