package toolsets

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

type ToolsetDoesNotExistError struct {
	Name string
}

func (e *ToolsetDoesNotExistError) Error() string {
	return fmt.Sprintf("toolset %s does not exist", e.Name)
}

func (e *ToolsetDoesNotExistError) Is(target error) bool {
	if target == nil {
		return false
	}
	if _, ok := target.(*ToolsetDoesNotExistError); ok {
		return true
	}
	return false
}

func NewToolsetDoesNotExistError(name string) *ToolsetDoesNotExistError {
	return &ToolsetDoesNotExistError{Name: name}
}

type ToolDoesNotExistError struct {
	Name string
}

func (e *ToolDoesNotExistError) Error() string {
	return fmt.Sprintf("tool %s does not exist", e.Name)
}

func NewToolDoesNotExistError(name string) *ToolDoesNotExistError {
	return &ToolDoesNotExistError{Name: name}
}

// HandlerFunc executes a tool with already validated arguments. deps carries
// whatever the owning package needs; handlers type-assert it.
type HandlerFunc func(ctx context.Context, deps any, args map[string]any) (*mcp.CallToolResult, error)

// ServerTool is one entry of the tool catalog.
type ServerTool struct {
	Tool mcp.Tool
	// RequiresSession marks tools that talk to the remote API and cannot run
	// without an authenticated session.
	RequiresSession bool
	Handler         HandlerFunc
}

func NewServerTool(tool mcp.Tool, requiresSession bool, handler HandlerFunc) ServerTool {
	return ServerTool{Tool: tool, RequiresSession: requiresSession, Handler: handler}
}

// IsReadOnly reports whether the tool is annotated as read-only.
func (st ServerTool) IsReadOnly() bool {
	hint := st.Tool.Annotations.ReadOnlyHint
	return hint != nil && *hint
}

// Toolset represents a collection of tools that can be enabled or disabled as a group.
// Tools keep the order in which they were added.
type Toolset struct {
	Name        string
	Description string
	Enabled     bool
	readOnly    bool
	tools       []ServerTool
}

func NewToolset(name string, description string) *Toolset {
	return &Toolset{
		Name:        name,
		Description: description,
		Enabled:     false,
		readOnly:    false,
	}
}

func (t *Toolset) SetReadOnly() {
	t.readOnly = true
}

func (t *Toolset) AddWriteTools(tools ...ServerTool) *Toolset {
	for _, tool := range tools {
		if tool.IsReadOnly() {
			panic(fmt.Sprintf("tool (%s) is incorrectly annotated as read-only", tool.Tool.Name))
		}
	}
	t.tools = append(t.tools, tools...)
	return t
}

func (t *Toolset) AddReadTools(tools ...ServerTool) *Toolset {
	for _, tool := range tools {
		if !tool.IsReadOnly() {
			panic(fmt.Sprintf("tool (%s) must be annotated as read-only", tool.Tool.Name))
		}
	}
	t.tools = append(t.tools, tools...)
	return t
}

// GetAvailableTools returns every tool the toolset can expose, honouring read-only mode.
func (t *Toolset) GetAvailableTools() []ServerTool {
	out := make([]ServerTool, 0, len(t.tools))
	for _, tool := range t.tools {
		if t.readOnly && !tool.IsReadOnly() {
			continue
		}
		out = append(out, tool)
	}
	return out
}

func (t *Toolset) GetActiveTools() []ServerTool {
	if !t.Enabled {
		return nil
	}
	return t.GetAvailableTools()
}

// ToolsetGroup is the ordered set of toolsets known to the server.
type ToolsetGroup struct {
	Toolsets     map[string]*Toolset
	order        []string
	everythingOn bool
	readOnly     bool
}

func NewToolsetGroup(readOnly bool) *ToolsetGroup {
	return &ToolsetGroup{
		Toolsets:     make(map[string]*Toolset),
		everythingOn: false,
		readOnly:     readOnly,
	}
}

func (tg *ToolsetGroup) AddToolset(ts *Toolset) {
	if tg.readOnly {
		ts.SetReadOnly()
	}
	if _, exists := tg.Toolsets[ts.Name]; !exists {
		tg.order = append(tg.order, ts.Name)
	}
	tg.Toolsets[ts.Name] = ts
}

// Names returns toolset names in registration order.
func (tg *ToolsetGroup) Names() []string {
	return append([]string(nil), tg.order...)
}

func (tg *ToolsetGroup) IsEnabled(name string) bool {
	if tg.everythingOn {
		return true
	}

	feature, exists := tg.Toolsets[name]
	if !exists {
		return false
	}
	return feature.Enabled
}

type EnableToolsetsOptions struct {
	ErrorOnUnknown bool
}

func (tg *ToolsetGroup) EnableToolsets(names []string, options *EnableToolsetsOptions) error {
	if options == nil {
		options = &EnableToolsetsOptions{
			ErrorOnUnknown: false,
		}
	}

	for _, name := range names {
		if name == "all" {
			tg.everythingOn = true
			break
		}
		err := tg.EnableToolset(name)
		if err != nil && options.ErrorOnUnknown {
			return err
		}
	}
	// "all" anywhere in the list wins
	if tg.everythingOn {
		for _, name := range tg.order {
			if err := tg.EnableToolset(name); err != nil && options.ErrorOnUnknown {
				return err
			}
		}
	}
	return nil
}

func (tg *ToolsetGroup) EnableToolset(name string) error {
	toolset, exists := tg.Toolsets[name]
	if !exists {
		return NewToolsetDoesNotExistError(name)
	}
	toolset.Enabled = true
	return nil
}

// ActiveTools returns the tools of every enabled toolset, in registration order.
func (tg *ToolsetGroup) ActiveTools() []ServerTool {
	var out []ServerTool
	for _, name := range tg.order {
		out = append(out, tg.Toolsets[name].GetActiveTools()...)
	}
	return out
}

// FindToolByName searches all toolsets (enabled or disabled) for a tool by name.
// Returns the tool, its parent toolset name, and an error if not found.
func (tg *ToolsetGroup) FindToolByName(toolName string) (*ServerTool, string, error) {
	for _, toolsetName := range tg.order {
		for _, tool := range tg.Toolsets[toolsetName].tools {
			if tool.Tool.Name == toolName {
				return &tool, toolsetName, nil
			}
		}
	}
	return nil, "", NewToolDoesNotExistError(toolName)
}
