package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/github/github-connector/pkg/toolsets"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
)

// SchemaError reports arguments that do not satisfy a tool's input schema.
type SchemaError struct {
	Tool   string
	Reason string
}

func (e *SchemaError) Error() string {
	return e.Reason
}

// ToBoolPtr converts a bool to a *bool pointer.
func ToBoolPtr(b bool) *bool {
	return &b
}

// ResolveInputSchema converts the tool's input schema for validation. Defaults
// are checked against their own property schemas.
func ResolveInputSchema(tool mcp.Tool) (*jsonschema.Resolved, error) {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema of %s: %w", tool.Name, err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal input schema of %s: %w", tool.Name, err)
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input schema of %s: %w", tool.Name, err)
	}
	return resolved, nil
}

// ValidateArguments checks args against the resolved schema of tool and returns
// a copy with defaults applied. Null values count as absent and keys the schema
// does not declare are ignored.
func ValidateArguments(tool string, schema *jsonschema.Resolved, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if v != nil {
			out[k] = v
		}
	}

	if err := schema.ApplyDefaults(&out); err != nil {
		return nil, &SchemaError{Tool: tool, Reason: rootCause(err).Error()}
	}
	if err := schema.Validate(out); err != nil {
		return nil, &SchemaError{Tool: tool, Reason: rootCause(err).Error()}
	}
	return out, nil
}

// rootCause drops the "validating ..." frames jsonschema wraps around the
// failing keyword.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// DecodeArguments copies validated arguments into a mapstructure tagged struct.
func DecodeArguments(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}

// NewTool binds a typed handler to a tool definition. Arguments are validated
// against the tool's schema, then decoded into In before the handler runs. It
// panics if the schema cannot be resolved.
func NewTool[In any](tool mcp.Tool, requiresSession bool, handler func(ctx context.Context, deps ToolDependencies, args In) (*mcp.CallToolResult, error)) toolsets.ServerTool {
	schema, err := ResolveInputSchema(tool)
	if err != nil {
		panic(err)
	}
	return toolsets.NewServerTool(tool, requiresSession, func(ctx context.Context, d any, raw map[string]any) (*mcp.CallToolResult, error) {
		deps, ok := d.(ToolDependencies)
		if !ok {
			return nil, fmt.Errorf("tool %s: unsupported dependencies %T", tool.Name, d)
		}
		validated, err := ValidateArguments(tool.Name, schema, raw)
		if err != nil {
			return nil, err
		}
		var args In
		if err := DecodeArguments(validated, &args); err != nil {
			return nil, &SchemaError{Tool: tool.Name, Reason: err.Error()}
		}
		return handler(ctx, deps, args)
	})
}
