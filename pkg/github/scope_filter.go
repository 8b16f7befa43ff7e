package github

import (
	"github.com/github/github-connector/pkg/scopes"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolScopes lists the classic token scopes a tool cannot work without. Tools
// that only read public data are absent.
var toolScopes = map[string]*scopes.ToolScopeInfo{
	"create_repository": scopes.NewToolScopeInfo(scopes.PublicRepo),
}

// ToolScopeInfo returns the scope requirements of the named tool, nil when it has none.
func ToolScopeInfo(name string) *scopes.ToolScopeInfo {
	return toolScopes[name]
}

// ToolsMissingScopes maps each tool that tokenScopes cannot satisfy to the
// scopes it lacks. A nil tokenScopes means the token does not report scopes,
// as with fine-grained tokens, and nothing is reported.
func ToolsMissingScopes(tools []mcp.Tool, tokenScopes []string) map[string][]string {
	missing := make(map[string][]string)
	if tokenScopes == nil {
		return missing
	}
	for _, tool := range tools {
		if m := ToolScopeInfo(tool.Name).MissingScopes(tokenScopes...); len(m) > 0 {
			missing[tool.Name] = m
		}
	}
	return missing
}
