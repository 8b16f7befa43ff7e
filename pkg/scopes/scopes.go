// Package scopes checks classic token OAuth scopes against what the
// connector's tools need.
package scopes

import "sort"

// Scope represents a GitHub OAuth scope.
// See https://docs.github.com/en/apps/oauth-apps/building-oauth-apps/scopes-for-oauth-apps
type Scope string

const (
	// Repo grants full control of private repositories
	Repo Scope = "repo"

	// PublicRepo grants access to public repositories
	PublicRepo Scope = "public_repo"
)

// parents maps a scope to the broader scopes that imply it.
var parents = map[Scope][]Scope{
	PublicRepo: {Repo},
}

// ExpandScopes returns every scope accepted in place of required, sorted.
func ExpandScopes(required ...Scope) []string {
	if len(required) == 0 {
		return nil
	}
	set := make(map[string]bool)
	for _, scope := range required {
		set[string(scope)] = true
		for _, parent := range parents[scope] {
			set[string(parent)] = true
		}
	}
	out := make([]string, 0, len(set))
	for scope := range set {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}

// ToolScopeInfo contains scope information for a single tool.
type ToolScopeInfo struct {
	// RequiredScopes contains the scopes that are directly required by this tool.
	RequiredScopes []string

	// AcceptedScopes contains all scopes that satisfy the requirements (including parent scopes).
	AcceptedScopes []string
}

// NewToolScopeInfo describes a tool needing any one of required.
func NewToolScopeInfo(required ...Scope) *ToolScopeInfo {
	return &ToolScopeInfo{
		RequiredScopes: ToStringSlice(required...),
		AcceptedScopes: ExpandScopes(required...),
	}
}

// HasAcceptedScope checks if any of the provided user scopes satisfy the tool's requirements.
func (t *ToolScopeInfo) HasAcceptedScope(userScopes ...string) bool {
	if t == nil || len(t.AcceptedScopes) == 0 {
		return true
	}
	for _, accepted := range t.AcceptedScopes {
		for _, scope := range userScopes {
			if scope == accepted {
				return true
			}
		}
	}
	return false
}

// MissingScopes returns the required scopes when none of the accepted scopes is held.
func (t *ToolScopeInfo) MissingScopes(userScopes ...string) []string {
	if t.HasAcceptedScope(userScopes...) {
		return nil
	}
	missing := make([]string, len(t.RequiredScopes))
	copy(missing, t.RequiredScopes)
	return missing
}

// ToStringSlice converts a slice of Scopes to a slice of strings.
func ToStringSlice(scopes ...Scope) []string {
	result := make([]string, len(scopes))
	for i, scope := range scopes {
		result[i] = string(scope)
	}
	return result
}
