package scopes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandScopes(t *testing.T) {
	tests := []struct {
		name     string
		required []Scope
		expected []string
	}{
		{
			name:     "nil returns nil",
			required: nil,
			expected: nil,
		},
		{
			name:     "repo scope returns just repo",
			required: []Scope{Repo},
			expected: []string{"repo"},
		},
		{
			name:     "public_repo also accepts repo (parent)",
			required: []Scope{PublicRepo},
			expected: []string{"public_repo", "repo"},
		},
		{
			name:     "duplicates collapse",
			required: []Scope{PublicRepo, Repo},
			expected: []string{"public_repo", "repo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandScopes(tt.required...))
		})
	}
}

func TestToolScopeInfo(t *testing.T) {
	tests := []struct {
		name       string
		info       *ToolScopeInfo
		userScopes []string
		accepted   bool
		missing    []string
	}{
		{
			name:       "nil info needs nothing",
			info:       nil,
			userScopes: nil,
			accepted:   true,
		},
		{
			name:       "no requirements",
			info:       NewToolScopeInfo(),
			userScopes: []string{"gist"},
			accepted:   true,
		},
		{
			name:       "exact scope",
			info:       NewToolScopeInfo(PublicRepo),
			userScopes: []string{"public_repo"},
			accepted:   true,
		},
		{
			name:       "parent scope",
			info:       NewToolScopeInfo(PublicRepo),
			userScopes: []string{"read:org", "repo"},
			accepted:   true,
		},
		{
			name:       "unrelated scopes",
			info:       NewToolScopeInfo(PublicRepo),
			userScopes: []string{"gist", "read:org"},
			accepted:   false,
			missing:    []string{"public_repo"},
		},
		{
			name:       "token without scopes",
			info:       NewToolScopeInfo(Repo),
			userScopes: []string{},
			accepted:   false,
			missing:    []string{"repo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.accepted, tt.info.HasAcceptedScope(tt.userScopes...))
			assert.Equal(t, tt.missing, tt.info.MissingScopes(tt.userScopes...))
		})
	}
}

func TestToStringSlice(t *testing.T) {
	assert.Equal(t, []string{"repo", "public_repo"}, ToStringSlice(Repo, PublicRepo))
	assert.Equal(t, []string{}, ToStringSlice())
}
