package github

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/github/github-connector/internal/toolsnaps"
	"github.com/github/github-connector/pkg/translations"
	"github.com/google/go-github/v79/github"
	"github.com/migueleliasweb/go-github-mock/src/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ListRepositories(t *testing.T) {
	tool := ListRepositories(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(tool.Tool.Name, tool.Tool))

	assert.Equal(t, "list_repositories", tool.Tool.Name)
	assert.NotEmpty(t, tool.Tool.Description)
	assert.Contains(t, tool.Tool.InputSchema.Properties, "repo_type")
	assert.Contains(t, tool.Tool.InputSchema.Properties, "sort")
	assert.Contains(t, tool.Tool.InputSchema.Properties, "limit")
	assert.Empty(t, tool.Tool.InputSchema.Required)
	assert.True(t, tool.RequiresSession)
}

func repoFixture(i int) map[string]any {
	return map[string]any{
		"full_name":        fmt.Sprintf("octocat/repo-%d", i),
		"language":         "Go",
		"description":      fmt.Sprintf("Repository %d", i),
		"stargazers_count": i,
		"forks_count":      i * 2,
		"updated_at":       "2024-03-05T10:11:12Z",
	}
}

// pagedRepos serves three repositories per page, regardless of per_page, and
// counts the requests it sees.
func pagedRepos(t *testing.T, pages int, requests *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			_, err := fmt.Sscanf(p, "%d", &page)
			require.NoError(t, err)
		}
		if page < pages {
			w.Header().Set("Link", fmt.Sprintf(`<https://api.github.com/user/repos?page=%d>; rel="next"`, page+1))
		}
		var repos []map[string]any
		for i := 0; i < 3; i++ {
			repos = append(repos, repoFixture((page-1)*3+i+1))
		}
		mockResponse(t, http.StatusOK, repos)(w, r)
	}
}

func Test_ListRepositoriesStopsAtLimit(t *testing.T) {
	var requests int32
	client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		GetUserRepos: pagedRepos(t, 10, &requests),
	})

	result := callTool(t, ListRepositories(translations.NullTranslationHelper), readyDeps(client), map[string]any{"limit": float64(5)})

	text := getTextResult(t, result).Text
	assert.Contains(t, text, "Found 5 repositories:\n\n")
	assert.Contains(t, text, "octocat/repo-5")
	assert.NotContains(t, text, "octocat/repo-6")
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func Test_ListRepositoriesLimitThree(t *testing.T) {
	var requests int32
	client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		GetUserRepos: pagedRepos(t, 10, &requests),
	})

	result := callTool(t, ListRepositories(translations.NullTranslationHelper), readyDeps(client), map[string]any{"limit": float64(3)})

	expected := "Found 3 repositories:\n\n" +
		"• **octocat/repo-1** (Go)\n  Repository 1\n  Stars: 1 | Forks: 2 | Updated: 2024-03-05\n" +
		"\n" +
		"• **octocat/repo-2** (Go)\n  Repository 2\n  Stars: 2 | Forks: 4 | Updated: 2024-03-05\n" +
		"\n" +
		"• **octocat/repo-3** (Go)\n  Repository 3\n  Stars: 3 | Forks: 6 | Updated: 2024-03-05\n"
	assert.Equal(t, expected, getTextResult(t, result).Text)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func Test_ListRepositoriesRequestOptions(t *testing.T) {
	tests := []struct {
		name          string
		args          map[string]any
		expectedQuery map[string]string
	}{
		{
			name: "defaults",
			args: map[string]any{},
			expectedQuery: map[string]string{
				"sort":     "updated",
				"per_page": "30",
			},
		},
		{
			name: "type and sort",
			args: map[string]any{"repo_type": "private", "sort": "full_name", "limit": float64(250)},
			expectedQuery: map[string]string{
				"type":     "private",
				"sort":     "full_name",
				"per_page": "100",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
				GetUserRepos: expectQueryParams(t, tc.expectedQuery).andThen(
					mockResponse(t, http.StatusOK, []map[string]any{}),
				),
			})

			result := callTool(t, ListRepositories(translations.NullTranslationHelper), readyDeps(client), tc.args)

			assert.Equal(t, "Found 0 repositories:\n\n", getTextResult(t, result).Text)
		})
	}
}

func Test_ListRepositoriesFallbacks(t *testing.T) {
	client := mock.NewMockedHTTPClient(
		mock.WithRequestMatch(
			mock.GetUserRepos,
			[]map[string]any{{"full_name": "octocat/bare", "description": "<b></b>"}},
		),
	)

	result := callTool(t, ListRepositories(translations.NullTranslationHelper), readyDeps(client), nil)

	text := getTextResult(t, result).Text
	assert.Contains(t, text, "• **octocat/bare** (Unknown)\n  No description\n  Stars: 0 | Forks: 0 | Updated: \n")
}

func Test_ListRepositoriesErrors(t *testing.T) {
	t.Run("limit below one", func(t *testing.T) {
		client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{GetUserRepos: failOnRequest(t)})

		result := callTool(t, ListRepositories(translations.NullTranslationHelper), readyDeps(client), map[string]any{"limit": float64(0)})

		assert.Equal(t, "Error listing repositories: limit must be at least 1", getErrorResult(t, result).Text)
	})

	t.Run("api failure", func(t *testing.T) {
		client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
			GetUserRepos: mockResponse(t, http.StatusInternalServerError, `{"message":"server exploded"}`),
		})

		result := callTool(t, ListRepositories(translations.NullTranslationHelper), readyDeps(client), nil)

		text := getErrorResult(t, result).Text
		assert.Contains(t, text, "Error listing repositories: ")
		assert.Contains(t, text, "server exploded")
	})
}

func Test_GetRepositoryInfo(t *testing.T) {
	tool := GetRepositoryInfo(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(tool.Tool.Name, tool.Tool))
	assert.Equal(t, []string{"repo_name"}, tool.Tool.InputSchema.Required)

	full := map[string]any{
		"full_name":         "octocat/hello",
		"description":       "Hello world",
		"language":          "Go",
		"private":           true,
		"default_branch":    "main",
		"size":              512,
		"license":           map[string]any{"name": "MIT License"},
		"stargazers_count":  10,
		"forks_count":       2,
		"watchers_count":    10,
		"open_issues_count": 1,
		"created_at":        "2020-01-02T03:04:05Z",
		"updated_at":        "2024-05-06T07:08:09Z",
		"pushed_at":         "2024-05-06T07:08:09Z",
		"html_url":          "https://github.com/octocat/hello",
		"clone_url":         "https://github.com/octocat/hello.git",
		"ssh_url":           "git@github.com:octocat/hello.git",
		"homepage":          "https://hello.example.com",
		"topics":            []string{"cli", "mcp"},
	}
	sparse := map[string]any{
		"full_name":      "octocat/bare",
		"default_branch": "main",
		"created_at":     "2020-01-02T03:04:05Z",
		"updated_at":     "2020-01-02T03:04:05Z",
		"html_url":       "https://github.com/octocat/bare",
		"clone_url":      "https://github.com/octocat/bare.git",
		"ssh_url":        "git@github.com:octocat/bare.git",
	}

	tests := []struct {
		name        string
		repoName    string
		path        string
		response    map[string]any
		contains    []string
		notContains []string
	}{
		{
			name:     "full metadata",
			repoName: "octocat/hello",
			path:     "/repos/octocat/hello",
			response: full,
			contains: []string{
				"# octocat/hello\n\n**Description:** Hello world\n\n",
				"- **Language:** Go\n- **Private:** Yes\n- **Default Branch:** main\n- **Size:** 512 KB\n- **License:** MIT License\n",
				"- **Stars:** 10\n- **Forks:** 2\n- **Watchers:** 10\n- **Open Issues:** 1\n",
				"- **Created:** 2020-01-02\n- **Updated:** 2024-05-06\n- **Last Push:** 2024-05-06\n",
				"- **Homepage:** https://hello.example.com\n",
				"## Topics\ncli, mcp\n",
			},
		},
		{
			name:     "bare name uses session login",
			repoName: "bare",
			path:     "/repos/octocat/bare",
			response: sparse,
			contains: []string{
				"**Description:** No description",
				"- **Language:** Not specified\n- **Private:** No\n",
				"- **License:** Not specified\n",
				"- **Last Push:** Never\n",
				"## Topics\nNo topics\n",
			},
			notContains: []string{"Homepage"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
				GetReposByOwnerByRepo: expect(t, expectations{path: tc.path}).andThen(
					mockResponse(t, http.StatusOK, tc.response),
				),
			})

			result := callTool(t, tool, readyDeps(client), map[string]any{"repo_name": tc.repoName})

			text := getTextResult(t, result).Text
			for _, want := range tc.contains {
				assert.Contains(t, text, want)
			}
			for _, unwanted := range tc.notContains {
				assert.NotContains(t, text, unwanted)
			}
		})
	}
}

func Test_GetRepositoryInfoResolvesOwnerWithoutLogin(t *testing.T) {
	client := mock.NewMockedHTTPClient(
		mock.WithRequestMatch(mock.GetUser, map[string]any{"login": "hubber"}),
		mock.WithRequestMatchHandler(
			mock.GetReposByOwnerByRepo,
			expect(t, expectations{path: "/repos/hubber/tools"}).andThen(
				mockResponse(t, http.StatusOK, map[string]any{"full_name": "hubber/tools"}),
			),
		),
	)
	deps := readyDeps(client)
	deps.Sess = Ready{Client: github.NewClient(client)}

	result := callTool(t, GetRepositoryInfo(translations.NullTranslationHelper), deps, map[string]any{"repo_name": "tools"})

	assert.Contains(t, getTextResult(t, result).Text, "# hubber/tools\n")
}

func Test_GetRepositoryInfoNotFound(t *testing.T) {
	client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		GetReposByOwnerByRepo: mockResponse(t, http.StatusNotFound, `{"message":"Not Found"}`),
	})

	result := callTool(t, GetRepositoryInfo(translations.NullTranslationHelper), readyDeps(client), map[string]any{"repo_name": "octocat/missing"})

	text := getErrorResult(t, result).Text
	assert.Contains(t, text, "Error getting repository info: ")
	assert.Contains(t, text, "404")
}

func Test_CreateRepository(t *testing.T) {
	tool := CreateRepository(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(tool.Tool.Name, tool.Tool))
	assert.Equal(t, []string{"name"}, tool.Tool.InputSchema.Required)
	assert.False(t, tool.IsReadOnly())

	created := map[string]any{
		"name":           "demo",
		"full_name":      "octocat/demo",
		"description":    "A demo",
		"private":        true,
		"default_branch": "main",
		"created_at":     "2024-06-07T08:09:10Z",
		"clone_url":      "https://github.com/octocat/demo.git",
		"ssh_url":        "git@github.com:octocat/demo.git",
		"html_url":       "https://github.com/octocat/demo",
	}

	client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		PostUserRepos: expect(t, expectations{
			path: "/user/repos",
			requestBody: map[string]any{
				"name":               "demo",
				"description":        "A demo",
				"private":            true,
				"auto_init":          true,
				"gitignore_template": "Go",
			},
		}).andThen(mockResponse(t, http.StatusCreated, created)),
	})

	result := callTool(t, tool, readyDeps(client), map[string]any{
		"name":               "  demo ",
		"description":        " A demo ",
		"private":            true,
		"init_readme":        true,
		"gitignore_template": "Go",
		"license_template":   "   ",
	})

	expected := "# Repository Created Successfully!\n\n" +
		"**Repository:** octocat/demo\n" +
		"**Description:** A demo\n" +
		"**Visibility:** Private\n" +
		"**Default Branch:** main\n\n" +
		"## Repository Details\n" +
		"- **Created:** 2024-06-07 08:09:10\n" +
		"- **Clone URL (HTTPS):** https://github.com/octocat/demo.git\n" +
		"- **Clone URL (SSH):** git@github.com:octocat/demo.git\n" +
		"- **Repository URL:** https://github.com/octocat/demo\n\n" +
		"## Quick Start\n```bash\n" +
		"# Clone your new repository\n" +
		"git clone https://github.com/octocat/demo.git\n" +
		"cd demo\n\n" +
		"# Start developing!\n```\n\n" +
		"Your new repository is ready for development!\n"
	assert.Equal(t, expected, getTextResult(t, result).Text)
}

func Test_CreateRepositoryEmptyNameMakesNoRequest(t *testing.T) {
	client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		PostUserRepos: failOnRequest(t),
	})

	for _, name := range []string{"", "   ", "\t\n"} {
		result := callTool(t, CreateRepository(translations.NullTranslationHelper), readyDeps(client), map[string]any{"name": name})
		assert.Equal(t, "Error: Repository name cannot be empty", getErrorResult(t, result).Text)
	}
}

func Test_CreateRepositoryFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{
			name:     "already exists",
			status:   http.StatusUnprocessableEntity,
			body:     `{"message":"Repository creation failed."}`,
			expected: "Repository creation failed: Repository 'demo' already exists or invalid parameters",
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     `{"message":"Forbidden"}`,
			expected: "Repository creation failed: Insufficient permissions or rate limit exceeded",
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"message":"Bad credentials"}`,
			expected: "Repository creation failed: Authentication failed - check your GitHub token",
		},
		{
			name:     "other status passes message through",
			status:   http.StatusServiceUnavailable,
			body:     `{"message":"Service unavailable"}`,
			expected: "GitHub API Error 503: Service unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
				PostUserRepos: mockResponse(t, tc.status, tc.body),
			})

			result := callTool(t, CreateRepository(translations.NullTranslationHelper), readyDeps(client), map[string]any{"name": "demo"})

			assert.Equal(t, tc.expected, getErrorResult(t, result).Text)
		})
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func Test_CreateRepositoryTransportFailure(t *testing.T) {
	client := &http.Client{Transport: failingTransport{}}

	result := callTool(t, CreateRepository(translations.NullTranslationHelper), readyDeps(client), map[string]any{"name": "demo"})

	text := getErrorResult(t, result).Text
	assert.Contains(t, text, "Error creating repository: Error: ")
	assert.Contains(t, text, "connection refused")
}

func Test_ResolveRepository(t *testing.T) {
	deps := readyDeps(MockHTTPClientWithHandlers(nil))
	client, err := deps.GetClient(t.Context())
	require.NoError(t, err)

	tests := []struct {
		input       string
		owner, repo string
		expectErr   bool
	}{
		{input: "octo/hello", owner: "octo", repo: "hello"},
		{input: " octo/hello ", owner: "octo", repo: "hello"},
		{input: "hello", owner: "octocat", repo: "hello"},
		{input: "/hello", expectErr: true},
		{input: "octo/", expectErr: true},
		{input: "a/b/c", expectErr: true},
		{input: "", expectErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			owner, repo, err := resolveRepository(t.Context(), deps, client, tc.input)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
		})
	}
}
