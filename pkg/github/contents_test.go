package github

import (
	"encoding/base64"
	"math/rand"
	"net/http"
	"testing"

	"github.com/github/github-connector/internal/toolsnaps"
	"github.com/github/github-connector/pkg/translations"
	"github.com/google/go-github/v79/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BrowseRepository(t *testing.T) {
	tool := BrowseRepository(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(tool.Tool.Name, tool.Tool))
	assert.Equal(t, []string{"repo_name"}, tool.Tool.InputSchema.Required)
	assert.Contains(t, tool.Tool.InputSchema.Properties, "path")
	assert.Contains(t, tool.Tool.InputSchema.Properties, "ref")
}

func entry(name, kind string, size int) *github.RepositoryContent {
	return &github.RepositoryContent{
		Name: github.Ptr(name),
		Type: github.Ptr(kind),
		Size: github.Ptr(size),
	}
}

func Test_RenderDirectoryListingIsOrderIndependent(t *testing.T) {
	entries := []*github.RepositoryContent{
		entry("src", "dir", 0),
		entry("README.md", "file", 2048),
		entry("docs", "dir", 0),
		entry("Makefile", "file", 512),
		entry("api", "dir", 0),
		entry("go.mod", "file", 100),
		entry("vendor", "submodule", 0),
	}
	expected := "# octo/hello:sub\n\n" +
		"## Directories\n**api/**\n**docs/**\n**src/**\n\n" +
		"## Files\n**go.mod** (0.1 KB)\n**Makefile** (0.5 KB)\n**README.md** (2.0 KB)\n"

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]*github.RepositoryContent(nil), entries...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, expected, RenderDirectoryListing("octo/hello", "sub", shuffled))
	}
}

func Test_RenderDirectoryListingEmpty(t *testing.T) {
	assert.Equal(t, "# octo/hello\n\n*Empty directory*\n", RenderDirectoryListing("octo/hello", "", nil))
}

func Test_BrowseRepositoryRequests(t *testing.T) {
	tests := []struct {
		name           string
		args           map[string]any
		handler        func(t *testing.T) http.HandlerFunc
		expected       string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "root directory at ref",
			args: map[string]any{"repo_name": "octo/hello", "ref": "dev"},
			handler: func(t *testing.T) http.HandlerFunc {
				return expect(t, expectations{
					path:        "/repos/octo/hello/contents/",
					queryParams: map[string]string{"ref": "dev"},
				}).andThen(mockResponse(t, http.StatusOK, []map[string]any{
					{"name": "b.txt", "type": "file", "size": 1024},
					{"name": "A", "type": "dir", "size": 0},
				}))
			},
			expected: "# octo/hello\n\n## Directories\n**A/**\n\n## Files\n**b.txt** (1.0 KB)\n",
		},
		{
			name: "single file becomes one entry",
			args: map[string]any{"repo_name": "octo/hello", "path": "main.go"},
			handler: func(t *testing.T) http.HandlerFunc {
				return expect(t, expectations{path: "/repos/octo/hello/contents/main.go"}).andThen(
					mockResponse(t, http.StatusOK, map[string]any{"name": "main.go", "type": "file", "size": 307}),
				)
			},
			expected: "# octo/hello:main.go\n\n## Files\n**main.go** (0.3 KB)\n",
		},
		{
			name: "empty directory",
			args: map[string]any{"repo_name": "octo/hello", "path": "empty"},
			handler: func(t *testing.T) http.HandlerFunc {
				return mockResponse(t, http.StatusOK, []map[string]any{})
			},
			expected: "# octo/hello:empty\n\n*Empty directory*\n",
		},
		{
			name: "missing path",
			args: map[string]any{"repo_name": "octo/hello", "path": "nope"},
			handler: func(t *testing.T) http.HandlerFunc {
				return mockResponse(t, http.StatusNotFound, `{"message":"Not Found"}`)
			},
			expectError:    true,
			expectedErrMsg: "Error accessing path 'nope': ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
				GetReposContentsByOwnerByRepo: tc.handler(t),
			})

			result := callTool(t, BrowseRepository(translations.NullTranslationHelper), readyDeps(client), tc.args)

			if tc.expectError {
				assert.Contains(t, getErrorResult(t, result).Text, tc.expectedErrMsg)
				return
			}
			assert.Equal(t, tc.expected, getTextResult(t, result).Text)
		})
	}
}

func Test_ReadFile(t *testing.T) {
	tool := ReadFile(translations.NullTranslationHelper)
	require.NoError(t, toolsnaps.Test(tool.Tool.Name, tool.Tool))
	assert.ElementsMatch(t, []string{"repo_name", "file_path"}, tool.Tool.InputSchema.Required)

	content := "package main\n\nfunc main() {}\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	tests := []struct {
		name        string
		handler     func(t *testing.T) http.HandlerFunc
		expected    string
		expectError bool
	}{
		{
			name: "file with last modified",
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Last-Modified", "Wed, 01 May 2024 10:00:00 GMT")
					mockResponse(t, http.StatusOK, map[string]any{
						"name": "main.go", "path": "cmd/main.go", "type": "file",
						"size": 2048, "encoding": "base64", "content": encoded,
					})(w, r)
				}
			},
			expected: "# cmd/main.go\n\n" +
				"**Repository:** octo/hello\n" +
				"**Size:** 2.0 KB\n" +
				"**Last Modified:** Wed, 01 May 2024 10:00:00 GMT\n\n" +
				"## Content\n\n```\n" + content + "\n```\n",
		},
		{
			name: "file without last modified",
			handler: func(t *testing.T) http.HandlerFunc {
				return mockResponse(t, http.StatusOK, map[string]any{
					"name": "main.go", "type": "file", "size": 0, "encoding": "base64", "content": encoded,
				})
			},
			expected: "# cmd/main.go\n\n" +
				"**Repository:** octo/hello\n" +
				"**Size:** 0.0 KB\n" +
				"**Last Modified:** Unknown\n\n" +
				"## Content\n\n```\n" + content + "\n```\n",
		},
		{
			name: "directory is not a file",
			handler: func(t *testing.T) http.HandlerFunc {
				return mockResponse(t, http.StatusOK, []map[string]any{{"name": "x.go", "type": "file"}})
			},
			expected:    "Error: 'cmd/main.go' is not a file",
			expectError: true,
		},
		{
			name: "symlink is not a file",
			handler: func(t *testing.T) http.HandlerFunc {
				return mockResponse(t, http.StatusOK, map[string]any{"name": "main.go", "type": "symlink", "target": "../x"})
			},
			expected:    "Error: 'cmd/main.go' is not a file",
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
				GetReposContentsByOwnerByRepo: tc.handler(t),
			})

			result := callTool(t, tool, readyDeps(client), map[string]any{"repo_name": "octo/hello", "file_path": "cmd/main.go"})

			if tc.expectError {
				assert.Equal(t, tc.expected, getErrorResult(t, result).Text)
				return
			}
			assert.Equal(t, tc.expected, getTextResult(t, result).Text)
		})
	}
}

func Test_ReadFileNotFound(t *testing.T) {
	client := MockHTTPClientWithHandlers(map[string]http.HandlerFunc{
		GetReposContentsByOwnerByRepo: mockResponse(t, http.StatusNotFound, `{"message":"Not Found"}`),
	})

	result := callTool(t, ReadFile(translations.NullTranslationHelper), readyDeps(client), map[string]any{"repo_name": "octo/hello", "file_path": "missing.txt"})

	assert.Contains(t, getErrorResult(t, result).Text, "Error reading file: ")
}
