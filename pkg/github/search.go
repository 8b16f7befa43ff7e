package github

import (
	"context"
	"fmt"
	"strings"

	ghErrors "github.com/github/github-connector/pkg/errors"
	"github.com/github/github-connector/pkg/toolsets"
	"github.com/github/github-connector/pkg/translations"
	"github.com/google/go-github/v79/github"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	FileSearchLimit = 20
	CodeSearchLimit = 15
)

type SearchFilesArgs struct {
	RepoName string `mapstructure:"repo_name"`
	Query    string `mapstructure:"query"`
	FileType string `mapstructure:"file_type"`
}

func SearchFiles(t translations.TranslationHelperFunc) toolsets.ServerTool {
	return NewTool(
		mcp.NewTool("search_files",
			mcp.WithDescription(t("TOOL_SEARCH_FILES_DESCRIPTION", "Search for files in a repository by name or path")),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				Title:        t("TOOL_SEARCH_FILES_USER_TITLE", "Search files"),
				ReadOnlyHint: ToBoolPtr(true),
			}),
			mcp.WithString("repo_name",
				mcp.Required(),
				mcp.Description("Repository name in format 'owner/repo'"),
			),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search query (filename or path pattern)"),
			),
			mcp.WithString("file_type",
				mcp.Description("File extension filter (e.g., 'py', 'js', 'md')"),
			),
		),
		true,
		func(ctx context.Context, deps ToolDependencies, args SearchFilesArgs) (*mcp.CallToolResult, error) {
			client, err := deps.GetClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get GitHub client: %w", err)
			}

			repo, err := qualifiedRepository(ctx, deps, client, args.RepoName)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error searching files: %s", err)), nil
			}

			query := fmt.Sprintf("repo:%s filename:%s", repo, args.Query)
			if ext := strings.TrimPrefix(strings.TrimSpace(args.FileType), "."); ext != "" {
				query += " extension:" + ext
			}

			items, total, err := searchCode(ctx, client, query)
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx, "Error searching files", nil, err), nil
			}
			if total == 0 {
				return mcp.NewToolResultText(fmt.Sprintf("No files found matching '%s' in %s", args.Query, args.RepoName)), nil
			}
			return mcp.NewToolResultText(renderSearchResults("File Search Results", args.Query, args.RepoName, items, total, FileSearchLimit)), nil
		})
}

type SearchCodeArgs struct {
	RepoName string `mapstructure:"repo_name"`
	Query    string `mapstructure:"query"`
	Language string `mapstructure:"language"`
}

func SearchCode(t translations.TranslationHelperFunc) toolsets.ServerTool {
	return NewTool(
		mcp.NewTool("search_code",
			mcp.WithDescription(t("TOOL_SEARCH_CODE_DESCRIPTION", "Search for code content within a repository")),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				Title:        t("TOOL_SEARCH_CODE_USER_TITLE", "Search code"),
				ReadOnlyHint: ToBoolPtr(true),
			}),
			mcp.WithString("repo_name",
				mcp.Required(),
				mcp.Description("Repository name in format 'owner/repo'"),
			),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Code search query"),
			),
			mcp.WithString("language",
				mcp.Description("Programming language filter (e.g., 'python', 'javascript')"),
			),
		),
		true,
		func(ctx context.Context, deps ToolDependencies, args SearchCodeArgs) (*mcp.CallToolResult, error) {
			client, err := deps.GetClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get GitHub client: %w", err)
			}

			repo, err := qualifiedRepository(ctx, deps, client, args.RepoName)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error searching code: %s", err)), nil
			}

			query := fmt.Sprintf("repo:%s %s", repo, args.Query)
			if language := strings.TrimSpace(args.Language); language != "" {
				query += " language:" + language
			}

			items, total, err := searchCode(ctx, client, query)
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx, "Error searching code", nil, err), nil
			}
			if total == 0 {
				return mcp.NewToolResultText(fmt.Sprintf("No code matches found for '%s' in %s", args.Query, args.RepoName)), nil
			}
			return mcp.NewToolResultText(renderSearchResults("Code Search Results", args.Query, args.RepoName, items, total, CodeSearchLimit)), nil
		})
}

// searchCode fetches the first page of results. total is the match count the
// API reports, never less than what was returned.
func searchCode(ctx context.Context, client *github.Client, query string) ([]*github.CodeResult, int, error) {
	result, resp, err := client.Search.Code(ctx, query, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: maxPerPage},
	})
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	return result.CodeResults, max(result.GetTotal(), len(result.CodeResults)), nil
}

func renderSearchResults(title, query, repoName string, items []*github.CodeResult, total, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n**Query:** %s\n**Repository:** %s\n\n", title, query, repoName)

	shown := items
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, item := range shown {
		fmt.Fprintf(&b, "**%s**\n", item.GetName())
		fmt.Fprintf(&b, "   Path: `%s`\n", item.GetPath())
		fmt.Fprintf(&b, "   [View on GitHub](%s)\n\n", item.GetHTMLURL())
	}
	if more := total - len(shown); more > 0 {
		fmt.Fprintf(&b, "*...and %d more results*\n", more)
	}
	return b.String()
}

// qualifiedRepository returns repoName as "owner/repo" for search qualifiers.
func qualifiedRepository(ctx context.Context, deps ToolDependencies, client *github.Client, repoName string) (string, error) {
	owner, name, err := resolveRepository(ctx, deps, client, repoName)
	if err != nil {
		return "", err
	}
	return owner + "/" + name, nil
}
