package github

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	ghErrors "github.com/github/github-connector/pkg/errors"
	"github.com/github/github-connector/pkg/http/headers"
	"github.com/github/github-connector/pkg/toolsets"
	"github.com/github/github-connector/pkg/translations"
	"github.com/google/go-github/v79/github"
	"github.com/mark3labs/mcp-go/mcp"
)

type BrowseRepositoryArgs struct {
	RepoName string `mapstructure:"repo_name"`
	Path     string `mapstructure:"path"`
	Ref      string `mapstructure:"ref"`
}

func BrowseRepository(t translations.TranslationHelperFunc) toolsets.ServerTool {
	return NewTool(
		mcp.NewTool("browse_repository",
			mcp.WithDescription(t("TOOL_BROWSE_REPOSITORY_DESCRIPTION", "Browse repository contents and directory structure")),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				Title:        t("TOOL_BROWSE_REPOSITORY_USER_TITLE", "Browse repository"),
				ReadOnlyHint: ToBoolPtr(true),
			}),
			mcp.WithString("repo_name",
				mcp.Required(),
				mcp.Description("Repository name in format 'owner/repo'"),
			),
			mcp.WithString("path",
				mcp.Description("Path to browse (empty for root)"),
				mcp.DefaultString(""),
			),
			mcp.WithString("ref",
				mcp.Description("Branch, tag, or commit SHA (default: default branch)"),
			),
		),
		true,
		func(ctx context.Context, deps ToolDependencies, args BrowseRepositoryArgs) (*mcp.CallToolResult, error) {
			client, err := deps.GetClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get GitHub client: %w", err)
			}

			owner, name, err := resolveRepository(ctx, deps, client, args.RepoName)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error browsing repository: %s", err)), nil
			}

			file, dir, resp, err := client.Repositories.GetContents(ctx, owner, name, args.Path, &github.RepositoryContentGetOptions{Ref: args.Ref})
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx, fmt.Sprintf("Error accessing path '%s'", args.Path), resp, err), nil
			}
			defer func() { _ = resp.Body.Close() }()

			entries := dir
			if file != nil {
				entries = []*github.RepositoryContent{file}
			}
			return mcp.NewToolResultText(RenderDirectoryListing(args.RepoName, args.Path, entries)), nil
		})
}

// RenderDirectoryListing renders directories, then files, each sorted by
// case-insensitive name. Symlinks and submodules are not listed.
func RenderDirectoryListing(repoName, path string, entries []*github.RepositoryContent) string {
	var dirs, files []*github.RepositoryContent
	for _, entry := range entries {
		switch entry.GetType() {
		case "dir":
			dirs = append(dirs, entry)
		case "file":
			files = append(files, entry)
		}
	}
	byName := func(list []*github.RepositoryContent) {
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].GetName()) < strings.ToLower(list[j].GetName())
		})
	}
	byName(dirs)
	byName(files)

	var b strings.Builder
	b.WriteString("# " + repoName)
	if path != "" {
		b.WriteString(":" + path)
	}
	b.WriteString("\n\n")

	if len(dirs) > 0 {
		b.WriteString("## Directories\n")
		for _, dir := range dirs {
			fmt.Fprintf(&b, "**%s/**\n", dir.GetName())
		}
		b.WriteString("\n")
	}
	if len(files) > 0 {
		b.WriteString("## Files\n")
		for _, file := range files {
			fmt.Fprintf(&b, "**%s** (%s)\n", file.GetName(), formatKB(file.GetSize()))
		}
	}
	if len(dirs) == 0 && len(files) == 0 {
		b.WriteString("*Empty directory*\n")
	}
	return b.String()
}

type ReadFileArgs struct {
	RepoName string `mapstructure:"repo_name"`
	FilePath string `mapstructure:"file_path"`
	Ref      string `mapstructure:"ref"`
}

func ReadFile(t translations.TranslationHelperFunc) toolsets.ServerTool {
	return NewTool(
		mcp.NewTool("read_file",
			mcp.WithDescription(t("TOOL_READ_FILE_DESCRIPTION", "Read the contents of a specific file")),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				Title:        t("TOOL_READ_FILE_USER_TITLE", "Read file"),
				ReadOnlyHint: ToBoolPtr(true),
			}),
			mcp.WithString("repo_name",
				mcp.Required(),
				mcp.Description("Repository name in format 'owner/repo'"),
			),
			mcp.WithString("file_path",
				mcp.Required(),
				mcp.Description("Path to the file"),
			),
			mcp.WithString("ref",
				mcp.Description("Branch, tag, or commit SHA (default: default branch)"),
			),
		),
		true,
		func(ctx context.Context, deps ToolDependencies, args ReadFileArgs) (*mcp.CallToolResult, error) {
			client, err := deps.GetClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get GitHub client: %w", err)
			}

			owner, name, err := resolveRepository(ctx, deps, client, args.RepoName)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error reading file: %s", err)), nil
			}

			file, _, resp, err := client.Repositories.GetContents(ctx, owner, name, args.FilePath, &github.RepositoryContentGetOptions{Ref: args.Ref})
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx, "Error reading file", resp, err), nil
			}
			defer func() { _ = resp.Body.Close() }()

			if file == nil || file.GetType() != "file" {
				return mcp.NewToolResultError(fmt.Sprintf("Error: '%s' is not a file", args.FilePath)), nil
			}

			content, err := file.GetContent()
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error reading file: %s", err)), nil
			}
			if !utf8.ValidString(content) {
				return mcp.NewToolResultError(fmt.Sprintf("Error reading file: '%s' is not UTF-8 text", args.FilePath)), nil
			}

			lastModified := "Unknown"
			if resp != nil && resp.Header.Get(headers.LastModifiedHeader) != "" {
				lastModified = resp.Header.Get(headers.LastModifiedHeader)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "# %s\n\n", args.FilePath)
			fmt.Fprintf(&b, "**Repository:** %s\n", args.RepoName)
			fmt.Fprintf(&b, "**Size:** %s\n", formatKB(file.GetSize()))
			fmt.Fprintf(&b, "**Last Modified:** %s\n\n", lastModified)
			fmt.Fprintf(&b, "## Content\n\n```\n%s\n```\n", content)
			return mcp.NewToolResultText(b.String()), nil
		})
}
