package github

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/github/github-connector/pkg/gitlocal"
	"github.com/github/github-connector/pkg/toolsets"
	"github.com/github/github-connector/pkg/translations"
	"github.com/mark3labs/mcp-go/mcp"
)

type CloneRepositoryArgs struct {
	RepoName  string `mapstructure:"repo_name"`
	LocalPath string `mapstructure:"local_path"`
	Branch    string `mapstructure:"branch"`
}

func CloneRepository(t translations.TranslationHelperFunc) toolsets.ServerTool {
	return NewTool(
		mcp.NewTool("clone_repository",
			mcp.WithDescription(t("TOOL_CLONE_REPOSITORY_DESCRIPTION", "Clone a repository to local filesystem")),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				Title:        t("TOOL_CLONE_REPOSITORY_USER_TITLE", "Clone repository"),
				ReadOnlyHint: ToBoolPtr(false),
			}),
			mcp.WithString("repo_name",
				mcp.Required(),
				mcp.Description("Repository name in format 'owner/repo'"),
			),
			mcp.WithString("local_path",
				mcp.Description("Local path to clone to (default: ~/github/{owner}/{repo})"),
			),
			mcp.WithString("branch",
				mcp.Description("Specific branch to clone (default: default branch)"),
			),
		),
		true,
		func(ctx context.Context, deps ToolDependencies, args CloneRepositoryArgs) (*mcp.CallToolResult, error) {
			client, err := deps.GetClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get GitHub client: %w", err)
			}

			owner, name, err := resolveRepository(ctx, deps, client, args.RepoName)
			if err != nil {
				return cloneError(err), nil
			}

			repo, resp, err := client.Repositories.Get(ctx, owner, name)
			if err != nil {
				return cloneError(err), nil
			}
			defer func() { _ = resp.Body.Close() }()

			home, err := deps.HomeDir()
			if err != nil {
				return cloneError(err), nil
			}
			dest := gitlocal.ExpandHome(strings.TrimSpace(args.LocalPath), home)
			if dest == "" {
				dest = filepath.Join(home, "github", owner, name)
			}

			if err := gitlocal.PrepareDestination(dest); err != nil {
				if errors.Is(err, gitlocal.ErrDestinationExists) {
					return mcp.NewToolResultError(fmt.Sprintf("Error: Directory '%s' already exists. Choose a different path or remove the existing directory.", dest)), nil
				}
				return cloneError(err), nil
			}

			var token string
			if ready, ok := deps.Session().(Ready); ok {
				token = ready.Token
			}

			cloned, err := deps.GetGit().Clone(ctx, gitlocal.CloneOptions{
				URL:    repo.GetCloneURL(),
				Path:   dest,
				Branch: strings.TrimSpace(args.Branch),
				Token:  token,
			})
			if err != nil {
				return cloneError(err), nil
			}

			var b strings.Builder
			b.WriteString("# Repository Cloned Successfully\n\n")
			fmt.Fprintf(&b, "**Repository:** %s\n", args.RepoName)
			fmt.Fprintf(&b, "**Local Path:** %s\n", cloned.Path)
			fmt.Fprintf(&b, "**Branch:** %s\n", cloned.Branch)
			fmt.Fprintf(&b, "**Commits:** %d\n\n", cloned.Commits)
			b.WriteString("The repository has been cloned to your local filesystem and is ready for development!\n")
			return mcp.NewToolResultText(b.String()), nil
		})
}

func cloneError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Error cloning repository: %s", err))
}

type ListLocalRepositoriesArgs struct {
	BasePath string `mapstructure:"base_path"`
}

func ListLocalRepositories(t translations.TranslationHelperFunc) toolsets.ServerTool {
	return NewTool(
		mcp.NewTool("list_local_repositories",
			mcp.WithDescription(t("TOOL_LIST_LOCAL_REPOSITORIES_DESCRIPTION", "List locally cloned repositories")),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				Title:        t("TOOL_LIST_LOCAL_REPOSITORIES_USER_TITLE", "List local repositories"),
				ReadOnlyHint: ToBoolPtr(true),
			}),
			mcp.WithString("base_path",
				mcp.Description("Base path to search for repositories (default: ~/github)"),
			),
		),
		false,
		func(ctx context.Context, deps ToolDependencies, args ListLocalRepositoriesArgs) (*mcp.CallToolResult, error) {
			roots, err := scanRoots(deps, strings.TrimSpace(args.BasePath))
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error listing local repositories: %s", err)), nil
			}

			records, err := deps.GetScanner().Scan(ctx, roots...)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error listing local repositories: %s", err)), nil
			}
			if len(records) == 0 {
				return mcp.NewToolResultText("No local Git repositories found in the searched paths."), nil
			}
			return mcp.NewToolResultText(renderLocalRepositories(records)), nil
		})
}

func scanRoots(deps ToolDependencies, basePath string) ([]string, error) {
	if basePath != "" && !strings.HasPrefix(basePath, "~") {
		return []string{basePath}, nil
	}
	home, err := deps.HomeDir()
	if err != nil {
		return nil, err
	}
	if basePath != "" {
		return []string{gitlocal.ExpandHome(basePath, home)}, nil
	}
	cwd, err := deps.WorkingDir()
	if err != nil {
		return nil, err
	}
	return gitlocal.DefaultRoots(home, cwd), nil
}

func renderLocalRepositories(records []gitlocal.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Local Git Repositories\n\n**Found %d repositories:**\n\n", len(records))
	for _, r := range records {
		status := "clean"
		if r.Dirty {
			status = "dirty"
		}
		fmt.Fprintf(&b, "## %s\n", r.Name)
		fmt.Fprintf(&b, "**Path:** `%s`\n", r.Path)
		fmt.Fprintf(&b, "**Branch:** %s | **Status:** %s\n", r.Branch, status)
		if r.RemoteURL != "" {
			fmt.Fprintf(&b, "**Remote:** %s\n", r.RemoteURL)
		}
		if r.LastCommit != "" {
			fmt.Fprintf(&b, "**Last Commit:** %s\n", r.LastCommit)
		}
		b.WriteString("\n")
	}
	return b.String()
}
