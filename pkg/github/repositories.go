package github

import (
	"context"
	"fmt"
	"strings"

	ghErrors "github.com/github/github-connector/pkg/errors"
	"github.com/github/github-connector/pkg/sanitize"
	"github.com/github/github-connector/pkg/toolsets"
	"github.com/github/github-connector/pkg/translations"
	"github.com/google/go-github/v79/github"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	DefaultRepositoryLimit = 30
	maxPerPage             = 100
)

type ListRepositoriesArgs struct {
	RepoType string `mapstructure:"repo_type"`
	Sort     string `mapstructure:"sort"`
	Limit    int    `mapstructure:"limit"`
}

func ListRepositories(t translations.TranslationHelperFunc) toolsets.ServerTool {
	return NewTool(
		mcp.NewTool("list_repositories",
			mcp.WithDescription(t("TOOL_LIST_REPOSITORIES_DESCRIPTION", "List user's GitHub repositories")),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				Title:        t("TOOL_LIST_REPOSITORIES_USER_TITLE", "List repositories"),
				ReadOnlyHint: ToBoolPtr(true),
			}),
			mcp.WithString("repo_type",
				mcp.Description("Type of repositories to list"),
				mcp.Enum("all", "public", "private", "owner"),
				mcp.DefaultString("all"),
			),
			mcp.WithString("sort",
				mcp.Description("Sort repositories by"),
				mcp.Enum("created", "updated", "pushed", "full_name"),
				mcp.DefaultString("updated"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of repositories to return"),
				mcp.DefaultNumber(DefaultRepositoryLimit),
			),
		),
		true,
		func(ctx context.Context, deps ToolDependencies, args ListRepositoriesArgs) (*mcp.CallToolResult, error) {
			if args.Limit < 1 {
				return mcp.NewToolResultError("Error listing repositories: limit must be at least 1"), nil
			}

			client, err := deps.GetClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get GitHub client: %w", err)
			}

			opts := &github.RepositoryListByAuthenticatedUserOptions{
				Sort: args.Sort,
				ListOptions: github.ListOptions{
					PerPage: min(args.Limit, maxPerPage),
				},
			}
			if args.RepoType != "all" {
				opts.Type = args.RepoType
			}

			repos := make([]*github.Repository, 0, args.Limit)
			for len(repos) < args.Limit {
				page, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, opts)
				if err != nil {
					return ghErrors.NewGitHubAPIErrorResponse(ctx, "Error listing repositories", resp, err), nil
				}
				for _, repo := range page {
					if len(repos) == args.Limit {
						break
					}
					repos = append(repos, repo)
				}
				if resp.NextPage == 0 {
					break
				}
				opts.Page = resp.NextPage
			}

			return mcp.NewToolResultText(renderRepositoryList(repos)), nil
		})
}

func renderRepositoryList(repos []*github.Repository) string {
	entries := make([]string, 0, len(repos))
	for _, repo := range repos {
		entries = append(entries, fmt.Sprintf("• **%s** (%s)\n  %s\n  Stars: %d | Forks: %d | Updated: %s\n",
			repo.GetFullName(),
			orDefault(repo.GetLanguage(), "Unknown"),
			orDefault(sanitize.Sanitize(repo.GetDescription()), "No description"),
			repo.GetStargazersCount(),
			repo.GetForksCount(),
			formatDate(repo.GetUpdatedAt()),
		))
	}
	return fmt.Sprintf("Found %d repositories:\n\n", len(repos)) + strings.Join(entries, "\n")
}

type GetRepositoryInfoArgs struct {
	RepoName string `mapstructure:"repo_name"`
}

func GetRepositoryInfo(t translations.TranslationHelperFunc) toolsets.ServerTool {
	return NewTool(
		mcp.NewTool("get_repository_info",
			mcp.WithDescription(t("TOOL_GET_REPOSITORY_INFO_DESCRIPTION", "Get detailed information about a specific repository")),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				Title:        t("TOOL_GET_REPOSITORY_INFO_USER_TITLE", "Get repository info"),
				ReadOnlyHint: ToBoolPtr(true),
			}),
			mcp.WithString("repo_name",
				mcp.Required(),
				mcp.Description("Repository name in format 'owner/repo' or just 'repo' for your own repos"),
			),
		),
		true,
		func(ctx context.Context, deps ToolDependencies, args GetRepositoryInfoArgs) (*mcp.CallToolResult, error) {
			client, err := deps.GetClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get GitHub client: %w", err)
			}

			owner, name, err := resolveRepository(ctx, deps, client, args.RepoName)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error getting repository info: %s", err)), nil
			}

			repo, resp, err := client.Repositories.Get(ctx, owner, name)
			if err != nil {
				return ghErrors.NewGitHubAPIErrorResponse(ctx, "Error getting repository info", resp, err), nil
			}
			defer func() { _ = resp.Body.Close() }()

			return mcp.NewToolResultText(renderRepositoryInfo(repo)), nil
		})
}

func renderRepositoryInfo(repo *github.Repository) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", repo.GetFullName())
	fmt.Fprintf(&b, "**Description:** %s\n\n", orDefault(sanitize.Sanitize(repo.GetDescription()), "No description"))

	b.WriteString("## Repository Details\n")
	fmt.Fprintf(&b, "- **Language:** %s\n", orDefault(repo.GetLanguage(), "Not specified"))
	fmt.Fprintf(&b, "- **Private:** %s\n", yesNo(repo.GetPrivate()))
	fmt.Fprintf(&b, "- **Default Branch:** %s\n", repo.GetDefaultBranch())
	fmt.Fprintf(&b, "- **Size:** %d KB\n", repo.GetSize())
	fmt.Fprintf(&b, "- **License:** %s\n\n", orDefault(repo.GetLicense().GetName(), "Not specified"))

	b.WriteString("## Statistics\n")
	fmt.Fprintf(&b, "- **Stars:** %d\n", repo.GetStargazersCount())
	fmt.Fprintf(&b, "- **Forks:** %d\n", repo.GetForksCount())
	fmt.Fprintf(&b, "- **Watchers:** %d\n", repo.GetWatchersCount())
	fmt.Fprintf(&b, "- **Open Issues:** %d\n\n", repo.GetOpenIssuesCount())

	b.WriteString("## Dates\n")
	fmt.Fprintf(&b, "- **Created:** %s\n", formatDate(repo.GetCreatedAt()))
	fmt.Fprintf(&b, "- **Updated:** %s\n", formatDate(repo.GetUpdatedAt()))
	fmt.Fprintf(&b, "- **Last Push:** %s\n\n", orDefault(formatDate(repo.GetPushedAt()), "Never"))

	b.WriteString("## URLs\n")
	fmt.Fprintf(&b, "- **Repository:** %s\n", repo.GetHTMLURL())
	fmt.Fprintf(&b, "- **Clone (HTTPS):** %s\n", repo.GetCloneURL())
	fmt.Fprintf(&b, "- **Clone (SSH):** %s\n", repo.GetSSHURL())
	if homepage := sanitize.Sanitize(repo.GetHomepage()); homepage != "" {
		fmt.Fprintf(&b, "- **Homepage:** %s\n", homepage)
	}

	topics := make([]string, 0, len(repo.Topics))
	for _, topic := range repo.Topics {
		if topic = sanitize.Sanitize(topic); topic != "" {
			topics = append(topics, topic)
		}
	}
	b.WriteString("\n## Topics\n")
	if len(topics) == 0 {
		b.WriteString("No topics\n")
	} else {
		fmt.Fprintf(&b, "%s\n", strings.Join(topics, ", "))
	}
	return b.String()
}

type CreateRepositoryArgs struct {
	Name              string `mapstructure:"name"`
	Description       string `mapstructure:"description"`
	Private           bool   `mapstructure:"private"`
	InitReadme        bool   `mapstructure:"init_readme"`
	GitignoreTemplate string `mapstructure:"gitignore_template"`
	LicenseTemplate   string `mapstructure:"license_template"`
}

func CreateRepository(t translations.TranslationHelperFunc) toolsets.ServerTool {
	return NewTool(
		mcp.NewTool("create_repository",
			mcp.WithDescription(t("TOOL_CREATE_REPOSITORY_DESCRIPTION", "Create a new GitHub repository")),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{
				Title:        t("TOOL_CREATE_REPOSITORY_USER_TITLE", "Create repository"),
				ReadOnlyHint: ToBoolPtr(false),
			}),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Repository name"),
			),
			mcp.WithString("description",
				mcp.Description("Repository description"),
			),
			mcp.WithBoolean("private",
				mcp.Description("Make repository private"),
				mcp.DefaultBool(false),
			),
			mcp.WithBoolean("init_readme",
				mcp.Description("Initialize with README"),
				mcp.DefaultBool(true),
			),
			mcp.WithString("gitignore_template",
				mcp.Description("Gitignore template (e.g., 'Python', 'Node', 'Go')"),
			),
			mcp.WithString("license_template",
				mcp.Description("License template (e.g., 'mit', 'apache-2.0', 'gpl-3.0')"),
			),
		),
		true,
		func(ctx context.Context, deps ToolDependencies, args CreateRepositoryArgs) (*mcp.CallToolResult, error) {
			name := strings.TrimSpace(args.Name)
			if name == "" {
				return mcp.NewToolResultError("Error: Repository name cannot be empty"), nil
			}

			client, err := deps.GetClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get GitHub client: %w", err)
			}

			repo := &github.Repository{
				Name:     github.Ptr(name),
				Private:  github.Ptr(args.Private),
				AutoInit: github.Ptr(args.InitReadme),
			}
			if description := strings.TrimSpace(args.Description); description != "" {
				repo.Description = github.Ptr(description)
			}
			if gitignore := strings.TrimSpace(args.GitignoreTemplate); gitignore != "" {
				repo.GitignoreTemplate = github.Ptr(gitignore)
			}
			if license := strings.TrimSpace(args.LicenseTemplate); license != "" {
				repo.LicenseTemplate = github.Ptr(license)
			}

			created, resp, err := client.Repositories.Create(ctx, "", repo)
			if err != nil {
				return mcp.NewToolResultError(ghErrors.CreateRepositoryMessage(name, err)), nil
			}
			defer func() { _ = resp.Body.Close() }()

			return mcp.NewToolResultText(renderCreatedRepository(created)), nil
		})
}

func renderCreatedRepository(repo *github.Repository) string {
	visibility := "Public"
	if repo.GetPrivate() {
		visibility = "Private"
	}

	var b strings.Builder
	b.WriteString("# Repository Created Successfully!\n\n")
	fmt.Fprintf(&b, "**Repository:** %s\n", repo.GetFullName())
	fmt.Fprintf(&b, "**Description:** %s\n", orDefault(sanitize.Sanitize(repo.GetDescription()), "No description"))
	fmt.Fprintf(&b, "**Visibility:** %s\n", visibility)
	fmt.Fprintf(&b, "**Default Branch:** %s\n\n", repo.GetDefaultBranch())

	b.WriteString("## Repository Details\n")
	fmt.Fprintf(&b, "- **Created:** %s\n", repo.GetCreatedAt().UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Clone URL (HTTPS):** %s\n", repo.GetCloneURL())
	fmt.Fprintf(&b, "- **Clone URL (SSH):** %s\n", repo.GetSSHURL())
	fmt.Fprintf(&b, "- **Repository URL:** %s\n\n", repo.GetHTMLURL())

	b.WriteString("## Quick Start\n```bash\n")
	b.WriteString("# Clone your new repository\n")
	fmt.Fprintf(&b, "git clone %s\n", repo.GetCloneURL())
	fmt.Fprintf(&b, "cd %s\n\n", repo.GetName())
	b.WriteString("# Start developing!\n```\n\n")
	b.WriteString("Your new repository is ready for development!\n")
	return b.String()
}

// resolveRepository splits "owner/repo". A bare name belongs to the
// authenticated user.
func resolveRepository(ctx context.Context, deps ToolDependencies, client *github.Client, repoName string) (string, string, error) {
	repoName = strings.TrimSpace(repoName)
	if owner, name, ok := strings.Cut(repoName, "/"); ok {
		if owner == "" || name == "" || strings.Contains(name, "/") {
			return "", "", fmt.Errorf("invalid repository name %q, expected 'owner/repo'", repoName)
		}
		return owner, name, nil
	}
	if repoName == "" {
		return "", "", fmt.Errorf("repository name cannot be empty")
	}

	if ready, ok := deps.Session().(Ready); ok && ready.Login != "" {
		return ready.Login, repoName, nil
	}
	user, resp, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve owner of %q: %w", repoName, err)
	}
	defer func() { _ = resp.Body.Close() }()
	return user.GetLogin(), repoName, nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatDate(ts github.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format("2006-01-02")
}

func formatKB(bytes int) string {
	return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
}
