package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/github/github-connector/internal/ghmcp"
	"github.com/github/github-connector/pkg/apihost"
	"github.com/github/github-connector/pkg/github"
	"github.com/github/github-connector/pkg/scopes"
	"github.com/github/github-connector/pkg/translations"
	gogithub "github.com/google/go-github/v79/github"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shurcooL/githubv4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// verifyRepositoryLimit is how many repositories verify lists.
const verifyRepositoryLimit = 5

var errVerifyFailed = errors.New("setup verification failed")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the configured token and GitHub API access",
	Long:  `Check that a token is configured, report the authenticated user, the rate limit and token scopes, and read a sample repository.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runVerify(cmd.Context(), cmd.OutOrStdout(), verifyConfig{
			Host:    viper.GetString("host"),
			Token:   token(),
			Version: version,
		})
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

type verifyConfig struct {
	Host      string
	Token     string
	Version   string
	Transport http.RoundTripper
}

// runVerify writes a report to out and fails when the token is missing or the
// API cannot be used with it.
func runVerify(ctx context.Context, out io.Writer, cfg verifyConfig) error {
	fmt.Fprintln(out, "Checking GitHub token...")
	if cfg.Token == "" {
		fmt.Fprintln(out, "  GITHUB_TOKEN environment variable not set")
		fmt.Fprintln(out, "  Set it with: export GITHUB_TOKEN=your_token_here")
		return errVerifyFailed
	}
	fmt.Fprintf(out, "  GITHUB_TOKEN found (%s)\n", scopes.ParseTokenType(cfg.Token))

	host, err := apihost.Parse(cfg.Host)
	if err != nil {
		return err
	}
	clients := ghmcp.NewClients(host, cfg.Token, cfg.Version, cfg.Transport)

	var q struct {
		Viewer struct {
			Login githubv4.String
		}
		RateLimit struct {
			Limit     githubv4.Int
			Remaining githubv4.Int
		}
	}
	if err := clients.GraphQL.Query(ctx, &q, nil); err != nil {
		fmt.Fprintf(out, "  Token invalid or network error: %s\n", err)
		return errVerifyFailed
	}
	fmt.Fprintf(out, "  Token valid - Connected as: %s\n", q.Viewer.Login)
	fmt.Fprintf(out, "  API rate limit: %d/%d\n", q.RateLimit.Remaining, q.RateLimit.Limit)

	reportScopes(ctx, out, host, cfg)

	fmt.Fprintln(out, "\nChecking repository access...")
	repos, _, err := clients.REST.Repositories.ListByAuthenticatedUser(ctx, &gogithub.RepositoryListByAuthenticatedUserOptions{
		Type:        "all",
		ListOptions: gogithub.ListOptions{PerPage: verifyRepositoryLimit},
	})
	if err != nil {
		fmt.Fprintf(out, "  Error listing repositories: %s\n", err)
		return errVerifyFailed
	}
	if len(repos) > verifyRepositoryLimit {
		repos = repos[:verifyRepositoryLimit]
	}
	fmt.Fprintf(out, "  Retrieved %d repositories\n", len(repos))

	if len(repos) > 0 {
		repo := repos[0]
		fmt.Fprintf(out, "  Sample repository: %s\n", repo.GetFullName())
		_, dir, _, err := clients.REST.Repositories.GetContents(ctx, repo.GetOwner().GetLogin(), repo.GetName(), "", nil)
		if err != nil {
			// empty repositories have no contents
			fmt.Fprintf(out, "  Could not access repository contents: %s\n", err)
		} else {
			fmt.Fprintf(out, "  Accessed repository contents (%d items)\n", len(dir))
		}
	}

	fmt.Fprintln(out, "\nAll checks passed. The connector is ready to use.")
	return nil
}

// reportScopes prints the token scopes and the tools they do not cover.
func reportScopes(ctx context.Context, out io.Writer, host apihost.Host, cfg verifyConfig) {
	fetcher := scopes.NewFetcher(host, scopes.FetcherOptions{
		HTTPClient: &http.Client{Transport: cfg.Transport, Timeout: scopes.DefaultFetchTimeout},
	})
	tokenScopes, err := fetcher.FetchTokenScopes(ctx, cfg.Token)
	switch {
	case err != nil:
		fmt.Fprintf(out, "  Could not read token scopes: %s\n", err)
		return
	case tokenScopes == nil:
		fmt.Fprintln(out, "  Token scopes: not reported (fine-grained token)")
		return
	case len(tokenScopes) == 0:
		fmt.Fprintln(out, "  Token scopes: none")
	default:
		fmt.Fprintf(out, "  Token scopes: %s\n", strings.Join(tokenScopes, ", "))
	}

	missing := github.ToolsMissingScopes(catalog(), tokenScopes)
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  Tool %s needs scope: %s\n", name, strings.Join(missing[name], " or "))
	}
}

// catalog is every tool the server can offer.
func catalog() []mcp.Tool {
	tsg := github.DefaultToolsetGroup(false, translations.NullTranslationHelper)
	_ = tsg.EnableToolsets(github.DefaultTools, nil)
	return github.NewDispatcher(tsg, &github.BaseDeps{}).Tools()
}
