// Package ghmcp wires configuration, the GitHub session and the tool
// dispatcher into an MCP server speaking over stdio.
package ghmcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/github/github-connector/pkg/apihost"
	"github.com/github/github-connector/pkg/github"
	"github.com/github/github-connector/pkg/gitlocal"
	"github.com/github/github-connector/pkg/http/transport"
	"github.com/github/github-connector/pkg/scopes"
	"github.com/github/github-connector/pkg/toolsets"
	"github.com/github/github-connector/pkg/translations"
	gogithub "github.com/google/go-github/v79/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

var (
	// ErrNoToken is the reason recorded when no credential was configured.
	ErrNoToken = errors.New("no GitHub token configured")

	// ErrSessionUnavailable is returned by NewMCPServer when the strict session
	// gate is on and no authenticated session could be created.
	ErrSessionUnavailable = errors.New("GitHub session unavailable")
)

type MCPServerConfig struct {
	// Version of the server
	Version string

	// GitHub Host to target for API requests (e.g. github.com or github.enterprise.com)
	Host string

	// GitHub Token to authenticate with the GitHub API
	Token string

	// EnabledToolsets is a list of toolsets to enable
	EnabledToolsets []string

	// ReadOnly indicates if we should only offer read-only tools
	ReadOnly bool

	// StrictSessionGate rejects every tool, local ones included, while no
	// session exists. When set, a missing session is a startup failure.
	StrictSessionGate bool

	// MaxScanDepth bounds list_local_repositories; zero keeps the default.
	MaxScanDepth int

	// Translator provides translated text for the server tooling
	Translator translations.TranslationHelperFunc

	Logger *slog.Logger

	// Transport is the base transport for GitHub API calls, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Clients holds the API clients for one token.
type Clients struct {
	REST    *gogithub.Client
	GraphQL *githubv4.Client
}

// NewClients builds REST and GraphQL clients for host authenticating with token.
func NewClients(host apihost.Host, token, version string, base http.RoundTripper) *Clients {
	agent := &http.Client{Transport: &transport.UserAgentTransport{
		Transport: base,
		Agent:     fmt.Sprintf("github-connector/%s", version),
	}}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, agent)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	rest := gogithub.NewClient(httpClient)
	if !host.IsDotcom() {
		rest.BaseURL = host.REST
		rest.UploadURL = host.REST
	}

	return &Clients{
		REST:    rest,
		GraphQL: githubv4.NewEnterpriseClient(host.GraphQL.String(), httpClient),
	}
}

// NewSession authenticates token against host. Any failure yields an
// Uninitialized session carrying the reason.
func NewSession(ctx context.Context, host apihost.Host, token, version string, base http.RoundTripper) github.Session {
	if token == "" {
		return github.Uninitialized{Reason: ErrNoToken}
	}

	clients := NewClients(host, token, version, base)
	user, _, err := clients.REST.Users.Get(ctx, "")
	if err != nil {
		return github.Uninitialized{Reason: fmt.Errorf("failed to authenticate: %w", err)}
	}

	return github.Ready{
		Client: clients.REST,
		Token:  token,
		Login:  user.GetLogin(),
	}
}

// NewMCPServer creates the session, the tool catalog and the MCP server that
// serves it. Tool calls reach the dispatcher through the returned Router.
func NewMCPServer(ctx context.Context, cfg MCPServerConfig) (*github.Router, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := cfg.Translator
	if t == nil {
		t = translations.NullTranslationHelper
	}

	host, err := apihost.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API host: %w", err)
	}

	tsg := github.DefaultToolsetGroup(cfg.ReadOnly, t)
	enabled := cfg.EnabledToolsets
	if len(enabled) == 0 {
		enabled = github.DefaultTools
	}
	if err := tsg.EnableToolsets(enabled, &toolsets.EnableToolsetsOptions{ErrorOnUnknown: true}); err != nil {
		return nil, fmt.Errorf("failed to enable toolsets: %w", err)
	}

	session := NewSession(ctx, host, cfg.Token, cfg.Version, cfg.Transport)
	if uninit, ok := session.(github.Uninitialized); ok {
		if cfg.StrictSessionGate {
			return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, uninit.Reason)
		}
		logger.Warn("serving without a GitHub session", "reason", uninit.Reason)
	}

	git := gitlocal.New(logger)
	scanner := gitlocal.NewScanner(git, gitlocal.WithMaxDepth(cfg.MaxScanDepth), gitlocal.WithLogger(logger))
	deps := github.NewBaseDeps(session, git, scanner, t)

	dispatcher := github.NewDispatcher(tsg, deps,
		github.WithStrictSessionGate(cfg.StrictSessionGate),
		github.WithDispatcherLogger(logger),
	)

	if github.IsReady(session) {
		warnMissingScopes(ctx, logger, host, cfg, dispatcher)
	}

	ghServer := github.NewServer(cfg.Version)
	dispatcher.RegisterTools(ghServer)
	return github.NewRouter(ghServer, dispatcher), nil
}

// warnMissingScopes logs the tools a classic token cannot serve. Failures are
// only logged; the tools themselves report API errors.
func warnMissingScopes(ctx context.Context, logger *slog.Logger, host apihost.Host, cfg MCPServerConfig, d *github.Dispatcher) {
	fetcher := scopes.NewFetcher(host, scopes.FetcherOptions{
		HTTPClient: &http.Client{Transport: cfg.Transport, Timeout: scopes.DefaultFetchTimeout},
	})
	tokenScopes, err := fetcher.FetchTokenScopes(ctx, cfg.Token)
	if err != nil {
		logger.Debug("could not fetch token scopes", "error", err)
		return
	}
	for tool, missing := range github.ToolsMissingScopes(d.Tools(), tokenScopes) {
		logger.Warn("token lacks scopes for tool", "tool", tool, "missing", missing)
	}
}

type StdioServerConfig struct {
	// Version of the server
	Version string

	// GitHub Host to target for API requests (e.g. github.com or github.enterprise.com)
	Host string

	// GitHub Token to authenticate with the GitHub API
	Token string

	// EnabledToolsets is a list of toolsets to enable
	EnabledToolsets []string

	// ReadOnly indicates if we should only register read-only tools
	ReadOnly bool

	// StrictSessionGate: see MCPServerConfig
	StrictSessionGate bool

	// MaxScanDepth bounds list_local_repositories; zero keeps the default.
	MaxScanDepth int

	// ExportTranslations indicates if we should export translations
	ExportTranslations bool

	// LogFilePath receives debug logs; logs are discarded when empty
	LogFilePath string
}

// RunStdioServer is not concurrent safe.
func RunStdioServer(cfg StdioServerConfig) error {
	// Create app context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, closeLog, err := NewLogger(cfg.LogFilePath)
	if err != nil {
		return err
	}
	defer closeLog()

	return runStdio(ctx, cfg, logger, os.Stdin, os.Stdout)
}

func runStdio(ctx context.Context, cfg StdioServerConfig, logger *slog.Logger, in io.Reader, out io.Writer) error {
	t, dumpTranslations := translations.TranslationHelper(logger)

	router, err := NewMCPServer(ctx, MCPServerConfig{
		Version:           cfg.Version,
		Host:              cfg.Host,
		Token:             cfg.Token,
		EnabledToolsets:   cfg.EnabledToolsets,
		ReadOnly:          cfg.ReadOnly,
		StrictSessionGate: cfg.StrictSessionGate,
		MaxScanDepth:      cfg.MaxScanDepth,
		Translator:        t,
		Logger:            logger,
	})
	if errors.Is(err, ErrSessionUnavailable) {
		// The protocol stream must stay silent, so the transport is not started.
		logger.Error("not starting stdio server", "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.ExportTranslations {
		// Once server is initialized, all translations are loaded
		dumpTranslations()
	}

	// Start listening for messages
	errC := make(chan error, 1)
	go func() {
		errC <- serveStdio(ctx, router, logger, in, out)
	}()

	logger.Info("GitHub connector running on stdio", "version", cfg.Version, "read_only", cfg.ReadOnly)

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		logger.Info("shutting down server", "signal", "context done")
	case err := <-errC:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("error running server: %w", err)
		}
	}

	return nil
}

// NewLogger returns a debug level text logger writing to path, or a logger
// that discards everything when path is empty. Nothing is ever written to
// stdout, which carries the protocol.
func NewLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = file.Close() }, nil
}
