package scopes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/github/github-connector/pkg/apihost"
	"github.com/github/github-connector/pkg/http/headers"
)

// DefaultFetchTimeout is the default timeout for scope fetching requests.
const DefaultFetchTimeout = 10 * time.Second

// FetcherOptions configures the scope fetcher.
type FetcherOptions struct {
	// HTTPClient is the HTTP client to use for requests.
	// If nil, a default client with DefaultFetchTimeout is used.
	HTTPClient *http.Client
}

// Fetcher retrieves token scopes from GitHub's API.
// It uses an HTTP HEAD request since only the response headers are needed.
type Fetcher struct {
	client *http.Client
	host   apihost.Host
}

// NewFetcher creates a new scope fetcher for host.
func NewFetcher(host apihost.Host, opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &Fetcher{client: client, host: host}
}

// FetchTokenScopes returns the OAuth scopes of token.
//
// The result is nil when the response carries no X-OAuth-Scopes header, which
// is the case for fine-grained personal access tokens, and empty when a
// classic token has no scopes at all.
func (f *Fetcher) FetchTokenScopes(ctx context.Context, token string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.host.REST.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(headers.AuthorizationHeader, "Bearer "+token)
	req.Header.Set(headers.AcceptHeader, headers.GitHubJSONMediaType)
	req.Header.Set(headers.GitHubAPIVersionHeader, headers.GitHubAPIVersion)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scopes: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("invalid or expired token")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	values, ok := resp.Header[http.CanonicalHeaderKey(headers.OAuthScopesHeader)]
	if !ok {
		return nil, nil
	}
	if len(values) == 0 {
		return []string{}, nil
	}
	return ParseScopeHeader(values[0]), nil
}

// ParseScopeHeader parses the X-OAuth-Scopes header value into a list of scopes.
func ParseScopeHeader(header string) []string {
	return headers.ParseCommaSeparated(header)
}
