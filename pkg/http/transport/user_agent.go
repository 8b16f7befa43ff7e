package transport

import (
	"net/http"

	"github.com/github/github-connector/pkg/http/headers"
)

// UserAgentTransport identifies the connector on every request and pins the
// REST API version.
type UserAgentTransport struct {
	Transport http.RoundTripper
	Agent     string
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(headers.UserAgentHeader, t.Agent)
	if req.Header.Get(headers.GitHubAPIVersionHeader) == "" {
		req.Header.Set(headers.GitHubAPIVersionHeader, headers.GitHubAPIVersion)
	}
	return t.base().RoundTrip(req)
}

func (t *UserAgentTransport) base() http.RoundTripper {
	if t.Transport == nil {
		return http.DefaultTransport
	}
	return t.Transport
}
