// Package apihost resolves the REST and GraphQL endpoints for a GitHub
// deployment from the host the user configured.
package apihost

import (
	"fmt"
	"net/url"
	"strings"
)

// Host holds the API endpoints of one GitHub deployment.
type Host struct {
	// REST is the base URL for REST calls and always ends in a slash.
	REST *url.URL
	// GraphQL is the GraphQL endpoint.
	GraphQL *url.URL
}

// IsDotcom reports whether h points at github.com.
func (h Host) IsDotcom() bool {
	return h.REST.Hostname() == "api.github.com"
}

// Parse resolves s, which may be empty (github.com), a github.com URL, a GHE.com
// tenant such as https://octo.ghe.com, or a GitHub Enterprise Server URL. Only
// Enterprise Server URLs keep their port.
func Parse(s string) (Host, error) {
	if s == "" {
		return dotcom()
	}

	u, err := url.Parse(s)
	if err != nil {
		return Host{}, fmt.Errorf("could not parse host as URL: %s", s)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return Host{}, fmt.Errorf("host must have a scheme (http or https): %s", s)
	}

	switch {
	case u.Hostname() == "github.com" || strings.HasSuffix(u.Hostname(), ".github.com"):
		return dotcom()
	case strings.HasSuffix(u.Hostname(), ".ghe.com"):
		return ghec(u)
	default:
		return ghes(u)
	}
}

func dotcom() (Host, error) {
	return build("https://api.github.com/", "https://api.github.com/graphql")
}

func ghec(u *url.URL) (Host, error) {
	// Unsecured GHE.com would be an error
	if u.Scheme != "https" {
		return Host{}, fmt.Errorf("GHE.com URL must be HTTPS: %s", u)
	}
	return build(
		fmt.Sprintf("https://api.%s/", u.Hostname()),
		fmt.Sprintf("https://api.%s/graphql", u.Hostname()),
	)
}

func ghes(u *url.URL) (Host, error) {
	return build(
		fmt.Sprintf("%s://%s/api/v3/", u.Scheme, u.Host),
		fmt.Sprintf("%s://%s/api/graphql", u.Scheme, u.Host),
	)
}

func build(rest, graphql string) (Host, error) {
	restURL, err := url.Parse(rest)
	if err != nil {
		return Host{}, fmt.Errorf("failed to parse REST URL: %w", err)
	}
	gqlURL, err := url.Parse(graphql)
	if err != nil {
		return Host{}, fmt.Errorf("failed to parse GraphQL URL: %w", err)
	}
	return Host{REST: restURL, GraphQL: gqlURL}, nil
}
