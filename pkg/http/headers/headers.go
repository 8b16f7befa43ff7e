package headers

const (
	// AuthorizationHeader is a standard HTTP Header.
	AuthorizationHeader = "Authorization"
	// AcceptHeader is a standard HTTP Header.
	AcceptHeader = "Accept"
	// UserAgentHeader is a standard HTTP Header.
	UserAgentHeader = "User-Agent"
	// LastModifiedHeader is a standard HTTP Header, reported by read_file.
	LastModifiedHeader = "Last-Modified"

	// GitHub-specific headers.

	// GitHubAPIVersionHeader is the header used to specify the GitHub API version.
	GitHubAPIVersionHeader = "X-GitHub-Api-Version"
	// OAuthScopesHeader lists the scopes of a classic token. Fine-grained tokens omit it.
	OAuthScopesHeader = "X-OAuth-Scopes"

	// GitHubJSONMediaType is the media type GitHub recommends for REST calls.
	GitHubJSONMediaType = "application/vnd.github+json"
	// GitHubAPIVersion is the REST API version the connector is written against.
	GitHubAPIVersion = "2022-11-28"
)
