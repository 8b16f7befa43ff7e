package scopes

import (
	"regexp"
	"strings"
)

type TokenType int

const (
	TokenTypeUnknown TokenType = iota
	TokenTypePersonalAccessToken
	TokenTypeFineGrainedPersonalAccessToken
	TokenTypeOAuthAccessToken
	TokenTypeUserToServerGitHubAppToken
	TokenTypeServerToServerGitHubAppToken
)

var supportedGitHubPrefixes = map[string]TokenType{
	"ghp_":        TokenTypePersonalAccessToken,            // Personal access token (classic)
	"github_pat_": TokenTypeFineGrainedPersonalAccessToken, // Fine-grained personal access token
	"gho_":        TokenTypeOAuthAccessToken,               // OAuth access token
	"ghu_":        TokenTypeUserToServerGitHubAppToken,     // User access token for a GitHub App
	"ghs_":        TokenTypeServerToServerGitHubAppToken,   // Installation access token for a GitHub App (a.k.a. server-to-server token)
}

// oldPatternRegexp is the regular expression for the old pattern of the token.
// Until 2021, GitHub API tokens did not have an identifiable prefix. They
// were 40 characters long and only contained the characters a-f and 0-9.
var oldPatternRegexp = regexp.MustCompile(`\A[a-f0-9]{40}\z`)

// ParseTokenType classifies token by its prefix. An optional "Bearer " prefix is ignored.
func ParseTokenType(token string) TokenType {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = token[7:]
	}

	for prefix, tokenType := range supportedGitHubPrefixes {
		if strings.HasPrefix(token, prefix) {
			return tokenType
		}
	}
	if oldPatternRegexp.MatchString(token) {
		return TokenTypePersonalAccessToken
	}
	return TokenTypeUnknown
}

// ReportsScopes is true for token types whose responses carry X-OAuth-Scopes.
func (t TokenType) ReportsScopes() bool {
	return t == TokenTypePersonalAccessToken || t == TokenTypeOAuthAccessToken
}

func (t TokenType) String() string {
	switch t {
	case TokenTypePersonalAccessToken:
		return "personal access token (classic)"
	case TokenTypeFineGrainedPersonalAccessToken:
		return "fine-grained personal access token"
	case TokenTypeOAuthAccessToken:
		return "OAuth access token"
	case TokenTypeUserToServerGitHubAppToken:
		return "GitHub App user access token"
	case TokenTypeServerToServerGitHubAppToken:
		return "GitHub App installation access token"
	default:
		return "unknown token type"
	}
}
