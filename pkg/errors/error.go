package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/google/go-github/v79/github"
	"github.com/mark3labs/mcp-go/mcp"
)

type GitHubAPIError struct {
	Message  string
	Response *github.Response
	Err      error
}

// NewGitHubAPIError creates a new GitHubAPIError with the provided message, response, and error.
func NewGitHubAPIError(message string, resp *github.Response, err error) *GitHubAPIError {
	return &GitHubAPIError{
		Message:  message,
		Response: resp,
		Err:      err,
	}
}

func (e *GitHubAPIError) Error() string {
	return fmt.Errorf("%s: %w", e.Message, e.Err).Error()
}

func (e *GitHubAPIError) Unwrap() error {
	return e.Err
}

type GitHubErrorKey struct{}

type GitHubCtxErrors struct {
	api []*GitHubAPIError
}

// ContextWithGitHubErrors returns a context that collects API errors raised while
// handling a single tool invocation.
func ContextWithGitHubErrors(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if val, ok := ctx.Value(GitHubErrorKey{}).(*GitHubCtxErrors); ok {
		val.api = []*GitHubAPIError{}
		return ctx
	}
	return context.WithValue(ctx, GitHubErrorKey{}, &GitHubCtxErrors{})
}

// GetGitHubAPIErrors retrieves the API errors recorded in the context.
func GetGitHubAPIErrors(ctx context.Context) ([]*GitHubAPIError, error) {
	if val, ok := ctx.Value(GitHubErrorKey{}).(*GitHubCtxErrors); ok {
		return val.api, nil
	}
	return nil, fmt.Errorf("context does not contain GitHubCtxErrors")
}

func addGitHubAPIErrorToContext(ctx context.Context, err *GitHubAPIError) (context.Context, error) {
	if val, ok := ctx.Value(GitHubErrorKey{}).(*GitHubCtxErrors); ok {
		val.api = append(val.api, err)
		return ctx, nil
	}
	return nil, fmt.Errorf("context does not contain GitHubCtxErrors")
}

// NewGitHubAPIErrorResponse records the failure in ctx and renders it as
// "{message}: {err}".
func NewGitHubAPIErrorResponse(ctx context.Context, message string, resp *github.Response, err error) *mcp.CallToolResult {
	apiErr := NewGitHubAPIError(message, resp, err)
	if ctx != nil {
		_, _ = addGitHubAPIErrorToContext(ctx, apiErr)
	}
	return mcp.NewToolResultError(apiErr.Error())
}

// StatusCode extracts the HTTP status carried by a go-github error.
func StatusCode(err error) (int, bool) {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode, true
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode, true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return abuseErr.Response.StatusCode, true
	}
	var apiErr *GitHubAPIError
	if errors.As(err, &apiErr) && apiErr.Response != nil && apiErr.Response.Response != nil {
		return apiErr.Response.StatusCode, true
	}
	return 0, false
}

// APIMessage returns the message reported by the API, or err.Error() when there is none.
func APIMessage(err error) string {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Message != "" {
		return ghErr.Message
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Message != "" {
		return rateErr.Message
	}
	return err.Error()
}

// CreateRepositoryMessage renders a failed repository creation.
func CreateRepositoryMessage(name string, err error) string {
	status, ok := StatusCode(err)
	if !ok {
		return fmt.Sprintf("Error creating repository: %s: %s", TypeName(err), err.Error())
	}
	switch status {
	case http.StatusUnprocessableEntity:
		return fmt.Sprintf("Repository creation failed: Repository '%s' already exists or invalid parameters", name)
	case http.StatusForbidden:
		return "Repository creation failed: Insufficient permissions or rate limit exceeded"
	case http.StatusUnauthorized:
		return "Repository creation failed: Authentication failed - check your GitHub token"
	default:
		return fmt.Sprintf("GitHub API Error %d: %s", status, APIMessage(err))
	}
}

// TypeName is the bare type name of err's dynamic type, without package or pointer.
func TypeName(err error) string {
	if err == nil {
		return "nil"
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
