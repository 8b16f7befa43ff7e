package github

import (
	"context"
	"errors"
	"os"

	"github.com/github/github-connector/pkg/gitlocal"
	"github.com/github/github-connector/pkg/translations"
	gogithub "github.com/google/go-github/v79/github"
)

// ErrClientNotInitialized is returned when a remote tool runs without a session.
var ErrClientNotInitialized = errors.New("GitHub client not initialized")

// Session is either Uninitialized or Ready. It is created once at startup and
// never replaced.
type Session interface {
	sessionState()
}

// Uninitialized records why no authenticated client could be created.
type Uninitialized struct {
	Reason error
}

// Ready holds the authenticated client.
type Ready struct {
	Client *gogithub.Client
	// Token authenticates git transports such as clones of private repositories.
	Token string
	// Login is the authenticated user, used as the owner of bare repository names.
	Login string
}

func (Uninitialized) sessionState() {}
func (Ready) sessionState()         {}

// IsReady reports whether s carries an authenticated client.
func IsReady(s Session) bool {
	_, ok := s.(Ready)
	return ok
}

// ToolDependencies defines the interface for dependencies that tool handlers need.
type ToolDependencies interface {
	// Session returns the process wide remote session
	Session() Session

	// GetClient returns a GitHub REST API client, or ErrClientNotInitialized
	GetClient(ctx context.Context) (*gogithub.Client, error)

	// GetGit returns the local git implementation
	GetGit() gitlocal.Client

	// GetScanner returns the working copy scanner
	GetScanner() *gitlocal.Scanner

	// GetT returns the translation helper function
	GetT() translations.TranslationHelperFunc

	// HomeDir is the user's home directory
	HomeDir() (string, error)

	// WorkingDir is the process working directory
	WorkingDir() (string, error)
}

// BaseDeps is the standard implementation of ToolDependencies.
type BaseDeps struct {
	Sess    Session
	Git     gitlocal.Client
	Scanner *gitlocal.Scanner
	T       translations.TranslationHelperFunc

	// Overridable for tests; default to os.UserHomeDir and os.Getwd.
	Home func() (string, error)
	Cwd  func() (string, error)
}

var _ ToolDependencies = BaseDeps{}

// NewBaseDeps creates a BaseDeps backed by go-git.
func NewBaseDeps(session Session, git gitlocal.Client, scanner *gitlocal.Scanner, t translations.TranslationHelperFunc) *BaseDeps {
	return &BaseDeps{
		Sess:    session,
		Git:     git,
		Scanner: scanner,
		T:       t,
	}
}

// Session implements ToolDependencies.
func (d BaseDeps) Session() Session {
	if d.Sess == nil {
		return Uninitialized{Reason: ErrClientNotInitialized}
	}
	return d.Sess
}

// GetClient implements ToolDependencies.
func (d BaseDeps) GetClient(_ context.Context) (*gogithub.Client, error) {
	if ready, ok := d.Session().(Ready); ok && ready.Client != nil {
		return ready.Client, nil
	}
	return nil, ErrClientNotInitialized
}

// GetGit implements ToolDependencies.
func (d BaseDeps) GetGit() gitlocal.Client {
	if d.Git == nil {
		return gitlocal.New(nil)
	}
	return d.Git
}

// GetScanner implements ToolDependencies.
func (d BaseDeps) GetScanner() *gitlocal.Scanner {
	if d.Scanner == nil {
		return gitlocal.NewScanner(d.GetGit())
	}
	return d.Scanner
}

// GetT implements ToolDependencies.
func (d BaseDeps) GetT() translations.TranslationHelperFunc {
	if d.T == nil {
		return translations.NullTranslationHelper
	}
	return d.T
}

// HomeDir implements ToolDependencies.
func (d BaseDeps) HomeDir() (string, error) {
	if d.Home != nil {
		return d.Home()
	}
	return os.UserHomeDir()
}

// WorkingDir implements ToolDependencies.
func (d BaseDeps) WorkingDir() (string, error) {
	if d.Cwd != nil {
		return d.Cwd()
	}
	return os.Getwd()
}
