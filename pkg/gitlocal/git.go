// Package gitlocal wraps go-git for the operations the connector performs on
// the local filesystem: cloning, inspecting working copies and discovering
// them below a set of directory roots.
package gitlocal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

var (
	// ErrNotWorkingCopy indicates the directory is not a usable git working copy.
	ErrNotWorkingCopy = errors.New("not a valid git working copy")

	// ErrDestinationExists indicates a clone target is already present on disk.
	ErrDestinationExists = errors.New("destination already exists")
)

// DetachedHead is reported as the branch of a working copy whose HEAD is not a branch.
const DetachedHead = "detached"

// Record summarizes one working copy.
type Record struct {
	Path      string
	Name      string
	RemoteURL string
	Branch    string
	Dirty     bool
	// LastCommit is the 8 character abbreviation of HEAD, empty when HEAD is unborn.
	LastCommit string
}

// CloneOptions describes a clone. Branch and Token are optional.
type CloneOptions struct {
	URL    string
	Path   string
	Branch string
	Token  string
}

// CloneResult is what is known about a freshly cloned working copy.
type CloneResult struct {
	Path    string
	Branch  string
	Commits int
}

// Client is the set of local git operations used by the tool handlers.
type Client interface {
	Clone(ctx context.Context, opts CloneOptions) (*CloneResult, error)
	Inspect(path string) (*Record, error)
}

// Git implements Client on top of go-git.
type Git struct {
	logger *slog.Logger
}

var _ Client = (*Git)(nil)

func New(logger *slog.Logger) *Git {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Git{logger: logger}
}

// Clone clones opts.URL into opts.Path, checking out opts.Branch when set.
func (g *Git) Clone(ctx context.Context, opts CloneOptions) (*CloneResult, error) {
	co := &git.CloneOptions{URL: opts.URL}
	if opts.Branch != "" {
		co.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}
	if opts.Token != "" {
		co.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: opts.Token}
	}

	g.logger.Debug("cloning repository", "url", opts.URL, "path", opts.Path, "branch", opts.Branch)
	repo, err := git.PlainCloneContext(ctx, opts.Path, false, co)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", opts.URL, err)
	}

	commits, err := countCommits(repo)
	if err != nil {
		return nil, err
	}

	return &CloneResult{
		Path:    opts.Path,
		Branch:  branchName(repo),
		Commits: commits,
	}, nil
}

// Inspect opens the working copy at path and summarizes it.
func (g *Git) Inspect(path string) (*Record, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotWorkingCopy, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories have no worktree
		return nil, fmt.Errorf("%w: %s: %v", ErrNotWorkingCopy, path, err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read status of %s: %w", path, err)
	}

	record := &Record{
		Path:   path,
		Name:   filepath.Base(path),
		Branch: branchName(repo),
		Dirty:  IsDirty(status),
	}
	if remote, err := repo.Remote(git.DefaultRemoteName); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			record.RemoteURL = urls[0]
		}
	}
	if head, err := repo.Head(); err == nil {
		record.LastCommit = head.Hash().String()[:8]
	}
	return record, nil
}

// IsDirty reports uncommitted modifications to tracked files. Untracked files
// do not make a working copy dirty.
func IsDirty(status git.Status) bool {
	for _, fs := range status {
		if fs.Staging == git.Untracked && fs.Worktree == git.Untracked {
			continue
		}
		if fs.Staging != git.Unmodified || fs.Worktree != git.Unmodified {
			return true
		}
	}
	return false
}

// branchName resolves HEAD without requiring a commit, so unborn branches
// still report their name.
func branchName(repo *git.Repository) string {
	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return DetachedHead
	}
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short()
	}
	return DetachedHead
}

func countCommits(repo *git.Repository) (int, error) {
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return 0, fmt.Errorf("failed to read commit log: %w", err)
	}
	defer iter.Close()

	count := 0
	err = iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}
	return count, nil
}

// PrepareDestination creates the parent of path and fails with
// ErrDestinationExists when path itself is already present.
func PrepareDestination(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check destination: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~" with home.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
