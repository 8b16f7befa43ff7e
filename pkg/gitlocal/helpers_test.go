package gitlocal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var testSignature = &object.Signature{
	Name:  "Octo Cat",
	Email: "octocat@example.com",
	When:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
}

// initRepo creates a working copy at dir with one commit per file name.
func initRepo(t *testing.T, dir string, files ...string) (*git.Repository, plumbing.Hash) {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	var last plumbing.Hash
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("content of "+name+"\n"), 0o644))
		_, err = wt.Add(name)
		require.NoError(t, err)
		last, err = wt.Commit("add "+name, &git.CommitOptions{Author: testSignature})
		require.NoError(t, err)
	}
	return repo, last
}

func addOrigin(t *testing.T, repo *git.Repository, url string) {
	t.Helper()
	_, err := repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{url}})
	require.NoError(t, err)
}
