package gitlocal

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxDepth bounds how many directory levels below a root are searched.
const DefaultMaxDepth = 4

// Inspector summarizes a candidate working copy.
type Inspector interface {
	Inspect(path string) (*Record, error)
}

// Scanner discovers working copies below a set of roots.
type Scanner struct {
	inspector Inspector
	maxDepth  int
	logger    *slog.Logger
}

type ScannerOption func(*Scanner)

// WithMaxDepth limits the search to depth directory levels below each root.
func WithMaxDepth(depth int) ScannerOption {
	return func(s *Scanner) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

func WithLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewScanner(inspector Inspector, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		inspector: inspector,
		maxDepth:  DefaultMaxDepth,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultRoots are searched when no base path is given.
func DefaultRoots(home, cwd string) []string {
	return []string{
		filepath.Join(home, "github"),
		filepath.Join(home, "projects"),
		filepath.Join(home, "code"),
		cwd,
	}
}

// Scan walks every existing root and returns one record per valid working
// copy, including copies nested inside another one. Candidates that fail
// inspection are skipped. Hidden directories, .git among them, are not entered.
func (s *Scanner) Scan(ctx context.Context, roots ...string) ([]Record, error) {
	var records []Record
	seen := make(map[string]bool)

	for _, root := range roots {
		if root == "" {
			continue
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			s.logger.Debug("skipping root", "root", root, "error", err)
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				s.logger.Debug("skipping unreadable path", "path", path, "error", walkErr)
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != abs && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			if depth(abs, path) > s.maxDepth {
				return filepath.SkipDir
			}
			if !hasGitDir(path) {
				return nil
			}
			if seen[path] {
				return nil
			}

			record, err := s.inspector.Inspect(path)
			if err != nil {
				s.logger.Debug("skipping invalid working copy", "path", path, "error", err)
				return nil
			}
			seen[path] = true
			records = append(records, *record)
			return nil
		})
		if err != nil {
			return records, err
		}
	}

	return records, nil
}

func hasGitDir(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
