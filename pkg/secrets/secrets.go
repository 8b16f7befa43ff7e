// Package secrets finds credentials that must not be committed alongside the
// connector's configuration: GitHub tokens in tracked files and real config
// files that should only exist as examples.
package secrets

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// maxFileSize bounds the files read during a scan.
const maxFileSize = 1 << 20

var (
	// CheckableExtensions lists the file extensions that are scanned.
	CheckableExtensions = []string{".go", ".py", ".json", ".md", ".txt", ".yml", ".yaml", ".env"}

	// ForbiddenFiles hold real credentials and must never be committed.
	ForbiddenFiles = []string{
		".env",
		".env.local",
		".env.production",
		"claude_desktop_config.json",
		"mcp_server_config.json",
	}

	// ExampleFiles should exist so configuration can be shared safely.
	ExampleFiles = []string{
		"env.example",
		"claude_desktop_config.example.json",
		"mcp_server_config.example.json",
	}

	classicTokenPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ghp_[a-z0-9]{36}`),
		regexp.MustCompile(`(?i)GITHUB_TOKEN\s*=\s*["']?ghp_[a-z0-9]{36}`),
	}
)

// Finding is one suspected secret.
type Finding struct {
	File   string
	Line   int
	RuleID string
	Match  string
}

// Report is the outcome of scanning a tree.
type Report struct {
	Findings        []Finding
	ForbiddenFiles  []string
	MissingExamples []string
}

// HasIssues reports whether the tree must not be committed as is. Missing
// example files are only a warning.
func (r *Report) HasIssues() bool {
	return len(r.Findings) > 0 || len(r.ForbiddenFiles) > 0
}

// Scanner detects secrets with gitleaks' default rules plus the classic
// personal access token pattern.
type Scanner struct {
	detector   *detect.Detector
	extensions map[string]bool
	logger     *slog.Logger
}

func NewScanner(logger *slog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gitleaks rules: %w", err)
	}
	extensions := make(map[string]bool, len(CheckableExtensions))
	for _, ext := range CheckableExtensions {
		extensions[ext] = true
	}
	return &Scanner{detector: detector, extensions: extensions, logger: logger}, nil
}

// ScanContent returns the secrets found in content, attributed to file.
func (s *Scanner) ScanContent(file, content string) []Finding {
	var findings []Finding
	seen := make(map[string]bool)

	for _, f := range s.detector.DetectString(content) {
		match := f.Secret
		if match == "" {
			match = f.Match
		}
		if match == "" || seen[match] {
			continue
		}
		seen[match] = true
		findings = append(findings, Finding{File: file, Line: lineOf(content, match), RuleID: f.RuleID, Match: match})
	}

	for _, re := range classicTokenPatterns {
		for _, loc := range re.FindAllStringIndex(content, -1) {
			match := content[loc[0]:loc[1]]
			if seen[match] || containsSeen(seen, match) {
				continue
			}
			seen[match] = true
			findings = append(findings, Finding{
				File:   file,
				Line:   strings.Count(content[:loc[0]], "\n") + 1,
				RuleID: "github-pat",
				Match:  match,
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })
	return findings
}

// ScanTree scans every checkable file below root, skipping hidden directories.
func (s *Scanner) ScanTree(ctx context.Context, root string) (*Report, error) {
	report := &Report{}

	for _, name := range ForbiddenFiles {
		if _, err := os.Lstat(filepath.Join(root, name)); err == nil {
			report.ForbiddenFiles = append(report.ForbiddenFiles, name)
		}
	}
	for _, name := range ExampleFiles {
		if _, err := os.Lstat(filepath.Join(root, name)); os.IsNotExist(err) {
			report.MissingExamples = append(report.MissingExamples, name)
		}
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			s.logger.Warn("could not check path", "path", path, "error", walkErr)
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !s.extensions[filepath.Ext(d.Name())] {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxFileSize {
			return nil
		}
		content, err := os.ReadFile(path) //#nosec G304 -- walking a user supplied tree
		if err != nil {
			s.logger.Warn("could not check file", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		report.Findings = append(report.Findings, s.ScanContent(rel, string(content))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func lineOf(content, match string) int {
	idx := strings.Index(content, match)
	if idx < 0 {
		return 0
	}
	return strings.Count(content[:idx], "\n") + 1
}

// containsSeen is true when match embeds an already reported secret, as the
// GITHUB_TOKEN assignment pattern does.
func containsSeen(seen map[string]bool, match string) bool {
	for s := range seen {
		if strings.Contains(match, s) {
			return true
		}
	}
	return false
}
