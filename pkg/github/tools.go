package github

import (
	"github.com/github/github-connector/pkg/toolsets"
	"github.com/github/github-connector/pkg/translations"
)

// DefaultTools enables every toolset.
var DefaultTools = []string{"all"}

// DefaultToolsetGroup builds the catalog. Toolsets are added in the order the
// tools are enumerated to clients.
func DefaultToolsetGroup(readOnly bool, t translations.TranslationHelperFunc) *toolsets.ToolsetGroup {
	tsg := toolsets.NewToolsetGroup(readOnly)

	repos := toolsets.NewToolset("repos", "GitHub repository listing and metadata").
		AddReadTools(
			ListRepositories(t),
			GetRepositoryInfo(t),
		)
	contents := toolsets.NewToolset("contents", "Browse directories and read files of a repository").
		AddReadTools(
			BrowseRepository(t),
			ReadFile(t),
		)
	search := toolsets.NewToolset("search", "Search files and code within a repository").
		AddReadTools(
			SearchFiles(t),
			SearchCode(t),
		)
	local := toolsets.NewToolset("local", "Clone repositories and discover local working copies").
		AddWriteTools(
			CloneRepository(t),
		).
		AddReadTools(
			ListLocalRepositories(t),
		)
	manage := toolsets.NewToolset("manage", "Create GitHub repositories").
		AddWriteTools(
			CreateRepository(t),
		)

	tsg.AddToolset(repos)
	tsg.AddToolset(contents)
	tsg.AddToolset(search)
	tsg.AddToolset(local)
	tsg.AddToolset(manage)

	return tsg
}
