package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/github/github-connector/pkg/github"
	"github.com/github/github-connector/pkg/toolsets"
	"github.com/github/github-connector/pkg/translations"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

const (
	toolsStartMarker    = "START AUTOMATED TOOLS"
	toolsEndMarker      = "END AUTOMATED TOOLS"
	toolsetsStartMarker = "START AUTOMATED TOOLSETS"
	toolsetsEndMarker   = "END AUTOMATED TOOLSETS"
)

var generateDocsCmd = &cobra.Command{
	Use:   "generate-docs",
	Short: "Generate documentation for tools and toolsets",
	Long:  `Generate the automated sections of README.md with current tool and toolset information. Use --readme - to print them instead.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		readme, _ := cmd.Flags().GetString("readme")
		if readme == "-" {
			return writeDocs(cmd.OutOrStdout())
		}
		if err := generateReadmeDocs(readme); err != nil {
			return fmt.Errorf("failed to generate docs for %s: %w", readme, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated %s with automated documentation\n", readme)
		return nil
	},
}

func init() {
	generateDocsCmd.Flags().String("readme", "README.md", "File holding the automated sections, - for stdout")
	rootCmd.AddCommand(generateDocsCmd)
}

// docsToolsetGroup is the full catalog; doc generation needs no session.
func docsToolsetGroup() *toolsets.ToolsetGroup {
	tsg := github.DefaultToolsetGroup(false, translations.NullTranslationHelper)
	_ = tsg.EnableToolsets(github.DefaultTools, nil)
	return tsg
}

func writeDocs(out io.Writer) error {
	tsg := docsToolsetGroup()
	_, err := fmt.Fprintf(out, "%s\n\n%s\n", generateToolsetsDoc(tsg), generateToolsDoc(tsg))
	return err
}

func generateReadmeDocs(readmePath string) error {
	tsg := docsToolsetGroup()

	// #nosec G304 - readmePath is controlled by command line flag, not user input
	content, err := os.ReadFile(readmePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", readmePath, err)
	}

	updatedContent, err := replaceSection(string(content), toolsStartMarker, toolsEndMarker, generateToolsDoc(tsg))
	if err != nil {
		return err
	}

	// The toolsets table is optional
	if strings.Contains(updatedContent, marker(toolsetsStartMarker)) {
		updatedContent, err = replaceSection(updatedContent, toolsetsStartMarker, toolsetsEndMarker, generateToolsetsDoc(tsg))
		if err != nil {
			return err
		}
	}

	return os.WriteFile(readmePath, []byte(updatedContent), 0600) //#nosec G306
}

func generateToolsetsDoc(tsg *toolsets.ToolsetGroup) string {
	var buf strings.Builder

	buf.WriteString("| Toolset | Description |\n")
	buf.WriteString("| ------- | ----------- |\n")
	buf.WriteString("| `all` | Every toolset (default) |\n")
	for _, name := range tsg.Names() {
		fmt.Fprintf(&buf, "| `%s` | %s |\n", name, tsg.Toolsets[name].Description)
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// generateToolsDoc renders one collapsible section per toolset, tools in
// catalog order.
func generateToolsDoc(tsg *toolsets.ToolsetGroup) string {
	sections := make([]string, 0, len(tsg.Names()))
	for _, name := range tsg.Names() {
		tools := tsg.Toolsets[name].GetAvailableTools()
		if len(tools) == 0 {
			continue
		}
		var toolBuf strings.Builder
		for i, tool := range tools {
			if i > 0 {
				toolBuf.WriteString("\n\n")
			}
			writeToolDoc(&toolBuf, tool.Tool)
		}
		sections = append(sections, fmt.Sprintf("<details>\n\n<summary>%s</summary>\n\n%s\n\n</details>", formatToolsetName(name), toolBuf.String()))
	}
	return strings.Join(sections, "\n\n")
}

func formatToolsetName(name string) string {
	switch name {
	case "repos":
		return "Repositories"
	case "local":
		return "Local Clones"
	default:
		// Fallback: capitalize first letter and replace underscores with spaces
		parts := strings.Split(name, "_")
		for i, part := range parts {
			if len(part) > 0 {
				parts[i] = strings.ToUpper(string(part[0])) + part[1:]
			}
		}
		return strings.Join(parts, " ")
	}
}

func writeToolDoc(buf *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(buf, "- **%s** - %s\n", tool.Name, tool.Annotations.Title)

	if len(tool.InputSchema.Properties) == 0 {
		buf.WriteString("  - No parameters required")
		return
	}

	// Sort parameter names for deterministic order
	paramNames := make([]string, 0, len(tool.InputSchema.Properties))
	for propName := range tool.InputSchema.Properties {
		paramNames = append(paramNames, propName)
	}
	sort.Strings(paramNames)

	for i, propName := range paramNames {
		prop, _ := tool.InputSchema.Properties[propName].(map[string]any)
		requiredStr := "optional"
		if slices.Contains(tool.InputSchema.Required, propName) {
			requiredStr = "required"
		}
		typeStr, _ := prop["type"].(string)
		description, _ := prop["description"].(string)

		// Indent any continuation lines in the description to maintain markdown formatting
		description = indentMultilineDescription(description, "    ")

		fmt.Fprintf(buf, "  - `%s`: %s (%s, %s)", propName, description, typeStr, requiredStr)
		if i < len(paramNames)-1 {
			buf.WriteString("\n")
		}
	}
}

// indentMultilineDescription adds the specified indent to all lines after the first line.
func indentMultilineDescription(description, indent string) string {
	return strings.ReplaceAll(description, "\n", "\n"+indent)
}

func marker(name string) string {
	return fmt.Sprintf("<!-- %s -->", name)
}

func replaceSection(content, startMarker, endMarker, newContent string) (string, error) {
	start := marker(startMarker)
	end := marker(endMarker)

	startIdx := strings.Index(content, start)
	endIdx := strings.Index(content, end)
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("markers not found: %s / %s", start, end)
	}

	var buf strings.Builder
	buf.WriteString(content[:startIdx])
	buf.WriteString(start)
	buf.WriteString("\n")
	buf.WriteString(newContent)
	buf.WriteString("\n")
	buf.WriteString(content[endIdx:])
	return buf.String(), nil
}
