// Package toolsnaps provides snapshot testing for tool definitions.
package toolsnaps

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	jd "github.com/josephburnett/jd/lib"
)

// Test checks that the JSON of a tool definition has not changed unexpectedly.
// It compares the marshaled tool with __toolsnaps__/<toolName>.snap. With
// UPDATE_TOOLSNAPS=true the snapshot is rewritten instead. A missing snapshot
// is created, except on CI (GITHUB_ACTIONS=true) where it is an error.
func Test(toolName string, tool any) error {
	toolJSON, err := json.MarshalIndent(tool, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tool %s: %w", toolName, err)
	}

	snapPath := filepath.Join("__toolsnaps__", toolName+".snap")

	if os.Getenv("UPDATE_TOOLSNAPS") == "true" {
		return writeSnap(snapPath, toolJSON)
	}

	snapJSON, err := os.ReadFile(snapPath) //nolint:gosec // path is built from the tool name by tests
	if os.IsNotExist(err) {
		if os.Getenv("GITHUB_ACTIONS") == "true" {
			return fmt.Errorf("tool snapshot does not exist for %s. Please run the tests with UPDATE_TOOLSNAPS=true to create it", toolName)
		}
		return writeSnap(snapPath, toolJSON)
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot for %s: %w", toolName, err)
	}

	toolNode, err := jd.ReadJsonString(string(toolJSON))
	if err != nil {
		return fmt.Errorf("failed to parse tool JSON for %s: %w", toolName, err)
	}
	snapNode, err := jd.ReadJsonString(string(snapJSON))
	if err != nil {
		return fmt.Errorf("failed to parse snapshot JSON for %s: %w", toolName, err)
	}

	// SET ignores array order, so reordering required parameters is not a change.
	diff := toolNode.Diff(snapNode, jd.SET).Render()
	if diff != "" {
		return fmt.Errorf("tool schema for %s has changed unexpectedly:\n%s\nrun with `UPDATE_TOOLSNAPS=true` if this is expected", toolName, diff)
	}
	return nil
}

func writeSnap(snapPath string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(snapPath), 0o700); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(snapPath, contents, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}
