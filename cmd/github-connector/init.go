package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var errInitFailed = errors.New("setup incomplete")

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a .env file from env.example",
	Long:  `Create the .env file the server reads its token from, using env.example as the template. An existing .env is left untouched.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return runInit(cmd.OutOrStdout(), dir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// runInit copies env.example in dir to .env and prints the next steps.
func runInit(out io.Writer, dir string) error {
	envPath := filepath.Join(dir, ".env")
	examplePath := filepath.Join(dir, "env.example")

	_, err := os.Stat(envPath)
	switch {
	case err == nil:
		fmt.Fprintln(out, "  .env file already exists")
	case errors.Is(err, fs.ErrNotExist):
		values, err := godotenv.Read(examplePath)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(out, "  env.example file not found")
			return errInitFailed
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", examplePath, err)
		}
		if err := godotenv.Write(values, envPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", envPath, err)
		}
		// the file will hold a token
		if err := os.Chmod(envPath, 0o600); err != nil {
			return fmt.Errorf("failed to restrict %s: %w", envPath, err)
		}
		fmt.Fprintln(out, "  Created .env file from template")
		fmt.Fprintln(out, "  Edit .env and add your GitHub token")
	default:
		return fmt.Errorf("failed to check %s: %w", envPath, err)
	}

	abs, err := filepath.Abs(envPath)
	if err != nil {
		abs = envPath
	}
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Create a personal access token at https://github.com/settings/tokens")
	fmt.Fprintln(out, "   with the repo scope (public_repo is enough for public repositories).")
	fmt.Fprintf(out, "2. Set GITHUB_TOKEN in %s\n", abs)
	fmt.Fprintln(out, "3. Check the setup with: github-connector verify")
	fmt.Fprintln(out, "4. Point your MCP client at: github-connector stdio")
	fmt.Fprintln(out, "\nNever commit .env. Run github-connector check-secrets before committing.")
	return nil
}
