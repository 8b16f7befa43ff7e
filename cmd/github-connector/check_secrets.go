package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/github/github-connector/pkg/secrets"
	"github.com/spf13/cobra"
)

var errCommitBlocked = errors.New("commit blocked: fix the security issues above")

var checkSecretsCmd = &cobra.Command{
	Use:   "check-secrets [dir]",
	Short: "Check a working tree for secrets before committing",
	Long:  `Scan a working tree for GitHub tokens and configuration files holding real credentials. Exits non-zero when anything is found.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		return runCheckSecrets(cmd, root)
	},
}

func init() {
	rootCmd.AddCommand(checkSecretsCmd)
}

func runCheckSecrets(cmd *cobra.Command, root string) error {
	out := cmd.OutOrStdout()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

	scanner, err := secrets.NewScanner(logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Running pre-commit security checks...")
	report, err := scanner.ScanTree(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return writeSecretsReport(out, report)
}

func writeSecretsReport(out io.Writer, report *secrets.Report) error {
	if len(report.ForbiddenFiles) > 0 {
		fmt.Fprintln(out, "\nFORBIDDEN FILES DETECTED:")
		for _, name := range report.ForbiddenFiles {
			fmt.Fprintf(out, "   -> %s\n", name)
		}
		fmt.Fprintln(out, "\n   These files contain secrets and should not be committed!")
		fmt.Fprintln(out, "   Add them to .gitignore or remove them from staging.")
	}

	if len(report.Findings) > 0 {
		fmt.Fprintln(out, "\nPOTENTIAL SECRETS DETECTED:")
		for _, f := range report.Findings {
			fmt.Fprintf(out, "   -> %s:%d - %s (%s)\n", f.File, f.Line, f.Match, f.RuleID)
		}
		fmt.Fprintln(out, "\n   Remove these secrets before committing!")
	}

	if len(report.MissingExamples) > 0 {
		fmt.Fprintln(out, "\nMISSING EXAMPLE FILES:")
		for _, name := range report.MissingExamples {
			fmt.Fprintf(out, "   -> %s\n", name)
		}
		fmt.Fprintln(out, "\n   Create these example files for sharing configurations safely.")
	}

	if report.HasIssues() {
		fmt.Fprintln(out, "\nTips:")
		fmt.Fprintln(out, "   -> Use .env files for secrets and keep them in .gitignore")
		fmt.Fprintln(out, "   -> Only commit .example files, not real configs")
		fmt.Fprintln(out, "   -> Replace any real tokens with placeholders")
		return errCommitBlocked
	}

	fmt.Fprintln(out, "\nSecurity checks passed!")
	fmt.Fprintln(out, "   -> No secrets detected")
	fmt.Fprintln(out, "   -> No forbidden files found")
	return nil
}
