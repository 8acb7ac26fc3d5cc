package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/logiclm/pkg/logiclm/syntax"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Issues []syntax.Issue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Check clause text for missing periods and parentheses",
		Long: `Check every non-blank line of clause text. A line must end with a period
and contain both "(" and ")".

Reads stdin when no file is given. Exits 1 when issues are found.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command, args []string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}

	text, err := readInput(cmd, args)
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "read input", err))
	}

	issues := syntax.Check(text)
	result := ValidationResult{Valid: len(issues) == 0, Issues: issues}
	if err := out.Success(result); err != nil {
		return err
	}
	if result.Valid {
		out.Printf("✓ No issues\n")
		return nil
	}
	for _, issue := range issues {
		out.Printf("line %d: %s  %s\n", issue.Line, issue.Message, issue.Text)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d issue(s) found", len(issues)))
}
