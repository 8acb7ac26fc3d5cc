package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"

	// ConfigSet reports that --config was given explicitly.
	ConfigSet bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the logiclm CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "logiclm",
		Short: "logiclm - language model to logic pipeline",
		Long: `logiclm translates natural-language descriptions into Prolog-style facts
and rules with a language model, checks and repairs their syntax, and derives
new facts with a single-pass rule evaluator.

Commands that do not talk to a model (validate, derive) work offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigSet = cmd.Flags().Changed("config")
			if !slices.Contains(ValidFormats, opts.Format) {
				err := NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "logiclm.yaml", "config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDeriveCommand(opts))
	cmd.AddCommand(NewSolveCommand(opts))
	cmd.AddCommand(NewBaselineCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewKBCommand(opts))

	return cmd
}

// Run executes the command tree and returns the process exit code. Commands
// report their own failures as ExitErrors; anything else comes from cobra
// (arguments, flags) and is reported here.
func Run(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return GetExitCode(err)
}
