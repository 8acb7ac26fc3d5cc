package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewBaselineCommand creates the baseline command.
func NewBaselineCommand(rootOpts *RootOptions) *cobra.Command {
	var question string
	cmd := &cobra.Command{
		Use:           "baseline",
		Short:         "Ask the model to answer directly, without logic",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if strings.TrimSpace(question) == "" {
				return e.out.Fail(NewExitError(ExitCommandError, "--question is required"))
			}
			ctx := ctxOrBackground(cmd.Context())
			l, err := e.pipeline(ctx, false)
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "set up pipeline", err))
			}
			defer l.Close()

			report, err := l.Baseline(ctx, question)
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "baseline", err))
			}
			if err := e.out.Success(map[string]string{"run_id": report.RunID, "answer": report.Answer}); err != nil {
				return err
			}
			e.out.Printf("%s\n", report.Answer)
			return nil
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "question to answer")
	return cmd
}
