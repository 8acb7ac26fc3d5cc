package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/logiclm/pkg/logiclm"
)

// NewRunsCommand creates the runs command group.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored pipeline runs",
	}
	cmd.AddCommand(newRunsListCommand(rootOpts))
	cmd.AddCommand(newRunsShowCommand(rootOpts))
	return cmd
}

func newRunsListCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List recent runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := ctxOrBackground(cmd.Context())
			st, err := e.openStore(ctx)
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "open store", err))
			}
			l := logiclm.New(logiclm.Options{Store: st, Logger: e.logger})
			defer l.Close()

			runs, err := l.Runs(ctx, limit)
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "list runs", err))
			}
			if err := e.out.Success(runs); err != nil {
				return err
			}
			for _, r := range runs {
				e.out.Printf("%s  %-8s  %s  %d facts\n",
					r.ID, r.Mode, r.CreatedAt.Format("2006-01-02 15:04:05"), len(r.Derived))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	return cmd
}

func newRunsShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := ctxOrBackground(cmd.Context())
			st, err := e.openStore(ctx)
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "open store", err))
			}
			l := logiclm.New(logiclm.Options{Store: st, Logger: e.logger})
			defer l.Close()

			r, err := l.Run(ctx, args[0])
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "show run", err))
			}
			if err := e.out.Success(r); err != nil {
				return err
			}

			e.out.Printf("Run:         %s\n", r.ID)
			e.out.Printf("Mode:        %s\n", r.Mode)
			e.out.Printf("Created:     %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
			e.out.Printf("Description: %s\n", strings.TrimSpace(r.Description))
			if len(r.Context) > 0 {
				e.out.Printf("\nContext:\n%s\n", strings.Join(r.Context, "\n"))
			}
			if r.Logic != "" {
				e.out.Printf("\nLogic:\n%s\n", r.Logic)
			}
			if len(r.Errors) > 0 {
				e.out.Printf("\nErrors (refined: %t):\n%s\n", r.Refined, strings.Join(r.Errors, "\n"))
			}
			if r.Answer != "" {
				e.out.Printf("\nAnswer:\n%s\n", r.Answer)
			}
			if len(r.Derived) > 0 {
				e.out.Printf("\nDerived:\n")
				for _, f := range r.Derived {
					e.out.Printf("%s\n", f)
				}
			}
			return nil
		},
	}
	return cmd
}
