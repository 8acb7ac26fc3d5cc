package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/logiclm/pkg/logiclm"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	Question string
	File     string
	Chain    bool
	Out      string
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Translate a description with the model and derive facts",
		Long: `Ask the model to translate a description into facts and rules, check the
result, ask once for a syntax repair when the check finds problems, and derive
facts from it.

With --chain the model only writes general rules. Background lines are
retrieved from the knowledge base for the prompt, and the knowledge-base
facts are added to the program before evaluation.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Question, "question", "q", "", "description or question to translate")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the description from a file")
	cmd.Flags().BoolVar(&opts.Chain, "chain", false, "use knowledge-base retrieval and facts")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write derived facts to this file")
	cmd.MarkFlagsMutuallyExclusive("question", "file")
	return cmd
}

func runSolve(rootOpts *RootOptions, opts *SolveOptions, cmd *cobra.Command) error {
	e, err := newEnv(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	question := opts.Question
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return e.out.Fail(WrapExitError(ExitCommandError, "read description", err))
		}
		question = string(data)
	}
	if strings.TrimSpace(question) == "" {
		return e.out.Fail(NewExitError(ExitCommandError, "a description is required (--question or --file)"))
	}

	ctx := ctxOrBackground(cmd.Context())
	l, err := e.pipeline(ctx, opts.Chain)
	if err != nil {
		return e.out.Fail(WrapExitError(ExitCommandError, "set up pipeline", err))
	}
	defer l.Close()

	var report logiclm.Report
	if opts.Chain {
		report, err = l.SolveChain(ctx, question)
	} else {
		report, err = l.Solve(ctx, question)
	}
	if err != nil {
		return e.out.Fail(WrapExitError(ExitCommandError, "solve", err))
	}

	printTranscript(e.out, report)
	return finishDerive(ctx, e, deriveResult(report), opts.Out)
}

// printTranscript shows the model's output and any repair in text mode.
func printTranscript(out *OutputFormatter, r logiclm.Report) {
	if len(r.Context) > 0 {
		out.Printf("Retrieved Context:\n%s\n\n", strings.Join(r.Context, "\n"))
	}
	out.Printf("Generated Logic Output:\n%s\n\n", r.Generated)
	if len(r.Errors) > 0 {
		out.Printf("Errors Detected in Logic:\n%s\n\n", strings.Join(r.Errors, "\n"))
	}
	if r.Refined {
		out.Printf("Refined Logic Output:\n%s\n\n", r.Logic)
	}
}
