package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cognicore/logiclm/pkg/logiclm"
	"github.com/cognicore/logiclm/pkg/logiclm/export"
	"github.com/cognicore/logiclm/pkg/logiclm/inference"
	"github.com/cognicore/logiclm/pkg/logiclm/inference/closure"
	"github.com/cognicore/logiclm/pkg/logiclm/logic"
)

// DeriveOptions holds flags for the derive command.
type DeriveOptions struct {
	Closure         bool
	MaxCombinations int
	Out             string
}

// DeriveResult is the JSON payload of derive and solve.
type DeriveResult struct {
	RunID     string       `json:"run_id,omitempty"`
	Context   []string     `json:"context,omitempty"`
	Generated string       `json:"generated,omitempty"`
	Logic     string       `json:"logic"`
	Errors    []string     `json:"errors,omitempty"`
	Refined   bool         `json:"refined"`
	Skipped   []string     `json:"skipped,omitempty"`
	Facts     []logic.Fact `json:"facts"`
	Failures  []string     `json:"failures,omitempty"`
	// FixpointOnly lists facts a fixpoint evaluation adds beyond the single pass.
	FixpointOnly []logic.Fact `json:"fixpoint_only,omitempty"`
}

// NewDeriveCommand creates the derive command.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeriveOptions{}
	cmd := &cobra.Command{
		Use:   "derive [file|-]",
		Short: "Derive facts from clause text without a model",
		Long: `Parse facts and rules and evaluate every rule once against the facts.

Facts derived by one rule are not visible to other rules. With --closure the
program is also evaluated to a fixpoint and the extra facts are listed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerive(rootOpts, opts, cmd, args)
		},
	}
	cmd.Flags().BoolVar(&opts.Closure, "closure", false, "also list facts a fixpoint evaluation would add")
	cmd.Flags().IntVar(&opts.MaxCombinations, "max-combinations", 0, "join step budget per rule (0 = config or unlimited)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write derived facts to this file")
	return cmd
}

func runDerive(rootOpts *RootOptions, opts *DeriveOptions, cmd *cobra.Command, args []string) error {
	e, err := newEnv(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	text, err := readInput(cmd, args)
	if err != nil {
		return e.out.Fail(WrapExitError(ExitCommandError, "read input", err))
	}

	l := logiclm.New(logiclm.Options{Engine: e.engine(opts.MaxCombinations), Logger: e.logger})
	report, err := l.Derive(text)
	if err != nil {
		return e.out.Fail(WrapExitError(ExitCommandError, "derive", err))
	}

	result := deriveResult(report)
	if opts.Closure {
		// The comparison is a diagnostic; the single-pass result stands either way.
		fixpoint, err := closure.New(e.logger, 0).Evaluate(logic.Parse(text))
		if err != nil {
			e.out.Warnf("warning: fixpoint evaluation skipped: %v", err)
		} else {
			for _, f := range fixpoint.Facts() {
				if !report.Result.Derived.Contains(f) {
					result.FixpointOnly = append(result.FixpointOnly, f)
				}
			}
		}
	}

	return finishDerive(cmd.Context(), e, result, opts.Out)
}

func deriveResult(r logiclm.Report) DeriveResult {
	return DeriveResult{
		RunID:     r.RunID,
		Context:   r.Context,
		Generated: r.Generated,
		Logic:     r.Logic,
		Errors:    r.Errors,
		Refined:   r.Refined,
		Skipped:   r.Skipped,
		Facts:     r.Facts,
		Failures:  failureStrings(r.Result.Failures),
	}
}

func failureStrings(failures []inference.RuleError) []string {
	var out []string
	for _, f := range failures {
		out = append(out, f.Error())
	}
	return out
}

// finishDerive writes the result in the configured format and exports the
// facts when asked to.
func finishDerive(ctx context.Context, e *env, result DeriveResult, outPath string) error {
	if outPath != "" {
		exporter := export.Exporter{Writer: export.FileWriter{Path: outPath}, Header: "derived by logiclm"}
		if err := exporter.Export(ctxOrBackground(ctx), result.Facts); err != nil {
			return e.out.Fail(WrapExitError(ExitCommandError, "export", err))
		}
	}

	for _, f := range result.Failures {
		e.out.Warnf("warning: %s", f)
	}
	if err := e.out.Success(result); err != nil {
		return err
	}

	e.out.Printf("Final Derived Facts:\n")
	for _, f := range result.Facts {
		e.out.Printf("%s\n", f)
	}
	if len(result.FixpointOnly) > 0 {
		e.out.Printf("\nAdded by fixpoint evaluation:\n")
		for _, f := range result.FixpointOnly {
			e.out.Printf("%s\n", f)
		}
	}
	return nil
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
