package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/logiclm/pkg/logiclm"
	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
)

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed the knowledge base and store the vectors",
		Long: `Embed every knowledge-base line and store it for vector retrieval.
Requires embedding.base_url and a database path.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if e.cfg.Embedding.BaseURL == "" {
				return e.out.Fail(WrapExitError(ExitCommandError, "index",
					fmt.Errorf("%w: embedding.base_url is not set", internalerr.ErrInvalidConfig)))
			}
			k, err := e.loadKB()
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "load kb", err))
			}
			ctx := ctxOrBackground(cmd.Context())
			st, err := e.openStore(ctx)
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "open store", err))
			}

			l := logiclm.New(logiclm.Options{KB: k, Retriever: e.retriever(k, st), Store: st, Logger: e.logger})
			defer l.Close()
			if err := l.IndexKB(ctx); err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "index", err))
			}

			lines := len(k.Lines())
			if err := e.out.Success(map[string]any{"source": k.Source, "lines": lines}); err != nil {
				return err
			}
			e.out.Printf("Indexed %d lines from %s\n", lines, k.Source)
			return nil
		},
	}
	return cmd
}
