package cli

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/logiclm/pkg/logiclm/export"
	"github.com/cognicore/logiclm/pkg/logiclm/kb"
)

// httpClient fetches pages for kb import.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// NewKBCommand creates the kb command group.
func NewKBCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage knowledge-base files",
	}
	cmd.AddCommand(newKBImportCommand(rootOpts))
	return cmd
}

func newKBImportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "import <url>",
		Short: "Build a knowledge-base file from clause lines on a web page",
		Long: `Fetch an HTML page and keep the lines of its <pre> and <code> blocks that
pass the syntax check.`,
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
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, args[0], nil)
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "import", err))
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "fetch", err))
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return e.out.Fail(NewExitError(ExitCommandError, fmt.Sprintf("fetch %s: status %d", args[0], resp.StatusCode)))
			}

			lines, err := kb.ExtractHTML(resp.Body)
			if err != nil {
				return e.out.Fail(WrapExitError(ExitCommandError, "parse page", err))
			}
			e.logger.Info("kb import", zap.String("url", args[0]), zap.Int("lines", len(lines)))

			content := "% imported from " + args[0] + "\n" + strings.Join(lines, "\n") + "\n"
			var w export.Writer = export.StreamWriter{W: cmd.OutOrStdout()}
			if out != "" {
				w = export.FileWriter{Path: out}
			} else if e.out.JSON() {
				w = nil
			}
			if w != nil {
				if err := w.WriteFacts(ctx, content); err != nil {
					return e.out.Fail(WrapExitError(ExitCommandError, "write kb", err))
				}
			}
			return e.out.Success(map[string]any{"url": args[0], "lines": lines})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the knowledge base to this file (default stdout)")
	return cmd
}
