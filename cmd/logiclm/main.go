// Command logiclm translates descriptions into facts and rules with a
// language model and derives new facts from them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cognicore/logiclm/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, cli.NewRootCommand())
	stop()
	os.Exit(code)
}
