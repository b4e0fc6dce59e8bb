// sortlaunch - configure and launch the pixel sorter
//
// sortlaunch collects pixel sorting parameters, validates them, and runs the
// external pixel-sorter binary with the matching argument list.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/sortlaunch/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(cli.ExitCode(err))
}
