// roboplan translates natural-language robot commands into validated
// action plans grounded in a perceived scene.
//
// Usage:
//
//	roboplan plan "pick up the red block" --scene scene1
//	roboplan scenes
//	roboplan mcp      # MCP server (stdio transport)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/roboplan/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err == nil {
		os.Exit(cli.ExitSuccess)
	}
	// Commands report ExitErrors themselves; anything else is a flag or
	// argument error from cobra.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
