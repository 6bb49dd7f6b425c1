// Command heroku-mcp-server serves Heroku CLI tools over the Model Context
// Protocol on stdio.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/heroku/heroku-mcp-server/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx)

	stop()
	os.Exit(code)
}
