//go:build integration

// Package integration exercises the server against a real Heroku CLI.
// Run with: go test -tags integration ./integration/...
package integration

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/heroku/heroku-mcp-server/internal/cli"
	"github.com/heroku/heroku-mcp-server/internal/errors"
)

// requireCLI skips the test unless npx or a supported heroku binary exists.
func requireCLI(t *testing.T, ctx context.Context) {
	t.Helper()

	_, err := cli.NewResolver(nil).Resolve(ctx)
	if err == nil {
		return
	}

	skipIfCLINotInstalled(t, err)
	t.Fatalf("Resolve failed: %v", err)
}

// skipIfCLINotInstalled skips the test if err means no usable CLI exists.
func skipIfCLINotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := stderrors.AsType[*errors.CLINotFoundError](err); ok {
		t.Skip("Heroku CLI not installed")
	}

	if _, ok := stderrors.AsType[*errors.UnsupportedVersionError](err); ok {
		t.Skip("Heroku CLI too old for --repl")
	}
}
