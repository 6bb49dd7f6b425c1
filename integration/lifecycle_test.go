//go:build integration

package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heroku/heroku-mcp-server/internal/errors"
	"github.com/heroku/heroku-mcp-server/internal/repl"
)

func startSupervisor(t *testing.T, ctx context.Context) *repl.Supervisor {
	t.Helper()

	requireCLI(t, ctx)

	sup := repl.New(&repl.Options{
		Version:        "integration",
		CommandTimeout: 60 * time.Second,
		OnFatal: func(err *errors.StartupError) {
			t.Errorf("fatal: %v", err)
		},
	})
	t.Cleanup(func() { _ = sup.Close() })

	require.NoError(t, sup.Start(ctx))

	return sup
}

// TestSupervisor_RunsVersion executes a command that needs no login.
func TestSupervisor_RunsVersion(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	sup := startSupervisor(t, ctx)

	output, err := sup.ExecuteCommand(ctx, "version")
	require.NoError(t, err)
	require.Contains(t, output, "heroku/")
	require.True(t, strings.HasSuffix(output, repl.EndResultsMarker))
	require.True(t, sup.EverReady())
}

// TestSupervisor_CloseMidCommand checks that Close does not wait for the
// in-flight command and leaves no process behind.
func TestSupervisor_CloseMidCommand(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	sup := startSupervisor(t, ctx)

	require.Eventually(t, sup.Ready, 2*time.Minute, 100*time.Millisecond)

	cmd, err := sup.Submit("apps --all")
	require.NoError(t, err)

	closeStart := time.Now()
	require.NoError(t, sup.Close())
	require.Less(t, time.Since(closeStart), 10*time.Second)

	select {
	case <-cmd.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("command was not resolved by Close")
	}

	require.Equal(t, repl.StateAborted, sup.State())
}
