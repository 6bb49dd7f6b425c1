package repl

import (
	"context"
	"io"
	"log/slog"

	"github.com/heroku/heroku-mcp-server/internal/cli"
	"github.com/heroku/heroku-mcp-server/internal/subprocess"
)

// Process is the handle the supervisor drives.
//
// Stdout and Stderr must reach EOF once Wait has returned. Wait reports the
// exit code; its error is reserved for failures to observe the exit.
type Process interface {
	Stdin() io.Writer
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() (int, error)
	Kill() error
}

// SpawnFunc starts a REPL process for spec. The process must die when ctx
// is cancelled.
type SpawnFunc func(ctx context.Context, spec *cli.LaunchSpec, env []string) (Process, error)

// Compile-time verification that the exec-backed process satisfies Process.
var _ Process = (*subprocess.Process)(nil)

// ExecSpawner returns a SpawnFunc backed by os/exec.
func ExecSpawner(log *slog.Logger) SpawnFunc {
	return func(ctx context.Context, spec *cli.LaunchSpec, env []string) (Process, error) {
		proc, err := subprocess.Start(ctx, log, cli.Executable(spec.Command), spec.Args, env)
		if err != nil {
			return nil, err
		}

		return proc, nil
	}
}
