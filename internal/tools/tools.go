// Package tools registers the Heroku MCP tools.
//
// Every tool turns its typed arguments into a single REPL command line with
// cli.Builder, runs it through an Executor, and classifies the output with
// mcp.HandleCLIOutput.
package tools

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heroku/heroku-mcp-server/internal/logging"
	internalmcp "github.com/heroku/heroku-mcp-server/internal/mcp"
)

// Executor runs a REPL command line and returns its raw output.
type Executor interface {
	ExecuteCommand(ctx context.Context, command string) (string, error)
}

// Observer is notified after every tool call.
type Observer interface {
	ToolCompleted(tool string, isError bool, duration time.Duration)
}

// Options configures Register.
type Options struct {
	// Logger receives tool logs. If nil, logs are discarded.
	Logger *slog.Logger

	// Executor runs the generated commands. Required.
	Executor Executor

	// Observer receives per-call results. Optional.
	Observer Observer

	// TempDir is where inference request files are staged.
	// Defaults to os.TempDir().
	TempDir string
}

type registry struct {
	log      *slog.Logger
	exec     Executor
	observer Observer
	tempDir  string
}

// Register adds every Heroku tool to server.
func Register(server *mcp.Server, opts *Options) {
	r := &registry{
		log:      logging.OrNop(opts.Logger).With("component", "tools"),
		exec:     opts.Executor,
		observer: opts.Observer,
		tempDir:  opts.TempDir,
	}

	if r.tempDir == "" {
		r.tempDir = os.TempDir()
	}

	registerApps(server, r)
	registerMaintenance(server, r)
	registerLogs(server, r)
	registerAccount(server, r)
	registerAddons(server, r)
	registerPostgres(server, r)
	registerDynos(server, r)
	registerPipelines(server, r)
	registerAI(server, r)
}

// addCommandTool registers a tool whose handler only needs to build a
// command line from its input.
func addCommandTool[In any](server *mcp.Server, r *registry, tool *mcp.Tool, build func(In) string) {
	mcp.AddTool(server, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		return r.run(ctx, tool.Name, build(in)), nil, nil
	})
}

// run executes command on behalf of tool and classifies the result.
// Executor failures become error results rather than protocol errors.
func (r *registry) run(ctx context.Context, tool, command string) *mcp.CallToolResult {
	start := time.Now()

	r.log.Debug("Running tool", "tool", tool, "command", command)

	var result *mcp.CallToolResult

	output, err := r.exec.ExecuteCommand(ctx, command)
	if err != nil {
		r.log.Warn("Tool command failed", "tool", tool, "error", err)
		result = internalmcp.ExecutionErrorResult(err)
	} else {
		result = internalmcp.HandleCLIOutput(output)
	}

	r.observe(tool, result.IsError, time.Since(start))

	return result
}

func (r *registry) observe(tool string, isError bool, d time.Duration) {
	if r.observer != nil {
		r.observer.ToolCompleted(tool, isError, d)
	}
}

func readOnly() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr(true)}
}

func destructive() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{DestructiveHint: ptr(true), OpenWorldHint: ptr(true)}
}

func ptr[T any](v T) *T {
	return &v
}
