// Package cmd implements the heroku-mcp-server command line.
package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/heroku/heroku-mcp-server/internal/config"
	"github.com/heroku/heroku-mcp-server/internal/errors"
	"github.com/heroku/heroku-mcp-server/internal/logging"
	"github.com/heroku/heroku-mcp-server/internal/mcp"
	"github.com/heroku/heroku-mcp-server/internal/server"
)

// errReported marks a failure whose payload was already written to stderr.
var errReported = stderrors.New("startup failure reported")

// RunFunc serves the MCP session for a resolved configuration.
type RunFunc func(ctx context.Context, cfg *config.Config, log *slog.Logger) error

// RunServer is the production RunFunc.
func RunServer(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	return server.New(&server.Options{
		Config:  cfg,
		Logger:  log,
		Version: config.Version,
	}).Run(ctx)
}

// NewRootCommand returns the root command. run is invoked once flags,
// environment and the optional config file have been resolved.
func NewRootCommand(run RunFunc) *cobra.Command {
	v := config.New()

	var configFile string

	root := &cobra.Command{
		Use:   "heroku-mcp-server",
		Short: "Model Context Protocol server for the Heroku CLI",
		Long: `heroku-mcp-server exposes Heroku CLI operations as MCP tools over stdio.

Commands run in a single long-lived Heroku CLI REPL process that is
restarted automatically when it exits, stalls, or crashes.`,
		Version:       config.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ReadFile(v, configFile); err != nil {
				return err
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}

			err = run(cmd.Context(), cfg, log)
			if startupErr, ok := stderrors.AsType[*errors.StartupError](err); ok {
				writeStartupFailure(cmd.ErrOrStderr(), startupErr)

				return errReported
			}

			return err
		},
	}

	flags := root.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.Int("request-timeout", config.DefaultRequestTimeoutMs, "per-command inactivity timeout in milliseconds")
	flags.Int("restart-delay", config.DefaultRestartDelayMs, "delay before relaunching the CLI after a clean exit, in milliseconds")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.Bool("dev-center", false, "crawl Heroku Dev Center and expose it as a resource")

	bindFlags(v, root, map[string]string{
		config.KeyRequestTimeout:   "request-timeout",
		config.KeyRestartDelay:     "restart-delay",
		config.KeyLogLevel:         "log-level",
		config.KeyMetricsAddr:      "metrics-addr",
		config.KeyDevCenterEnabled: "dev-center",
	})

	return root
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(flag)) //nolint:errcheck // flags are registered above
	}
}

// writeStartupFailure prints the fatal payload in the tool-result shape.
func writeStartupFailure(w io.Writer, err *errors.StartupError) {
	payload, marshalErr := mcp.MarshalResult(mcp.StartupErrorResult(err))
	if marshalErr != nil {
		_, _ = fmt.Fprintln(w, err.Error())

		return
	}

	_, _ = fmt.Fprintln(w, string(payload))
}

// Execute runs the root command and returns the process exit status.
func Execute(ctx context.Context) int {
	return execute(ctx, NewRootCommand(RunServer), os.Args[1:])
}

func execute(ctx context.Context, root *cobra.Command, args []string) int {
	if args == nil {
		args = []string{}
	}

	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if !stderrors.Is(err, errReported) {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}

	return 1
}
