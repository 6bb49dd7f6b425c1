// Package server assembles the Heroku MCP server: the REPL supervisor, the
// tool registry, the optional Dev Center resource, and the metrics endpoint.
package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/heroku/heroku-mcp-server/internal/cli"
	"github.com/heroku/heroku-mcp-server/internal/config"
	"github.com/heroku/heroku-mcp-server/internal/devcenter"
	"github.com/heroku/heroku-mcp-server/internal/errors"
	"github.com/heroku/heroku-mcp-server/internal/logging"
	"github.com/heroku/heroku-mcp-server/internal/metrics"
	"github.com/heroku/heroku-mcp-server/internal/repl"
	"github.com/heroku/heroku-mcp-server/internal/tools"
)

// Name is the MCP implementation name.
const Name = "heroku"

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Config *config.Config
	Logger *slog.Logger

	// Version is reported to clients and to the Heroku CLI.
	Version string

	// Transport carries MCP frames. Defaults to stdio.
	Transport mcp.Transport

	// Resolver and Spawn override how the Heroku CLI is found and started.
	Resolver cli.Resolver
	Spawn    repl.SpawnFunc
}

// Server runs one MCP session backed by one REPL supervisor.
type Server struct {
	cfg       *config.Config
	log       *slog.Logger
	version   string
	transport mcp.Transport
	resolver  cli.Resolver
	spawn     repl.SpawnFunc
}

// New returns a Server. Nothing starts until Run.
func New(opts *Options) *Server {
	transport := opts.Transport
	if transport == nil {
		transport = &mcp.StdioTransport{}
	}

	return &Server{
		cfg:       opts.Config,
		log:       logging.OrNop(opts.Logger),
		version:   opts.Version,
		transport: transport,
		resolver:  opts.Resolver,
		spawn:     opts.Spawn,
	}
}

// Run serves until the client disconnects, ctx is cancelled, or the Heroku
// CLI fails before it ever became ready. In the last case the returned error
// wraps the *errors.StartupError.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := s.log.With("component", "server")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	recorder, err := metrics.New(reg)
	if err != nil {
		return err
	}

	startupFailed := make(chan *errors.StartupError, 1)

	var sup *repl.Supervisor

	sup = repl.New(&repl.Options{
		Logger:         s.log,
		Version:        s.version,
		Resolver:       s.resolver,
		Spawn:          s.spawn,
		CommandTimeout: s.cfg.RequestTimeout,
		RestartDelay:   s.cfg.RestartDelay,
		Metrics:        recorder,
		OnFatal: func(err *errors.StartupError) {
			if sup.EverReady() {
				log.Error("Heroku CLI failed after startup; continuing", "error", err)

				return
			}

			select {
			case startupFailed <- err:
			default:
			}
		},
	})
	defer func() { _ = sup.Close() }()

	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: s.version}, nil)

	tools.Register(server, &tools.Options{
		Logger:   s.log,
		Executor: sup,
		Observer: recorder,
	})

	if s.cfg.DevCenter.Enabled {
		devcenter.RegisterResource(server, &devcenter.ResourceOptions{
			URI:       s.cfg.DevCenter.ResourceURI,
			CacheFile: s.cfg.DevCenter.CacheFile,
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sup.Start(gctx)
	})

	g.Go(func() error {
		select {
		case err := <-startupFailed:
			return err
		case <-gctx.Done():
			return nil
		}
	})

	completions, unsubscribe := sup.Subscribe()
	defer unsubscribe()

	g.Go(func() error {
		logCompletions(gctx, log, completions)

		return nil
	})

	g.Go(func() error {
		// A closed client connection ends the whole server.
		defer cancel()

		// The session ending is a normal stop even when the transport
		// reports why.
		if err := server.Run(gctx, s.transport); err != nil && gctx.Err() == nil {
			log.Info("MCP session ended", "error", err)
		}

		return nil
	})

	if s.cfg.DevCenter.Enabled {
		crawler, err := devcenter.NewCrawler(&devcenter.Config{
			Logger:    s.log,
			RootURL:   s.cfg.DevCenter.RootURL,
			CacheFile: s.cfg.DevCenter.CacheFile,
		})
		if err != nil {
			log.Warn("Dev Center crawler disabled", "error", err)
		} else {
			g.Go(func() error {
				crawler.Run(gctx)

				return nil
			})
		}
	}

	if s.cfg.MetricsAddr != "" {
		serveMetrics(gctx, g, log, s.cfg.MetricsAddr, reg)
	}

	log.Info("Heroku MCP server running", "version", s.version)

	return g.Wait()
}

func logCompletions(ctx context.Context, log *slog.Logger, completions <-chan repl.Completion) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-completions:
			if !ok {
				return
			}

			log.Debug("Command completed",
				"id", c.ID,
				"command", c.Command,
				"outcome", c.Outcome,
				"duration", c.Duration,
			)
		}
	}
}

func serveMetrics(ctx context.Context, g *errgroup.Group, log *slog.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info("Serving metrics", "addr", addr)

		// The metrics endpoint is optional; failing to bind must not stop
		// the MCP session.
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Warn("Metrics server stopped", "addr", addr, "error", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx) //nolint:contextcheck // ctx is already done
	})
}
