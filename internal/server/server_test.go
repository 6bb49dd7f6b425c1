package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/heroku/heroku-mcp-server/internal/cli"
	"github.com/heroku/heroku-mcp-server/internal/config"
	"github.com/heroku/heroku-mcp-server/internal/errors"
)

// echoREPL answers every line with "ran <line>" and the end marker.
const echoREPL = `printf 'heroku > '; while IFS= read -r line; do printf 'ran %s\n<<<END RESULTS>>>\n' "$line"; done`

type resolverFunc func(ctx context.Context) (*cli.LaunchSpec, error)

func (f resolverFunc) Resolve(ctx context.Context) (*cli.LaunchSpec, error) { return f(ctx) }

func shellResolver(script string) cli.Resolver {
	return resolverFunc(func(context.Context) (*cli.LaunchSpec, error) {
		return &cli.LaunchSpec{Command: "/bin/sh", Args: []string{"-c", script}}, nil
	})
}

func requireShell(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires a POSIX shell")
	}

	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout: 5 * time.Second,
		RestartDelay:   -1,
		LogLevel:       "info",
	}
}

type running struct {
	session *mcp.ClientSession
	done    chan error
	cancel  context.CancelFunc
}

func start(t *testing.T, cfg *config.Config, resolver cli.Resolver) *running {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	srv := New(&Options{
		Config:    cfg,
		Version:   "1.2.3",
		Transport: serverTransport,
		Resolver:  resolver,
	})

	done := make(chan error, 1)

	go func() { done <- srv.Run(ctx) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	r := &running{session: session, done: done, cancel: cancel}

	t.Cleanup(func() {
		_ = session.Close()
		cancel()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	return r
}

func (r *running) wait(t *testing.T) error {
	t.Helper()

	select {
	case err := <-r.done:
		r.done <- err

		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Run to return")

		return nil
	}
}

func TestServer_ExecutesToolThroughREPL(t *testing.T) {
	requireShell(t)

	r := start(t, testConfig(), shellResolver(echoREPL))

	result, err := r.session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_apps",
		Arguments: map[string]any{"all": true},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	require.Equal(t, "ran apps --all\n<<<END RESULTS>>>", text.Text)
}

func TestServer_ListsTools(t *testing.T) {
	requireShell(t)

	r := start(t, testConfig(), shellResolver(echoREPL))

	res, err := r.session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Tools)

	names := make(map[string]bool, len(res.Tools))
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}

	require.True(t, names["list_apps"])
	require.True(t, names["pg_psql"])
}

func TestServer_StartupFailureEndsRun(t *testing.T) {
	release := make(chan struct{})

	r := start(t, testConfig(), resolverFunc(func(context.Context) (*cli.LaunchSpec, error) {
		<-release

		return nil, &errors.CLINotFoundError{}
	}))

	close(release)

	err := r.wait(t)
	require.Error(t, err)

	startupErr, ok := stderrors.AsType[*errors.StartupError](err)
	require.True(t, ok)
	require.Contains(t, startupErr.Error(), "Startup error:")

	_, ok = stderrors.AsType[*errors.CLINotFoundError](err)
	require.True(t, ok)
}

func TestServer_ClientDisconnectStopsRun(t *testing.T) {
	requireShell(t)

	r := start(t, testConfig(), shellResolver(echoREPL))

	require.NoError(t, r.session.Close())
	require.NoError(t, r.wait(t))
}

func TestServer_FatalAfterReadyIsNotFatal(t *testing.T) {
	requireShell(t)

	// The first generation becomes ready, then a restart reports the legacy
	// warning. The session must stay up.
	marker := filepath.Join(t.TempDir(), "launched")
	script := `if [ -f ` + marker + ` ]; then printf 'Warning: --repl is not a heroku command.\n'; exec sleep 5; else touch ` +
		marker + `; printf 'heroku > '; read -r line; exit 3; fi`

	r := start(t, testConfig(), shellResolver(script))

	result, err := r.session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_apps",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	require.Contains(t, text.Text, "Heroku CLI process closed unexpectedly with code 3")

	select {
	case err := <-r.done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestServer_DevCenterResource(t *testing.T) {
	requireShell(t)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body></body></html>"))
	}))
	t.Cleanup(site.Close)

	cfg := testConfig()
	cfg.DevCenter = config.DevCenterConfig{
		Enabled:     true,
		CacheFile:   filepath.Join(t.TempDir(), "llms.txt"),
		ResourceURI: "file:///tmp/test-llms.txt",
		RootURL:     site.URL + "/",
	}

	r := start(t, cfg, shellResolver(echoREPL))

	res, err := r.session.ListResources(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Resources, 1)
	require.Equal(t, "file:///tmp/test-llms.txt", res.Resources[0].URI)

	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.DevCenter.CacheFile)

		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}
