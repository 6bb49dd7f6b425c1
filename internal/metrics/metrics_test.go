package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/heroku/heroku-mcp-server/internal/repl"
)

func TestRecorder_REPLEvents(t *testing.T) {
	reg := prometheus.NewRegistry()

	r, err := New(reg)
	require.NoError(t, err)

	r.CommandQueued(1)
	r.CommandQueued(2)
	r.CommandCompleted(repl.OutcomeOK, 200*time.Millisecond, 1)
	r.CommandCompleted(repl.OutcomeTimeout, 15*time.Second, 0)
	r.ProcessStarted()
	r.ProcessStarted()
	r.ProcessExited(1)
	r.FatalError()

	require.InDelta(t, 2, testutil.ToFloat64(r.commandsSubmitted), 0)
	require.InDelta(t, 0, testutil.ToFloat64(r.queueDepth), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.commandsCompleted.WithLabelValues("ok")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.commandsCompleted.WithLabelValues("timeout")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(r.processStarts), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.processExits.WithLabelValues("1")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.fatalErrors), 0)
	require.Equal(t, 2, testutil.CollectAndCount(r.commandDuration))
}

func TestRecorder_ToolCompleted(t *testing.T) {
	reg := prometheus.NewRegistry()

	r, err := New(reg)
	require.NoError(t, err)

	r.ToolCompleted("list_apps", false, time.Second)
	r.ToolCompleted("list_apps", true, time.Second)
	r.ToolCompleted("pg_psql", false, time.Second)

	require.InDelta(t, 1, testutil.ToFloat64(r.toolCalls.WithLabelValues("list_apps", "true")), 0)
	require.Equal(t, 3, testutil.CollectAndCount(r.toolCalls))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()

	r, err := New(reg)
	require.NoError(t, err)

	r.ProcessStarted()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL) //nolint:noctx // test server
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(body), "heroku_mcp_repl_process_starts_total 1"))
}
