// Package metrics exposes REPL supervisor and tool activity as Prometheus
// collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heroku/heroku-mcp-server/internal/repl"
)

const namespace = "heroku_mcp"

// Compile-time verification that Recorder implements repl.Metrics.
var _ repl.Metrics = (*Recorder)(nil)

// Recorder holds the server collectors. It satisfies repl.Metrics and the
// tool registry's call observer.
type Recorder struct {
	commandsSubmitted prometheus.Counter
	commandsCompleted *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	queueDepth        prometheus.Gauge
	processStarts     prometheus.Counter
	processExits      *prometheus.CounterVec
	fatalErrors       prometheus.Counter
	toolCalls         *prometheus.CounterVec
	toolDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		commandsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repl",
			Name:      "commands_submitted_total",
			Help:      "Commands accepted into the REPL queue.",
		}),
		commandsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "repl",
				Name:      "commands_completed_total",
				Help:      "Completed REPL commands by outcome.",
			},
			[]string{"outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "repl",
				Name:      "command_duration_seconds",
				Help:      "Time from dispatch to completion of REPL commands.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
			},
			[]string{"outcome"},
		),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "repl",
			Name:      "queue_depth",
			Help:      "Commands waiting to be dispatched.",
		}),
		processStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repl",
			Name:      "process_starts_total",
			Help:      "Heroku CLI processes launched.",
		}),
		processExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "repl",
				Name:      "process_exits_total",
				Help:      "Unplanned Heroku CLI exits by exit code.",
			},
			[]string{"code"},
		),
		fatalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repl",
			Name:      "fatal_errors_total",
			Help:      "Launch and transport failures.",
		}),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tools",
				Name:      "calls_total",
				Help:      "MCP tool calls by tool and result.",
			},
			[]string{"tool", "error"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "tools",
				Name:      "call_duration_seconds",
				Help:      "MCP tool call latency including queueing.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
	}

	collectors := []prometheus.Collector{
		r.commandsSubmitted,
		r.commandsCompleted,
		r.commandDuration,
		r.queueDepth,
		r.processStarts,
		r.processExits,
		r.fatalErrors,
		r.toolCalls,
		r.toolDuration,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (r *Recorder) CommandQueued(depth int) {
	r.commandsSubmitted.Inc()
	r.queueDepth.Set(float64(depth))
}

func (r *Recorder) CommandCompleted(outcome repl.Outcome, duration time.Duration, depth int) {
	r.commandsCompleted.WithLabelValues(string(outcome)).Inc()
	r.commandDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
	r.queueDepth.Set(float64(depth))
}

func (r *Recorder) ProcessStarted() {
	r.processStarts.Inc()
}

func (r *Recorder) ProcessExited(code int) {
	r.processExits.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (r *Recorder) FatalError() {
	r.fatalErrors.Inc()
}

// ToolCompleted records one MCP tool call.
func (r *Recorder) ToolCompleted(tool string, isError bool, duration time.Duration) {
	r.toolCalls.WithLabelValues(tool, strconv.FormatBool(isError)).Inc()
	r.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}
