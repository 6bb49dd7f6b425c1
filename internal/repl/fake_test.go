package repl

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heroku/heroku-mcp-server/internal/cli"
	"github.com/heroku/heroku-mcp-server/internal/errors"
)

const waitTimeout = 2 * time.Second

// fakeProcess is an in-memory REPL. Lines written to stdin arrive on lines.
type fakeProcess struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	lines    chan string
	exit     chan int
	exitOnce sync.Once
	killed   atomic.Bool
}

var _ Process = (*fakeProcess)(nil)

func newFakeProcess() *fakeProcess {
	p := &fakeProcess{
		lines: make(chan string, 16),
		exit:  make(chan int, 1),
	}

	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()

	go func() {
		scanner := bufio.NewScanner(p.stdinR)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
	}()

	return p
}

func (p *fakeProcess) Stdin() io.Writer  { return p.stdinW }
func (p *fakeProcess) Stdout() io.Reader { return p.stdoutR }
func (p *fakeProcess) Stderr() io.Reader { return p.stderrR }

func (p *fakeProcess) Wait() (int, error) {
	code := <-p.exit

	_ = p.stdoutW.Close()
	_ = p.stderrW.Close()
	_ = p.stdinR.Close()

	return code, nil
}

func (p *fakeProcess) Kill() error {
	p.killed.Store(true)
	p.exitWith(-1)

	return nil
}

func (p *fakeProcess) exitWith(code int) {
	p.exitOnce.Do(func() { p.exit <- code })
}

func (p *fakeProcess) emit(text string) {
	_, _ = io.WriteString(p.stdoutW, text)
}

func (p *fakeProcess) emitStderr(text string) {
	_, _ = io.WriteString(p.stderrW, text)
}

type fakeSpawner struct {
	mu      sync.Mutex
	procs   []*fakeProcess
	err     error
	spawned chan *fakeProcess
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{spawned: make(chan *fakeProcess, 16)}
}

func (f *fakeSpawner) spawn(_ context.Context, _ *cli.LaunchSpec, _ []string) (Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	p := newFakeProcess()
	f.procs = append(f.procs, p)
	f.spawned <- p

	return p, nil
}

func (f *fakeSpawner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.procs)
}

type staticResolver struct {
	calls atomic.Int32
	err   error
}

func (r *staticResolver) Resolve(context.Context) (*cli.LaunchSpec, error) {
	r.calls.Add(1)

	if r.err != nil {
		return nil, r.err
	}

	return &cli.LaunchSpec{Command: "heroku", Args: []string{"--repl"}}, nil
}

type recordingMetrics struct {
	mu        sync.Mutex
	queued    int
	outcomes  []Outcome
	started   int
	exitCodes []int
	fatals    int
}

func (m *recordingMetrics) CommandQueued(int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued++
}

func (m *recordingMetrics) CommandCompleted(outcome Outcome, _ time.Duration, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) ProcessStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *recordingMetrics) ProcessExited(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitCodes = append(m.exitCodes, code)
}

func (m *recordingMetrics) FatalError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fatals++
}

type harness struct {
	sup      *Supervisor
	spawner  *fakeSpawner
	resolver *staticResolver
	metrics  *recordingMetrics
	fatals   chan *errors.StartupError
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()

	h := &harness{
		spawner:  newFakeSpawner(),
		resolver: &staticResolver{},
		metrics:  &recordingMetrics{},
		fatals:   make(chan *errors.StartupError, 8),
	}

	opts := &Options{
		Logger:         slog.Default(),
		Version:        "test",
		Resolver:       h.resolver,
		Spawn:          h.spawner.spawn,
		Env:            []string{},
		CommandTimeout: time.Minute,
		RestartDelay:   time.Minute,
		Metrics:        h.metrics,
		OnFatal: func(err *errors.StartupError) {
			select {
			case h.fatals <- err:
			default:
			}
		},
	}

	if mutate != nil {
		mutate(opts)
	}

	h.sup = New(opts)
	t.Cleanup(func() { _ = h.sup.Close() })

	return h
}

func (h *harness) nextProcess(t *testing.T) *fakeProcess {
	t.Helper()

	select {
	case p := <-h.spawner.spawned:
		return p
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for process spawn")

		return nil
	}
}

// startReady starts the supervisor and brings the first process to its prompt.
func (h *harness) startReady(t *testing.T) *fakeProcess {
	t.Helper()

	require.NoError(t, h.sup.Start(context.Background()))

	p := h.nextProcess(t)
	h.makeReady(t, p)

	return p
}

func (h *harness) makeReady(t *testing.T, p *fakeProcess) {
	t.Helper()

	p.emit("Welcome to the Heroku CLI\n" + ReadyMarker + " ")
	require.Eventually(t, h.sup.Ready, waitTimeout, 5*time.Millisecond)
}

func (h *harness) nextFatal(t *testing.T) *errors.StartupError {
	t.Helper()

	select {
	case err := <-h.fatals:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for fatal error")

		return nil
	}
}

func waitLine(t *testing.T, p *fakeProcess) string {
	t.Helper()

	select {
	case line := <-p.lines:
		return line
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for command on stdin")

		return ""
	}
}

func requireNoLine(t *testing.T, p *fakeProcess, within time.Duration) {
	t.Helper()

	select {
	case line := <-p.lines:
		t.Fatalf("unexpected command written to stdin: %q", line)
	case <-time.After(within):
	}
}

func waitDone(t *testing.T, cmd *Command) (string, error) {
	t.Helper()

	select {
	case <-cmd.Done():
		return cmd.Result()
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for command %q", cmd.Text)

		return "", nil
	}
}

// stallingResolver serves the first launch, then blocks later launches until
// their context ends.
type stallingResolver struct {
	calls    atomic.Int32
	entered  chan struct{}
	returned atomic.Bool
}

func newStallingResolver() *stallingResolver {
	return &stallingResolver{entered: make(chan struct{})}
}

func (r *stallingResolver) Resolve(ctx context.Context) (*cli.LaunchSpec, error) {
	if r.calls.Add(1) == 1 {
		return &cli.LaunchSpec{Command: "heroku", Args: []string{"--repl"}}, nil
	}

	close(r.entered)
	<-ctx.Done()

	// Linger so a Close that does not wait would observe returned == false.
	time.Sleep(50 * time.Millisecond)
	r.returned.Store(true)

	return nil, ctx.Err()
}
