package repl

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/heroku/heroku-mcp-server/internal/cli"
	"github.com/heroku/heroku-mcp-server/internal/errors"
)

const (
	// EndResultsMarker terminates the output of every REPL command.
	EndResultsMarker = "<<<END RESULTS>>>"

	// ReadyMarker is the REPL prompt printed once the CLI accepts input.
	ReadyMarker = "heroku >"

	// LegacyWarning is printed by CLI releases that predate --repl.
	LegacyWarning = "Warning: --repl is not a heroku command."

	// DefaultCommandTimeout is the per-command inactivity deadline.
	DefaultCommandTimeout = 15 * time.Second

	// DefaultRestartDelay is the pause before relaunching after a clean exit.
	DefaultRestartDelay = time.Second

	timeoutMessage   = "The command failed to complete in %dms\n" + EndResultsMarker + "\n"
	exitNote         = "\n\nHeroku CLI process closed unexpectedly with code %d. Restarting..."
	subscriberBuffer = 64
	readBufferSize   = 32 * 1024
)

// State is a coarse view of the supervisor lifecycle.
type State string

const (
	StateStarting   State = "starting"
	StateIdle       State = "ready-idle"
	StateBusy       State = "ready-busy"
	StateRestarting State = "restarting"
	StateAborted    State = "aborted"
)

// Options configures a Supervisor.
type Options struct {
	// Logger receives supervisor logs. If nil, logs are discarded.
	Logger *slog.Logger

	// Version is reported to the CLI through its environment.
	Version string

	// Resolver picks the launch command. Defaults to cli.NewResolver.
	Resolver cli.Resolver

	// Spawn starts the process. Defaults to ExecSpawner.
	Spawn SpawnFunc

	// Env overrides the process environment. Defaults to cli.BuildEnvironment.
	Env []string

	// CommandTimeout is the inactivity deadline for an in-flight command.
	// It is re-armed whenever the REPL produces output.
	CommandTimeout time.Duration

	// RestartDelay is the pause before relaunching after a zero exit code.
	// Zero selects DefaultRestartDelay; a negative value relaunches at once.
	RestartDelay time.Duration

	// Metrics receives lifecycle events. Optional.
	Metrics Metrics

	// OnFatal is called for launch and transport failures. It runs on a
	// supervisor goroutine and must not call Close.
	OnFatal func(*errors.StartupError)
}

// Supervisor drives a single Heroku CLI REPL process.
type Supervisor struct {
	log          *slog.Logger
	resolver     cli.Resolver
	spawn        SpawnFunc
	env          []string
	timeout      time.Duration
	restartDelay time.Duration
	metrics      Metrics
	onFatal      func(*errors.StartupError)

	ctx       context.Context
	cancel    context.CancelFunc
	wake      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu           sync.Mutex
	started      bool
	closed       bool
	queue        []*Command
	inflight     *Command
	buffer       strings.Builder
	ready        bool
	everReady    bool
	proc         Process
	gen          uint64
	readyTail    string
	timer        *time.Timer
	timerSeq     uint64
	restartTimer *time.Timer
	subscribers  map[uint64]chan Completion
	nextSubID    uint64
}

// New creates a Supervisor. Call Start to launch the process.
func New(opts *Options) *Supervisor {
	if opts == nil {
		opts = &Options{}
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	log = log.With("component", "repl_supervisor")

	resolver := opts.Resolver
	if resolver == nil {
		resolver = cli.NewResolver(&cli.Config{Logger: log})
	}

	spawn := opts.Spawn
	if spawn == nil {
		spawn = ExecSpawner(log)
	}

	env := opts.Env
	if env == nil {
		env = cli.BuildEnvironment(opts.Version)
	}

	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	restartDelay := opts.RestartDelay
	if restartDelay < 0 {
		restartDelay = 0
	} else if restartDelay == 0 {
		restartDelay = DefaultRestartDelay
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Supervisor{
		log:          log,
		resolver:     resolver,
		spawn:        spawn,
		env:          env,
		timeout:      timeout,
		restartDelay: restartDelay,
		metrics:      metrics,
		onFatal:      opts.OnFatal,
		ctx:          ctx,
		cancel:       cancel,
		wake:         make(chan struct{}, 1),
		subscribers:  make(map[uint64]chan Completion),
	}
}

// Start launches the REPL process and the dispatch loop.
//
// ctx bounds the initial launch probes only; the process lives until Close.
// Launch failures are reported through Options.OnFatal, not returned.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return errors.ErrSupervisorClosed
	}

	if s.started {
		s.mu.Unlock()

		return nil
	}

	s.started = true
	s.wg.Go(s.dispatchLoop)
	s.mu.Unlock()

	s.log.Info("Starting Heroku CLI REPL", "command_timeout", s.timeout)
	s.launch(ctx)

	return nil
}

// Submit appends a command to the queue and returns immediately.
func (s *Supervisor) Submit(text string) (*Command, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrEmptyCommand
	}

	if strings.ContainsAny(text, "\r\n") {
		return nil, errors.ErrMultilineCommand
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.ErrSupervisorClosed
	}

	cmd := newCommand(text)
	s.queue = append(s.queue, cmd)
	s.metrics.CommandQueued(len(s.queue))
	s.log.Debug("Command queued", "id", cmd.ID, "command", text, "depth", len(s.queue))
	s.signal()

	return cmd, nil
}

// ExecuteCommand submits text and waits for its output.
//
// The output of a completed command is returned even when it describes a
// timeout or a crashed process. An error is returned only when the command
// could not be submitted, the supervisor was closed first, or ctx ended the
// wait.
func (s *Supervisor) ExecuteCommand(ctx context.Context, text string) (string, error) {
	cmd, err := s.Submit(text)
	if err != nil {
		return "", err
	}

	return cmd.Wait(ctx)
}

// Subscribe returns a channel receiving every completed command and a
// function that ends the subscription. The channel is closed on unsubscribe
// or Close. Completions are dropped for subscribers that fall behind.
func (s *Supervisor) Subscribe() (<-chan Completion, func()) {
	ch := make(chan Completion, subscriberBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)

		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}
}

// Ready reports whether the current process has printed its prompt.
func (s *Supervisor) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ready
}

// EverReady reports whether any process has become ready since Start.
func (s *Supervisor) EverReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.everReady
}

// Pending returns the number of queued plus in-flight commands.
func (s *Supervisor) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.queue)
	if s.inflight != nil {
		n++
	}

	return n
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return StateAborted
	case !s.ready && !s.everReady:
		return StateStarting
	case !s.ready:
		return StateRestarting
	case s.inflight != nil:
		return StateBusy
	default:
		return StateIdle
	}
}

// Close disposes the supervisor. Queued and in-flight commands complete with
// errors.ErrSupervisorClosed, the process is killed and never relaunched.
// Close returns once every supervisor goroutine has finished, including a
// relaunch already underway. Close is idempotent.
func (s *Supervisor) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()

		s.closed = true
		s.gen++
		s.ready = false

		abandoned := s.queue
		if s.inflight != nil {
			abandoned = append([]*Command{s.inflight}, abandoned...)
		}

		s.queue = nil
		s.inflight = nil

		s.stopTimerLocked()

		if s.restartTimer != nil {
			s.restartTimer.Stop()
			s.restartTimer = nil
		}

		proc := s.proc
		s.proc = nil

		for _, cmd := range abandoned {
			cmd.resolve("", OutcomeAborted, errors.ErrSupervisorClosed)
		}

		for id, ch := range s.subscribers {
			delete(s.subscribers, id)
			close(ch)
		}

		s.mu.Unlock()

		s.log.Info("Closing Heroku CLI REPL", "abandoned_commands", len(abandoned))

		s.cancel()

		if proc != nil {
			if err := proc.Kill(); err != nil {
				s.log.Warn("Failed to kill Heroku CLI process", "error", err)
			}
		}

		s.wg.Wait()
	})

	return nil
}

func (s *Supervisor) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Supervisor) dispatchLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}

		s.dispatch()
	}
}

func (s *Supervisor) dispatch() {
	s.mu.Lock()

	if s.closed || s.inflight != nil || !s.ready || s.proc == nil || len(s.queue) == 0 {
		s.mu.Unlock()

		return
	}

	cmd := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]

	s.inflight = cmd
	cmd.dispatchedAt = time.Now()
	s.buffer.Reset()
	s.armTimerLocked()

	stdin := s.proc.Stdin()
	s.mu.Unlock()

	s.log.Debug("Dispatching command", "id", cmd.ID, "command", cmd.Text)

	// The write happens unlocked so a stalled pipe cannot block the timer.
	if _, err := io.WriteString(stdin, cmd.Text+"\n"); err != nil {
		s.log.Warn("Failed to write command to Heroku CLI", "id", cmd.ID, "error", err)
	}
}

// launch resolves, spawns, and attaches a new process generation.
func (s *Supervisor) launch(ctx context.Context) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return
	}

	s.gen++
	gen := s.gen
	s.ready = false
	s.readyTail = ""
	s.restartTimer = nil
	s.mu.Unlock()

	spec, err := s.resolver.Resolve(ctx)
	if err != nil {
		if s.ctx.Err() == nil {
			s.fatal(&errors.StartupError{Err: err})
		}

		return
	}

	proc, err := s.spawn(s.ctx, spec, s.env)
	if err != nil {
		if s.ctx.Err() == nil {
			s.fatal(&errors.StartupError{Err: err})
		}

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		_ = proc.Kill()

		return
	}

	s.proc = proc
	s.metrics.ProcessStarted()
	s.log.Info("Heroku CLI REPL launched", "command", spec.String(), "generation", gen)

	var streams sync.WaitGroup

	streams.Add(2)

	s.wg.Go(func() {
		defer streams.Done()
		s.readStream(gen, proc.Stdout(), s.handleStdout)
	})
	s.wg.Go(func() {
		defer streams.Done()
		s.readStream(gen, proc.Stderr(), s.handleStderr)
	})
	s.wg.Go(func() {
		code, err := proc.Wait()
		streams.Wait()
		s.handleExit(gen, code, err)
	})
}

func (s *Supervisor) readStream(gen uint64, r io.Reader, handle func(uint64, string)) {
	buf := make([]byte, readBufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			handle(gen, string(buf[:n]))
		}

		if err == nil {
			continue
		}

		if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrClosedPipe) || stderrors.Is(err, os.ErrClosed) {
			return
		}

		s.mu.Lock()
		current := !s.closed && gen == s.gen
		s.mu.Unlock()

		if current {
			s.fatal(&errors.StartupError{Err: fmt.Errorf("read heroku output: %w", err)})
		}

		return
	}
}

func (s *Supervisor) handleStdout(gen uint64, chunk string) {
	s.mu.Lock()

	if s.closed || gen != s.gen {
		s.mu.Unlock()

		return
	}

	if strings.Contains(chunk, LegacyWarning) {
		s.mu.Unlock()
		s.fatal(&errors.StartupError{Err: errors.ErrReplUnsupported})

		return
	}

	window := s.readyTail + chunk
	if !s.ready && strings.Contains(window, ReadyMarker) {
		s.ready = true
		s.everReady = true
		s.log.Info("Heroku CLI REPL ready", "generation", gen)
		s.signal()
	}

	s.readyTail = tail(window, len(ReadyMarker)-1)
	s.appendLocked(chunk, OutcomeOK)
	s.mu.Unlock()
}

func (s *Supervisor) handleStderr(gen uint64, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		return
	}

	s.buffer.WriteString(strings.TrimSpace(chunk))
}

// appendLocked adds output and completes the in-flight command once the
// sentinel is present. Output with no command in flight only accumulates.
func (s *Supervisor) appendLocked(text string, outcome Outcome) {
	s.buffer.WriteString(text)

	if s.inflight == nil {
		return
	}

	buffered := s.buffer.String()
	// Only the new text, plus enough of the old to catch a split marker.
	if !strings.Contains(tail(buffered, len(text)+len(EndResultsMarker)-1), EndResultsMarker) {
		s.armTimerLocked()

		return
	}

	s.completeLocked(outcome)
}

func (s *Supervisor) completeLocked(outcome Outcome) {
	cmd := s.inflight
	s.inflight = nil
	s.stopTimerLocked()

	output := strings.TrimSpace(s.buffer.String())
	s.buffer.Reset()

	cmd.resolve(output, outcome, nil)

	duration := time.Since(cmd.dispatchedAt)
	depth := len(s.queue)

	s.metrics.CommandCompleted(outcome, duration, depth)
	s.log.Debug("Command completed", "id", cmd.ID, "outcome", outcome, "duration", duration)

	completion := Completion{
		ID:       cmd.ID,
		Command:  cmd.Text,
		Output:   output,
		Outcome:  outcome,
		Duration: duration,
	}

	for _, ch := range s.subscribers {
		select {
		case ch <- completion:
		default:
			s.log.Warn("Dropping completion for slow subscriber", "id", cmd.ID)
		}
	}

	if depth > 0 {
		s.signal()
	}
}

func (s *Supervisor) armTimerLocked() {
	s.stopTimerLocked()

	seq := s.timerSeq
	s.timer = time.AfterFunc(s.timeout, func() { s.onTimeout(seq) })
}

func (s *Supervisor) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.timerSeq++
}

func (s *Supervisor) onTimeout(seq uint64) {
	s.mu.Lock()

	if s.closed || seq != s.timerSeq || s.inflight == nil {
		s.mu.Unlock()

		return
	}

	s.timer = nil
	old := s.detachLocked()

	s.log.Warn("Command timed out, restarting Heroku CLI",
		"id", s.inflight.ID,
		"command", s.inflight.Text,
		"timeout", s.timeout,
	)

	s.appendLocked(fmt.Sprintf(timeoutMessage, s.timeout.Milliseconds()), OutcomeTimeout)

	// Registered under mu while still open, so Close waits for the relaunch.
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.Unlock()

	if old != nil {
		if err := old.Kill(); err != nil {
			s.log.Warn("Failed to kill timed out Heroku CLI process", "error", err)
		}
	}

	s.launch(s.ctx)
}

func (s *Supervisor) handleExit(gen uint64, code int, waitErr error) {
	s.mu.Lock()

	if s.closed || gen != s.gen {
		s.mu.Unlock()

		return
	}

	s.detachLocked()
	s.metrics.ProcessExited(code)

	if code != 0 {
		s.buffer.WriteString(fmt.Sprintf(exitNote, code))
	}

	if s.inflight != nil {
		s.completeLocked(OutcomeExited)
	}

	delay := time.Duration(0)
	if code == 0 {
		delay = s.restartDelay
	}

	if delay > 0 {
		s.restartTimer = time.AfterFunc(delay, s.relaunch)
	}

	s.mu.Unlock()

	s.log.Warn("Heroku CLI process exited", "exit_code", code, "restart_delay", delay)

	if waitErr != nil {
		s.fatal(&errors.StartupError{Err: waitErr})
	}

	if delay == 0 {
		s.launch(s.ctx)
	}
}

// relaunch runs a delayed launch as a goroutine Close waits for.
func (s *Supervisor) relaunch() {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return
	}

	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	s.launch(s.ctx)
}

// detachLocked forgets the current process so its remaining events are
// ignored, and returns it.
func (s *Supervisor) detachLocked() Process {
	proc := s.proc
	s.proc = nil
	s.gen++
	s.ready = false
	s.readyTail = ""

	return proc
}

func (s *Supervisor) fatal(err *errors.StartupError) {
	s.metrics.FatalError()
	s.log.Error("Heroku CLI fatal error", "error", err)

	if s.onFatal != nil {
		s.onFatal(err)
	}
}

// bufferSnapshot returns the unconsumed output.
func (s *Supervisor) bufferSnapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buffer.String()
}

func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}

	if len(s) <= n {
		return s
	}

	return s[len(s)-n:]
}
