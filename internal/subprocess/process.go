package subprocess

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/heroku/heroku-mcp-server/internal/errors"
)

// WaitDelay bounds how long Wait keeps copying output after the child exits.
// npx leaves grandchildren that may hold the pipes open.
const WaitDelay = 2 * time.Second

// Process is a running REPL child process.
type Process struct {
	log     *slog.Logger
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	mu     sync.Mutex
	killed bool
}

// Start launches name with args and env.
//
// The process is killed when ctx is cancelled.
func Start(ctx context.Context, log *slog.Logger, name string, args []string, env []string) (*Process, error) {
	log = log.With("component", "subprocess")

	//nolint:gosec // G204: the launch command comes from the CLI resolver
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	cmd.WaitDelay = WaitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Error("Failed to create stdin pipe", "error", err)

		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	// exec copies into these writers from its own goroutines and finishes
	// before Wait returns, so closing them in Wait yields a clean EOF.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		log.Error("Failed to start Heroku CLI process", "command", name, "error", err)

		_ = stdoutW.Close()
		_ = stderrW.Close()

		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	log.Info("Heroku CLI process started", "command", name, "args", args, "pid", cmd.Process.Pid)

	return &Process{
		log:     log,
		cmd:     cmd,
		stdin:   stdin,
		stdoutR: stdoutR,
		stdoutW: stdoutW,
		stderrR: stderrR,
		stderrW: stderrW,
	}, nil
}

// Stdin returns the child's input stream.
func (p *Process) Stdin() io.Writer { return p.stdin }

// Stdout returns the child's output stream.
func (p *Process) Stdout() io.Reader { return p.stdoutR }

// Stderr returns the child's diagnostic stream.
func (p *Process) Stderr() io.Reader { return p.stderrR }

// Pid returns the operating system process id.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Wait blocks until the child exits and returns its exit code.
//
// A non-zero exit is not an error. The error is non-nil only when the
// process could not be waited on. A child terminated by a signal reports -1.
func (p *Process) Wait() (int, error) {
	err := p.cmd.Wait()

	_ = p.stdoutW.Close()
	_ = p.stderrW.Close()

	if err == nil || stderrors.Is(err, exec.ErrWaitDelay) {
		return p.cmd.ProcessState.ExitCode(), nil
	}

	if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
		code := exitErr.ExitCode()

		p.mu.Lock()
		killed := p.killed
		p.mu.Unlock()

		if killed {
			p.log.Debug("Heroku CLI process terminated after kill", "exit_code", code)
		} else {
			p.log.Debug("Heroku CLI process exited", "exit_code", code)
		}

		return code, nil
	}

	p.log.Error("Failed waiting for Heroku CLI process", "error", err)

	return -1, &errors.ProcessError{ExitCode: -1, Err: err}
}

// Kill terminates the child. It is safe to call more than once.
func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.killed {
		return nil
	}

	p.killed = true

	_ = p.stdin.Close()

	p.log.Debug("Killing Heroku CLI process", "pid", p.cmd.Process.Pid)

	if err := p.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill heroku process (pid %d): %w", p.cmd.Process.Pid, err)
	}

	return nil
}
