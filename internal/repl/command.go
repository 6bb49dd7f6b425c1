package repl

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Outcome describes how a command completed.
type Outcome string

const (
	// OutcomeOK means the REPL printed the end-of-results sentinel.
	OutcomeOK Outcome = "ok"
	// OutcomeTimeout means the inactivity deadline expired.
	OutcomeTimeout Outcome = "timeout"
	// OutcomeExited means the process exited while the command was in flight.
	OutcomeExited Outcome = "exited"
	// OutcomeAborted means the supervisor was closed first.
	OutcomeAborted Outcome = "aborted"
)

// Command is a submitted REPL command and its eventual result.
type Command struct {
	ID          string
	Text        string
	SubmittedAt time.Time

	dispatchedAt time.Time
	done         chan struct{}
	output       string
	outcome      Outcome
	err          error
}

func newCommand(text string) *Command {
	return &Command{
		ID:          ulid.Make().String(),
		Text:        text,
		SubmittedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// resolve must be called exactly once, with the supervisor lock held.
func (c *Command) resolve(output string, outcome Outcome, err error) {
	c.output = output
	c.outcome = outcome
	c.err = err
	close(c.done)
}

// Done is closed once the command has a result.
func (c *Command) Done() <-chan struct{} {
	return c.done
}

// Result returns the command output. It must only be called after Done is
// closed. The error is non-nil only when the supervisor was closed before
// the command completed.
func (c *Command) Result() (string, error) {
	return c.output, c.err
}

// Outcome reports how the command completed. Valid after Done is closed.
func (c *Command) Outcome() Outcome {
	return c.outcome
}

// Wait blocks until the command completes or ctx is done.
//
// Cancelling ctx stops the wait only. The command stays queued or in flight.
func (c *Command) Wait(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		return c.Result()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Completion is published to subscribers for every completed command.
type Completion struct {
	ID       string
	Command  string
	Output   string
	Outcome  Outcome
	Duration time.Duration
}
