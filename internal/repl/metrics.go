package repl

import "time"

// Metrics receives supervisor lifecycle events.
type Metrics interface {
	CommandQueued(depth int)
	CommandCompleted(outcome Outcome, duration time.Duration, depth int)
	ProcessStarted()
	ProcessExited(code int)
	FatalError()
}

type nopMetrics struct{}

// Compile-time verification that nopMetrics implements Metrics.
var _ Metrics = nopMetrics{}

func (nopMetrics) CommandQueued(int)                            {}
func (nopMetrics) CommandCompleted(Outcome, time.Duration, int) {}
func (nopMetrics) ProcessStarted()                              {}
func (nopMetrics) ProcessExited(int)                            {}
func (nopMetrics) FatalError()                                  {}
