// Package repl supervises the long-lived Heroku CLI REPL process.
//
// A Supervisor owns exactly one child process and a FIFO queue of commands.
// Commands are written to the REPL one at a time; a command completes when
// the accumulated output contains the <<<END RESULTS>>> sentinel, when its
// inactivity deadline expires, or when the process exits under it. The
// process is relaunched after every unexpected exit and after every timeout,
// and queued work resumes once the new process prints its prompt.
//
// Launch failures are not retried. They are reported once through
// Options.OnFatal as a *errors.StartupError.
//
// Basic usage:
//
//	sup := repl.New(&repl.Options{Logger: log, Version: config.Version})
//	defer sup.Close()
//
//	if err := sup.Start(ctx); err != nil {
//	    return err
//	}
//
//	out, err := sup.ExecuteCommand(ctx, "apps:info --app=example")
package repl
