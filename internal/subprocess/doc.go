// Package subprocess runs the Heroku CLI REPL as a child process.
//
// A Process owns the child's stdin, stdout, and stderr. Output streams are
// exposed as readers that reach EOF once Wait returns, so a reader loop can
// drain all output before the exit is handled.
package subprocess
