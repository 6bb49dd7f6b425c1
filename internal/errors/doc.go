// Package errors defines the error types shared by the Heroku MCP server.
//
// Launch failures, REPL process failures, and supervisor lifecycle errors are
// all represented here. Every type supports unwrapping and can be checked
// with errors.Is, errors.As, and errors.AsType.
package errors
