// Package cli resolves how the Heroku CLI REPL is launched and builds the
// command lines sent to it.
//
// # Launch Resolution
//
// The Resolver decides which executable runs the REPL:
//
//	resolver := cli.NewResolver(&cli.Config{Logger: slog.Default()})
//	spec, err := resolver.Resolve(ctx)
//
// Resolution prefers a package runner and falls back to an installed CLI:
//  1. `npx --version` succeeds: launch `npx -y heroku@latest --repl`
//  2. `heroku version` reports heroku/X.Y.Z >= MinimumVersion: launch `heroku --repl`
//  3. Otherwise a typed error from internal/errors describes the failure
//
// # Environment
//
// BuildEnvironment appends the MCP mode flag, the server version, and the
// HEROKU_HEADERS bundle to the inherited environment.
//
// # Command Building
//
// Builder assembles single-line REPL commands:
//
//	cmd := cli.NewBuilder("pg:kill").
//	    Flag("app", "myapp").
//	    BoolFlag("force", true).
//	    Positional("12345", "HEROKU_POSTGRESQL_RED").
//	    Build()
//	// pg:kill --app=myapp --force -- 12345 HEROKU_POSTGRESQL_RED
package cli
