// Package mcp converts Heroku CLI REPL output into Model Context Protocol
// tool results.
//
// HandleCLIOutput is the single place where raw REPL text is classified as a
// success or an error result. The helpers here also render results into the
// plain JSON shape written to stderr when the server dies during startup.
package mcp
