package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
)

// UserAgent identifies this server on requests the wrapped CLI makes.
func UserAgent(version string) string {
	return fmt.Sprintf("Heroku-MCP-Server/%s (%s; %s; go/%s)",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// BuildEnvironment constructs the environment for the REPL process.
func BuildEnvironment(version string) []string {
	env := os.Environ()

	headers, _ := json.Marshal(map[string]string{"User-Agent": UserAgent(version)}) //nolint:errchkjson // string map

	return append(env,
		"HEROKU_MCP_MODE=true",
		"HEROKU_MCP_SERVER_VERSION="+version,
		"HEROKU_HEADERS="+string(headers),
	)
}
