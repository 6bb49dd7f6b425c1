package tools

import (
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heroku/heroku-mcp-server/internal/cli"
)

// JSONInput toggles JSON output on listing tools.
type JSONInput struct {
	JSON bool `json:"json,omitempty" jsonschema:"Output as JSON for programmatic use"`
}

// LogsInput selects an app's log stream.
type LogsInput struct {
	App         string `json:"app" jsonschema:"Target app name"`
	DynoName    string `json:"dynoName,omitempty" jsonschema:"Filter by dyno, e.g. web.1"`
	ProcessType string `json:"processType,omitempty" jsonschema:"Filter by process type, e.g. web or worker"`
	Source      string `json:"source,omitempty" jsonschema:"Filter by source: app for application logs, heroku for platform logs"`
	Num         int    `json:"num,omitempty" jsonschema:"Number of log lines to retrieve"`
}

func registerLogs(server *mcp.Server, r *registry) {
	addCommandTool(server, r, &mcp.Tool{
		Name: "get_app_logs",
		Description: "View app logs: monitor dyno, router, and system events. " +
			"Filter by dyno, process type, or source.",
		Annotations: readOnly(),
	}, func(in LogsInput) string {
		b := cli.NewBuilder(cmdLogs).
			Flag("app", in.App).
			Flag("dyno-name", in.DynoName).
			Flag("process-type", in.ProcessType).
			Flag("source", in.Source)

		if in.Num > 0 {
			b.Flag("num", strconv.Itoa(in.Num))
		}

		return b.Build()
	})
}

func registerAccount(server *mcp.Server, r *registry) {
	addCommandTool(server, r, &mcp.Tool{
		Name:        "list_private_spaces",
		Description: "List private spaces with their region and state.",
		Annotations: readOnly(),
	}, func(in JSONInput) string {
		return cli.NewBuilder(cmdListSpaces).BoolFlag("json", in.JSON).Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "list_teams",
		Description: "List teams the current user belongs to, with roles.",
		Annotations: readOnly(),
	}, func(in JSONInput) string {
		return cli.NewBuilder(cmdListTeams).BoolFlag("json", in.JSON).Build()
	})
}
