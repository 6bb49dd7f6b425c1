package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heroku/heroku-mcp-server/internal/cli"
)

// PsListInput lists an app's dynos.
type PsListInput struct {
	App  string `json:"app" jsonschema:"Target app name"`
	JSON bool   `json:"json,omitempty" jsonschema:"Output as JSON for programmatic use"`
}

// PsScaleInput changes dyno formation.
type PsScaleInput struct {
	App  string `json:"app" jsonschema:"Target app name"`
	Dyno string `json:"dyno" jsonschema:"Formation change, e.g. web=3:Standard-2X or worker+1"`
}

// PsRestartInput restarts dynos. With neither filter set, every dyno restarts.
type PsRestartInput struct {
	App         string `json:"app" jsonschema:"Target app name"`
	DynoName    string `json:"dyno-name,omitempty" jsonschema:"Restart a single dyno, e.g. web.1"`
	ProcessType string `json:"process-type,omitempty" jsonschema:"Restart all dynos of a process type, e.g. web"`
}

func registerDynos(server *mcp.Server, r *registry) {
	addCommandTool(server, r, &mcp.Tool{
		Name:        "ps_list",
		Description: "List dynos with their state, size, and command.",
		Annotations: readOnly(),
	}, func(in PsListInput) string {
		return cli.NewBuilder(cmdPs).
			Flag("app", in.App).
			BoolFlag("json", in.JSON).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "ps_scale",
		Description: "Scale dyno quantity and resize dynos for a process type.",
	}, func(in PsScaleInput) string {
		return cli.NewBuilder(cmdPsScale).
			Flag("app", in.App).
			Positional(in.Dyno).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "ps_restart",
		Description: "Restart a dyno, all dynos of a process type, or every dyno of an app.",
	}, func(in PsRestartInput) string {
		return cli.NewBuilder(cmdPsRestart).
			Flag("app", in.App).
			Flag("dyno-name", in.DynoName).
			Flag("process-type", in.ProcessType).
			Build()
	})
}
