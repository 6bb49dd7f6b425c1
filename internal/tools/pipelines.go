package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heroku/heroku-mcp-server/internal/cli"
)

// PipelinesCreateInput creates a pipeline.
type PipelinesCreateInput struct {
	Name  string `json:"name" jsonschema:"Pipeline name"`
	Stage string `json:"stage,omitempty" jsonschema:"Stage for the first app: development, staging, or production"`
	App   string `json:"app,omitempty" jsonschema:"App to add to the pipeline"`
	Team  string `json:"team,omitempty" jsonschema:"Team that owns the pipeline"`
}

// PipelinesPromoteInput promotes a release downstream.
type PipelinesPromoteInput struct {
	App string `json:"app" jsonschema:"Source app whose release is promoted"`
	To  string `json:"to,omitempty" jsonschema:"Comma separated target apps; defaults to the next stage"`
}

// PipelinesInfoInput names a pipeline.
type PipelinesInfoInput struct {
	Pipeline string `json:"pipeline" jsonschema:"Pipeline name or ID"`
	JSON     bool   `json:"json,omitempty" jsonschema:"Output as JSON for programmatic use"`
}

func registerPipelines(server *mcp.Server, r *registry) {
	addCommandTool(server, r, &mcp.Tool{
		Name:        "pipelines_create",
		Description: "Create a pipeline, optionally adding an app at a stage.",
	}, func(in PipelinesCreateInput) string {
		return cli.NewBuilder(cmdPipelinesCreate).
			Flag("stage", in.Stage).
			Flag("app", in.App).
			Flag("team", in.Team).
			Positional(in.Name).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "pipelines_promote",
		Description: "Promote the latest release of an app to downstream stages.",
	}, func(in PipelinesPromoteInput) string {
		return cli.NewBuilder(cmdPipelinesPromo).
			Flag("app", in.App).
			Flag("to", in.To).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "pipelines_list",
		Description: "List pipelines you have access to.",
		Annotations: readOnly(),
	}, func(in JSONInput) string {
		return cli.NewBuilder(cmdPipelines).BoolFlag("json", in.JSON).Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "pipelines_info",
		Description: "Show a pipeline's apps by stage and its owner.",
		Annotations: readOnly(),
	}, func(in PipelinesInfoInput) string {
		return cli.NewBuilder(cmdPipelinesInfo).
			BoolFlag("json", in.JSON).
			Positional(in.Pipeline).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "pipelines",
		Description: "List pipelines. Equivalent to pipelines_list, kept for existing prompts.",
		Annotations: readOnly(),
	}, func(in JSONInput) string {
		return cli.NewBuilder(cmdPipelines).BoolFlag("json", in.JSON).Build()
	})
}
