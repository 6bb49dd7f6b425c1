package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heroku/heroku-mcp-server/internal/cli"
)

// ListAppsInput filters the apps listing.
type ListAppsInput struct {
	All      bool   `json:"all,omitempty" jsonschema:"Show owned apps and apps joined via team membership"`
	Personal bool   `json:"personal,omitempty" jsonschema:"List apps in the personal account when a default team is set"`
	Space    string `json:"space,omitempty" jsonschema:"Filter by private space name; excludes team and personal filters"`
	Team     string `json:"team,omitempty" jsonschema:"Filter by team name; excludes space and personal filters"`
	JSON     bool   `json:"json,omitempty" jsonschema:"Output as JSON for programmatic use"`
}

// AppInput names a single app.
type AppInput struct {
	App  string `json:"app" jsonschema:"Target app name"`
	JSON bool   `json:"json,omitempty" jsonschema:"Output as JSON for programmatic use"`
}

// CreateAppInput describes a new app.
type CreateAppInput struct {
	App    string `json:"app,omitempty" jsonschema:"App name; a random name is generated when omitted"`
	Region string `json:"region,omitempty" jsonschema:"Region, us or eu; defaults to us; cannot be combined with space"`
	Space  string `json:"space,omitempty" jsonschema:"Private space to create the app in"`
	Team   string `json:"team,omitempty" jsonschema:"Team that will own the app"`
}

// RenameAppInput renames an app.
type RenameAppInput struct {
	App     string `json:"app" jsonschema:"Current app name"`
	NewName string `json:"newName" jsonschema:"New unique app name"`
}

// TransferAppInput hands an app to another owner.
type TransferAppInput struct {
	App       string `json:"app" jsonschema:"App to transfer"`
	Recipient string `json:"recipient" jsonschema:"Email of the user or name of the team receiving the app"`
	Locked    bool   `json:"locked,omitempty" jsonschema:"Lock the app after transfer so only admins can join"`
}

// MaintenanceInput names the app whose maintenance mode changes.
type MaintenanceInput struct {
	App string `json:"app" jsonschema:"Target app name"`
}

func registerApps(server *mcp.Server, r *registry) {
	addCommandTool(server, r, &mcp.Tool{
		Name: "list_apps",
		Description: "List Heroku apps: owned, collaborator access, team/space filtering. " +
			"Use for app discovery and to find target apps for other tools.",
		Annotations: readOnly(),
	}, func(in ListAppsInput) string {
		return cli.NewBuilder(cmdListApps).
			BoolFlag("all", in.All).
			BoolFlag("personal", in.Personal).
			Flag("space", in.Space).
			Flag("team", in.Team).
			BoolFlag("json", in.JSON).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "get_app_info",
		Description: "Get app details: config, dynos, addons, access, domains.",
		Annotations: readOnly(),
	}, func(in AppInput) string {
		return cli.NewBuilder(cmdGetAppInfo).
			Flag("app", in.App).
			BoolFlag("json", in.JSON).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "create_app",
		Description: "Create a new app with a custom name, region, team, or private space.",
	}, func(in CreateAppInput) string {
		return cli.NewBuilder(cmdCreateApp).
			Flag("region", in.Region).
			Flag("space", in.Space).
			Flag("team", in.Team).
			Positional(in.App).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "rename_app",
		Description: "Rename an app. The old name stops resolving immediately.",
	}, func(in RenameAppInput) string {
		return cli.NewBuilder(cmdRenameApp).
			Flag("app", in.App).
			Positional(in.NewName).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "transfer_app",
		Description: "Transfer app ownership to a user or team.",
		Annotations: destructive(),
	}, func(in TransferAppInput) string {
		return cli.NewBuilder(cmdTransferApp).
			Flag("app", in.App).
			BoolFlag("locked", in.Locked).
			Positional(in.Recipient).
			Build()
	})
}

func registerMaintenance(server *mcp.Server, r *registry) {
	addCommandTool(server, r, &mcp.Tool{
		Name:        "maintenance_on",
		Description: "Enable maintenance mode: web traffic is served a maintenance page.",
	}, func(in MaintenanceInput) string {
		return cli.NewBuilder(cmdMaintenanceOn).Flag("app", in.App).Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "maintenance_off",
		Description: "Disable maintenance mode and restore normal web traffic.",
	}, func(in MaintenanceInput) string {
		return cli.NewBuilder(cmdMaintenanceOff).Flag("app", in.App).Build()
	})
}
