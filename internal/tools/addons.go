package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heroku/heroku-mcp-server/internal/cli"
)

// ListAddonsInput filters the add-on listing.
type ListAddonsInput struct {
	All  bool   `json:"all,omitempty" jsonschema:"List add-ons across all accessible apps"`
	App  string `json:"app,omitempty" jsonschema:"Only list add-ons attached to this app"`
	JSON bool   `json:"json,omitempty" jsonschema:"Output as JSON for programmatic use"`
}

// AddonInfoInput identifies one add-on.
type AddonInfoInput struct {
	Addon string `json:"addon" jsonschema:"Add-on name, ID, or attachment name such as DATABASE"`
	App   string `json:"app,omitempty" jsonschema:"App context; required when addon is an attachment name"`
	JSON  bool   `json:"json,omitempty" jsonschema:"Output as JSON for programmatic use"`
}

// CreateAddonInput provisions an add-on.
type CreateAddonInput struct {
	App            string `json:"app" jsonschema:"App to attach the add-on to"`
	As             string `json:"as,omitempty" jsonschema:"Attachment name, used as the config var prefix"`
	Name           string `json:"name,omitempty" jsonschema:"Global add-on name; generated when omitted"`
	ServiceAndPlan string `json:"serviceAndPlan" jsonschema:"Service and plan, e.g. heroku-postgresql:essential-0"`
}

// AddonPlansInput names the service whose plans are listed.
type AddonPlansInput struct {
	Service string `json:"service" jsonschema:"Service slug, e.g. heroku-postgresql"`
	JSON    bool   `json:"json,omitempty" jsonschema:"Output as JSON for programmatic use"`
}

func registerAddons(server *mcp.Server, r *registry) {
	addCommandTool(server, r, &mcp.Tool{
		Name:        "list_addons",
		Description: "List add-ons for all apps or a specific app, with plan and state.",
		Annotations: readOnly(),
	}, func(in ListAddonsInput) string {
		return cli.NewBuilder(cmdListAddons).
			BoolFlag("all", in.All).
			Flag("app", in.App).
			BoolFlag("json", in.JSON).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "get_addon_info",
		Description: "Show add-on details: plan, state, attachments, and billing.",
		Annotations: readOnly(),
	}, func(in AddonInfoInput) string {
		return cli.NewBuilder(cmdGetAddonInfo).
			Flag("app", in.App).
			BoolFlag("json", in.JSON).
			Positional(in.Addon).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "create_addon",
		Description: "Provision an add-on and attach it to an app. " +
			"Use list_addon_services and list_addon_plans to pick a service and plan.",
	}, func(in CreateAddonInput) string {
		return cli.NewBuilder(cmdCreateAddon).
			Flag("app", in.App).
			Flag("as", in.As).
			Flag("name", in.Name).
			Positional(in.ServiceAndPlan).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "list_addon_services",
		Description: "List add-on services available in the marketplace.",
		Annotations: readOnly(),
	}, func(in JSONInput) string {
		return cli.NewBuilder(cmdAddonServices).BoolFlag("json", in.JSON).Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "list_addon_plans",
		Description: "List plans and pricing for an add-on service.",
		Annotations: readOnly(),
	}, func(in AddonPlansInput) string {
		return cli.NewBuilder(cmdAddonPlans).
			BoolFlag("json", in.JSON).
			Positional(in.Service).
			Build()
	})
}
