package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heroku/heroku-mcp-server/internal/cli"
	internalmcp "github.com/heroku/heroku-mcp-server/internal/mcp"
)

// DefaultModelResource is the add-on alias used when none is given.
const DefaultModelResource = "heroku-inference"

const inferenceTempPrefix = "com.heroku.mcp.ai.inference"

// ProvisionAIModelInput attaches model access to an app.
type ProvisionAIModelInput struct {
	App       string `json:"app" jsonschema:"Target app name for AI model access provisioning"`
	ModelName string `json:"modelName" jsonschema:"Name of the AI model to provision access for. Valid model names can be found with tool list_ai_available_models"`
	As        string `json:"as,omitempty" jsonschema:"Alias for the model resource when attaching to the app. Randomly generated if not provided."`
}

// AgentMessage is one chat turn in an inference request.
type AgentMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentToolParameters is the JSON schema of an agent tool's arguments.
type AgentToolParameters struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// AgentToolParams configures how a heroku_tool runs.
type AgentToolParams struct {
	Cmd         string               `json:"cmd,omitempty"`
	Description string               `json:"description,omitempty"`
	Parameters  *AgentToolParameters `json:"parameters,omitempty"`
}

// AgentRuntimeParams are runtime settings for an agent tool.
type AgentRuntimeParams struct {
	TargetAppName string           `json:"target_app_name,omitempty"`
	ToolParams    *AgentToolParams `json:"tool_params,omitempty"`
}

// AgentTool is a tool made available to the model.
type AgentTool struct {
	Type          string              `json:"type"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	RuntimeParams *AgentRuntimeParams `json:"runtime_params,omitempty"`
}

// AgentRequest is the body passed to ai:agents:call through --optfile.
type AgentRequest struct {
	Model                        string         `json:"model"`
	Messages                     []AgentMessage `json:"messages"`
	MaxTokensPerInferenceRequest *int           `json:"max_tokens_per_inference_request,omitempty"`
	Stop                         []string       `json:"stop,omitempty"`
	Temperature                  *float64       `json:"temperature,omitempty"`
	Tools                        []AgentTool    `json:"tools,omitempty"`
	TopP                         *float64       `json:"top_p,omitempty"`
}

// InferenceInput makes an inference call.
type InferenceInput struct {
	App           string       `json:"app" jsonschema:"App name/ID (required for alias)"`
	ModelResource string       `json:"modelResource,omitempty" jsonschema:"Model resource ID/alias (requires --app for alias)"`
	Opts          AgentRequest `json:"opts" jsonschema:"Inference request body"`
	JSON          bool         `json:"json,omitempty" jsonschema:"Output as JSON"`
	Output        string       `json:"output,omitempty" jsonschema:"Output file path"`
}

func registerAI(server *mcp.Server, r *registry) {
	addCommandTool(server, r, &mcp.Tool{
		Name:        "list_ai_available_models",
		Description: "List available AI inference models",
		Annotations: readOnly(),
	}, func(struct{}) string {
		return cli.NewBuilder(cmdAIModelsList).Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name:        "provision_ai_model",
		Description: "Provision AI model access for app",
	}, func(in ProvisionAIModelInput) string {
		return cli.NewBuilder(cmdAIModelsCreate).
			Flag("app", in.App).
			Flag("as", in.As).
			Positional(in.ModelName).
			Build()
	})

	tool := &mcp.Tool{
		Name:        "make_ai_inference",
		Description: "Make inference request to Heroku AI API",
		InputSchema: inferenceSchema(),
	}

	mcp.AddTool(server, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in InferenceInput) (*mcp.CallToolResult, any, error) {
		return r.makeInference(ctx, tool.Name, in), nil, nil
	})
}

// inferenceSchema is the inferred input schema with the defaults clients
// should assume filled in.
func inferenceSchema() *jsonschema.Schema {
	schema, err := jsonschema.For[InferenceInput](nil)
	if err != nil {
		panic(fmt.Sprintf("make_ai_inference schema: %v", err))
	}

	if p, ok := schema.Properties["modelResource"]; ok {
		p.Default = json.RawMessage(`"` + DefaultModelResource + `"`)
	}

	if p, ok := schema.Properties["json"]; ok {
		p.Default = json.RawMessage(`false`)
	}

	return schema
}

// makeInference stages the request body in a private temp directory because
// passing JSON inline through the REPL is brittle. The directory is removed
// once the command completes.
func (r *registry) makeInference(ctx context.Context, tool string, in InferenceInput) *mcp.CallToolResult {
	if in.ModelResource == "" {
		in.ModelResource = DefaultModelResource
	}

	dir, err := os.MkdirTemp(r.tempDir, inferenceTempPrefix)
	if err != nil {
		return internalmcp.ExecutionErrorResult(fmt.Errorf("create inference temp dir: %w", err))
	}

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.log.Warn("Failed to remove inference temp dir", "dir", dir, "error", err)
		}
	}()

	body, err := json.Marshal(in.Opts)
	if err != nil {
		return internalmcp.ExecutionErrorResult(fmt.Errorf("encode inference request: %w", err))
	}

	optFile := filepath.Join(dir, "opts.json")
	if err := os.WriteFile(optFile, body, 0o600); err != nil {
		return internalmcp.ExecutionErrorResult(fmt.Errorf("write inference request: %w", err))
	}

	command := cli.NewBuilder(cmdAIAgentsCall).
		Flag("app", in.App).
		BoolFlag("json", in.JSON).
		Flag("output", in.Output).
		Flag("optfile", optFile).
		Positional(in.ModelResource).
		Build()

	return r.run(ctx, tool, command)
}
