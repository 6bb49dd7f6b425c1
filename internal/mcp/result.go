package mcp

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// StartupErrorResult wraps a fatal startup failure in the tool-result shape
// MCP clients already understand. The message runs through HandleCLIOutput
// so it is classified exactly like REPL output would be.
func StartupErrorResult(err error) *mcp.CallToolResult {
	return HandleCLIOutput(err.Error())
}

// ExecutionErrorResult reports a command that never produced output, for
// example one abandoned because the REPL was shut down.
func ExecutionErrorResult(err error) *mcp.CallToolResult {
	return ErrorResult(ErrorPrefix + "Details:\n" + err.Error())
}

// ResultMap converts a CallToolResult into its plain JSON object form.
// Only text content is expected from the Heroku CLI.
func ResultMap(result *mcp.CallToolResult) map[string]any {
	if result == nil {
		return map[string]any{
			"content": []map[string]any{},
		}
	}

	content := make([]map[string]any, 0, len(result.Content))
	for _, c := range result.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			content = append(content, map[string]any{
				"type": "text",
				"text": v.Text,
			})
		case *mcp.EmbeddedResource:
			if v.Resource != nil {
				content = append(content, map[string]any{
					"type": "resource",
					"resource": map[string]any{
						"uri":      v.Resource.URI,
						"mimeType": v.Resource.MIMEType,
						"text":     v.Resource.Text,
					},
				})
			}
		}
	}

	resultMap := map[string]any{
		"content": content,
	}

	if result.IsError {
		resultMap["isError"] = true
	}

	return resultMap
}

// MarshalResult encodes a result with ResultMap for writing to stderr.
func MarshalResult(result *mcp.CallToolResult) ([]byte, error) {
	return json.Marshal(ResultMap(result))
}
