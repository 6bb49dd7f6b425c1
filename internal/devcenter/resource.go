package devcenter

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// ResourceName is the MCP resource name.
	ResourceName = "heroku_dev_center"

	// ResourceDescription is advertised to MCP clients.
	ResourceDescription = "This resource provides a summary of Heroku Dev Center articles, and how to use Heroku."

	// PendingMessage is served until a crawl has written the cache.
	PendingMessage = "[No Dev Center crawl data available yet. " +
		"The background crawler may still be running or has not completed.]"

	mimeType = "text/plain"
)

// ResourceOptions configures RegisterResource.
type ResourceOptions struct {
	URI       string
	CacheFile string
}

// RegisterResource adds the Dev Center summary resource to server.
func RegisterResource(server *mcp.Server, opts *ResourceOptions) {
	server.AddResource(&mcp.Resource{
		Name:        ResourceName,
		URI:         opts.URI,
		MIMEType:    mimeType,
		Description: ResourceDescription,
	}, func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		text, err := quote(readCache(opts.CacheFile))
		if err != nil {
			return nil, err
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      opts.URI,
				MIMEType: mimeType,
				Text:     text,
			}},
		}, nil
	})
}

// readCache returns the cached summary, or a bracketed note for the model
// when there is none.
func readCache(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return PendingMessage
		}

		return fmt.Sprintf("[Error reading Dev Center crawl data: %v]", err)
	}

	if len(data) == 0 {
		return PendingMessage
	}

	return string(data)
}

// quote renders s as a JSON string literal without HTML escaping, so
// markup in article text reaches the client as written.
func quote(s string) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
