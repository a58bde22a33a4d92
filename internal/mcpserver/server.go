// Copyright 2026 OctoQL, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/octoql/octoql/internal/gql"
)

// Server is the MCP protocol layer over a tool registry.
type Server struct {
	mcp      *mcp.Server
	registry *gql.Registry
	logger   *slog.Logger
}

// New builds an MCP server exposing every operation in the registry as a
// tool. The registry must be fully populated before New is called; tools
// are not added or removed afterward.
func New(registry *gql.Registry, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "octoql",
		Version: version,
	}, &mcp.ServerOptions{HasTools: true})

	s := &Server{mcp: srv, registry: registry, logger: logger}

	for _, op := range registry.Operations() {
		mcp.AddTool(srv, &mcp.Tool{
			Name:        op.Name,
			Description: op.Description,
			InputSchema: schemaFor(op),
		}, s.handlerFor(op))
	}

	return s
}

// Run serves the protocol over stdio until the context is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio", "tools", len(s.registry.Operations()))
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// handlerFor adapts one operation into an MCP tool handler. The envelope is
// always returned as text content; protocol-level errors are reserved for
// failures of the handler itself.
func (s *Server) handlerFor(op *gql.Operation) func(context.Context, *mcp.CallToolRequest, map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		res := s.registry.Invoke(ctx, gql.ToolInvocation{Operation: op.Name, Arguments: args})

		payload, err := json.Marshal(res)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode result for %q: %w", op.Name, err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
			IsError: res.Status == gql.StatusError,
		}, nil, nil
	}
}

// schemaFor derives the tool's input schema from the operation's parameter
// declarations. Connection operations additionally accept the reserved
// pagination arguments.
func schemaFor(op *gql.Operation) *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema)
	var required []string

	for _, p := range op.Params {
		props[p.Name] = paramSchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}

	if op.Connection != nil {
		props["page_size"] = &jsonschema.Schema{
			Type:        "integer",
			Description: fmt.Sprintf("Items per page, 1-100 (default %d).", op.Bounds.PageSize),
		}
		props["max_items"] = &jsonschema.Schema{
			Type:        "integer",
			Description: fmt.Sprintf("Stop after this many items (cap %d).", op.Bounds.MaxItems),
		}
		props["max_pages"] = &jsonschema.Schema{
			Type:        "integer",
			Description: fmt.Sprintf("Stop after this many pages (cap %d).", op.Bounds.MaxPages),
		}
		props["after"] = &jsonschema.Schema{
			Type:        "string",
			Description: "Resume from this cursor (endCursor of a previous result).",
		}
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func paramSchema(p gql.Param) *jsonschema.Schema {
	switch p.Type {
	case gql.ParamString:
		s := &jsonschema.Schema{Type: "string", Description: p.Description}
		for _, v := range p.Enum {
			s.Enum = append(s.Enum, v)
		}
		return s
	case gql.ParamInt:
		return &jsonschema.Schema{Type: "integer", Description: p.Description}
	case gql.ParamBool:
		return &jsonschema.Schema{Type: "boolean", Description: p.Description}
	case gql.ParamFloat:
		return &jsonschema.Schema{Type: "number", Description: p.Description}
	case gql.ParamObject:
		return &jsonschema.Schema{Type: "object", Description: p.Description}
	case gql.ParamStringList:
		item := &jsonschema.Schema{Type: "string"}
		for _, v := range p.Enum {
			item.Enum = append(item.Enum, v)
		}
		return &jsonschema.Schema{Type: "array", Description: p.Description, Items: item}
	default:
		return &jsonschema.Schema{Description: p.Description}
	}
}
