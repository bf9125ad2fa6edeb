package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the parse_file, query_file and
// list_grammars tools registered.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sapling",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_file",
		Description: "Parse a source file with the tree-sitter grammar chosen by its extension. Returns the tree as an s-expression, or as a breadth-first JSON summary capped at maxNodes.",
	}, svc.ParseFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_file",
		Description: "Run a tree-sitter query pattern over a parsed source file and return every capture in match order with its text and position.",
	}, svc.QueryFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_grammars",
		Description: "List the extension to grammar mappings, the grammars compiled into this binary, and the grammars loaded so far.",
	}, svc.ListGrammars)

	return server
}

// RunStdio runs server on the stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
