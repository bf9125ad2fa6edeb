package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jward/sapling"
	"github.com/jward/sapling/internal/grammar"
)

// Service holds the Engine shared by every MCP tool call. All calls go
// through one grammar loader, so each grammar loads at most once per
// server.
type Service struct {
	engine *sapling.Engine
}

// NewService creates a Service around e.
func NewService(e *sapling.Engine) *Service {
	return &Service{engine: e}
}

// ParseFile parses one file and renders it in the requested format.
func (s *Service) ParseFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ParseFileInput,
) (*mcp.CallToolResult, ParseFileOutput, error) {
	if input.Path == "" {
		return nil, ParseFileOutput{}, fmt.Errorf("path is required")
	}

	format := strings.ToLower(input.Format)
	if format != "" && format != "sexp" && format != "json" {
		return nil, ParseFileOutput{}, fmt.Errorf("format must be sexp or json, got %q", input.Format)
	}

	tree, err := s.engine.ParseFile(ctx, input.Path)
	if err != nil {
		return nil, ParseFileOutput{}, err
	}
	defer tree.Close()

	out := ParseFileOutput{
		File:     tree.Path,
		Grammar:  tree.Grammar,
		HasError: tree.HasError(),
	}
	if format == "json" {
		out.Dump = sapling.Summarize(tree, input.MaxNodes)
		return nil, out, nil
	}

	var sb strings.Builder
	if err := sapling.WriteSExpr(&sb, tree); err != nil {
		return nil, ParseFileOutput{}, fmt.Errorf("render %s: %w", input.Path, err)
	}
	out.Sexp = sb.String()
	return nil, out, nil
}

// QueryFile parses one file and runs a query pattern over it.
func (s *Service) QueryFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryFileInput,
) (*mcp.CallToolResult, QueryFileOutput, error) {
	if input.Path == "" {
		return nil, QueryFileOutput{}, fmt.Errorf("path is required")
	}
	if strings.TrimSpace(input.Pattern) == "" {
		return nil, QueryFileOutput{}, fmt.Errorf("pattern is required")
	}

	tree, err := s.engine.ParseFile(ctx, input.Path)
	if err != nil {
		return nil, QueryFileOutput{}, err
	}
	defer tree.Close()

	captures, err := sapling.Query(tree, input.Pattern)
	if err != nil {
		return nil, QueryFileOutput{}, err
	}

	return nil, QueryFileOutput{
		File:     tree.Path,
		Grammar:  tree.Grammar,
		Captures: captures,
		Total:    len(captures),
	}, nil
}

// ListGrammars reports the registry and loader state.
func (s *Service) ListGrammars(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListGrammarsInput,
) (*mcp.CallToolResult, ListGrammarsOutput, error) {
	return nil, ListGrammarsOutput{
		Extensions: s.engine.Registry().Entries(),
		Grammars:   grammar.Available(),
		Loaded:     s.engine.Loader().Loaded(),
	}, nil
}
