package mcptools

import (
	"github.com/jward/sapling"
	"github.com/jward/sapling/internal/grammar"
)

// ParseFileInput is the input for the parse_file MCP tool.
type ParseFileInput struct {
	Path     string `json:"path" jsonschema:"path of the source file to parse"`
	Format   string `json:"format,omitempty" jsonschema:"output format: sexp (default) or json"`
	MaxNodes int    `json:"maxNodes,omitempty" jsonschema:"cap on node summaries in json format (default: 2000)"`
}

// ParseFileOutput is the result of the parse_file MCP tool. Exactly one of
// Sexp and Dump is set, depending on the requested format.
type ParseFileOutput struct {
	File     string        `json:"file"`
	Grammar  string        `json:"grammar"`
	HasError bool          `json:"hasError"`
	Sexp     string        `json:"sexp,omitempty"`
	Dump     *sapling.Dump `json:"dump,omitempty"`
}

// QueryFileInput is the input for the query_file MCP tool.
type QueryFileInput struct {
	Path    string `json:"path" jsonschema:"path of the source file to query"`
	Pattern string `json:"pattern" jsonschema:"tree-sitter query pattern, e.g. (function_declaration name: (identifier) @name)"`
}

// QueryFileOutput is the result of the query_file MCP tool.
type QueryFileOutput struct {
	File     string            `json:"file"`
	Grammar  string            `json:"grammar"`
	Captures []sapling.Capture `json:"captures"`
	Total    int               `json:"total"`
}

// ListGrammarsInput is the input for the list_grammars MCP tool.
type ListGrammarsInput struct{}

// ListGrammarsOutput is the result of the list_grammars MCP tool.
type ListGrammarsOutput struct {
	Extensions []grammar.Entry `json:"extensions"`
	Grammars   []string        `json:"grammars"`
	Loaded     []string        `json:"loaded"`
}
