package mcptools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/sapling"
)

const goSource = `package main

func Greet(name string) string {
	return "Hello, " + name
}

func Add(a, b int) int {
	return a + b
}
`

// setupServerClient wires an MCP server and client together using in-memory
// transports and returns the connected client session and the Engine
// behind the server.
func setupServerClient(t *testing.T) (*mcp.ClientSession, *sapling.Engine) {
	t.Helper()

	e, err := sapling.New()
	require.NoError(t, err)
	server := NewServer(NewService(e))

	st, ct := mcp.NewInMemoryTransports()

	ctx := context.Background()

	_, err = server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})

	return session, e
}

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// decode round-trips structured tool output into out.
func decode(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	require.NotNil(t, result.StructuredContent, "expected structured content")
	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestMCPListTools(t *testing.T) {
	session, _ := setupServerClient(t)
	ctx := context.Background()

	result, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)

	assert.Equal(t, []string{"list_grammars", "parse_file", "query_file"}, names)
}

func TestMCPParseFile_Sexp(t *testing.T) {
	session, _ := setupServerClient(t)
	ctx := context.Background()

	path := writeSource(t, "num.js", "42")
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "parse_file",
		Arguments: ParseFileInput{Path: path},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "parse_file should succeed")

	var out ParseFileOutput
	decode(t, result, &out)
	assert.Equal(t, "javascript", out.Grammar)
	assert.False(t, out.HasError)
	assert.Equal(t, "(program (expression_statement (number)))\n", out.Sexp)
	assert.Nil(t, out.Dump)
}

func TestMCPParseFile_JSON(t *testing.T) {
	session, _ := setupServerClient(t)
	ctx := context.Background()

	path := writeSource(t, "main.go", goSource)
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "parse_file",
		Arguments: ParseFileInput{Path: path, Format: "json", MaxNodes: 5},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out ParseFileOutput
	decode(t, result, &out)
	require.NotNil(t, out.Dump)
	assert.Empty(t, out.Sexp)
	assert.Equal(t, "go", out.Dump.Grammar)
	assert.Equal(t, "source_file", out.Dump.Root.Type)
	assert.Len(t, out.Dump.Nodes, 5)
	assert.True(t, out.Dump.Truncated)
}

func TestMCPParseFile_Errors(t *testing.T) {
	session, _ := setupServerClient(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ParseFileInput
	}{
		{"missing path", ParseFileInput{}},
		{"not found", ParseFileInput{Path: filepath.Join(t.TempDir(), "missing.go")}},
		{"unsupported", ParseFileInput{Path: writeSource(t, "notes.txt", "hello")}},
		{"bad format", ParseFileInput{Path: writeSource(t, "a.go", goSource), Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "parse_file",
				Arguments: tt.input,
			})
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestMCPQueryFile(t *testing.T) {
	session, _ := setupServerClient(t)
	ctx := context.Background()

	path := writeSource(t, "main.go", goSource)
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "query_file",
		Arguments: QueryFileInput{
			Path:    path,
			Pattern: "(function_declaration name: (identifier) @name)",
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out QueryFileOutput
	decode(t, result, &out)
	require.Equal(t, 2, out.Total)
	assert.Equal(t, "Greet", out.Captures[0].Text)
	assert.Equal(t, "Add", out.Captures[1].Text)
	assert.Equal(t, "name", out.Captures[0].Name)
}

func TestMCPQueryFile_InvalidPattern(t *testing.T) {
	session, _ := setupServerClient(t)
	ctx := context.Background()

	path := writeSource(t, "main.go", goSource)
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "query_file",
		Arguments: QueryFileInput{Path: path, Pattern: "(not_a_node @x)"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPListGrammars(t *testing.T) {
	session, e := setupServerClient(t)
	ctx := context.Background()

	// Parse once so the loader has something cached.
	path := writeSource(t, "main.go", goSource)
	_, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "parse_file",
		Arguments: ParseFileInput{Path: path},
	})
	require.NoError(t, err)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "list_grammars",
		Arguments: ListGrammarsInput{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out ListGrammarsOutput
	decode(t, result, &out)
	assert.Len(t, out.Extensions, e.Registry().Len())
	assert.Contains(t, out.Grammars, "go")
	assert.Contains(t, out.Grammars, "yaml")
	assert.Equal(t, []string{"go"}, out.Loaded)
}
