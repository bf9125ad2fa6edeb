package sapling

import (
	"encoding/json"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceBFS lists node types breadth-first without any cap.
func referenceBFS(root *sitter.Node) []string {
	var types []string
	queue := []*sitter.Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		types = append(types, n.Type())
		for i := 0; i < int(n.ChildCount()); i++ {
			queue = append(queue, n.Child(i))
		}
	}
	return types
}

func summaryTypes(d *Dump) []string {
	types := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		types[i] = n.Type
	}
	return types
}

func TestSummarize_OneEntryPerNodeUnderCap(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	tree := parseString(t, e, "f.py", "def f(a, b):\n    return a + b\n")

	d := Summarize(tree, DefaultMaxNodes)
	assert.Len(t, d.Nodes, tree.NodeCount())
	assert.False(t, d.Truncated)
	assert.Equal(t, referenceBFS(tree.Root()), summaryTypes(d))
}

func TestSummarize_RootFirst(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	path := writeFile(t, t.TempDir(), "answer.js", "42")
	tree, err := e.ParseFile(t.Context(), path)
	require.NoError(t, err)
	defer tree.Close()

	d := Summarize(tree, DefaultMaxNodes)
	assert.Equal(t, path, d.File)
	assert.Equal(t, "program", d.Root.Type)
	assert.GreaterOrEqual(t, d.Root.ChildCount, 1)
	require.NotEmpty(t, d.Nodes)
	assert.Equal(t, d.Root, d.Nodes[0])
	assert.Equal(t, "expression_statement", d.Nodes[1].Type)
	assert.True(t, d.Root.Named)
	assert.Equal(t, Point{Row: 0, Column: 0}, d.Root.Start)
	assert.Equal(t, Point{Row: 0, Column: 2}, d.Root.End)
}

func TestSummarize_CapsLargeTrees(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	src := strings.Repeat("x = [1, 2, 3];\n", 400)
	tree := parseString(t, e, "big.js", src)
	require.Greater(t, tree.NodeCount(), DefaultMaxNodes)

	d := Summarize(tree, DefaultMaxNodes)
	assert.Len(t, d.Nodes, DefaultMaxNodes)
	assert.True(t, d.Truncated)

	// The capped dump is a prefix of the full breadth-first order.
	full := referenceBFS(tree.Root())
	assert.Equal(t, full[:DefaultMaxNodes], summaryTypes(d))
}

func TestSummarize_CustomCap(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	tree := parseString(t, e, "g.go", "package main\n\nfunc main() {\n\tprintln(1)\n}\n")

	for _, limit := range []int{1, 2, 5, 10} {
		d := Summarize(tree, limit)
		assert.Len(t, d.Nodes, limit)
		assert.True(t, d.Truncated)
		assert.Equal(t, referenceBFS(tree.Root())[:limit], summaryTypes(d))
	}
}

func TestSummarize_ExactlyAtCapIsNotTruncated(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	tree := parseString(t, e, "n.js", "42")

	d := Summarize(tree, tree.NodeCount())
	assert.Len(t, d.Nodes, tree.NodeCount())
	assert.False(t, d.Truncated)
}

func TestSummarize_ZeroCapUsesDefault(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	tree := parseString(t, e, "n.js", "42")

	d := Summarize(tree, 0)
	assert.Len(t, d.Nodes, tree.NodeCount())
}

func TestSummarize_AnonymousNodes(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	tree := parseString(t, e, "s.js", "f(1);")

	d := Summarize(tree, DefaultMaxNodes)
	var anon []string
	for _, n := range d.Nodes {
		if !n.Named {
			anon = append(anon, n.Type)
		}
	}
	assert.Contains(t, anon, "(")
	assert.Contains(t, anon, ";")
}

func TestDump_JSONShape(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	tree := parseString(t, e, "n.js", "42")

	raw, err := json.Marshal(Summarize(tree, DefaultMaxNodes))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"file", "grammar", "hasError", "truncated", "root", "nodes"} {
		assert.Contains(t, decoded, key)
	}
	root := decoded["root"].(map[string]any)
	for _, key := range []string{"type", "named", "start", "end", "childCount"} {
		assert.Contains(t, root, key)
	}
	assert.NotContains(t, root, "isError", "false flags are omitted")
}
