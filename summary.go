package sapling

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// DefaultMaxNodes caps the number of node summaries in a Dump.
const DefaultMaxNodes = 2000

// Point is a zero-based row/column position.
type Point struct {
	Row    uint32 `json:"row"`
	Column uint32 `json:"column"`
}

// NodeSummary is the flattened description of one node in a Dump.
type NodeSummary struct {
	Type       string `json:"type"`
	Named      bool   `json:"named"`
	Start      Point  `json:"start"`
	End        Point  `json:"end"`
	ChildCount int    `json:"childCount"`
	IsError    bool   `json:"isError,omitempty"`
	IsMissing  bool   `json:"isMissing,omitempty"`
}

// Dump is the JSON-mode rendering of a tree: the root plus up to MaxNodes
// node summaries in breadth-first order, root first.
type Dump struct {
	File      string        `json:"file"`
	Grammar   string        `json:"grammar"`
	HasError  bool          `json:"hasError"`
	Truncated bool          `json:"truncated"`
	Root      NodeSummary   `json:"root"`
	Nodes     []NodeSummary `json:"nodes"`
}

// Summarize renders t as a Dump. maxNodes below 1 uses DefaultMaxNodes.
func Summarize(t *Tree, maxNodes int) *Dump {
	return SummarizeNode(t.Path, t.Grammar, t.Root(), maxNodes)
}

// SummarizeNode walks the subtree under root breadth-first, recording at
// most maxNodes summaries. Nodes are only queued while the cap has room, so
// memory stays bounded by the cap rather than by the tree.
func SummarizeNode(file, grammarID string, root *sitter.Node, maxNodes int) *Dump {
	if maxNodes < 1 {
		maxNodes = DefaultMaxNodes
	}

	d := &Dump{
		File:     file,
		Grammar:  grammarID,
		HasError: root.HasError(),
		Root:     summarizeNode(root),
		Nodes:    make([]NodeSummary, 0, min(maxNodes, 64)),
	}

	queue := []*sitter.Node{root}
	queued := 1
	for head := 0; head < len(queue); head++ {
		n := queue[head]
		queue[head] = nil
		d.Nodes = append(d.Nodes, summarizeNode(n))

		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			if queued == maxNodes {
				d.Truncated = true
				break
			}
			child := n.Child(i)
			if child == nil {
				continue
			}
			queue = append(queue, child)
			queued++
		}
	}
	return d
}

func summarizeNode(n *sitter.Node) NodeSummary {
	start, end := n.StartPoint(), n.EndPoint()
	return NodeSummary{
		Type:       n.Type(),
		Named:      n.IsNamed(),
		Start:      Point{Row: start.Row, Column: start.Column},
		End:        Point{Row: end.Row, Column: end.Column},
		ChildCount: int(n.ChildCount()),
		IsError:    n.Type() == "ERROR",
		IsMissing:  n.IsMissing(),
	}
}
