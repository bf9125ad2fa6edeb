package sapling

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// WriteSExpr writes the canonical parenthesized form of t followed by a
// newline. Named nodes nest under their parents and fields appear as
// "field: (...)" prefixes. The output is never truncated.
func WriteSExpr(w io.Writer, t *Tree) error {
	_, err := io.WriteString(w, t.Root().String()+"\n")
	return err
}

// PrettyOptions controls WritePretty.
type PrettyOptions struct {
	// Anonymous includes anonymous (literal token) nodes, quoted.
	Anonymous bool
	// Indent is the per-level indentation; defaults to two spaces.
	Indent string
}

// WritePretty writes t one node per line, indented by depth, with
// zero-based [row, column] ranges:
//
//	(program [0, 0] - [0, 2]
//	  (expression_statement [0, 0] - [0, 2]
//	    (number [0, 0] - [0, 2])))
//
// The walk uses a tree cursor rather than recursion, so deeply nested input
// cannot exhaust the stack.
func WritePretty(w io.Writer, t *Tree, opts PrettyOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	bw := bufio.NewWriter(w)

	c := sitter.NewTreeCursor(t.Root())
	defer c.Close()

	depth := 0
	pendingNewline := false
	visitedChildren := false
	for {
		n := c.CurrentNode()
		opens := n.IsNamed() || n.IsMissing()

		if visitedChildren {
			if opens {
				bw.WriteByte(')')
			}
			if c.GoToNextSibling() {
				visitedChildren = false
			} else if c.GoToParent() {
				depth--
			} else {
				break
			}
			continue
		}

		if opens || opts.Anonymous {
			if pendingNewline {
				bw.WriteByte('\n')
			}
			bw.WriteString(strings.Repeat(opts.Indent, depth))
			if field := c.CurrentFieldName(); field != "" {
				bw.WriteString(field)
				bw.WriteString(": ")
			}
			writeNodeHead(bw, n)
			pendingNewline = true
		}

		if c.GoToFirstChild() {
			depth++
		} else {
			visitedChildren = true
		}
	}

	bw.WriteByte('\n')
	return bw.Flush()
}

func writeNodeHead(bw *bufio.Writer, n *sitter.Node) {
	start, end := n.StartPoint(), n.EndPoint()
	switch {
	case n.IsMissing():
		fmt.Fprintf(bw, "(MISSING %s", quoteType(n))
	case n.IsNamed():
		fmt.Fprintf(bw, "(%s", n.Type())
	default:
		bw.WriteString(strconv.Quote(n.Type()))
	}
	fmt.Fprintf(bw, " [%d, %d] - [%d, %d]", start.Row, start.Column, end.Row, end.Column)
}

func quoteType(n *sitter.Node) string {
	if n.IsNamed() {
		return n.Type()
	}
	return strconv.Quote(n.Type())
}
