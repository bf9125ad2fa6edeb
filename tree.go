package sapling

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Tree is the parse result for one source file. It owns the underlying
// tree-sitter tree; Close releases it and invalidates every node obtained
// from it.
type Tree struct {
	Path    string
	Grammar string
	Source  []byte

	lang *sitter.Language
	tree *sitter.Tree
}

// Root returns the tree's root node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Language returns the grammar the tree was parsed with.
func (t *Tree) Language() *sitter.Language {
	return t.lang
}

// Raw returns the underlying tree-sitter tree.
func (t *Tree) Raw() *sitter.Tree {
	return t.tree
}

// HasError reports whether the tree contains ERROR or MISSING nodes.
func (t *Tree) HasError() bool {
	return t.Root().HasError()
}

// NodeCount returns the number of nodes in the tree, named and anonymous.
func (t *Tree) NodeCount() int {
	c := sitter.NewTreeCursor(t.Root())
	defer c.Close()

	n := 0
	for {
		n++
		if c.GoToFirstChild() {
			continue
		}
		for !c.GoToNextSibling() {
			if !c.GoToParent() {
				return n
			}
		}
	}
}

// Close releases the tree. It is safe to call more than once.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}
