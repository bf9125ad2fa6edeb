package sapling

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Capture is one node captured by a query pattern.
type Capture struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Text         string `json:"text"`
	Start        Point  `json:"start"`
	End          Point  `json:"end"`
	PatternIndex int    `json:"pattern"`
	Match        int    `json:"match"`
}

// Query runs a tree-sitter query pattern over t and returns the captures
// of every match, in match order. Text predicates such as #eq? and #match?
// are applied against the tree's source. A pattern that does not compile
// against the tree's grammar yields a *QueryError.
func Query(t *Tree, pattern string) ([]Capture, error) {
	return QueryNode(t.Root(), t.Language(), t.Grammar, t.Source, pattern)
}

// QueryNode runs pattern over the subtree under node. src must be the
// source the node's tree was parsed from.
func QueryNode(node *sitter.Node, lang *sitter.Language, grammarID string, src []byte, pattern string) ([]Capture, error) {
	q, err := sitter.NewQuery([]byte(pattern), lang)
	if err != nil {
		return nil, &QueryError{Grammar: grammarID, Pattern: pattern, Err: err}
	}
	defer q.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, node)

	captures := []Capture{}
	matchIdx := 0
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, src)
		if len(match.Captures) == 0 {
			continue
		}
		for _, c := range match.Captures {
			start, end := c.Node.StartPoint(), c.Node.EndPoint()
			captures = append(captures, Capture{
				Name:         q.CaptureNameForId(c.Index),
				Type:         c.Node.Type(),
				Text:         c.Node.Content(src),
				Start:        Point{Row: start.Row, Column: start.Column},
				End:          Point{Row: end.Row, Column: end.Column},
				PatternIndex: int(match.PatternIndex),
				Match:        matchIdx,
			})
		}
		matchIdx++
	}
	return captures, nil
}
