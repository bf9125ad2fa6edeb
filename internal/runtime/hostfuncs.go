package runtime

import (
	"context"
	"log"
	"sync"
	"unsafe"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/sapling"
	"github.com/jward/sapling/internal/grammar"
)

// sourceStore tracks source bytes, language and grammar identifier for
// each tree a script can reach. node_text, query and summarize need to
// recover them from a Node, but smacker/go-tree-sitter doesn't expose
// Node.Tree(). Entries are keyed by root node pointer (tree.RootNode() at
// registration time, a walk up Parent() at lookup time).
type sourceStore struct {
	mu      sync.RWMutex
	entries map[uintptr]sourceEntry
}

type sourceEntry struct {
	src     []byte
	lang    *sitter.Language
	grammar string
}

func newSourceStore() *sourceStore {
	return &sourceStore{entries: make(map[uintptr]sourceEntry)}
}

func rootKey(n *sitter.Node) uintptr {
	return uintptr(unsafe.Pointer(n))
}

func (s *sourceStore) store(tree *sitter.Tree, src []byte, lang *sitter.Language, grammarID string) {
	key := rootKey(tree.RootNode())
	s.mu.Lock()
	s.entries[key] = sourceEntry{src: src, lang: lang, grammar: grammarID}
	s.mu.Unlock()
}

func (s *sourceStore) forget(tree *sitter.Tree) {
	if tree == nil {
		return
	}
	key := rootKey(tree.RootNode())
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// rootOf walks a node up to its root via Parent().
func rootOf(node *sitter.Node) *sitter.Node {
	for node.Parent() != nil {
		node = node.Parent()
	}
	return node
}

func (s *sourceStore) lookup(node *sitter.Node) (sourceEntry, bool) {
	key := rootKey(rootOf(node))
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	return e, ok
}

// nodeArg unwraps a proxied *sitter.Node argument.
func nodeArg(fn string, arg object.Object) (*sitter.Node, *object.Error) {
	proxy, ok := arg.(*object.Proxy)
	if !ok {
		return nil, object.Errorf("%s: expected proxy (Node), got %s", fn, arg.Type())
	}
	node, ok := proxy.Interface().(*sitter.Node)
	if !ok || node == nil {
		return nil, object.Errorf("%s: expected *sitter.Node, got %T", fn, proxy.Interface())
	}
	return node, nil
}

// makeParseSrcFn creates "parse_src", which parses a source string with a
// grammar resolved through the shared loader. Trees it creates live until
// the script run ends.
//
// parse_src(source, grammar) → *sitter.Tree
func makeParseSrcFn(loader *grammar.Loader, ss *sourceStore, run *scriptRun) *object.Builtin {
	return object.NewBuiltin("parse_src", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("parse_src", 2, len(args))
		}

		srcStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("parse_src: source must be a string, got %s", args[0].Type())
		}

		idStr, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("parse_src: grammar must be a string, got %s", args[1].Type())
		}

		h, err := loader.Load(idStr.Value())
		if err != nil {
			return object.Errorf("parse_src: %v", err)
		}

		src := []byte(srcStr.Value())
		parser := sitter.NewParser()
		defer parser.Close()
		parser.SetLanguage(h.Language())

		tree, err := parser.ParseCtx(ctx, nil, src)
		if err != nil {
			return object.Errorf("parse_src: tree-sitter parse failed: %v", err)
		}
		if tree == nil {
			return object.Errorf("parse_src: tree-sitter returned no tree")
		}

		ss.store(tree, src, h.Language(), h.ID())
		run.own(tree)

		proxy, err := object.NewProxy(tree)
		if err != nil {
			return object.Errorf("parse_src: proxy error: %v", err)
		}
		return proxy
	})
}

// makeNodeTextFn creates the "node_text" host function.
//
// node_text(node) → string
//
// Exists because Risor's proxy system cannot convert strings to []byte
// for node.Content([]byte).
func makeNodeTextFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}

		node, errObj := nodeArg("node_text", args[0])
		if errObj != nil {
			return errObj
		}

		e, found := ss.lookup(node)
		if !found {
			return object.Errorf("node_text: no source found for node's tree")
		}

		return object.NewString(node.Content(e.src))
	})
}

// makeQueryFn creates the "query" host function.
//
// query(pattern, node) → []map[string]any
//
// Each map has capture names as keys and proxied Nodes as values.
func makeQueryFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("query", 2, len(args))
		}

		patternStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("query: pattern must be a string, got %s", args[0].Type())
		}

		node, errObj := nodeArg("query", args[1])
		if errObj != nil {
			return errObj
		}

		e, found := ss.lookup(node)
		if !found {
			return object.Errorf("query: no source found for node's tree")
		}

		q, err := sitter.NewQuery([]byte(patternStr.Value()), e.lang)
		if err != nil {
			return object.Errorf("query: invalid pattern for grammar %q: %v", e.grammar, err)
		}
		defer q.Close()

		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, node)

		var results []object.Object
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, e.src)
			if len(match.Captures) == 0 {
				continue
			}

			matchMap := make(map[string]object.Object)
			for _, capture := range match.Captures {
				name := q.CaptureNameForId(capture.Index)
				nodeP, err := object.NewProxy(capture.Node)
				if err != nil {
					return object.Errorf("query: proxy error for capture %q: %v", name, err)
				}
				matchMap[name] = nodeP
			}
			results = append(results, object.NewMap(matchMap))
		}

		if results == nil {
			results = []object.Object{}
		}
		return object.NewList(results)
	})
}

// makeNodeChildFn creates "node_child", a wrapper for ChildByFieldName
// that returns Risor nil instead of a proxied Go nil pointer.
//
// node_child(node, fieldName) → Node or nil
func makeNodeChildFn() *object.Builtin {
	return object.NewBuiltin("node_child", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("node_child", 2, len(args))
		}

		node, errObj := nodeArg("node_child", args[0])
		if errObj != nil {
			return errObj
		}

		fieldStr, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("node_child: field must be a string, got %s", args[1].Type())
		}

		child := node.ChildByFieldName(fieldStr.Value())
		if child == nil {
			return object.Nil
		}

		p, err := object.NewProxy(child)
		if err != nil {
			return object.Errorf("node_child: proxy error: %v", err)
		}
		return p
	})
}

// makeNodeRangeFn creates "node_range".
//
// node_range(node) → {"start": {"row", "column"}, "end": {"row", "column"}}
func makeNodeRangeFn() *object.Builtin {
	return object.NewBuiltin("node_range", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_range", 1, len(args))
		}

		node, errObj := nodeArg("node_range", args[0])
		if errObj != nil {
			return errObj
		}

		return object.NewMap(map[string]object.Object{
			"start": pointObject(node.StartPoint()),
			"end":   pointObject(node.EndPoint()),
		})
	})
}

// makeSummarizeFn creates "summarize", the breadth-first summary used by
// JSON output, as a Risor map.
//
// summarize(node[, maxNodes]) → map
func makeSummarizeFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("summarize", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.Errorf("summarize: expected 1 or 2 arguments, got %d", len(args))
		}

		node, errObj := nodeArg("summarize", args[0])
		if errObj != nil {
			return errObj
		}

		maxNodes := sapling.DefaultMaxNodes
		if len(args) == 2 {
			n, ok := args[1].(*object.Int)
			if !ok {
				return object.Errorf("summarize: maxNodes must be an int, got %s", args[1].Type())
			}
			maxNodes = int(n.Value())
		}

		var grammarID string
		if e, found := ss.lookup(node); found {
			grammarID = e.grammar
		}

		d := sapling.SummarizeNode("", grammarID, node, maxNodes)
		nodes := make([]object.Object, 0, len(d.Nodes))
		for _, ns := range d.Nodes {
			nodes = append(nodes, summaryObject(ns))
		}
		return object.NewMap(map[string]object.Object{
			"grammar":   object.NewString(d.Grammar),
			"hasError":  object.NewBool(d.HasError),
			"truncated": object.NewBool(d.Truncated),
			"root":      summaryObject(d.Root),
			"nodes":     object.NewList(nodes),
		})
	})
}

// makeEmitFn creates "emit", which hands a value back to the Go caller.
// Proxied nodes are converted to node summaries so the result outlives
// the tree.
//
// emit(value) → nil
func makeEmitFn(run *scriptRun) *object.Builtin {
	return object.NewBuiltin("emit", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit", 1, len(args))
		}
		run.emit(toGo(args[0]))
		return object.Nil
	})
}

func pointObject(p sitter.Point) object.Object {
	return object.NewMap(map[string]object.Object{
		"row":    object.NewInt(int64(p.Row)),
		"column": object.NewInt(int64(p.Column)),
	})
}

func summaryObject(ns sapling.NodeSummary) object.Object {
	return object.NewMap(map[string]object.Object{
		"type":       object.NewString(ns.Type),
		"named":      object.NewBool(ns.Named),
		"start":      pointObject(sitter.Point{Row: ns.Start.Row, Column: ns.Start.Column}),
		"end":        pointObject(sitter.Point{Row: ns.End.Row, Column: ns.End.Column}),
		"childCount": object.NewInt(int64(ns.ChildCount)),
		"isError":    object.NewBool(ns.IsError),
		"isMissing":  object.NewBool(ns.IsMissing),
	})
}

// toGo converts a Risor value into plain Go data.
func toGo(obj object.Object) any {
	switch v := obj.(type) {
	case nil, *object.NilType:
		return nil
	case *object.Map:
		items := v.Value()
		out := make(map[string]any, len(items))
		for k, item := range items {
			out[k] = toGo(item)
		}
		return out
	case *object.List:
		items := v.Value()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, toGo(item))
		}
		return out
	case *object.Proxy:
		if n, ok := v.Interface().(*sitter.Node); ok && n != nil {
			return sapling.SummarizeNode("", "", n, 1).Root
		}
		return v.Interface()
	default:
		return obj.Interface()
	}
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	prefix string
}

func (l *logObject) Info(msg string) {
	log.Printf("[%s] INFO: %s", l.prefix, msg)
}

func (l *logObject) Warn(msg string) {
	log.Printf("[%s] WARN: %s", l.prefix, msg)
}

func (l *logObject) Error(msg string) {
	log.Printf("[%s] ERROR: %s", l.prefix, msg)
}
