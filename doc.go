// Package sapling dispatches source files to tree-sitter grammars by file
// extension and renders the resulting syntax trees, either as the canonical
// S-expression text or as a size-bounded JSON summary.
//
// # Pipeline
//
// A parse runs four steps in order:
//
//  1. Registry: the file extension selects a grammar identifier. Unknown
//     extensions fail with [UnsupportedLanguageError] before any grammar is
//     touched.
//
//  2. Loader: the identifier is resolved to a loaded grammar handle. The
//     first request for an identifier pays for the load; later requests hit
//     the cache. Failures surface as [GrammarLoadError].
//
//  3. Parse: the source is handed to tree-sitter. Syntax errors in the input
//     become ERROR or MISSING nodes inside an otherwise normal [Tree]; only a
//     failure of the toolkit itself is a [ParseFatalError].
//
//  4. Render: [WriteSExpr] and [WritePretty] produce text, [Summarize]
//     produces a breadth-first [Dump] capped at [DefaultMaxNodes] entries.
//
// # Usage
//
//	e, err := sapling.New()
//	if err != nil { ... }
//
//	tree, err := e.ParseFile(ctx, "main.go")
//	if err != nil { ... }
//	defer tree.Close()
//
//	sapling.WriteSExpr(os.Stdout, tree)
//	dump := sapling.Summarize(tree, sapling.DefaultMaxNodes)
//
// [Query] runs tree-sitter query patterns over a parsed tree, and
// [Engine.ParseFiles] parses many files concurrently against one shared
// grammar cache. When configured with [WithHistory], every parse outcome is
// recorded to a SQLite history database.
package sapling
