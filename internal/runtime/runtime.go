package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/sapling"
	"github.com/jward/sapling/internal/grammar"
	"github.com/jward/sapling/internal/store"
)

// Runtime embeds a Risor VM and exposes parsed syntax trees plus
// tree-sitter host functions to user scripts.
type Runtime struct {
	loader     *grammar.Loader
	history    *store.Store
	scriptsDir string
	fsys       fs.FS
	sources    *sourceStore
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithScriptsDir sets the directory relative script paths and imports are
// resolved against when no fs.FS is configured.
func WithScriptsDir(dir string) RuntimeOption {
	return func(r *Runtime) {
		r.scriptsDir = dir
	}
}

// WithHistory exposes the parse history to scripts through history_runs
// and grammar_stats.
func WithHistory(s *store.Store) RuntimeOption {
	return func(r *Runtime) {
		r.history = s
	}
}

// NewRuntime creates a Runtime that resolves grammars through loader.
// A nil loader gets a private one backed by the compiled-in grammars.
func NewRuntime(loader *grammar.Loader, opts ...RuntimeOption) *Runtime {
	if loader == nil {
		loader = grammar.NewLoader(nil)
	}
	r := &Runtime{
		loader:  loader,
		sources: newSourceStore(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TreeGlobals registers t with the Runtime and returns the globals that
// describe it: tree, root, source, file_path and grammar. The tree must
// stay open until the script using these globals has finished.
func (r *Runtime) TreeGlobals(t *sapling.Tree) map[string]any {
	r.sources.store(t.Raw(), t.Source, t.Language(), t.Grammar)
	return map[string]any{
		"tree":      mustProxy(t.Raw()),
		"root":      mustProxy(t.Root()),
		"source":    string(t.Source),
		"file_path": t.Path,
		"grammar":   t.Grammar,
	}
}

// Release drops a tree registered by TreeGlobals. Call it before closing
// the tree.
func (r *Runtime) Release(t *sapling.Tree) {
	r.sources.forget(t.Raw())
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller. It returns the values the
// script passed to emit, in emission order.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) ([]any, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) ([]any, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) ([]any, error) {
	run := &scriptRun{}
	defer run.close(r.sources)
	globals := r.buildGlobals(run, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return run.values(), nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		// fs.FS paths are always relative ("/outline.risor" -> "outline.risor").
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// BuiltinScriptPath returns the path of a built-in script by name
// ("outline" -> "outline.risor").
func BuiltinScriptPath(name string) string {
	return name + ".risor"
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(run *scriptRun, extra map[string]any) map[string]any {
	globals := map[string]any{
		"parse_src":  makeParseSrcFn(r.loader, r.sources, run),
		"node_text":  makeNodeTextFn(r.sources),
		"node_child": makeNodeChildFn(),
		"node_range": makeNodeRangeFn(),
		"query":      makeQueryFn(r.sources),
		"summarize":  makeSummarizeFn(r.sources),
		"emit":       makeEmitFn(run),
		"log":        mustProxy(&logObject{prefix: "sapling"}),
	}

	if r.history != nil {
		globals["history_runs"] = makeHistoryRunsFn(r.history)
		globals["grammar_stats"] = makeGrammarStatsFn(r.history)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

// scriptRun holds the state of one script execution: emitted values and
// the trees parse_src created, which are released when the run ends.
type scriptRun struct {
	mu    sync.Mutex
	vals  []any
	trees []*sitter.Tree
}

func (s *scriptRun) emit(v any) {
	s.mu.Lock()
	s.vals = append(s.vals, v)
	s.mu.Unlock()
}

func (s *scriptRun) own(t *sitter.Tree) {
	s.mu.Lock()
	s.trees = append(s.trees, t)
	s.mu.Unlock()
}

func (s *scriptRun) values() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vals == nil {
		return []any{}
	}
	return s.vals
}

func (s *scriptRun) close(ss *sourceStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trees {
		ss.forget(t)
		t.Close()
	}
	s.trees = nil
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
