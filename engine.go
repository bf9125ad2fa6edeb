package sapling

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/jward/sapling/internal/grammar"
	"github.com/jward/sapling/internal/store"
)

// Engine orchestrates the sapling pipeline: extension lookup, grammar
// loading, parsing, and optional history recording.
type Engine struct {
	registry  *grammar.Registry
	overrides map[string]string
	loader    *grammar.Loader
	loadFn    grammar.LoadFunc
	history   *store.Store
	jobs      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the built-in extension registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithExtensions adds or replaces extension mappings on top of the
// registry. Keys may carry a leading dot and any case.
func WithExtensions(overrides map[string]string) Option {
	return func(e *Engine) {
		if e.overrides == nil {
			e.overrides = make(map[string]string, len(overrides))
		}
		for ext, id := range overrides {
			e.overrides[ext] = id
		}
	}
}

// WithLoader shares an existing grammar Loader (and its cache) with the
// Engine.
func WithLoader(l *Loader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLoadFunc sets the grammar load step used when the Engine builds its
// own Loader. Ignored when WithLoader is given.
func WithLoadFunc(fn grammar.LoadFunc) Option {
	return func(e *Engine) {
		e.loadFn = fn
	}
}

// WithHistory records every parse outcome to s.
func WithHistory(s *HistoryStore) Option {
	return func(e *Engine) {
		e.history = s
	}
}

// WithJobs bounds how many files ParseFiles parses at once. Values below 1
// fall back to GOMAXPROCS.
func WithJobs(n int) Option {
	return func(e *Engine) {
		e.jobs = n
	}
}

// New creates an Engine. By default it uses the built-in registry and a
// Loader over the compiled-in grammars.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	if e.registry == nil {
		e.registry = grammar.DefaultRegistry()
	}
	if len(e.overrides) > 0 {
		r, err := e.registry.With(e.overrides)
		if err != nil {
			return nil, fmt.Errorf("sapling: extension overrides: %w", err)
		}
		e.registry = r
	}
	if e.loader == nil {
		e.loader = grammar.NewLoader(e.loadFn)
	}
	if e.jobs < 1 {
		e.jobs = runtime.GOMAXPROCS(0)
	}
	return e, nil
}

// Registry returns the Engine's extension registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Loader returns the Engine's grammar loader.
func (e *Engine) Loader() *Loader {
	return e.loader
}

// Resolve maps a file path to a loaded grammar handle. The loader is only
// consulted once the extension is known to the registry.
func (e *Engine) Resolve(path string) (*GrammarHandle, error) {
	id, err := e.registry.ForPath(path)
	if err != nil {
		return nil, err
	}
	return e.loader.Load(id)
}

// ParseFile reads path, resolves its grammar, and parses it. The caller
// owns the returned Tree and must Close it.
func (e *Engine) ParseFile(ctx context.Context, path string) (*Tree, error) {
	var rec store.Recorder
	if e.history != nil {
		rec = e.history
	}
	return e.parseFile(ctx, path, rec)
}

func (e *Engine) parseFile(ctx context.Context, path string, rec store.Recorder) (tree *Tree, err error) {
	start := time.Now()
	var (
		src []byte
		id  string
	)
	if rec != nil {
		defer func() {
			e.record(rec, path, id, src, tree, err, time.Since(start))
		}()
	}

	src, err = os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}

	id, err = e.registry.ForPath(path)
	if err != nil {
		return nil, err
	}
	h, err := e.loader.Load(id)
	if err != nil {
		return nil, err
	}
	return e.ParseSource(ctx, path, h, src)
}

// ParseSource parses src with an already loaded grammar. path is only used
// to label the result. Syntax errors in src are not errors: they show up as
// ERROR and MISSING nodes and Tree.HasError reports true.
func (e *Engine) ParseSource(ctx context.Context, path string, h *GrammarHandle, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(h.Language())

	st, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, &ParseFatalError{Path: path, Grammar: h.ID(), Err: err}
	}
	if st == nil {
		return nil, &ParseFatalError{Path: path, Grammar: h.ID(), Err: fmt.Errorf("parser returned no tree")}
	}

	return &Tree{
		Path:    path,
		Grammar: h.ID(),
		Source:  src,
		lang:    h.Language(),
		tree:    st,
	}, nil
}

// FileResult is the outcome of parsing one file in a batch.
type FileResult struct {
	Path string
	Tree *Tree
	Err  error
}

// ParseFiles parses every path, up to WithJobs files at a time, sharing
// the Engine's grammar cache. Results come back in argument order; a
// failure on one file does not stop the others. With history enabled the
// batch is committed in a single transaction once all files are done, one
// run per path in argument order.
func (e *Engine) ParseFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))

	var runs []*store.Run
	if e.history != nil {
		runs = make([]*store.Run, len(paths))
	}

	var g errgroup.Group
	g.SetLimit(e.jobs)
	for i, path := range paths {
		g.Go(func() error {
			var rec store.Recorder
			if runs != nil {
				rec = runSlot{run: &runs[i]}
			}
			tree, err := e.parseFile(ctx, path, rec)
			results[i] = FileResult{Path: path, Tree: tree, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if runs != nil {
		e.commitRuns(runs)
	}
	return results
}

// runSlot holds the single run recorded for one batch entry, so a batch is
// buffered in argument order rather than completion order.
type runSlot struct {
	run **store.Run
}

func (s runSlot) InsertRun(run *store.Run) (int64, error) {
	*s.run = run
	return 0, nil
}

// commitRuns writes a batch's runs to history in one transaction.
func (e *Engine) commitRuns(runs []*store.Run) {
	batch := store.NewBatchedStore()
	for _, run := range runs {
		if run == nil {
			continue
		}
		if _, err := batch.InsertRun(run); err != nil {
			log.Printf("warning: recording run for %s: %v", run.Path, err)
		}
	}
	if _, err := e.history.CommitBatch(batch); err != nil {
		log.Printf("warning: recording batch history: %v", err)
	}
}

// record writes one run to rec. Recording failures are logged, never
// returned: history must not turn a good parse into a failed one.
func (e *Engine) record(rec store.Recorder, path, grammarID string, src []byte, tree *Tree, err error, d time.Duration) {
	run := &store.Run{
		Path:     path,
		Grammar:  grammarID,
		Status:   statusOf(err),
		Duration: d,
	}
	if src != nil {
		run.Hash = store.ContentHash(src)
	}
	if err != nil {
		run.Message = err.Error()
	}
	if tree != nil {
		run.NodeCount = tree.NodeCount()
		run.HasError = tree.HasError()
	}
	if _, rerr := rec.InsertRun(run); rerr != nil {
		log.Printf("warning: recording run for %s: %v", path, rerr)
	}
}
