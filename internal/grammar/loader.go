package grammar

import (
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/singleflight"
)

// Handle is a loaded grammar. Handles are immutable and may be shared by
// any number of parsers.
type Handle struct {
	id   string
	lang *sitter.Language
}

// ID returns the grammar identifier the handle was loaded for.
func (h *Handle) ID() string { return h.id }

// Language returns the tree-sitter language backing the handle.
func (h *Handle) Language() *sitter.Language { return h.lang }

// LoadFunc performs the one-time load of a grammar by identifier.
type LoadFunc func(id string) (*sitter.Language, error)

// Loader resolves grammar identifiers to handles, running the load step
// at most once per identifier for the lifetime of the Loader. Failed loads
// are not cached.
type Loader struct {
	load LoadFunc

	mu    sync.RWMutex
	cache map[string]*Handle

	group singleflight.Group
}

// NewLoader creates a Loader around load. A nil load uses Builtin.
func NewLoader(load LoadFunc) *Loader {
	if load == nil {
		load = Builtin
	}
	return &Loader{
		load:  load,
		cache: make(map[string]*Handle),
	}
}

// Load returns the handle for id, loading it on first use. Concurrent
// first requests for the same id share a single load.
func (l *Loader) Load(id string) (*Handle, error) {
	l.mu.RLock()
	h, ok := l.cache[id]
	l.mu.RUnlock()
	if ok {
		return h, nil
	}

	v, err, _ := l.group.Do(id, func() (any, error) {
		// Another caller may have finished loading while we waited.
		l.mu.RLock()
		h, ok := l.cache[id]
		l.mu.RUnlock()
		if ok {
			return h, nil
		}

		lang, err := l.safeLoad(id)
		if err != nil {
			return nil, &LoadError{Grammar: id, Err: err}
		}
		if lang == nil {
			return nil, &LoadError{Grammar: id, Err: fmt.Errorf("load returned no language")}
		}

		h = &Handle{id: id, lang: lang}
		l.mu.Lock()
		l.cache[id] = h
		l.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// safeLoad runs the load step, turning a panic into an error.
func (l *Loader) safeLoad(id string) (lang *sitter.Language, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load panicked: %v", r)
		}
	}()
	return l.load(id)
}

// Loaded returns the sorted identifiers currently cached.
func (l *Loader) Loaded() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.cache))
	for id := range l.cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
