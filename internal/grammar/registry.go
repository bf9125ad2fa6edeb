package grammar

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// defaultEntries is the built-in extension table. Keys are lowercase
// extensions without the leading dot.
//
// JSON has no grammar of its own in the bundled toolkit; every JSON
// document is also a YAML document, so .json shares the yaml handle.
var defaultEntries = map[string]string{
	"go":   "go",
	"js":   "javascript",
	"jsx":  "javascript",
	"mjs":  "javascript",
	"cjs":  "javascript",
	"ts":   "typescript",
	"mts":  "typescript",
	"tsx":  "tsx",
	"py":   "python",
	"rs":   "rust",
	"c":    "c",
	"h":    "c",
	"cpp":  "cpp",
	"cc":   "cpp",
	"cxx":  "cpp",
	"hpp":  "cpp",
	"hh":   "cpp",
	"java": "java",
	"php":  "php",
	"rb":   "ruby",
	"sh":   "bash",
	"bash": "bash",
	"css":  "css",
	"html": "html",
	"htm":  "html",
	"lua":  "lua",
	"toml": "toml",
	"yaml": "yaml",
	"yml":  "yaml",
	"json": "yaml",
}

// Entry is one extension → grammar identifier mapping.
type Entry struct {
	Extension string `json:"extension"`
	Grammar   string `json:"grammar"`
}

// Registry maps file extensions to grammar identifiers. It is immutable
// once constructed and safe for concurrent use.
type Registry struct {
	entries map[string]string
}

// NewRegistry builds a Registry from ext → identifier pairs. Keys are
// normalized (lowercased, leading dot removed); two keys that normalize to
// the same extension but name different grammars are rejected.
func NewRegistry(entries map[string]string) (*Registry, error) {
	r := &Registry{entries: make(map[string]string, len(entries))}
	if err := r.merge(entries, false); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultRegistry returns the built-in extension table.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultEntries)
	if err != nil {
		panic(fmt.Sprintf("grammar: default registry: %v", err))
	}
	return r
}

// With returns a new Registry in which overrides replace existing
// mappings. The receiver is left untouched.
func (r *Registry) With(overrides map[string]string) (*Registry, error) {
	next := &Registry{entries: make(map[string]string, len(r.entries)+len(overrides))}
	for ext, id := range r.entries {
		next.entries[ext] = id
	}
	if err := next.merge(overrides, true); err != nil {
		return nil, err
	}
	return next, nil
}

func (r *Registry) merge(entries map[string]string, replace bool) error {
	seen := make(map[string]string, len(entries))
	for key, id := range entries {
		ext := NormalizeExt(key)
		id = strings.TrimSpace(id)
		if ext == "" {
			return fmt.Errorf("grammar: registry: empty extension key %q", key)
		}
		if id == "" {
			return fmt.Errorf("grammar: registry: empty grammar for extension %q", ext)
		}
		if prev, dup := seen[ext]; dup && prev != id {
			return fmt.Errorf("grammar: registry: extension %q maps to both %q and %q", ext, prev, id)
		}
		seen[ext] = id
		if existing, ok := r.entries[ext]; ok && !replace && existing != id {
			return fmt.Errorf("grammar: registry: extension %q maps to both %q and %q", ext, existing, id)
		}
		r.entries[ext] = id
	}
	return nil
}

// NormalizeExt lowercases an extension and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// Lookup returns the grammar identifier for an extension. The extension is
// expected in lowercase without the leading dot.
func (r *Registry) Lookup(ext string) (string, bool) {
	id, ok := r.entries[ext]
	return id, ok
}

// ForPath resolves the grammar identifier for a file path by its
// extension. Unknown or missing extensions yield an
// *UnsupportedLanguageError.
func (r *Registry) ForPath(path string) (string, error) {
	ext := NormalizeExt(filepath.Ext(path))
	id, ok := r.Lookup(ext)
	if !ok {
		return "", &UnsupportedLanguageError{Path: path, Extension: ext}
	}
	return id, nil
}

// Entries returns all mappings sorted by extension.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for ext, id := range r.entries {
		out = append(out, Entry{Extension: ext, Grammar: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Extension < out[j].Extension })
	return out
}

// Len returns the number of mappings.
func (r *Registry) Len() int { return len(r.entries) }
