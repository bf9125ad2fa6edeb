package grammar

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/lua"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

// catalog maps grammar identifiers to the constructors of the grammars
// compiled into this binary. Calling a constructor is the expensive step
// the Loader memoizes.
var catalog = map[string]func() *sitter.Language{
	"bash":       bash.GetLanguage,
	"c":          c.GetLanguage,
	"cpp":        cpp.GetLanguage,
	"css":        css.GetLanguage,
	"go":         golang.GetLanguage,
	"html":       html.GetLanguage,
	"java":       java.GetLanguage,
	"javascript": javascript.GetLanguage,
	"lua":        lua.GetLanguage,
	"php":        php.GetLanguage,
	"python":     python.GetLanguage,
	"ruby":       ruby.GetLanguage,
	"rust":       rust.GetLanguage,
	"toml":       toml.GetLanguage,
	"tsx":        tsx.GetLanguage,
	"typescript": ts.GetLanguage,
	"yaml":       yaml.GetLanguage,
}

// Builtin is the default LoadFunc. It resolves identifiers against the
// grammars compiled into the binary.
func Builtin(id string) (*sitter.Language, error) {
	ctor, ok := catalog[id]
	if !ok {
		return nil, fmt.Errorf("grammar %q is not compiled into this binary (available: %v)", id, Available())
	}
	lang := ctor()
	if lang == nil {
		return nil, fmt.Errorf("grammar %q constructor returned no language", id)
	}
	return lang, nil
}

// Available returns the sorted identifiers of all compiled-in grammars.
func Available() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
