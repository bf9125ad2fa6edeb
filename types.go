package sapling

import (
	"github.com/jward/sapling/internal/grammar"
	"github.com/jward/sapling/internal/store"
)

// Public type aliases for internal types that appear in the Engine API.
// These are Go type aliases (=), identical to the internal types at compile
// time, so no conversion is needed.

type Registry = grammar.Registry
type RegistryEntry = grammar.Entry
type Loader = grammar.Loader
type GrammarHandle = grammar.Handle
type UnsupportedLanguageError = grammar.UnsupportedLanguageError
type GrammarLoadError = grammar.LoadError
type HistoryStore = store.Store
type Run = store.Run
