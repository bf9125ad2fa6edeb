package sapling

import (
	"errors"
	"fmt"

	"github.com/jward/sapling/internal/store"
)

// NotFoundError reports a source file that does not exist or cannot be
// read.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseFatalError reports a failure of the parsing toolkit itself, as
// opposed to syntax errors in the input (which are ordinary tree content).
type ParseFatalError struct {
	Path    string
	Grammar string
	Err     error
}

func (e *ParseFatalError) Error() string {
	return fmt.Sprintf("parsing %s with grammar %q failed: %v", e.Path, e.Grammar, e.Err)
}

func (e *ParseFatalError) Unwrap() error { return e.Err }

// QueryError reports a query pattern that does not compile against the
// tree's grammar.
type QueryError struct {
	Grammar string
	Pattern string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid query for grammar %q: %v", e.Grammar, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// statusOf maps an error to the history status recorded for it.
func statusOf(err error) string {
	var (
		notFound    *NotFoundError
		unsupported *UnsupportedLanguageError
		loadErr     *GrammarLoadError
		fatal       *ParseFatalError
	)
	switch {
	case err == nil:
		return store.StatusOK
	case errors.As(err, &notFound):
		return store.StatusNotFound
	case errors.As(err, &unsupported):
		return store.StatusUnsupported
	case errors.As(err, &loadErr):
		return store.StatusGrammarLoad
	case errors.As(err, &fatal):
		return store.StatusParseFatal
	default:
		return store.StatusError
	}
}
