package grammar

import "fmt"

// UnsupportedLanguageError reports a file whose extension has no grammar
// mapping.
type UnsupportedLanguageError struct {
	Path      string
	Extension string
}

func (e *UnsupportedLanguageError) Error() string {
	ext := e.Extension
	if ext == "" {
		return fmt.Sprintf("unsupported language: %s has no file extension; "+
			"add a mapping to the extension registry (internal/grammar/registry.go) or pass --map <ext>=<grammar>", e.Path)
	}
	return fmt.Sprintf("unsupported language: no grammar registered for extension %q (%s); "+
		"add a mapping to the extension registry (internal/grammar/registry.go) or pass --map %s=<grammar>",
		"."+ext, e.Path, ext)
}

// LoadError reports a grammar identifier that is registered but could not
// be loaded.
type LoadError struct {
	Grammar string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading grammar %q: %v", e.Grammar, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
