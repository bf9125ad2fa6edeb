package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/sapling"
	"github.com/jward/sapling/internal/grammar"
	"github.com/jward/sapling/internal/store"
)

var (
	flagDB     string
	flagFormat string
	flagJSON   bool
	flagMap    []string
	flagRecord bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// Process exit statuses. Automation relies on these staying distinct.
const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitNotFound    = 3
	exitUnsupported = 4
	exitGrammarLoad = 5
	exitParseFatal  = 6
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:           "sapling",
	Short:         "Parse source files with tree-sitter and dump their syntax trees",
	Long:          "Sapling picks a tree-sitter grammar from a file's extension, parses the file, and renders the syntax tree as an s-expression or as a bounded JSON summary.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run, so it prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "history database path (default: .sapling/history.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text|json")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "shorthand for --format json")
	rootCmd.PersistentFlags().StringArrayVar(&flagMap, "map", nil, "extra extension mapping ext=grammar (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&flagRecord, "record", false, "record parse outcomes to the history database")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// UsageError reports bad or missing command-line arguments.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// usageArgs wraps a cobra argument validator so its failures map to the
// usage exit status.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// exitCode maps an error returned from a command to the process exit
// status.
func exitCode(err error) int {
	var (
		usage       *UsageError
		notFound    *sapling.NotFoundError
		unsupported *sapling.UnsupportedLanguageError
		loadErr     *sapling.GrammarLoadError
		fatal       *sapling.ParseFatalError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		return exitUsage
	case errors.As(err, &notFound):
		return exitNotFound
	case errors.As(err, &unsupported):
		return exitUnsupported
	case errors.As(err, &loadErr):
		return exitGrammarLoad
	case errors.As(err, &fatal):
		return exitParseFatal
	case strings.HasPrefix(err.Error(), "unknown command"):
		// Cobra reports unknown subcommands without a typed error.
		return exitUsage
	default:
		return exitError
	}
}

// outputFormat is the effective format after applying --json.
func outputFormat() string {
	if flagJSON {
		return "json"
	}
	return flagFormat
}

// parseMappings turns --map values of the form ext=grammar into registry
// overrides. Mapping one extension to two grammars is a usage error.
func parseMappings(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		ext, id, ok := strings.Cut(v, "=")
		ext, id = strings.TrimSpace(ext), strings.TrimSpace(id)
		if !ok || ext == "" || id == "" {
			return nil, &UsageError{Err: fmt.Errorf("invalid --map %q: want ext=grammar", v)}
		}
		ext = grammar.NormalizeExt(ext)
		if prev, dup := out[ext]; dup && prev != id {
			return nil, &UsageError{Err: fmt.Errorf("conflicting --map for .%s: %q and %q", ext, prev, id)}
		}
		out[ext] = id
	}
	return out, nil
}

// session bundles the Engine a command runs against with the history store
// it records to, if any.
type session struct {
	engine  *sapling.Engine
	history *store.Store
}

func (s *session) Close() {
	if s.history != nil {
		s.history.Close()
	}
}

// openSession builds an Engine from the persistent flags. With --record the
// history database is created and migrated first.
func openSession(extra ...sapling.Option) (*session, error) {
	overrides, err := parseMappings(flagMap)
	if err != nil {
		return nil, err
	}

	s := &session{}
	opts := append([]sapling.Option{}, extra...)
	if len(overrides) > 0 {
		opts = append(opts, sapling.WithExtensions(overrides))
	}
	if flagRecord {
		st, err := openHistory(true)
		if err != nil {
			return nil, err
		}
		s.history = st
		opts = append(opts, sapling.WithHistory(st))
	}

	e, err := sapling.New(opts...)
	if err != nil {
		s.Close()
		return nil, &UsageError{Err: err}
	}
	s.engine = e
	return s, nil
}

// openHistory opens the history database from the --db flag path (or
// default). With create set, the database and its directory are created
// when missing.
func openHistory(create bool) (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))

	if create {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
		}
	} else if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("history database not found: %s (run a command with --record first)", dbPath)
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".sapling", "history.db")
}
