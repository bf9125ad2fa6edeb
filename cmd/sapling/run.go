package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/sapling/internal/runtime"
	"github.com/jward/sapling/scripts"
)

var runCmd = &cobra.Command{
	Use:   "run <script.risor|builtin> <file>",
	Short: "Run a Risor script over a parsed file",
	Long: `Parse the file, then run a Risor script with the tree exposed as globals:
tree, root, source, file_path and grammar, plus the host functions node_text,
node_child, node_range, query, summarize, parse_src, emit and log. Values the
script passes to emit are printed.

The script is either a path to a .risor file or the name of a built-in
script (outline, histogram).`,
	Example: `  sapling run outline main.go
  sapling run ./count_funcs.risor main.go`,
	Args: usageArgs(cobra.ExactArgs(2)),
	RunE: runRun,
}

// isScriptPath reports whether arg names a script on disk rather than a
// built-in.
func isScriptPath(arg string) bool {
	return strings.HasSuffix(arg, ".risor") || strings.ContainsRune(arg, filepath.Separator) || strings.Contains(arg, "/")
}

func runRun(cmd *cobra.Command, args []string) error {
	script, path := args[0], args[1]

	var (
		rtOpts     []runtime.RuntimeOption
		scriptPath string
	)
	if isScriptPath(script) {
		abs, err := filepath.Abs(script)
		if err != nil {
			return outputError("run", fmt.Errorf("resolving script path %q: %w", script, err))
		}
		rtOpts = append(rtOpts, runtime.WithScriptsDir(filepath.Dir(abs)))
		scriptPath = abs
	} else {
		names := scripts.Names()
		if !slices.Contains(names, script) {
			return outputError("run", &UsageError{Err: fmt.Errorf("unknown built-in script %q (available: %s)", script, strings.Join(names, ", "))})
		}
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(scripts.FS))
		scriptPath = runtime.BuiltinScriptPath(script)
	}

	sess, err := openSession()
	if err != nil {
		return outputError("run", err)
	}
	defer sess.Close()
	if sess.history != nil {
		rtOpts = append(rtOpts, runtime.WithHistory(sess.history))
	}

	ctx := context.Background()
	tree, err := sess.engine.ParseFile(ctx, path)
	if err != nil {
		return outputError("run", err)
	}
	defer tree.Close()

	rt := runtime.NewRuntime(sess.engine.Loader(), rtOpts...)
	globals := rt.TreeGlobals(tree)
	defer rt.Release(tree)

	values, err := rt.RunScript(ctx, scriptPath, globals)
	if err != nil {
		return outputError("run", err)
	}

	return outputResult(CLIResult{
		Command: "run",
		Results: CLIScriptOutput{
			Script: script,
			File:   tree.Path,
			Values: values,
		},
		TotalCount: intPtr(len(values)),
	})
}
