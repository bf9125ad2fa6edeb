package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jward/sapling"
)

var queryCmd = &cobra.Command{
	Use:   "query <pattern> <file>",
	Short: "Run a tree-sitter query over a file",
	Long: `Compile a tree-sitter query pattern against the file's grammar and print every
capture in match order. Text predicates such as #eq? and #match? are applied.
All rows and columns are 0-based.`,
	Example: `  sapling query '(function_declaration name: (identifier) @name)' main.go`,
	Args:    usageArgs(cobra.ExactArgs(2)),
	RunE:    runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	pattern, path := args[0], args[1]

	sess, err := openSession()
	if err != nil {
		return outputError("query", err)
	}
	defer sess.Close()

	tree, err := sess.engine.ParseFile(context.Background(), path)
	if err != nil {
		return outputError("query", err)
	}
	defer tree.Close()

	captures, err := sapling.Query(tree, pattern)
	if err != nil {
		return outputError("query", err)
	}

	return outputResult(CLIResult{
		Command:    "query",
		Results:    captures,
		TotalCount: intPtr(len(captures)),
	})
}
