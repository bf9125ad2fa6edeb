package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/sapling"
)

var (
	flagPretty    bool
	flagAnonymous bool
	flagMaxNodes  int
	flagJobs      int
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>...",
	Short: "Parse files and print their syntax trees",
	Long: `Parse each file with the grammar registered for its extension.

Text mode prints the s-expression form of the tree (or an indented tree with
positions under --pretty). JSON mode prints a breadth-first summary of at
most --max-nodes nodes. Syntax errors in the input are part of the tree, not
failures.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&flagPretty, "pretty", false, "indented tree with [row, col] ranges (text mode)")
	parseCmd.Flags().BoolVar(&flagAnonymous, "anonymous", false, "include anonymous nodes in --pretty output")
	parseCmd.Flags().IntVar(&flagMaxNodes, "max-nodes", sapling.DefaultMaxNodes, "cap on node summaries in JSON mode")
	parseCmd.Flags().IntVar(&flagJobs, "jobs", 0, "files parsed at once (default: GOMAXPROCS)")
}

func runParse(cmd *cobra.Command, args []string) error {
	if flagMaxNodes < 1 {
		return &UsageError{Err: fmt.Errorf("--max-nodes must be at least 1, got %d", flagMaxNodes)}
	}

	sess, err := openSession(sapling.WithJobs(flagJobs))
	if err != nil {
		return outputError("parse", err)
	}
	defer sess.Close()

	results := sess.engine.ParseFiles(context.Background(), args)
	defer func() {
		for _, r := range results {
			if r.Tree != nil {
				r.Tree.Close()
			}
		}
	}()

	if outputFormat() == "json" {
		return outputParseJSON(results)
	}
	return outputParseText(results)
}

// firstError returns the first failure in argument order.
func firstError(results []sapling.FileResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

func outputParseJSON(results []sapling.FileResult) error {
	if len(results) == 1 {
		r := results[0]
		if r.Err != nil {
			return outputError("parse", r.Err)
		}
		return writeJSON(sapling.Summarize(r.Tree, flagMaxNodes))
	}

	out := make([]CLIParseResult, 0, len(results))
	for _, r := range results {
		pr := CLIParseResult{File: r.Path}
		if r.Err != nil {
			pr.Error = r.Err.Error()
		} else {
			pr.Dump = sapling.Summarize(r.Tree, flagMaxNodes)
		}
		out = append(out, pr)
	}
	if err := writeJSON(CLIResult{Command: "parse", Results: out, TotalCount: intPtr(len(out))}); err != nil {
		return err
	}
	if err := firstError(results); err != nil {
		errorHandled = true
		return err
	}
	return nil
}

func outputParseText(results []sapling.FileResult) error {
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	multi := len(results) > 1
	for _, r := range results {
		if r.Err != nil {
			w.Flush()
			fmt.Fprintf(os.Stderr, "Error: %s\n", r.Err)
			continue
		}
		if multi {
			fmt.Fprintf(w, "==> %s <==\n", r.Path)
		}
		var err error
		if flagPretty {
			err = sapling.WritePretty(w, r.Tree, sapling.PrettyOptions{Anonymous: flagAnonymous})
		} else {
			err = sapling.WriteSExpr(w, r.Tree)
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", r.Path, err)
		}
	}

	if err := firstError(results); err != nil {
		errorHandled = true
		return err
	}
	return nil
}
