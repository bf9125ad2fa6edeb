package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jward/sapling"
)

// formatCapturesText formats query captures as aligned columns.
func formatCapturesText(w io.Writer, caps []sapling.Capture) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tCAPTURE\tTYPE\tSTART\tEND\tTEXT")
	for _, c := range caps {
		fmt.Fprintf(tw, "%d\t@%s\t%s\t%d:%d\t%d:%d\t%s\n",
			c.Match, c.Name, c.Type,
			c.Start.Row, c.Start.Column, c.End.Row, c.End.Column,
			firstLine(c.Text))
	}
	tw.Flush()
}

// formatLanguagesText formats the registry as aligned columns.
func formatLanguagesText(w io.Writer, langs CLILanguages) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXTENSION\tGRAMMAR")
	for _, e := range langs.Extensions {
		fmt.Fprintf(tw, ".%s\t%s\n", e.Extension, e.Grammar)
	}
	tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Compiled grammars: %s\n", strings.Join(langs.Grammars, ", "))
}

// formatRunsText formats history rows as aligned columns.
func formatRunsText(w io.Writer, runs []CLIRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECORDED\tSTATUS\tGRAMMAR\tNODES\tERRORS\tPATH")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%t\t%s\n",
			r.ID, r.RecordedAt, r.Status, r.Grammar, r.NodeCount, r.HasError, r.Path)
	}
	tw.Flush()
}

// formatGrammarStatsText formats per-grammar history aggregates.
func formatGrammarStatsText(w io.Writer, stats []CLIGrammarStat) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GRAMMAR\tRUNS\tFAILURES\tWITH_ERRORS\tAVG_NODES\tLAST")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f\t%s\n",
			s.Grammar, s.Runs, s.Failures, s.WithErrors, s.AvgNodeCount, s.LastRecorded)
	}
	tw.Flush()
}

// formatScriptOutputText prints one emitted value per line: strings as-is,
// everything else as compact JSON.
func formatScriptOutputText(w io.Writer, out CLIScriptOutput) {
	for _, v := range out.Values {
		if s, ok := v.(string); ok {
			fmt.Fprintln(w, s)
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			fmt.Fprintf(w, "%v\n", v)
			continue
		}
		fmt.Fprintln(w, string(data))
	}
}

// outputResultText dispatches a CLIResult to its text formatter.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []sapling.Capture:
		formatCapturesText(w, v)
	case CLILanguages:
		formatLanguagesText(w, v)
	case []CLIRun:
		formatRunsText(w, v)
	case []CLIGrammarStat:
		formatGrammarStatsText(w, v)
	case CLIScriptOutput:
		formatScriptOutputText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

var validFormats = []string{"text", "json"}

// validateFormat checks that format is one of the supported output formats.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return &UsageError{Err: fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))}
}
