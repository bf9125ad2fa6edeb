package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/sapling/internal/store"
)

var (
	flagHistoryGrammar string
	flagHistoryStatus  string
	flagHistoryLimit   int
	flagHistoryStats   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded parse outcomes",
	Long:  "Read back parse outcomes recorded with --record, newest first, or aggregate them per grammar with --stats.",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryGrammar, "grammar", "", "only runs parsed with this grammar")
	historyCmd.Flags().StringVar(&flagHistoryStatus, "status", "", "only runs with this status (ok, not_found, unsupported_language, grammar_load, parse_fatal)")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum number of runs (0 for all)")
	historyCmd.Flags().BoolVar(&flagHistoryStats, "stats", false, "aggregate per grammar instead of listing runs")
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := openHistory(false)
	if err != nil {
		return outputError("history", err)
	}
	defer s.Close()

	if flagHistoryStats {
		stats, err := s.GrammarStats()
		if err != nil {
			return outputError("history", err)
		}
		out := make([]CLIGrammarStat, 0, len(stats))
		for _, st := range stats {
			out = append(out, CLIGrammarStat{
				Grammar:      st.Grammar,
				Runs:         st.Runs,
				Failures:     st.Failures,
				WithErrors:   st.WithErrors,
				AvgNodeCount: st.AvgNodeCount,
				LastRecorded: st.LastRecorded.UTC().Format(time.RFC3339),
			})
		}
		return outputResult(CLIResult{Command: "history", Results: out, TotalCount: intPtr(len(out))})
	}

	runs, err := s.Runs(store.RunFilter{
		Grammar: flagHistoryGrammar,
		Status:  flagHistoryStatus,
		Limit:   flagHistoryLimit,
	})
	if err != nil {
		return outputError("history", err)
	}
	out := make([]CLIRun, 0, len(runs))
	for _, r := range runs {
		out = append(out, CLIRun{
			ID:         r.ID,
			Path:       r.Path,
			Grammar:    r.Grammar,
			Hash:       r.Hash,
			Status:     r.Status,
			Message:    r.Message,
			NodeCount:  r.NodeCount,
			HasError:   r.HasError,
			DurationUS: r.Duration.Microseconds(),
			RecordedAt: r.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	return outputResult(CLIResult{Command: "history", Results: out, TotalCount: intPtr(len(out))})
}
