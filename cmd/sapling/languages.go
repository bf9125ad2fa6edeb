package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/sapling/internal/grammar"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List extension to grammar mappings",
	Long:  "List every extension sapling recognizes (including --map overrides) and the grammars compiled into this binary.",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runLanguages,
}

func runLanguages(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return outputError("languages", err)
	}
	defer sess.Close()

	entries := sess.engine.Registry().Entries()
	exts := make([]CLIExtension, 0, len(entries))
	for _, e := range entries {
		exts = append(exts, CLIExtension{Extension: e.Extension, Grammar: e.Grammar})
	}

	return outputResult(CLIResult{
		Command: "languages",
		Results: CLILanguages{
			Extensions: exts,
			Grammars:   grammar.Available(),
		},
		TotalCount: intPtr(len(exts)),
	})
}
