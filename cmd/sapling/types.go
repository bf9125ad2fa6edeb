package main

import "github.com/jward/sapling"

// CLIResult is the top-level JSON envelope for every command except a
// single-file parse, which prints its Dump directly.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIParseResult is one file of a multi-file parse in JSON mode.
type CLIParseResult struct {
	File  string        `json:"file"`
	Dump  *sapling.Dump `json:"dump,omitempty"`
	Error string        `json:"error,omitempty"`
}

// CLIExtension is one registry mapping.
type CLIExtension struct {
	Extension string `json:"extension"`
	Grammar   string `json:"grammar"`
}

// CLILanguages is the languages command result.
type CLILanguages struct {
	Extensions []CLIExtension `json:"extensions"`
	Grammars   []string       `json:"grammars"`
}

// CLIRun is a JSON-friendly history row.
type CLIRun struct {
	ID         int64  `json:"id"`
	Path       string `json:"path"`
	Grammar    string `json:"grammar,omitempty"`
	Hash       string `json:"hash,omitempty"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	NodeCount  int    `json:"node_count"`
	HasError   bool   `json:"has_error"`
	DurationUS int64  `json:"duration_us"`
	RecordedAt string `json:"recorded_at"`
}

// CLIGrammarStat is a JSON-friendly per-grammar history aggregate.
type CLIGrammarStat struct {
	Grammar      string  `json:"grammar"`
	Runs         int     `json:"runs"`
	Failures     int     `json:"failures"`
	WithErrors   int     `json:"with_errors"`
	AvgNodeCount float64 `json:"avg_node_count"`
	LastRecorded string  `json:"last_recorded"`
}

// CLIScriptOutput is the run command result.
type CLIScriptOutput struct {
	Script string `json:"script"`
	File   string `json:"file"`
	Values []any  `json:"values"`
}
