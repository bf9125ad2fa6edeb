package store

import "time"

// Run statuses. Anything other than StatusOK names the error kind that
// ended the run.
const (
	StatusOK          = "ok"
	StatusNotFound    = "not_found"
	StatusUnsupported = "unsupported_language"
	StatusGrammarLoad = "grammar_load"
	StatusParseFatal  = "parse_fatal"
	StatusError       = "error"
)

// Run is one recorded parse attempt.
type Run struct {
	ID         int64
	Path       string
	Grammar    string
	Hash       string
	Status     string
	Message    string
	NodeCount  int
	HasError   bool
	Duration   time.Duration
	RecordedAt time.Time
}

// RunFilter narrows a Runs query. Zero values match everything.
type RunFilter struct {
	Path    string
	Grammar string
	Status  string
	Limit   int
}

// GrammarStat aggregates recorded runs for one grammar.
type GrammarStat struct {
	Grammar      string
	Runs         int
	Failures     int
	WithErrors   int
	AvgNodeCount float64
	LastRecorded time.Time
}
